package intake

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
	"github.com/jfp99/pizza-falchi-sub001/internal/uow"
)

// Tx is the storage surface the coordinator needs inside one
// transaction. The postgres implementation binds every call to the same
// pgx transaction so the slot row lock covers the whole submission.
type Tx interface {
	SlotForUpdate(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error)
	SaveSlot(ctx context.Context, s *domain.TimeSlot) error
	InsertOrder(ctx context.Context, o *domain.Order) error
	OrderWithItems(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	SetOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

// Runner opens the atomic scope for steps that must commit or roll back
// together. After-commit hooks fire only on success.
type Runner interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx, after func(uow.AfterCommit)) error) error
}

// Classifier resolves how many capacity-consuming units a cart demands,
// by looking item products up in the catalog.
type Classifier interface {
	CapacityUnits(ctx context.Context, items []domain.LineItem) (int, error)
}

// Notifier is the post-commit, best-effort order event fan-out.
type Notifier interface {
	OrderCreated(ctx context.Context, o *domain.Order)
}

// DayInvalidator drops cached views of a day's slots.
type DayInvalidator interface {
	InvalidateDay(ctx context.Context, date string) error
}

// Publisher broadcasts slot changes to other instances.
type Publisher interface {
	PublishSlotsChanged(ctx context.Context, date string) error
}

// RateLimiter guards the submission endpoint.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, current int64, retryAfter time.Duration, err error)
}
