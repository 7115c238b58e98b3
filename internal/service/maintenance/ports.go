package maintenance

import (
	"context"

	"github.com/google/uuid"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
	"github.com/jfp99/pizza-falchi-sub001/internal/uow"
)

// Tx is the storage surface one slot reconciliation needs. The row lock
// on the slot keeps concurrent submissions out while the counter is
// being rebuilt.
type Tx interface {
	SlotForUpdate(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error)
	SaveSlot(ctx context.Context, s *domain.TimeSlot) error
	OrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Order, error)
}

// Runner opens the atomic scope for a single slot's reconciliation.
type Runner interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx, after func(uow.AfterCommit)) error) error
}

// Lister enumerates the slots a range reconciliation should visit.
type Lister interface {
	SlotsByDateRange(ctx context.Context, from, to string) ([]domain.TimeSlot, error)
}

// Classifier recomputes a cart's capacity demand from its items, so a
// drifted demand_units column is corrected along with the counter.
type Classifier interface {
	CapacityUnits(ctx context.Context, items []domain.LineItem) (int, error)
}
