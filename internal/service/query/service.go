package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
	rds "github.com/jfp99/pizza-falchi-sub001/internal/redis"
	"github.com/jfp99/pizza-falchi-sub001/internal/repository"
	postgresrepo "github.com/jfp99/pizza-falchi-sub001/internal/repository/postgres"
	redisrepo "github.com/jfp99/pizza-falchi-sub001/internal/repository/redis"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidDate   = errors.New("invalid date")
)

const daySlotsTTL = 15 * time.Second

// Service serves the read side: the day's slot grid for the pickup-time
// picker and single-order lookups.
type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	logger *slog.Logger
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// SlotsByDate returns the day's slots, cached briefly so bursts of
// picker refreshes don't all reach postgres. The cache is invalidated
// on every write, the TTL only bounds staleness across instances.
func (s *Service) SlotsByDate(ctx context.Context, date string, onlyAvailable bool) ([]domain.TimeSlot, error) {
	const op = "service.query.SlotsByDate"

	if !domain.ValidateDate(date) {
		return nil, fmt.Errorf("%s:%w: %q", op, ErrInvalidDate, date)
	}

	key := rds.KeyDaySlots(date)
	if onlyAvailable {
		key = rds.KeyDayAvailability(date)
	}

	if s.cache == nil {
		return s.store.Slots().ListByDate(ctx, date, onlyAvailable)
	}

	slots, err := redisrepo.GetOrSetJSON(ctx, s.cache, key, daySlotsTTL, func(ctx context.Context) ([]domain.TimeSlot, error) {
		return s.store.Slots().ListByDate(ctx, date, onlyAvailable)
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return slots, nil
}

// Order returns a single order with its line items.
//
// Returns:
//   - error: query.ErrOrderNotFound if the order does not exist.
func (s *Service) Order(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "service.query.Order"

	order, err := s.store.Orders().GetWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return order, nil
}
