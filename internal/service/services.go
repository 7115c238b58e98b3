package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jfp99/pizza-falchi-sub001/internal/config"
	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
	rds "github.com/jfp99/pizza-falchi-sub001/internal/redis"
	postgresrepo "github.com/jfp99/pizza-falchi-sub001/internal/repository/postgres"
	redisrepo "github.com/jfp99/pizza-falchi-sub001/internal/repository/redis"
	"github.com/jfp99/pizza-falchi-sub001/internal/service/intake"
	"github.com/jfp99/pizza-falchi-sub001/internal/service/maintenance"
	"github.com/jfp99/pizza-falchi-sub001/internal/service/query"
	"github.com/jfp99/pizza-falchi-sub001/internal/service/schedule"
	"github.com/jfp99/pizza-falchi-sub001/internal/uow"
)

type Services struct {
	Intake      *intake.Service
	Schedule    *schedule.Service
	Query       *query.Service
	Maintenance *maintenance.Service
}

func NewServices(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *rds.SlotsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	notifier intake.Notifier,
	cfg *config.Config,
	logger *slog.Logger,
) *Services {
	u := uow.NewUoW(store)

	classifier := &catalogClassifier{
		catalog:  store.Catalog(),
		category: cfg.Slots.CapacityCategory,
	}

	var rl intake.RateLimiter
	if limiter != nil {
		rl = limiter
	}

	return &Services{
		Intake: intake.New(
			&intakeRunner{store: store, uow: u},
			classifier,
			notifier,
			cache,
			pubsub,
			rl,
			logger,
		),
		Schedule: schedule.New(store, u, cache, pubsub, cfg.Slots.WindowMinutes, logger),
		Query:    query.New(store, cache, logger),
		Maintenance: maintenance.New(
			&maintenanceRunner{store: store, uow: u},
			store.Slots(),
			classifier,
			logger,
		),
	}
}

// txAttempts bounds retries on serialization and deadlock failures.
const txAttempts = 3

// intakeRunner adapts the unit of work to the coordinator's port,
// binding every repository call to the same pgx transaction and
// retrying the whole function on serialization failures. Retrying is
// safe: order IDs are minted before the transaction, and the reserve
// re-reads the locked slot row on every attempt.
type intakeRunner struct {
	store *postgresrepo.Store
	uow   *uow.UoW
}

func (r *intakeRunner) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx intake.Tx, after func(uow.AfterCommit)) error,
) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = r.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
			return fn(ctx, &pgTx{store: r.store, tx: tx}, after)
		})
		if err == nil || !postgresrepo.IsRetryable(err) {
			return err
		}
	}
	return err
}

type maintenanceRunner struct {
	store *postgresrepo.Store
	uow   *uow.UoW
}

func (r *maintenanceRunner) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx maintenance.Tx, after func(uow.AfterCommit)) error,
) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = r.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
			return fn(ctx, &pgTx{store: r.store, tx: tx}, after)
		})
		if err == nil || !postgresrepo.IsRetryable(err) {
			return err
		}
	}
	return err
}

// pgTx satisfies both service transaction ports on top of the
// repositories bound to one transaction.
type pgTx struct {
	store *postgresrepo.Store
	tx    postgresrepo.DB
}

func (t *pgTx) SlotForUpdate(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	return t.store.Slots().With(t.tx).GetForUpdate(ctx, id)
}

func (t *pgTx) SaveSlot(ctx context.Context, s *domain.TimeSlot) error {
	return t.store.Slots().With(t.tx).Save(ctx, s)
}

func (t *pgTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	return t.store.Orders().With(t.tx).Insert(ctx, o)
}

func (t *pgTx) OrderWithItems(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return t.store.Orders().With(t.tx).GetWithItems(ctx, id)
}

func (t *pgTx) SetOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	return t.store.Orders().With(t.tx).SetStatus(ctx, id, status)
}

func (t *pgTx) OrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Order, error) {
	return t.store.Orders().With(t.tx).ListByIDs(ctx, ids)
}

// catalogClassifier resolves capacity demand from the product catalog:
// items in the capacity category consume their quantity in units,
// everything else rides along for free. Unknown products count too, so
// a missing catalog row can never under-reserve.
type catalogClassifier struct {
	catalog  *postgresrepo.CatalogRepo
	category string
}

func (c *catalogClassifier) CapacityUnits(ctx context.Context, items []domain.LineItem) (int, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	categories, err := c.catalog.CategoriesByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	var units int
	for _, it := range items {
		category, known := categories[it.ProductID]
		if !known || category == c.category {
			units += it.Quantity
		}
	}

	return units, nil
}
