package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
	rds "github.com/jfp99/pizza-falchi-sub001/internal/redis"
	"github.com/jfp99/pizza-falchi-sub001/internal/repository"
	postgresrepo "github.com/jfp99/pizza-falchi-sub001/internal/repository/postgres"
	redisrepo "github.com/jfp99/pizza-falchi-sub001/internal/repository/redis"
	"github.com/jfp99/pizza-falchi-sub001/internal/uow"
)

// Service manages the slot grid: generating a day's windows from the
// opening hours and closing/reopening individual slots.
type Service struct {
	store  *postgresrepo.Store
	uow    *uow.UoW
	cache  *redisrepo.Cache
	pubsub *rds.SlotsPubSub
	logger *slog.Logger

	windowMinutes int
}

func New(
	store *postgresrepo.Store,
	u *uow.UoW,
	cache *redisrepo.Cache,
	pubsub *rds.SlotsPubSub,
	windowMinutes int,
	logger *slog.Logger,
) *Service {
	if windowMinutes <= 0 {
		windowMinutes = domain.DefaultWindowMinutes
	}
	return &Service{
		store:         store,
		uow:           u,
		cache:         cache,
		pubsub:        pubsub,
		windowMinutes: windowMinutes,
		logger:        logger,
	}
}

type GenerateResult struct {
	Date      string `json:"date"`
	Requested int    `json:"requested"`
	Created   int    `json:"created"`
}

// GenerateDay materializes the day's windows from the schedule. Windows
// that already exist are left untouched, so the call is safe to repeat:
// re-running it after orders arrived never resets a counter.
func (s *Service) GenerateDay(ctx context.Context, date string, sched domain.DaySchedule) (GenerateResult, error) {
	const op = "service.schedule.GenerateDay"

	slots, err := domain.BuildDaySlots(date, sched, s.windowMinutes)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("%s:%w: %s", op, ErrInvalidSchedule, err)
	}

	res := GenerateResult{Date: date, Requested: len(slots)}
	if len(slots) == 0 {
		return res, nil
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		created, err := s.store.Slots().With(tx).InsertWindows(ctx, slots)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		res.Created = int(created)

		after(func(ctx context.Context) {
			s.invalidate(ctx, date)
		})

		return nil
	})
	if err != nil {
		return GenerateResult{}, err
	}

	s.logger.Info("slot grid generated",
		"date", date,
		"requested", res.Requested,
		"created", res.Created,
	)

	return res, nil
}

// CloseSlot takes a slot out of rotation. Attached orders stay attached.
func (s *Service) CloseSlot(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	const op = "service.schedule.CloseSlot"

	return s.mutateSlot(ctx, op, id, func(slot *domain.TimeSlot) error {
		slot.Close()
		return nil
	})
}

// ReopenSlot puts a closed slot back in rotation. Its status is derived
// again from the counters, so a slot closed while full reopens as full.
func (s *Service) ReopenSlot(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	const op = "service.schedule.ReopenSlot"

	return s.mutateSlot(ctx, op, id, func(slot *domain.TimeSlot) error {
		return slot.Reopen()
	})
}

func (s *Service) mutateSlot(
	ctx context.Context,
	op string,
	id uuid.UUID,
	mutate func(*domain.TimeSlot) error,
) (*domain.TimeSlot, error) {
	var out *domain.TimeSlot

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		slots := s.store.Slots().With(tx)

		slot, err := slots.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrSlotNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := mutate(slot); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := slots.Save(ctx, slot); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		out = slot

		date := slot.Date
		after(func(ctx context.Context) {
			s.invalidate(ctx, date)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Service) invalidate(ctx context.Context, date string) {
	if s.cache != nil {
		if err := s.cache.InvalidateDay(ctx, date); err != nil {
			s.logger.Warn("cache invalidation failed", "date", date, "error", err)
		}
	}
	if s.pubsub != nil {
		if err := s.pubsub.PublishSlotsChanged(ctx, date); err != nil {
			s.logger.Warn("slots-changed publish failed", "date", date, "error", err)
		}
	}
}
