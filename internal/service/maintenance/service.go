package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
	"github.com/jfp99/pizza-falchi-sub001/internal/observability"
	"github.com/jfp99/pizza-falchi-sub001/internal/repository"
	"github.com/jfp99/pizza-falchi-sub001/internal/uow"
)

var ErrSlotNotFound = errors.New("slot not found")

// Service rebuilds slot counters from the orders actually attached to
// them. The hot path only ever increments and decrements; this is the
// offline check that the increments still add up.
type Service struct {
	runner     Runner
	lister     Lister
	classifier Classifier
	logger     *slog.Logger
}

func New(runner Runner, lister Lister, classifier Classifier, logger *slog.Logger) *Service {
	return &Service{
		runner:     runner,
		lister:     lister,
		classifier: classifier,
		logger:     logger,
	}
}

// ReconcileSlot recomputes one slot's consumed units from its attached
// orders. Orders that no longer exist or were cancelled are detached.
// Returns a correction record when anything drifted, nil when the slot
// was already consistent.
func (s *Service) ReconcileSlot(ctx context.Context, id uuid.UUID) (*domain.SlotCorrection, error) {
	const op = "service.maintenance.ReconcileSlot"

	var correction *domain.SlotCorrection

	err := s.runner.Do(ctx, func(ctx context.Context, tx Tx, after func(uow.AfterCommit)) error {
		slot, err := tx.SlotForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrSlotNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		orders, err := tx.OrdersByIDs(ctx, slot.OrderIDs)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		kept := make([]uuid.UUID, 0, len(orders))
		var total int
		for i := range orders {
			o := &orders[i]
			if o.Status == domain.OrderCancelled {
				continue
			}
			units, err := s.classifier.CapacityUnits(ctx, o.Items)
			if err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
			kept = append(kept, o.ID)
			total += units
		}

		if total == slot.ConsumedUnits && len(kept) == len(slot.OrderIDs) {
			return nil
		}

		correction = &domain.SlotCorrection{
			SlotID:          slot.ID,
			Date:            slot.Date,
			StartTime:       slot.StartTime,
			StoredUnits:     slot.ConsumedUnits,
			RecomputedUnits: total,
		}

		slot.OrderIDs = kept
		slot.OrderCount = len(kept)
		slot.SetConsumed(total)

		if err := tx.SaveSlot(ctx, slot); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if correction != nil {
		observability.ReconciliationCorrections.Inc()
		s.logger.Warn("slot counter drift corrected",
			"slot_id", correction.SlotID,
			"date", correction.Date,
			"start", correction.StartTime,
			"stored", correction.StoredUnits,
			"recomputed", correction.RecomputedUnits,
		)
	}

	return correction, nil
}

// ReconcileRange visits every slot within [from, to] and reconciles
// each in its own transaction, so one bad slot never blocks the rest.
func (s *Service) ReconcileRange(ctx context.Context, from, to string) ([]domain.SlotCorrection, error) {
	const op = "service.maintenance.ReconcileRange"

	if !domain.ValidateDate(from) || !domain.ValidateDate(to) {
		return nil, fmt.Errorf("%s: invalid date range %q..%q", op, from, to)
	}

	slots, err := s.lister.SlotsByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var corrections []domain.SlotCorrection
	for i := range slots {
		c, err := s.ReconcileSlot(ctx, slots[i].ID)
		if err != nil {
			return corrections, err
		}
		if c != nil {
			corrections = append(corrections, *c)
		}
	}

	s.logger.Info("reconciliation pass finished",
		"from", from,
		"to", to,
		"slots", len(slots),
		"corrections", len(corrections),
	)

	return corrections, nil
}
