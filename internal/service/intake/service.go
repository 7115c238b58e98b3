package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
	"github.com/jfp99/pizza-falchi-sub001/internal/observability"
	"github.com/jfp99/pizza-falchi-sub001/internal/uow"
)

type Service struct {
	runner     Runner
	classifier Classifier
	notifier   Notifier
	cache      DayInvalidator
	pubsub     Publisher
	limiter    RateLimiter
	logger     *slog.Logger
}

func New(
	runner Runner,
	classifier Classifier,
	notifier Notifier,
	cache DayInvalidator,
	pubsub Publisher,
	limiter RateLimiter,
	logger *slog.Logger,
) *Service {
	return &Service{
		runner:     runner,
		classifier: classifier,
		notifier:   notifier,
		cache:      cache,
		pubsub:     pubsub,
		limiter:    limiter,
		logger:     logger,
	}
}

type SubmitInput struct {
	CustomerName    string
	CustomerPhone   string
	DeliveryMode    string
	DeliveryAddress string
	Items           []domain.LineItem
	SlotID          *uuid.UUID
	AssignedBy      domain.AssignedBy
}

// Submit creates an order and, when a slot is requested, reserves its
// capacity in the same transaction. On any failure nothing survives:
// no order row and no slot mutation.
//
// Returns:
//   - *domain.Order: the committed order.
//   - error: *ValidationError for malformed input (checked before the
//     transaction opens).
//   - error: intake.ErrSlotNotFound for a stale slot reference.
//   - error: *domain.CapacityError when the slot cannot take the demand.
//   - error: intake.ErrRateLimited when the caller is over budget.
func (s *Service) Submit(ctx context.Context, in SubmitInput, rlKey string) (*domain.Order, error) {
	const op = "service.intake.Submit"

	if err := validate(&in); err != nil {
		observability.OrdersSubmitted.WithLabelValues("validation_rejected").Inc()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w, retry in %s", op, ErrRateLimited, retry)
		}
	}

	// demand is resolved once, before the transaction, and the same
	// figure is both reserved and persisted on the order
	demand, err := s.classifier.CapacityUnits(ctx, in.Items)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	order := &domain.Order{
		ID:              uuid.New(),
		Status:          domain.OrderPending,
		PaymentStatus:   domain.PaymentPending,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		DeliveryMode:    in.DeliveryMode,
		DeliveryAddress: in.DeliveryAddress,
		Items:           in.Items,
		SlotID:          in.SlotID,
		AssignedBy:      in.AssignedBy,
		DemandUnits:     demand,
		TotalCents:      totalCents(in.Items),
		CreatedAt:       time.Now(),
	}

	err = s.runner.Do(ctx, func(ctx context.Context, tx Tx, after func(uow.AfterCommit)) error {
		if in.SlotID != nil {
			slot, err := tx.SlotForUpdate(ctx, *in.SlotID)
			if err != nil {
				return fmt.Errorf("%s:%w", op, translateNotFound(err, ErrSlotNotFound))
			}

			if err := slot.Reserve(order.ID, demand); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}

			if err := tx.SaveSlot(ctx, slot); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}

			order.PickupTimeRange = slot.PickupRange()

			date := slot.Date
			after(func(ctx context.Context) {
				if s.cache != nil {
					_ = s.cache.InvalidateDay(ctx, date)
				}
				if s.pubsub != nil {
					_ = s.pubsub.PublishSlotsChanged(ctx, date)
				}
			})
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			if s.notifier != nil {
				s.notifier.OrderCreated(ctx, order)
			}
		})

		return nil
	})
	if err != nil {
		var capErr *domain.CapacityError
		if errors.As(err, &capErr) {
			observability.OrdersSubmitted.WithLabelValues("capacity_rejected").Inc()
			s.logger.Info("slot capacity rejection",
				"slot_id", in.SlotID,
				"requested", capErr.Requested,
				"consumed", capErr.ConsumedUnits,
				"capacity", capErr.Capacity,
			)
		} else {
			observability.OrdersSubmitted.WithLabelValues("failed").Inc()
		}
		return nil, err
	}

	observability.OrdersSubmitted.WithLabelValues("accepted").Inc()
	observability.SlotUnitsReserved.Add(float64(demand))

	return order, nil
}

// Cancel releases the order's reserved units (with the same amount it
// reserved) and marks it cancelled, atomically.
//
// Returns:
//   - error: intake.ErrOrderNotFound if the order does not exist.
//   - error: intake.ErrOrderNotAttached if the order references a slot
//     it is no longer attached to.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID) error {
	const op = "service.intake.Cancel"

	return s.runner.Do(ctx, func(ctx context.Context, tx Tx, after func(uow.AfterCommit)) error {
		order, err := tx.OrderWithItems(ctx, orderID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, translateNotFound(err, ErrOrderNotFound))
		}

		if order.Status == domain.OrderCancelled {
			return nil
		}

		if order.SlotID != nil {
			slot, err := tx.SlotForUpdate(ctx, *order.SlotID)
			if err != nil {
				return fmt.Errorf("%s:%w", op, translateNotFound(err, ErrSlotNotFound))
			}

			if err := slot.Release(order.ID, order.DemandUnits); err != nil {
				if errors.Is(err, domain.ErrOrderNotAttached) {
					return fmt.Errorf("%s:%w", op, ErrOrderNotAttached)
				}
				return fmt.Errorf("%s:%w", op, err)
			}

			if err := tx.SaveSlot(ctx, slot); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}

			date := slot.Date
			after(func(ctx context.Context) {
				if s.cache != nil {
					_ = s.cache.InvalidateDay(ctx, date)
				}
				if s.pubsub != nil {
					_ = s.pubsub.PublishSlotsChanged(ctx, date)
				}
			})
		}

		if err := tx.SetOrderStatus(ctx, orderID, domain.OrderCancelled); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
}

func validate(in *SubmitInput) *ValidationError {
	fields := map[string]string{}

	if in.CustomerName == "" {
		fields["customer_name"] = "required"
	}
	if in.CustomerPhone == "" {
		fields["customer_phone"] = "required"
	}

	switch in.DeliveryMode {
	case "":
		in.DeliveryMode = "pickup"
	case "pickup", "delivery":
	default:
		fields["delivery_mode"] = "must be pickup or delivery"
	}
	if in.DeliveryMode == "delivery" && in.DeliveryAddress == "" {
		fields["delivery_address"] = "required for delivery"
	}

	switch in.AssignedBy {
	case "":
		in.AssignedBy = domain.AssignedByCustomer
	case domain.AssignedByCustomer, domain.AssignedByCashier, domain.AssignedBySystem:
	default:
		fields["assigned_by"] = "must be customer, cashier or system"
	}

	if len(in.Items) == 0 {
		fields["items"] = "cart is empty"
	}
	for i, it := range in.Items {
		if it.Quantity <= 0 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "must be positive"
		}
		if it.ProductID == uuid.Nil {
			fields[fmt.Sprintf("items[%d].product_id", i)] = "required"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func totalCents(items []domain.LineItem) int {
	var total int
	for _, it := range items {
		total += it.Quantity * it.UnitPriceCents
	}
	return total
}
