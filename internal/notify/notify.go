// Package notify fans order events out to side channels (webhook,
// redis pub/sub). Dispatch is best-effort: a failed or slow channel
// never affects the committed order.
package notify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
	"github.com/jfp99/pizza-falchi-sub001/internal/observability"
)

// Dispatcher delivers one order-created event over one channel.
type Dispatcher interface {
	Name() string
	SendOrderCreated(ctx context.Context, o *domain.Order) error
}

// FanOut runs all dispatchers concurrently and waits for them up to a
// fixed budget, then returns regardless so slow channels never block
// the customer-facing response.
type FanOut struct {
	dispatchers []Dispatcher
	wait        time.Duration
	logger      *slog.Logger
}

func NewFanOut(logger *slog.Logger, wait time.Duration, dispatchers ...Dispatcher) *FanOut {
	if wait <= 0 {
		wait = 1500 * time.Millisecond
	}
	return &FanOut{
		dispatchers: dispatchers,
		wait:        wait,
		logger:      logger,
	}
}

// OrderCreated triggers the fan-out. Errors are logged and swallowed.
func (f *FanOut) OrderCreated(ctx context.Context, o *domain.Order) {
	if len(f.dispatchers) == 0 {
		return
	}

	// detach from the request context: a cancelled request must not
	// abort notifications for an already committed order
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.wait+time.Second)

	g, gCtx := errgroup.WithContext(sendCtx)
	for _, d := range f.dispatchers {
		g.Go(func() error {
			if err := d.SendOrderCreated(gCtx, o); err != nil {
				observability.NotificationFailures.WithLabelValues(d.Name()).Inc()
				f.logger.Warn("notification dispatch failed",
					"channel", d.Name(),
					"order_id", o.ID,
					"error", err,
				)
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		cancel()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(f.wait):
		f.logger.Info("notification fan-out exceeded wait budget, continuing",
			"order_id", o.ID, "budget", f.wait)
	}
}
