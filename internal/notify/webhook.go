package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
)

// WebhookDispatcher POSTs order-created events to a configured URL.
type WebhookDispatcher struct {
	url    string
	client *http.Client
}

func NewWebhookDispatcher(url string) *WebhookDispatcher {
	return &WebhookDispatcher{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (d *WebhookDispatcher) Name() string { return "webhook" }

type webhookPayload struct {
	Type            string    `json:"type"`
	OrderID         string    `json:"order_id"`
	CustomerName    string    `json:"customer_name"`
	PickupTimeRange string    `json:"pickup_time_range,omitempty"`
	DemandUnits     int       `json:"demand_units"`
	TotalCents      int       `json:"total_cents"`
	CreatedAt       time.Time `json:"created_at"`
}

func (d *WebhookDispatcher) SendOrderCreated(ctx context.Context, o *domain.Order) error {
	const op = "notify.WebhookDispatcher.SendOrderCreated"

	body, err := json.Marshal(webhookPayload{
		Type:            "order_created",
		OrderID:         o.ID.String(),
		CustomerName:    o.CustomerName,
		PickupTimeRange: o.PickupTimeRange,
		DemandUnits:     o.DemandUnits,
		TotalCents:      o.TotalCents,
		CreatedAt:       o.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: webhook returned %d", op, resp.StatusCode)
	}

	return nil
}
