package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
	redisx "github.com/jfp99/pizza-falchi-sub001/internal/redis"
)

// RedisPublisher announces new orders on a pub/sub channel, for cashier
// dashboards and other in-house listeners.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		rdb:     rdb,
		channel: redisx.ChannelOrderCreated(),
	}
}

func (p *RedisPublisher) Name() string { return "redis" }

type orderCreatedMsg struct {
	Type            string `json:"type"`
	OrderID         string `json:"order_id"`
	SlotID          string `json:"slot_id,omitempty"`
	PickupTimeRange string `json:"pickup_time_range,omitempty"`
	DemandUnits     int    `json:"demand_units"`
	TsUnix          int64  `json:"ts_unix"`
}

func (p *RedisPublisher) SendOrderCreated(ctx context.Context, o *domain.Order) error {
	msg := orderCreatedMsg{
		Type:            "order_created",
		OrderID:         o.ID.String(),
		PickupTimeRange: o.PickupTimeRange,
		DemandUnits:     o.DemandUnits,
		TsUnix:          time.Now().Unix(),
	}
	if o.SlotID != nil {
		msg.SlotID = o.SlotID.String()
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}
