package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
)

type OrderRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *OrderRepo) With(db DB) *OrderRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *OrderRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert persists an order and its line items. Callers run it inside a
// transaction so a failed slot reservation leaves no order behind.
func (r *OrderRepo) Insert(ctx context.Context, o *domain.Order) error {
	const op = "postgres.OrderRepo.Insert"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO orders(
	        id, status, payment_status, customer_name, customer_phone,
	        delivery_mode, delivery_address, slot_id, pickup_time_range,
	        assigned_by, demand_units, total_cents, created_at)
	     VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, string(o.Status), string(o.PaymentStatus), o.CustomerName,
		o.CustomerPhone, o.DeliveryMode, o.DeliveryAddress, o.SlotID,
		o.PickupTimeRange, string(o.AssignedBy), o.DemandUnits, o.TotalCents,
		o.CreatedAt,
	); err != nil {
		return wrapDBErr(op, err)
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(
			`INSERT INTO order_items(order_id, product_id, name, quantity, unit_price_cents)
	         VALUES ($1, $2, $3, $4, $5)`,
			o.ID, it.ProductID, it.Name, it.Quantity, it.UnitPriceCents,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// GetWithItems retrieves an order and its line items.
//
// Returns:
//   - *domain.Order: the order when found.
//   - error: repository.ErrNotFound if the order does not exist.
func (r *OrderRepo) GetWithItems(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "postgres.OrderRepo.GetWithItems"

	db := r.handle()

	var o domain.Order
	var status, payment, assignedBy string

	err := db.QueryRow(ctx,
		`SELECT id, status, payment_status, customer_name, customer_phone,
	            delivery_mode, delivery_address, slot_id, pickup_time_range,
	            assigned_by, demand_units, total_cents, created_at
	       FROM orders WHERE id = $1`,
		id,
	).Scan(
		&o.ID, &status, &payment, &o.CustomerName, &o.CustomerPhone,
		&o.DeliveryMode, &o.DeliveryAddress, &o.SlotID, &o.PickupTimeRange,
		&assignedBy, &o.DemandUnits, &o.TotalCents, &o.CreatedAt,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(payment)
	o.AssignedBy = domain.AssignedBy(assignedBy)

	items, err := r.itemsForOrders(ctx, db, []uuid.UUID{o.ID})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	o.Items = items[o.ID]

	return &o, nil
}

// ListByIDs loads orders with their line items, preserving the order of
// ids. Missing ids are skipped rather than treated as errors: the
// reconciliation job has to tolerate dangling references.
func (r *OrderRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Order, error) {
	const op = "postgres.OrderRepo.ListByIDs"

	if len(ids) == 0 {
		return nil, nil
	}

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, status, payment_status, customer_name, customer_phone,
	            delivery_mode, delivery_address, slot_id, pickup_time_range,
	            assigned_by, demand_units, total_cents, created_at
	       FROM orders WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	byID := make(map[uuid.UUID]domain.Order, len(ids))
	for rows.Next() {
		var o domain.Order
		var status, payment, assignedBy string

		if err := rows.Scan(
			&o.ID, &status, &payment, &o.CustomerName, &o.CustomerPhone,
			&o.DeliveryMode, &o.DeliveryAddress, &o.SlotID, &o.PickupTimeRange,
			&assignedBy, &o.DemandUnits, &o.TotalCents, &o.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		o.Status = domain.OrderStatus(status)
		o.PaymentStatus = domain.PaymentStatus(payment)
		o.AssignedBy = domain.AssignedBy(assignedBy)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	items, err := r.itemsForOrders(ctx, db, ids)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out := make([]domain.Order, 0, len(byID))
	for _, id := range ids {
		o, ok := byID[id]
		if !ok {
			continue
		}
		o.Items = items[id]
		out = append(out, o)
	}

	return out, nil
}

// SetStatus updates an order's lifecycle status.
func (r *OrderRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	const op = "postgres.OrderRepo.SetStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (r *OrderRepo) itemsForOrders(
	ctx context.Context,
	db DB,
	ids []uuid.UUID,
) (map[uuid.UUID][]domain.LineItem, error) {
	rows, err := db.Query(ctx,
		`SELECT order_id, product_id, name, quantity, unit_price_cents
	       FROM order_items
	      WHERE order_id = ANY($1)
	      ORDER BY id`,
		ids,
	)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make(map[uuid.UUID][]domain.LineItem)
	for rows.Next() {
		var orderID uuid.UUID
		var it domain.LineItem

		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
