package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
)

type SlotRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SlotRepo) With(db DB) *SlotRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SlotRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const slotColumns = `id, slot_date::text, start_time, end_time, capacity,
	consumed_units, order_count, order_ids, status, available, created_at`

func scanSlot(row pgx.Row) (*domain.TimeSlot, error) {
	var s domain.TimeSlot
	var status string

	err := row.Scan(
		&s.ID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.Capacity,
		&s.ConsumedUnits,
		&s.OrderCount,
		&s.OrderIDs,
		&status,
		&s.Available,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Status = domain.SlotStatus(status)
	return &s, nil
}

// Get retrieves a slot by its ID.
//
// Returns:
//   - *domain.TimeSlot: the slot when found.
//   - error: repository.ErrNotFound if the slot does not exist.
func (r *SlotRepo) Get(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	const op = "postgres.SlotRepo.Get"

	db := r.handle()

	s, err := scanSlot(db.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return s, nil
}

// GetForUpdate loads a slot with a row lock. Must run inside a
// transaction: concurrent submissions targeting the same slot serialize
// on this read, which is what keeps reserve decisions race-free.
func (r *SlotRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	const op = "postgres.SlotRepo.GetForUpdate"

	db := r.handle()

	s, err := scanSlot(db.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return s, nil
}

// Save writes back the slot's counters and derived fields after a
// reserve/release/close mutation.
func (r *SlotRepo) Save(ctx context.Context, s *domain.TimeSlot) error {
	const op = "postgres.SlotRepo.Save"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE slots
	        SET consumed_units = $2,
	            order_count = $3,
	            order_ids = $4,
	            status = $5,
	            available = $6
	      WHERE id = $1`,
		s.ID, s.ConsumedUnits, s.OrderCount, s.OrderIDs, string(s.Status), s.Available,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, pgx.ErrNoRows)
	}

	return nil
}

// InsertWindows inserts the given windows, skipping (slot_date, start_time)
// pairs that already exist. Returns how many rows were actually created,
// which makes day generation idempotent.
func (r *SlotRepo) InsertWindows(ctx context.Context, slots []domain.TimeSlot) (int64, error) {
	const op = "postgres.SlotRepo.InsertWindows"

	db := r.handle()

	batch := &pgx.Batch{}
	for _, s := range slots {
		batch.Queue(
			`INSERT INTO slots(id, slot_date, start_time, end_time, capacity, status, available)
	         VALUES ($1, $2, $3, $4, $5, $6, $7)
	         ON CONFLICT (slot_date, start_time) DO NOTHING`,
			s.ID, s.Date, s.StartTime, s.EndTime, s.Capacity, string(s.Status), s.Available,
		)
	}

	br := db.SendBatch(ctx, batch)
	defer br.Close()

	var created int64
	for range slots {
		tag, err := br.Exec()
		if err != nil {
			return created, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		created += tag.RowsAffected()
	}

	return created, nil
}

// ListByDate lists a day's slots in window order.
func (r *SlotRepo) ListByDate(ctx context.Context, date string, onlyAvailable bool) ([]domain.TimeSlot, error) {
	const op = "postgres.SlotRepo.ListByDate"

	db := r.handle()

	var rows pgx.Rows
	var err error

	if onlyAvailable {
		rows, err = db.Query(ctx,
			`SELECT `+slotColumns+`
	           FROM slots
	          WHERE slot_date = $1 AND available
	          ORDER BY start_time`,
			date,
		)
	} else {
		rows, err = db.Query(ctx,
			`SELECT `+slotColumns+`
	           FROM slots
	          WHERE slot_date = $1
	          ORDER BY start_time`,
			date,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	return collectSlots(op, rows)
}

// SlotsByDateRange lists slots with slot_date in [from, to], for the
// reconciliation batch job.
func (r *SlotRepo) SlotsByDateRange(ctx context.Context, from, to string) ([]domain.TimeSlot, error) {
	const op = "postgres.SlotRepo.SlotsByDateRange"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+slotColumns+`
	       FROM slots
	      WHERE slot_date BETWEEN $1 AND $2
	      ORDER BY slot_date, start_time`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	return collectSlots(op, rows)
}

func collectSlots(op string, rows pgx.Rows) ([]domain.TimeSlot, error) {
	var out []domain.TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
