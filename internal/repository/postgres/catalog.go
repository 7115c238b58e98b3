package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepo is the read-only product lookup used to classify line
// items as capacity-consuming. Catalog management lives elsewhere.
type CatalogRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CatalogRepo) With(db DB) *CatalogRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CatalogRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// CategoriesByIDs returns the category for each known product ID.
// Unknown IDs are simply absent from the result.
func (r *CatalogRepo) CategoriesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	const op = "postgres.CatalogRepo.CategoriesByIDs"

	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, category FROM products WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make(map[uuid.UUID]string, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var category string

		if err := rows.Scan(&id, &category); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out[id] = category
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
