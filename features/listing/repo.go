package listing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mlsight/internal/adapter/pgvector"
)

// maxLimit caps page sizes regardless of what the caller asks for.
const maxLimit = 20

type Repository interface {
	List(ctx context.Context, limit, offset int) ([]Listing, error)
	Get(ctx context.Context, id string) (*Listing, error)
	Search(ctx context.Context, q SearchQuery) ([]Listing, error)
	SemanticSearch(ctx context.Context, vector []float32, threshold float64, limit, offset int) ([]Listing, error)
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxLimit {
		return maxLimit
	}
	return limit
}

func (r *PostgresRepo) List(ctx context.Context, limit, offset int) ([]Listing, error) {
	query := `SELECT id, data, created_at FROM results ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows, false)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Listing, error) {
	l := &Listing{}
	var data []byte
	query := `SELECT id, data, created_at FROM results WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&l.ID, &data, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.Data = data
	return l, nil
}

func (r *PostgresRepo) Search(ctx context.Context, q SearchQuery) ([]Listing, error) {
	conditions := []string{}
	args := []any{}

	if q.Address != "" {
		args = append(args, "%"+q.Address+"%")
		conditions = append(conditions, fmt.Sprintf(`data->'listing_address'->>'street_address' ILIKE $%d`, len(args)))
	}
	if q.MLSNumber != "" {
		args = append(args, q.MLSNumber)
		conditions = append(conditions, fmt.Sprintf(`data->>'mls_number' = $%d`, len(args)))
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	args = append(args, clampLimit(q.Limit))
	limitPos := len(args)
	args = append(args, q.Offset)

	query := fmt.Sprintf(`SELECT id, data, created_at FROM results WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, limitPos, limitPos+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows, false)
}

func (r *PostgresRepo) SemanticSearch(ctx context.Context, vector []float32, threshold float64, limit, offset int) ([]Listing, error) {
	query := `SELECT id, data, created_at, 1.0 - (embedding <=> $1::vector) AS cossim
FROM results
WHERE 1.0 - (embedding <=> $1::vector) >= $2
ORDER BY cossim DESC LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, pgvector.VectorLiteral(vector), threshold, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows, true)
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&count)
	return count, err
}

func scanListings(rows *sql.Rows, withScore bool) ([]Listing, error) {
	var listings []Listing
	for rows.Next() {
		var l Listing
		var data []byte
		if withScore {
			if err := rows.Scan(&l.ID, &data, &l.CreatedAt, &l.Cossim); err != nil {
				return nil, err
			}
		} else {
			if err := rows.Scan(&l.ID, &data, &l.CreatedAt); err != nil {
				return nil, err
			}
		}
		l.Data = data
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
