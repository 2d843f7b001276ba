package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one persisted extraction result, keyed by the request id the
// document-AI service assigned.
type Record struct {
	ID        string
	Data      json.RawMessage
	Content   string
	Embedding []float32
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveRecord writes one result row. The insert is idempotent: the request id
// is the primary key and a conflicting insert is a no-op, so redelivered
// messages cannot create duplicate rows.
func (s *Store) SaveRecord(ctx context.Context, rec Record) error {
	query := `INSERT INTO results (id, data, content, embedding) VALUES ($1, $2, $3, $4::vector) ON CONFLICT (id) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query, rec.ID, []byte(rec.Data), rec.Content, VectorLiteral(rec.Embedding))
	return err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&count)
	return count, err
}

// VectorLiteral encodes a vector in pgvector's input syntax, e.g. "[1,2,3]".
func VectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
