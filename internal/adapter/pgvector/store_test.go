package pgvector_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"mlsight/internal/adapter/pgvector"
)

const insertQuery = `INSERT INTO results (id, data, content, embedding) VALUES ($1, $2, $3, $4::vector) ON CONFLICT (id) DO NOTHING`

func TestStore_SaveRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := pgvector.NewStore(db)
	rec := pgvector.Record{
		ID:        "req-1",
		Data:      json.RawMessage(`{"mls_number":"W1234567"}`),
		Content:   "Client remarks: bright unit",
		Embedding: []float32{0.25, -0.5, 1},
	}

	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs("req-1", []byte(rec.Data), rec.Content, "[0.25,-0.5,1]").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.SaveRecord(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveRecordTwiceSecondIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := pgvector.NewStore(db)
	rec := pgvector.Record{ID: "req-1", Data: json.RawMessage(`{}`), Embedding: []float32{1}}

	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.SaveRecord(context.Background(), rec))
	assert.NoError(t, store.SaveRecord(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveRecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := pgvector.NewStore(db)

	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WillReturnError(errors.New("connection refused"))

	err = store.SaveRecord(context.Background(), pgvector.Record{ID: "req-1", Data: json.RawMessage(`{}`)})
	assert.Error(t, err)
}

func TestStore_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := pgvector.NewStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM results`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := store.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[]", pgvector.VectorLiteral(nil))
	assert.Equal(t, "[1]", pgvector.VectorLiteral([]float32{1}))
	assert.Equal(t, "[0.5,-0.25,3]", pgvector.VectorLiteral([]float32{0.5, -0.25, 3}))
}
