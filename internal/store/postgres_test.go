package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a mock DB and PostgresBackend for testing
func newMockDBAndBackend(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresBackend) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	backend := NewPostgresBackend(db, nil)
	require.NotNil(t, backend)
	return db, mock, backend
}

func TestPostgresBackend_Get_Found(t *testing.T) {
	db, mock, backend := newMockDBAndBackend(t)
	defer db.Close()

	query := regexp.QuoteMeta(`SELECT value FROM storage.kv_entries WHERE key = $1;`)
	mock.ExpectQuery(query).
		WithArgs("t12:cart:main").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[{"id":"a","qty":2}]`))

	value, err := backend.Get(context.Background(), "t12:cart:main")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a","qty":2}]`, string(value))

	require.NoError(t, mock.ExpectationsWereMet(), "SQLmock expectations were not met")
}

func TestPostgresBackend_Get_NotFound(t *testing.T) {
	db, mock, backend := newMockDBAndBackend(t)
	defer db.Close()

	query := regexp.QuoteMeta(`SELECT value FROM storage.kv_entries WHERE key = $1;`)
	mock.ExpectQuery(query).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	value, err := backend.Get(context.Background(), "missing")
	assert.Nil(t, value)
	assert.True(t, errors.Is(err, ErrKeyNotFound), "Error should be ErrKeyNotFound")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_Get_TableMissing(t *testing.T) {
	db, mock, backend := newMockDBAndBackend(t)
	defer db.Close()

	query := regexp.QuoteMeta(`SELECT value FROM storage.kv_entries WHERE key = $1;`)
	mock.ExpectQuery(query).WithArgs("k").WillReturnError(&pq.Error{Code: "42P01"})

	_, err := backend.Get(context.Background(), "k")
	assert.True(t, errors.Is(err, ErrSchemaNotMigrated))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_Put_Upserts(t *testing.T) {
	db, mock, backend := newMockDBAndBackend(t)
	defer db.Close()

	query := regexp.QuoteMeta(`
		INSERT INTO storage.kv_entries (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP;
	`)
	mock.ExpectExec(query).WithArgs("t12:theme", `"dark"`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, backend.Put(context.Background(), "t12:theme", []byte(`"dark"`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_Put_Error(t *testing.T) {
	db, mock, backend := newMockDBAndBackend(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO storage.kv_entries`).WillReturnError(errors.New("connection reset"))

	err := backend.Put(context.Background(), "k", []byte(`1`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store: Put failed")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_Delete(t *testing.T) {
	db, mock, backend := newMockDBAndBackend(t)
	defer db.Close()

	query := regexp.QuoteMeta(`DELETE FROM storage.kv_entries WHERE key = $1;`)
	mock.ExpectExec(query).WithArgs("k").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, backend.Delete(context.Background(), "k"))
	assert.True(t, errors.Is(backend.Delete(context.Background(), "gone"), ErrKeyNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_Migrate(t *testing.T) {
	db, mock, backend := newMockDBAndBackend(t)
	defer db.Close()

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS storage;`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, backend.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_WithStoreFallsBackOnCorruptRow(t *testing.T) {
	db, mock, backend := newMockDBAndBackend(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT value FROM storage.kv_entries`).
		WithArgs("t12:cart:main").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`not json`))

	s := New(backend, nil)
	got := Load(context.Background(), s, "t12:cart:main", []record{})
	assert.Empty(t, got)

	require.NoError(t, mock.ExpectationsWereMet())
}
