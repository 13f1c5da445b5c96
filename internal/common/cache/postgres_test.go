package cache

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func setupMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewPostgresStore(db)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func TestPostgresStore_Get(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(mock sqlmock.Sqlmock)
		wantFound bool
		wantBody  string
		wantErr   bool
	}{
		{
			name: "live entry",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT payload FROM api_cache").
					WithArgs("fp-1", fixedNow).
					WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`{"data":[]}`)))
			},
			wantFound: true,
			wantBody:  `{"data":[]}`,
		},
		{
			name: "missing or expired entry",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT payload FROM api_cache").
					WithArgs("fp-1", fixedNow).
					WillReturnRows(sqlmock.NewRows([]string{"payload"}))
			},
		},
		{
			name: "database failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT payload FROM api_cache").
					WithArgs("fp-1", fixedNow).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupMockStore(t)
			tt.setup(mock)

			body, found, err := s.Get(context.Background(), "fp-1")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantBody, string(body))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_PutUpsertsOnFingerprint(t *testing.T) {
	s, mock := setupMockStore(t)
	ttl := 30 * time.Minute

	mock.ExpectExec("INSERT INTO api_cache .* ON CONFLICT \\(fingerprint\\) DO UPDATE").
		WithArgs("fp-1", []byte("v1"), fixedNow.Add(ttl)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO api_cache .* ON CONFLICT \\(fingerprint\\) DO UPDATE").
		WithArgs("fp-1", []byte("v2"), fixedNow.Add(ttl)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Put(context.Background(), "fp-1", []byte("v1"), ttl))
	require.NoError(t, s.Put(context.Background(), "fp-1", []byte("v2"), ttl))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutNonPositiveTTLIsNoop(t *testing.T) {
	s, mock := setupMockStore(t)
	require.NoError(t, s.Put(context.Background(), "fp-1", []byte("v1"), 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutError(t *testing.T) {
	s, mock := setupMockStore(t)
	mock.ExpectExec("INSERT INTO api_cache").WillReturnError(sql.ErrConnDone)

	err := s.Put(context.Background(), "fp-1", []byte("v1"), time.Hour)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestPostgresStore_Sweep(t *testing.T) {
	s, mock := setupMockStore(t)
	mock.ExpectExec("DELETE FROM api_cache WHERE expires_at <=").
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	s, mock := setupMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS api_cache").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
