package database

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return &PostgresDB{DB: sqlx.NewDb(db, "postgres")}, mock
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "traveler_id", "guide_id", "destination_id", "date", "status", "special_requests", "created_at", "updated_at",
	})
}

func paymentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "booking_id", "amount", "currency", "payment_method", "status", "transaction_id",
		"access_code", "failure_reason", "created_at", "updated_at",
	})
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "full_name", "email", "password_hash", "role", "is_active", "created_at", "updated_at",
	})
}

func existsRow(v bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(v)
}
