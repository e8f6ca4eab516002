// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/database"
)

// SQLite returns an in-memory SQLite database closed at test cleanup. The
// pool is pinned to one connection so every statement sees the same memory
// database.
func SQLite(t testing.TB) *sqlx.DB {
	t.Helper()
	sqlDB, err := database.Connect(database.Config{
		Driver:   database.DriverSQLite,
		DSN:      ":memory:",
		MaxConns: 1,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	db := sqlx.NewDb(sqlDB, database.DriverSQLite)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
