package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/apperror"
)

// MapError translates driver errors into the application taxonomy.
// notFound is the message used when the statement matched no row; op names
// the operation for server-side logs.
func MapError(err error, op, notFound string) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperror.NotFound(notFound)
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.Wrap(apperror.CodeTransient, "The data store did not respond in time", err)
	case IsUniqueViolation(err):
		return apperror.Wrap(apperror.CodeConflict, "A record with the same unique value already exists", err)
	}
	return apperror.Wrap(apperror.CodeInternal, op, err)
}

// IsUniqueViolation reports whether err is a unique-constraint failure on
// any of the supported drivers.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
