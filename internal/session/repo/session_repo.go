package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/database"
)

const notFound = "Session not found"

type SessionRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewSessionRepo(db *sqlx.DB, statementTimeout time.Duration) *SessionRepo {
	return &SessionRepo{db: db, timeout: statementTimeout}
}

// EnsureTable creates the sessions table if not exists (idempotent).
func (r *SessionRepo) EnsureTable(ctx context.Context) error {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	const ddl = `CREATE TABLE IF NOT EXISTS sessions (
  id VARCHAR(64) PRIMARY KEY,
  user_id BIGINT NOT NULL,
  expires_at TIMESTAMP NOT NULL,
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return database.MapError(err, "create sessions table", notFound)
	}
	return nil
}

func (r *SessionRepo) Save(ctx context.Context, s *entity.Session) error {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	q := r.db.Rebind(`INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, q, s.ID, s.UserID, s.ExpiresAt.UTC(), s.CreatedAt.UTC()); err != nil {
		return database.MapError(err, "insert session", notFound)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*entity.Session, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	var s entity.Session
	q := r.db.Rebind(`SELECT id, user_id, expires_at, created_at FROM sessions WHERE id=?`)
	if err := r.db.GetContext(ctx, &s, q, id); err != nil {
		return nil, database.MapError(err, "get session", notFound)
	}
	return &s, nil
}

// Delete removes one session. Deleting a missing session is not an error.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE id=?`), id); err != nil {
		return database.MapError(err, "delete session", notFound)
	}
	return nil
}

// DeleteByUser removes every session of userID except the one named by
// except (which may be empty).
func (r *SessionRepo) DeleteByUser(ctx context.Context, userID int64, except string) (int64, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE user_id=? AND id<>?`), userID, except)
	if err != nil {
		return 0, database.MapError(err, "delete user sessions", notFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, database.MapError(err, "delete user sessions", notFound)
	}
	return n, nil
}

// DeleteExpired purges sessions whose expiry is not after now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE expires_at<=?`), now.UTC())
	if err != nil {
		return 0, database.MapError(err, "delete expired sessions", notFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, database.MapError(err, "delete expired sessions", notFound)
	}
	return n, nil
}
