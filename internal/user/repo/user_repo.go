package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/apperror"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/database"
)

const notFound = "User not found"

const userColumns = `id, firstname, lastname, username, password_hash, password_algo, role, created_at, updated_at`

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewUserRepo(db *sqlx.DB, statementTimeout time.Duration) *UserRepo {
	return &UserRepo{db: db, timeout: statementTimeout}
}

// EnsureTable creates the users table if not exists (idempotent).
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	ddl := `CREATE TABLE IF NOT EXISTS users (
  id ` + database.AutoIncrementPK(r.db.DriverName()) + `,
  firstname VARCHAR(255) NOT NULL DEFAULT '',
  lastname VARCHAR(255) NOT NULL DEFAULT '',
  username VARCHAR(255) NOT NULL UNIQUE,
  password_hash VARCHAR(255) NOT NULL,
  password_algo VARCHAR(32) NOT NULL DEFAULT '',
  role VARCHAR(32) NOT NULL DEFAULT 'user',
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return database.MapError(err, "create users table", notFound)
	}
	return nil
}

// List returns the safe projection of every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]entity.SafeUser, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	rows := []entity.SafeUser{}
	q := `SELECT id, firstname, lastname, username, role, created_at, updated_at FROM users ORDER BY id`
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, database.MapError(err, "list users", notFound)
	}
	return rows, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	var u entity.User
	q := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id=?`)
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		return nil, database.MapError(err, "get user", notFound)
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	var u entity.User
	q := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE username=?`)
	if err := r.db.GetContext(ctx, &u, q, username); err != nil {
		return nil, database.MapError(err, "get user by username", notFound)
	}
	return &u, nil
}

// Count returns the number of users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, database.MapError(err, "count users", notFound)
	}
	return n, nil
}

// Create inserts a new user row. Returns new ID, which is also set on u.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) (int64, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	q := `INSERT INTO users (firstname, lastname, username, password_hash, password_algo, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	vals := []any{u.Firstname, u.Lastname, u.Username, u.PasswordHash, u.PasswordAlgo, u.Role, now, now}

	if database.SupportsReturning(r.db.DriverName()) {
		if err := r.db.QueryRowxContext(ctx, r.db.Rebind(q+` RETURNING id`), vals...).Scan(&u.ID); err != nil {
			return 0, database.MapError(err, "insert user", notFound)
		}
		return u.ID, nil
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), vals...)
	if err != nil {
		return 0, database.MapError(err, "insert user", notFound)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, database.MapError(err, "insert user", notFound)
	}
	u.ID = id
	return id, nil
}

// Update loads the row inside a transaction, lets mutate change it and
// writes the fixed column set back. An error from mutate rolls the
// transaction back and is returned unchanged.
func (r *UserRepo) Update(ctx context.Context, id int64, mutate func(*entity.User) error) (*entity.User, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, database.MapError(err, "begin user update", notFound)
	}
	defer tx.Rollback()

	var u entity.User
	sel := tx.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id=?` + database.ForUpdate(r.db.DriverName()))
	if err := tx.GetContext(ctx, &u, sel, id); err != nil {
		return nil, database.MapError(err, "load user for update", notFound)
	}
	if err := mutate(&u); err != nil {
		return nil, err
	}
	u.ID = id
	u.UpdatedAt = time.Now().UTC()

	q := tx.Rebind(`UPDATE users SET firstname=?, lastname=?, username=?, password_hash=?, password_algo=?, role=?, updated_at=? WHERE id=?`)
	res, err := tx.ExecContext(ctx, q, u.Firstname, u.Lastname, u.Username, u.PasswordHash, u.PasswordAlgo, u.Role, u.UpdatedAt, id)
	if err != nil {
		return nil, database.MapError(err, "update user", notFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, database.MapError(err, "update user", notFound)
	}
	if n == 0 {
		return nil, apperror.NotFound(notFound)
	}
	if err := tx.Commit(); err != nil {
		return nil, database.MapError(err, "commit user update", notFound)
	}
	return &u, nil
}

// Delete removes the row and returns the affected count.
func (r *UserRepo) Delete(ctx context.Context, id int64) (int64, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id=?`), id)
	if err != nil {
		return 0, database.MapError(err, "delete user", notFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, database.MapError(err, "delete user", notFound)
	}
	return n, nil
}
