package repo

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/entity"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/database"
)

const notFound = "Employee not found"

// writableColumns is the allow-list for INSERT and UPDATE. args returns
// values in the same order.
var writableColumns = []string{
	"established_posts", "filled_posts", "vacant_posts",
	"grade", "position_name",
	"name", "emp_number", "gender", "qualification", "date_of_birth",
	"date_of_first_appointment", "date_of_promotion", "date_reported_to_station",
	"previous_station", "duty_station", "district", "cost_center", "vote",
}

func args(e *entity.Employee) []any {
	return []any{
		e.EstablishedPosts, e.FilledPosts, e.VacantPosts,
		e.Grade, e.PositionName,
		e.Name, e.EmpNumber, e.Gender, e.Qualification, e.DateOfBirth,
		e.DateOfFirstAppointment, e.DateOfPromotion, e.DateReportedToStation,
		e.PreviousStation, e.DutyStation, e.District, e.CostCenter, e.Vote,
	}
}

var selectColumns = "id, " + strings.Join(writableColumns, ", ") + ", created_at, updated_at"

// EmployeeRepo provides data access for the employees table using sqlx.
type EmployeeRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewEmployeeRepo(db *sqlx.DB, statementTimeout time.Duration) *EmployeeRepo {
	return &EmployeeRepo{db: db, timeout: statementTimeout}
}

// EnsureTable creates the employees table if not exists (idempotent).
func (r *EmployeeRepo) EnsureTable(ctx context.Context) error {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	ddl := `CREATE TABLE IF NOT EXISTS employees (
  id ` + database.AutoIncrementPK(r.db.DriverName()) + `,
  established_posts INT,
  filled_posts INT,
  vacant_posts INT,
  grade VARCHAR(255),
  position_name VARCHAR(255),
  name VARCHAR(255) NOT NULL,
  emp_number VARCHAR(255),
  gender VARCHAR(32),
  qualification VARCHAR(255),
  date_of_birth DATE,
  date_of_first_appointment DATE,
  date_of_promotion DATE,
  date_reported_to_station DATE,
  previous_station VARCHAR(255),
  duty_station VARCHAR(255),
  district VARCHAR(255),
  cost_center VARCHAR(255),
  vote VARCHAR(255),
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return database.MapError(err, "create employees table", notFound)
	}
	return nil
}

// List returns every employee ordered by id. An empty table yields an empty,
// non-nil slice.
func (r *EmployeeRepo) List(ctx context.Context) ([]entity.Employee, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	rows := []entity.Employee{}
	q := `SELECT ` + selectColumns + ` FROM employees ORDER BY id`
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, database.MapError(err, "list employees", notFound)
	}
	return rows, nil
}

// GetByID fetches one employee or returns a not_found error.
func (r *EmployeeRepo) GetByID(ctx context.Context, id int64) (*entity.Employee, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	var row entity.Employee
	q := r.db.Rebind(`SELECT ` + selectColumns + ` FROM employees WHERE id=?`)
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, database.MapError(err, "get employee", notFound)
	}
	return &row, nil
}

// Create inserts e and returns the generated id, which is also set on e.
func (r *EmployeeRepo) Create(ctx context.Context, e *entity.Employee) (int64, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	cols := append(append([]string{}, writableColumns...), "created_at", "updated_at")
	vals := append(args(e), now, now)
	q := `INSERT INTO employees (` + strings.Join(cols, ", ") + `) VALUES (` + placeholders(len(cols)) + `)`

	if database.SupportsReturning(r.db.DriverName()) {
		if err := r.db.QueryRowxContext(ctx, r.db.Rebind(q+` RETURNING id`), vals...).Scan(&e.ID); err != nil {
			return 0, database.MapError(err, "insert employee", notFound)
		}
		return e.ID, nil
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), vals...)
	if err != nil {
		return 0, database.MapError(err, "insert employee", notFound)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, database.MapError(err, "insert employee", notFound)
	}
	e.ID = id
	return id, nil
}

// Update merges in into the stored row inside one transaction and writes the
// allow-listed columns back. It returns the affected row count and the
// merged row; a missing id is a not_found error.
func (r *EmployeeRepo) Update(ctx context.Context, id int64, in entity.EmployeeInput) (int64, *entity.Employee, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, nil, database.MapError(err, "begin employee update", notFound)
	}
	defer tx.Rollback()

	var current entity.Employee
	sel := tx.Rebind(`SELECT ` + selectColumns + ` FROM employees WHERE id=?` + database.ForUpdate(r.db.DriverName()))
	if err := tx.GetContext(ctx, &current, sel, id); err != nil {
		return 0, nil, database.MapError(err, "load employee for update", notFound)
	}

	in.Apply(&current)
	current.UpdatedAt = time.Now().UTC()

	sets := make([]string, 0, len(writableColumns)+1)
	for _, c := range writableColumns {
		sets = append(sets, c+"=?")
	}
	sets = append(sets, "updated_at=?")
	vals := append(args(&current), current.UpdatedAt, id)
	q := tx.Rebind(`UPDATE employees SET ` + strings.Join(sets, ", ") + ` WHERE id=?`)

	res, err := tx.ExecContext(ctx, q, vals...)
	if err != nil {
		return 0, nil, database.MapError(err, "update employee", notFound)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil, database.MapError(err, "update employee", notFound)
	}
	if err := tx.Commit(); err != nil {
		return 0, nil, database.MapError(err, "commit employee update", notFound)
	}
	return affected, &current, nil
}

// Delete removes the row and returns the affected count.
func (r *EmployeeRepo) Delete(ctx context.Context, id int64) (int64, error) {
	ctx, cancel := database.Scope(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM employees WHERE id=?`), id)
	if err != nil {
		return 0, database.MapError(err, "delete employee", notFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, database.MapError(err, "delete employee", notFound)
	}
	return n, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
