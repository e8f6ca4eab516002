package employee

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/apperror"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/entity"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/repo"
)

const msgNotFound = "Employee not found"

// EmployeeService orchestrates employee reads and writes and attaches the
// derived display fields.
type EmployeeService struct {
	repo   *repo.EmployeeRepo
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewEmployeeService(r *repo.EmployeeRepo, logger *zap.SugaredLogger) *EmployeeService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &EmployeeService{repo: r, logger: logger, now: time.Now}
}

// WithClock replaces the wall clock used for derived fields.
func (s *EmployeeService) WithClock(now func() time.Time) *EmployeeService {
	s.now = now
	return s
}

// Rows returns the raw snapshot the report engine works on.
func (s *EmployeeService) Rows(ctx context.Context) ([]entity.Employee, error) {
	return s.repo.List(ctx)
}

// List returns every employee, narrowed by search when it is non-blank.
func (s *EmployeeService) List(ctx context.Context, search string) ([]View, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewViews(Search(rows, search), s.now()), nil
}

func (s *EmployeeService) Get(ctx context.Context, id int64) (*View, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := NewView(*e, s.now())
	return &v, nil
}

func (s *EmployeeService) Create(ctx context.Context, in entity.EmployeeInput) (*View, error) {
	if err := in.Validate(true); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	e := &entity.Employee{}
	in.Apply(e)
	if _, err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Infow("employee created", "id", e.ID)
	v := NewView(*e, s.now())
	return &v, nil
}

// Update merges in into the stored row. Zero affected rows is reported as
// not found.
func (s *EmployeeService) Update(ctx context.Context, id int64, in entity.EmployeeInput) (*View, error) {
	if err := in.Validate(false); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	n, e, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperror.NotFound(msgNotFound)
	}
	s.logger.Infow("employee updated", "id", id)
	v := NewView(*e, s.now())
	return &v, nil
}

func (s *EmployeeService) Delete(ctx context.Context, id int64) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound(msgNotFound)
	}
	s.logger.Infow("employee deleted", "id", id)
	return nil
}
