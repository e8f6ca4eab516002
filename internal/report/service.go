package report

import (
	"context"
	"time"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/entity"
)

// RowSource supplies the full employee snapshot.
type RowSource interface {
	Rows(ctx context.Context) ([]entity.Employee, error)
}

type ReportService struct {
	src RowSource
	now func() time.Time
}

func NewReportService(src RowSource) *ReportService {
	return &ReportService{src: src, now: time.Now}
}

func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// Employees applies the criteria and then the free-text search.
func (s *ReportService) Employees(ctx context.Context, c Criteria, search string) ([]entity.Employee, error) {
	rows, err := s.src.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return Search(FilterByCriteria(rows, c), search), nil
}

func (s *ReportService) Stations(ctx context.Context, q string) ([]Group, error) {
	rows, err := s.src.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return FilterGroups(GroupByStation(rows), q), nil
}

func (s *ReportService) Districts(ctx context.Context, q string) ([]Group, error) {
	rows, err := s.src.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return FilterGroups(GroupByDistrict(rows), q), nil
}

func (s *ReportService) Options(ctx context.Context) (map[string][]string, error) {
	rows, err := s.src.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return Options(rows), nil
}
