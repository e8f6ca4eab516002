package employee

import (
	"strings"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/entity"
)

// Search keeps rows whose name, employee number or duty station contains
// term, case-insensitively. A blank term returns rows unchanged.
func Search(rows []entity.Employee, term string) []entity.Employee {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	out := make([]entity.Employee, 0, len(rows))
	for _, e := range rows {
		if matches(e, term) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e entity.Employee, term string) bool {
	for _, field := range []string{
		e.Name,
		entity.StringOrEmpty(e.EmpNumber),
		entity.StringOrEmpty(e.DutyStation),
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
