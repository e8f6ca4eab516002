// Package report narrows, groups and exports the in-memory employee
// snapshot.
package report

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/apperror"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/entity"
)

// Unspecified labels rows with a blank station or district.
const Unspecified = "Unspecified"

// CriteriaKeys lists the filterable fields in display order.
var CriteriaKeys = []string{
	"grade", "vote", "duty_station", "cost_center",
	"district", "gender", "position_name", "qualification",
}

// aliases maps the camelCase names older clients send.
var aliases = map[string]string{
	"currentStation": "duty_station",
	"costCenter":     "cost_center",
	"positionName":   "position_name",
}

// Criteria maps a filter key to the exact value it must equal.
type Criteria map[string]string

// ParseCriteria reads criteria from query parameters. Keys outside
// CriteriaKeys are rejected; ignore names parameters that are not criteria.
func ParseCriteria(q url.Values, ignore ...string) (Criteria, error) {
	c := Criteria{}
	for key, vals := range q {
		if contains(ignore, key) {
			continue
		}
		if canon, ok := aliases[key]; ok {
			key = canon
		}
		if !contains(CriteriaKeys, key) {
			return nil, apperror.Validation("Unknown filter " + key)
		}
		if len(vals) > 0 {
			c[key] = vals[len(vals)-1]
		}
	}
	return c, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func field(e entity.Employee, key string) *string {
	switch key {
	case "grade":
		return e.Grade
	case "vote":
		return e.Vote
	case "duty_station":
		return e.DutyStation
	case "cost_center":
		return e.CostCenter
	case "district":
		return e.District
	case "gender":
		return e.Gender
	case "position_name":
		return e.PositionName
	case "qualification":
		return e.Qualification
	}
	return nil
}

// Search is the free-text filter over name, employee number and station.
func Search(rows []entity.Employee, term string) []entity.Employee {
	return employee.Search(rows, term)
}

// FilterByCriteria keeps rows matching every non-empty criterion exactly.
// Rows with the field absent never match a non-empty criterion.
func FilterByCriteria(rows []entity.Employee, c Criteria) []entity.Employee {
	out := make([]entity.Employee, 0, len(rows))
	for _, e := range rows {
		if matchAll(e, c) {
			out = append(out, e)
		}
	}
	return out
}

func matchAll(e entity.Employee, c Criteria) bool {
	for key, want := range c {
		if want == "" {
			continue
		}
		got := field(e, key)
		if got == nil || *got != want {
			return false
		}
	}
	return true
}

var (
	reMinistryAbbrev = regexp.MustCompile(`^min\.?\s+of\s+`)
	reMinistry       = regexp.MustCompile(`^ministry\s+of\s+`)
	reAccountant     = regexp.MustCompile(`^accountant\s+general\s+-\s+`)
	reWord           = regexp.MustCompile(`\b\w+`)
)

// NormalizeStation lower-cases a station name and folds the known spellings
// of the ministry and accountant general prefixes.
func NormalizeStation(name string) string {
	s := strings.ToLower(name)
	s = reMinistryAbbrev.ReplaceAllLiteralString(s, "ministry of ")
	s = reMinistry.ReplaceAllLiteralString(s, "ministry of ")
	s = reAccountant.ReplaceAllLiteralString(s, "accountant general - ")
	return strings.TrimSpace(s)
}

// Capitalize upper-cases the first letter of each word and lower-cases the
// rest.
func Capitalize(s string) string {
	return reWord.ReplaceAllStringFunc(s, func(w string) string {
		return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	})
}

// Group is one row of an aggregate table.
type Group struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func groupBy(rows []entity.Employee, key func(entity.Employee) string) []Group {
	index := map[string]int{}
	groups := []Group{}
	for _, e := range rows {
		k := key(e)
		if k == "" {
			k = Unspecified
		}
		if i, ok := index[k]; ok {
			groups[i].Count++
			continue
		}
		index[k] = len(groups)
		groups = append(groups, Group{Name: k, Count: 1})
	}
	// ties keep first-seen order
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
	return groups
}

// GroupByStation counts rows per normalized, capitalized duty station.
func GroupByStation(rows []entity.Employee) []Group {
	return groupBy(rows, func(e entity.Employee) string {
		return Capitalize(NormalizeStation(entity.StringOrEmpty(e.DutyStation)))
	})
}

// GroupByDistrict counts rows per capitalized district.
func GroupByDistrict(rows []entity.Employee) []Group {
	return groupBy(rows, func(e entity.Employee) string {
		return Capitalize(strings.TrimSpace(strings.ToLower(entity.StringOrEmpty(e.District))))
	})
}

// FilterGroups keeps groups whose name contains term, case-insensitively.
func FilterGroups(groups []Group, term string) []Group {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return groups
	}
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Name), term) {
			out = append(out, g)
		}
	}
	return out
}

// Options returns the sorted distinct non-empty values of every criterion
// key.
func Options(rows []entity.Employee) map[string][]string {
	out := make(map[string][]string, len(CriteriaKeys))
	for _, key := range CriteriaKeys {
		seen := map[string]struct{}{}
		vals := []string{}
		for _, e := range rows {
			v := field(e, key)
			if v == nil || *v == "" {
				continue
			}
			if _, dup := seen[*v]; dup {
				continue
			}
			seen[*v] = struct{}{}
			vals = append(vals, *v)
		}
		sort.Strings(vals)
		out[key] = vals
	}
	return out
}
