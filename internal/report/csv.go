package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/entity"
)

// BOM is the UTF-8 byte-order mark written before every export.
const BOM = "\ufeff"

// Column is one exported field.
type Column struct {
	Header string
	Value  func(entity.Employee) string
}

func text(get func(entity.Employee) *string) func(entity.Employee) string {
	return func(e entity.Employee) string { return entity.StringOrEmpty(get(e)) }
}

// DefaultColumns is the layout of the employee report export.
var DefaultColumns = []Column{
	{"Name", func(e entity.Employee) string { return e.Name }},
	{"Employee Number", text(func(e entity.Employee) *string { return e.EmpNumber })},
	{"Grade", text(func(e entity.Employee) *string { return e.Grade })},
	{"Vote", text(func(e entity.Employee) *string { return e.Vote })},
	{"Current Station", text(func(e entity.Employee) *string { return e.DutyStation })},
	{"Cost Center", text(func(e entity.Employee) *string { return e.CostCenter })},
	{"District", text(func(e entity.Employee) *string { return e.District })},
	{"Gender", text(func(e entity.Employee) *string { return e.Gender })},
	{"Qualification", text(func(e entity.Employee) *string { return e.Qualification })},
}

// Escape quotes a field containing a comma, quote, CR or LF and doubles
// embedded quotes. Other fields are returned as is.
func Escape(field string) string {
	if !strings.ContainsAny(field, ",\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// WriteCSV writes BOM, header and records joined by "\n" with no trailing
// newline.
func WriteCSV(w io.Writer, header []string, records [][]string) error {
	var b strings.Builder
	b.WriteString(BOM)
	writeRecord(&b, header)
	for _, rec := range records {
		b.WriteByte('\n')
		writeRecord(&b, rec)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRecord(b *strings.Builder, rec []string) {
	for i, f := range rec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Escape(f))
	}
}

// ToCSV renders rows with the given columns.
func ToCSV(rows []entity.Employee, cols []Column) string {
	var b strings.Builder
	_ = WriteCSV(&b, headers(cols), records(rows, cols))
	return b.String()
}

func headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

func records(rows []entity.Employee, cols []Column) [][]string {
	out := make([][]string, 0, len(rows))
	for _, e := range rows {
		rec := make([]string, len(cols))
		for i, c := range cols {
			rec[i] = c.Value(e)
		}
		out = append(out, rec)
	}
	return out
}

// ParseCSV reads an export back into header and records. It accepts
// exactly what WriteCSV produces: records split on "\n" outside quotes,
// quoted fields with doubled quotes, and CR kept as data.
func ParseCSV(r io.Reader) (header []string, rows [][]string, err error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	s := strings.TrimPrefix(string(body), BOM)
	if s == "" {
		return nil, nil, nil
	}

	var (
		all    [][]string
		rec    []string
		field  strings.Builder
		quoted bool
		line   = 1
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quoted {
			switch {
			case c == '"' && i+1 < len(s) && s[i+1] == '"':
				field.WriteByte('"')
				i++
			case c == '"':
				quoted = false
				if i+1 < len(s) && s[i+1] != ',' && s[i+1] != '\n' {
					return nil, nil, fmt.Errorf("csv line %d: unexpected %q after closing quote", line, s[i+1])
				}
			default:
				if c == '\n' {
					line++
				}
				field.WriteByte(c)
			}
			continue
		}
		switch c {
		case '"':
			if field.Len() > 0 {
				return nil, nil, fmt.Errorf("csv line %d: bare quote in unquoted field", line)
			}
			quoted = true
		case ',':
			rec = append(rec, field.String())
			field.Reset()
		case '\n':
			all = append(all, append(rec, field.String()))
			rec = nil
			field.Reset()
			line++
		default:
			field.WriteByte(c)
		}
	}
	if quoted {
		return nil, nil, fmt.Errorf("csv line %d: unterminated quoted field", line)
	}
	all = append(all, append(rec, field.String()))
	return all[0], all[1:], nil
}
