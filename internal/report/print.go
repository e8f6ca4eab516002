package report

import (
	"html/template"
	"io"
	"time"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/entity"
)

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; font-size: 12px; margin: 1.5cm; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; }
th { background: #eee; }
@media print { @page { size: landscape; } }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Generated {{.Generated}} &middot; {{.Count}} employees</p>
<table>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type printData struct {
	Title     string
	Generated string
	Count     int
	Header    []string
	Rows      [][]string
}

// RenderPrint writes the printable report table. Values are HTML-escaped.
func RenderPrint(w io.Writer, rows []entity.Employee, cols []Column, now time.Time) error {
	data := printData{
		Title:     "Employee Report",
		Generated: now.Format(entity.DateLayout),
		Count:     len(rows),
		Header:    headers(cols),
		Rows:      records(rows, cols),
	}
	return printTemplate.Execute(w, data)
}
