package report

import (
	"html/template"
	"io"
)

// Column headings for the gender tallies.
const (
	HeadingRisk   = "Risk %"
	HeadingMale   = "Male"
	HeadingFemale = "Female"
	HeadingOther  = "Other"
)

var tableTmpl = template.Must(template.New("report").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Risk survey summary</title></head>
<body>
<table border=1 cellpadding=8>
<tr><th>{{.Headings.Risk}}</th><th>{{.Headings.Male}}</th><th>{{.Headings.Female}}</th><th>{{.Headings.Other}}</th>{{range .Report.Brackets}}<th>{{.Label}}</th>{{end}}</tr>
{{- range .Report.Rows}}
<tr><td>{{.RiskPercentage}}</td><td>{{.Male}}</td><td>{{.Female}}</td><td>{{.Other}}</td>{{range .Ages}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
</body>
</html>
`))

type headings struct {
	Risk, Male, Female, Other string
}

// WriteHTML renders r as an HTML table. All cell text is escaped.
func WriteHTML(w io.Writer, r Report) error {
	return tableTmpl.Execute(w, struct {
		Headings headings
		Report   Report
	}{
		Headings: headings{Risk: HeadingRisk, Male: HeadingMale, Female: HeadingFemale, Other: HeadingOther},
		Report:   r,
	})
}
