package report

import (
	"html/template"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/integrity-cli/internal/model"
)

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Data Integrity Report</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
h1 { border-bottom: 2px solid #4CAF50; padding-bottom: .3rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: .4rem .8rem; text-align: left; }
th { background: #f5f5f5; }
.kpi { display: inline-block; margin-right: 2rem; }
.kpi .value { font-size: 1.8rem; font-weight: bold; }
.healthy { color: #4CAF50; }
.warning { color: #FF9800; }
.critical { color: #F44336; }
.nonzero { background: #FF7043; color: white; }
</style>
</head>
<body>
<h1>Data Integrity Report</h1>
<p>{{.TargetName}} vs {{.SourceName}} &mdash; {{.RunAt.Format "2006-01-02 15:04 MST"}}</p>

<div>
  <div class="kpi"><div class="value">{{printf "%.1f" .MatchRate}}%</div>Match rate</div>
  <div class="kpi"><div class="value">{{printf "%.1f" .QualityScore}}</div>Quality score ({{.Grade}})</div>
  <div class="kpi"><div class="value">{{.Matched}}</div>Matched</div>
  <div class="kpi"><div class="value">{{.TargetOnly}}</div>Only in {{.TargetName}}</div>
  <div class="kpi"><div class="value">{{.SourceOnly}}</div>Only in {{.SourceName}}</div>
</div>

{{if .Insights}}
<h2>Insights</h2>
<ul>
{{range .Insights}}<li class="{{.Severity}}">{{.Message}}</li>
{{end}}</ul>
{{end}}

<h2>Field Summary</h2>
<table>
<tr><th>Field</th><th>Matches</th><th>Mismatches</th><th>Match %</th></tr>
{{range .Fields}}<tr><td>{{.Field}}</td><td>{{.Matches}}</td><td>{{.Mismatches}}</td><td>{{printf "%.1f" .MatchPct}}%</td></tr>
{{end}}</table>

<h2>Quality Checks ({{.TargetName}})</h2>
<table>
<tr><th>Field</th><th>Nulls</th><th>Duplicates</th><th>Negatives</th><th>Empty Strings</th></tr>
{{range .Quality}}<tr>
<td>{{.Field}}</td>
<td{{if .Nulls}} class="nonzero"{{end}}>{{.Nulls}}</td>
<td{{if .Duplicates}} class="nonzero"{{end}}>{{.Duplicates}}</td>
<td{{if .Negatives}} class="nonzero"{{end}}>{{.Negatives}}</td>
<td{{if .Empties}} class="nonzero"{{end}}>{{.Empties}}</td>
</tr>
{{end}}</table>
</body>
</html>
`))

// RenderHTML writes the summary as a self-contained HTML report.
func RenderHTML(w io.Writer, s *model.Summary) error {
	return eris.Wrap(htmlTmpl.Execute(w, s), "report: render html")
}
