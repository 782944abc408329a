package newsletter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const reportTemplate = `{{ .IndexName }} - {{ .Quarter }} Rebalancing Report
Rebalance date: {{ .RebalanceDate.Format "January 2, 2006" }}

Index value: {{ printf "%.2f" .IndexValue }} ({{ signed .QuarterReturn }}% this quarter)

Top Holdings
------------
{{ range .Holdings }}{{ printf "%2d" .Rank }}. {{ .Ticker }} {{ pad .Ticker }}{{ .Name }} - {{ pct .Weight }} (space revenue {{ printf "%.0f" .SpaceRevenuePct }}%)
{{ end }}
{{- if or .Changes.Added .Changes.Removed }}
Composition Changes
-------------------
{{ range .Changes.Added }}+ {{ .Ticker }} {{ .Name }} joins at {{ pct .Weight }}
{{ end }}{{ range .Changes.Removed }}- {{ .Ticker }} {{ .Name }} leaves the index
{{ end }}{{ end }}`

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":    func(w float64) string { return fmt.Sprintf("%.2f%%", w*100) },
	"signed": formatSigned,
	"pad": func(ticker string) string {
		if n := 6 - len(ticker); n > 0 {
			return strings.Repeat(" ", n)
		}
		return ""
	},
}).Parse(reportTemplate))

// RenderReport produces the plain-text body of a quarterly report.
func RenderReport(data ReportData) (string, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// Subject builds the email subject line for a report.
func Subject(data ReportData) string {
	return fmt.Sprintf("%s %s Rebalancing: %d holdings, %s%% quarterly return",
		data.IndexName, data.Quarter, len(data.Holdings), formatSigned(data.QuarterReturn))
}

func formatSigned(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.1f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func formatQuarter(q, year int) string {
	return fmt.Sprintf("Q%d %d", q, year)
}
