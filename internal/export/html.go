package export

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"tokodash/backend/internal/domain"
)

// reportHTMLTmpl renders a printable report page. User-controlled cell
// values are auto-escaped by html/template to prevent XSS.
var reportHTMLTmpl = template.Must(template.New("report").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    h2, h3 { margin-bottom: 4px; }
    .meta { color: #666; font-size: 12px; }
  </style>
</head>
<body>
  <h2>{{.Title}}</h2>
  <p class="meta">{{.GeneratedAtLabel}}</p>

  <table>
    <thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
    <tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody>
  </table>

  {{if .SummaryPairs}}
  <h3>Summary</h3>
  <table>
    <tbody>{{range .SummaryPairs}}<tr><td>{{.Key}}</td><td style="text-align:right;">{{.Value}}</td></tr>{{end}}</tbody>
  </table>
  {{end}}
</body>
</html>
`))

type htmlReportView struct {
	Title            string
	GeneratedAtLabel string
	Headers          []string
	Rows             [][]string
	SummaryPairs     []htmlSummaryPair
}

type htmlSummaryPair struct {
	Key   string
	Value string
}

// HTMLRenderer writes the document as a self-contained printable page.
type HTMLRenderer struct{}

func (HTMLRenderer) Extension() string { return "html" }

func (HTMLRenderer) Render(doc domain.ReportDocument) ([]byte, error) {
	view := htmlReportView{
		Title:            doc.Title,
		GeneratedAtLabel: doc.GeneratedAtLabel,
		Headers:          doc.Headers,
		Rows:             doc.Rows,
	}
	keys := make([]string, 0, len(doc.Summary))
	for k := range doc.Summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		view.SummaryPairs = append(view.SummaryPairs, htmlSummaryPair{Key: k, Value: doc.Summary[k]})
	}

	var buf bytes.Buffer
	if err := reportHTMLTmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	return buf.Bytes(), nil
}
