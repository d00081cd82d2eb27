package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/kacperjurak/eisplot/pkg/models"
	"github.com/kacperjurak/eisplot/pkg/parameters"
)

// WaitingMessage is shown in the latest panel before any record arrived.
const WaitingMessage = "Waiting for webhook data..."

// Table headings.
const (
	TitleLatest = "Latest Webhook"
	TitleTable  = "Parameter Table"
)

var panelsTmpl = template.Must(template.New("panels").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`<div class="eis-panels" style="width:100%;padding:0 16px;font-family:sans-serif">
<h2>{{.LatestTitle}}</h2>
{{- with .Latest}}
<table class="eis-latest">
<tr><th>ID</th><td>{{.ID}}</td></tr>
<tr><th>Time</th><td>{{.Time}}</td></tr>
<tr><th>Chi-Square</th><td>{{.ChiSquare}}</td></tr>
<tr><th>Circuit</th><td>{{.Circuit}}</td></tr>
<tr><th>Points</th><td>{{.Points}}</td></tr>
</table>
{{- else}}
<p class="eis-waiting">{{.Waiting}}</p>
{{- end}}
{{- if .Rows}}
<h2>{{.TableTitle}}</h2>
<table class="eis-parameters" border="1" cellpadding="4" style="border-collapse:collapse">
<thead><tr><th>Spectrum</th><th>Circuit</th>{{range .Headers}}<th>{{.}}</th>{{end}}<th>χ²</th><th>Elements</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.Spectrum}}</td><td>{{.Circuit}}</td>{{range .Cells}}<td>{{.}}</td>{{end}}<td>{{.ChiSquare}}</td><td>{{join .Elements ", "}}</td></tr>
{{- end}}
</tbody>
</table>
{{- end}}
</div>
`))

type latestView struct {
	ID        string
	Time      string
	ChiSquare string
	Circuit   string
	Points    int
}

type rowView struct {
	Spectrum  string
	Circuit   string
	Cells     []string
	ChiSquare string
	Elements  []string
}

type panelsView struct {
	LatestTitle string
	TableTitle  string
	Waiting     string
	Latest      *latestView
	Headers     []string
	Rows        []rowView
}

// renderPanels writes the latest-record summary and the parameter table.
// The latest record is the last one of records.
func renderPanels(w io.Writer, records []models.Record, evo parameters.Evolution) error {
	view := panelsView{
		LatestTitle: TitleLatest,
		TableTitle:  TitleTable,
		Waiting:     WaitingMessage,
		Headers:     make([]string, 0, len(evo.Columns)),
		Rows:        make([]rowView, 0, len(evo.Table)),
	}

	if n := len(records); n > 0 {
		last := records[n-1]
		view.Latest = &latestView{
			ID:        last.ID,
			Time:      last.Time,
			ChiSquare: formatChi(last.ChiSquare, "%.12f"),
			Circuit:   last.CircuitType,
			Points:    min(len(last.RealImpedance), len(last.ImaginaryImpedance)),
		}
	}

	for _, name := range evo.Columns {
		if unit := parameters.Unit(name); unit != "" {
			name = fmt.Sprintf("%s (%s)", name, unit)
		}
		view.Headers = append(view.Headers, name)
	}

	for _, row := range evo.Table {
		cells := make([]string, 0, len(evo.Columns))
		for _, name := range evo.Columns {
			v, ok := row.Values[name]
			if !ok {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, fmt.Sprintf("%.4e", v))
		}
		view.Rows = append(view.Rows, rowView{
			Spectrum:  fmt.Sprintf("%d", row.Iteration),
			Circuit:   row.CircuitType,
			Cells:     cells,
			ChiSquare: formatChi(row.ChiSquare, "%.4e"),
			Elements:  row.ElementNames,
		})
	}

	return panelsTmpl.Execute(w, view)
}

func formatChi(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

// inject places panels at the top of the page body, or in front of the
// page when it has no body tag.
func inject(page, panels []byte) []byte {
	open := []byte("<body>")
	i := bytes.Index(page, open)
	if i < 0 {
		return append(append([]byte{}, panels...), page...)
	}
	i += len(open)

	out := make([]byte, 0, len(page)+len(panels)+1)
	out = append(out, page[:i]...)
	out = append(out, '\n')
	out = append(out, panels...)
	out = append(out, page[i:]...)
	return out
}
