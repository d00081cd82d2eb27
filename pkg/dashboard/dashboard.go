// Package dashboard renders the stored spectra as a go-echarts HTML page.
package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/cmplx"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kacperjurak/eisplot/pkg/iteration"
	"github.com/kacperjurak/eisplot/pkg/models"
	"github.com/kacperjurak/eisplot/pkg/parameters"
)

const (
	chartWidth  = "100%"
	chartHeight = "480px"
	pageTitle   = "EIS Dashboard"
)

// Chart titles, in page order.
const (
	TitleNyquist    = "Nyquist Plot"
	TitleWaterfall  = "Waterfall Plot"
	TitleChiSquare  = "Chi-Square Evolution"
	TitleParameters = "Parameter Evolution"
	TitleAll        = "All Parameters (normalized)"
	TitleElements   = "Element Impedances"
)

// Render writes the dashboard for records to w. Records are expected in
// arrival order: the last one is summarized as the latest. Spectra are
// drawn in iteration order.
func Render(w io.Writer, records []models.Record) error {
	sorted := iteration.Sort(records)
	evo := parameters.Build(sorted)

	page := components.NewPage()
	page.PageTitle = pageTitle
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		nyquist(sorted),
		waterfall(sorted),
		chiSquare(sorted),
	)
	for _, s := range evo.Series {
		page.AddCharts(parameterChart(s))
	}
	if len(evo.Series) > 0 {
		page.AddCharts(allParameters(evo.Series))
	}
	if n := len(sorted); n > 0 {
		page.AddCharts(elements(sorted[n-1]))
	}

	var body bytes.Buffer
	if err := page.Render(&body); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	var panels bytes.Buffer
	if err := renderPanels(&panels, records, evo); err != nil {
		return fmt.Errorf("render dashboard panels: %w", err)
	}

	if _, err := w.Write(inject(body.Bytes(), panels.Bytes())); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}
	return nil
}

func baseOptions(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: pageTitle, Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Bottom: "0"}),
	}
}

func seriesName(rec models.Record) string {
	if n, ok := iteration.Number(rec.ID); ok {
		return fmt.Sprintf("Iteration %d", n)
	}
	return rec.ID
}

// nyquist plots Z' against -Z'' for every spectrum.
func nyquist(records []models.Record) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(append(baseOptions(TitleNyquist, fmt.Sprintf("spectra=%d", len(records))),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Z' (Ω)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "-Z'' (Ω)", NameLocation: "middle", NameGap: 40}),
	)...)

	for _, rec := range records {
		n := min(len(rec.RealImpedance), len(rec.ImaginaryImpedance))
		data := make([]opts.ScatterData, 0, n)
		for i := 0; i < n; i++ {
			data = append(data, opts.ScatterData{Value: []interface{}{rec.RealImpedance[i], -rec.ImaginaryImpedance[i]}})
		}
		scatter.AddSeries(seriesName(rec), data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	}
	return scatter
}

// waterfall plots |Z| against frequency on a log axis, one line per spectrum.
func waterfall(records []models.Record) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(baseOptions(TitleWaterfall, "|Z| vs frequency"),
		charts.WithXAxisOpts(opts.XAxis{Type: "log", Name: "Frequency (Hz)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "|Z| (Ω)", NameLocation: "middle", NameGap: 40}),
	)...)

	for _, rec := range records {
		n := min(len(rec.Frequencies), len(rec.RealImpedance), len(rec.ImaginaryImpedance))
		data := make([]opts.LineData, 0, n)
		for i := 0; i < n; i++ {
			if rec.Frequencies[i] <= 0 {
				continue
			}
			mod := cmplx.Abs(complex(rec.RealImpedance[i], rec.ImaginaryImpedance[i]))
			data = append(data, opts.LineData{Value: []interface{}{rec.Frequencies[i], mod}})
		}
		line.AddSeries(seriesName(rec), data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}
	return line
}

// chiSquare plots the goodness of fit per iteration. Records without a
// positive chi-square (raw imports) are skipped.
func chiSquare(records []models.Record) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(baseOptions(TitleChiSquare, ""),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Iteration", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "log", Name: "χ²", NameLocation: "middle", NameGap: 40}),
	)...)

	data := make([]opts.LineData, 0, len(records))
	for _, rec := range records {
		if rec.ChiSquare == nil || *rec.ChiSquare <= 0 || math.IsNaN(*rec.ChiSquare) {
			continue
		}
		data = append(data, opts.LineData{Value: []interface{}{iteration.Of(rec.ID), *rec.ChiSquare}})
	}
	line.AddSeries("χ²", data, charts.WithItemStyleOpts(opts.ItemStyle{Color: parameters.Palette[3]}))
	return line
}

func parameterChart(s parameters.Series) *charts.Line {
	axis := s.Name
	if s.Unit != "" {
		axis = fmt.Sprintf("%s (%s)", s.Name, s.Unit)
	}

	scale := "value"
	if s.LogScale {
		scale = "log"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(append(baseOptions(TitleParameters+": "+s.Name, fmt.Sprintf("points=%d", len(s.Points))),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Iteration", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: scale, Name: axis, NameLocation: "middle", NameGap: 50}),
	)...)

	data := make([]opts.LineData, 0, len(s.Points))
	for _, p := range s.Points {
		data = append(data, opts.LineData{Value: []interface{}{p.Iteration, p.Value}})
	}
	line.AddSeries(s.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	return line
}

// allParameters overlays every series scaled by its largest magnitude, so
// parameters of different units share one axis.
func allParameters(series []parameters.Series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(baseOptions(TitleAll, fmt.Sprintf("series=%d", len(series))),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Iteration", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "value / max", NameLocation: "middle", NameGap: 40}),
	)...)

	for _, s := range series {
		line.AddSeries(s.Name+" (norm)", normalize(s.Points), charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}
	return line
}

// normalize divides each value by the largest magnitude; an all-zero
// series stays at zero.
func normalize(points []parameters.Point) []opts.LineData {
	var peak float64
	for _, p := range points {
		peak = math.Max(peak, math.Abs(p.Value))
	}

	data := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		v := 0.0
		if peak > 0 {
			v = p.Value / peak
		}
		data = append(data, opts.LineData{Value: []interface{}{p.Iteration, v}})
	}
	return data
}

// elements plots the per-element impedance curves of one record in the
// complex plane.
func elements(rec models.Record) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(append(baseOptions(TitleElements, rec.ID),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Z' (Ω)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "-Z'' (Ω)", NameLocation: "middle", NameGap: 40}),
	)...)

	for i, el := range rec.ElementImpedances {
		data := make([]opts.ScatterData, 0, len(el.Impedances))
		for _, p := range el.Impedances {
			data = append(data, opts.ScatterData{Value: []interface{}{p.Real, -p.Imag}})
		}
		scatter.AddSeries(el.Name, data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: parameters.Palette[i%len(parameters.Palette)]}),
		)
	}
	return scatter
}
