package dashboard

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/eisplot/pkg/models"
	"github.com/kacperjurak/eisplot/pkg/parameters"
)

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil))

	html := buf.String()
	assert.Contains(t, html, TitleNyquist)
	assert.Contains(t, html, TitleWaterfall)
	assert.Contains(t, html, TitleChiSquare)
	assert.NotContains(t, html, TitleElements)
	assert.NotContains(t, html, TitleAll)
	assert.NotContains(t, html, TitleTable)
	assert.Contains(t, html, WaitingMessage)
	assert.Less(t, strings.Index(html, "<body>"), strings.Index(html, WaitingMessage))
}

func TestRenderRecords(t *testing.T) {
	records := []models.Record{
		{
			ID:                 "run_iter_002",
			ChiSquare:          models.Float(0.01),
			RealImpedance:      []float64{110, 60},
			ImaginaryImpedance: []float64{-1, -30},
			Frequencies:        []float64{1000, 10},
			Parameters:         []float64{10, 100},
			ElementNames:       []string{"r", "r"},
			ElementImpedances: []models.ElementImpedance{
				{Name: "R1", Impedances: []models.ImpedancePoint{{Real: 10}, {Real: 10}}},
			},
		},
		{
			ID:                 "run_iter_001",
			ChiSquare:          nil,
			RealImpedance:      []float64{100},
			ImaginaryImpedance: []float64{-2},
			Frequencies:        []float64{1000},
			Parameters:         []float64{11, 90},
			ElementNames:       []string{"r", "r"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, records))

	html := buf.String()
	assert.Contains(t, html, TitleParameters+": R1")
	assert.Contains(t, html, TitleParameters+": R2")
	assert.Contains(t, html, TitleElements)
	assert.Contains(t, html, "Iteration 1")
	assert.Contains(t, html, "Iteration 2")
	assert.Contains(t, html, TitleAll)
	assert.Contains(t, html, "R1 (norm)")
}

func TestRenderLatestPanelAndTable(t *testing.T) {
	records := []models.Record{
		{
			ID:                 "run_iter_002",
			Time:               "2025-03-14T09:26:53.589Z",
			ChiSquare:          models.Float(0.5),
			RealImpedance:      []float64{1, 2, 3},
			ImaginaryImpedance: []float64{-1, -2, -3},
			Parameters:         []float64{10, 2e-5, 0.9},
			ElementNames:       []string{"r", "qy", "qn"},
			CircuitType:        "R(QR)",
		},
		{
			ID:           "run_iter_001",
			Time:         "2025-03-14T09:26:50.000Z",
			Parameters:   []float64{},
			ElementNames: []string{},
			CircuitType:  "R(QR)",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, records))
	html := buf.String()

	assert.NotContains(t, html, WaitingMessage)
	assert.Contains(t, html, TitleLatest)
	assert.Contains(t, html, "run_iter_001", "latest is the last record received")
	assert.Contains(t, html, "2025-03-14T09:26:50.000Z")

	assert.Contains(t, html, TitleTable)
	assert.Contains(t, html, "<th>R1 (Ω)</th>")
	assert.Contains(t, html, "<th>Q (S·s^n)</th>")
	assert.Contains(t, html, "<th>n</th>")
	assert.Contains(t, html, "<th>χ²</th>")
	assert.Contains(t, html, "<td>2.0000e-05</td>")
	assert.Contains(t, html, "<td>9.0000e-01</td>")
	assert.Contains(t, html, "<td>5.0000e-01</td>")
	assert.Contains(t, html, "<td>r, qy, qn</td>")
	assert.Equal(t, 2, strings.Count(html, "<tr><td>"), "empty record keeps a table row")
}

func countLogAxes(t *testing.T, element string) int {
	t.Helper()
	records := []models.Record{
		{ID: "run_iter_001", Parameters: []float64{1e-6}, ElementNames: []string{element}},
		{ID: "run_iter_002", Parameters: []float64{1e-3}, ElementNames: []string{element}},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, records))
	return strings.Count(buf.String(), `"type":"log"`)
}

func TestRenderLogAxisForCapacitance(t *testing.T) {
	assert.Equal(t, countLogAxes(t, "r")+1, countLogAxes(t, "c"))
	assert.Equal(t, countLogAxes(t, "r")+1, countLogAxes(t, "qy"))
}

func TestNormalize(t *testing.T) {
	data := normalize([]parameters.Point{{Iteration: 1, Value: -4}, {Iteration: 2, Value: 2}})
	require.Len(t, data, 2)
	assert.Equal(t, []interface{}{1, -1.0}, data[0].Value)
	assert.Equal(t, []interface{}{2, 0.5}, data[1].Value)

	zero := normalize([]parameters.Point{{Iteration: 1, Value: 0}})
	assert.Equal(t, []interface{}{1, 0.0}, zero[0].Value)
}
