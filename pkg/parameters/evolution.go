package parameters

import (
	"strings"

	"github.com/kacperjurak/eisplot/pkg/iteration"
	"github.com/kacperjurak/eisplot/pkg/models"
)

// Palette is cycled over plottable names in first-seen order.
var Palette = []string{
	"#dc3545", "#fd7e14", "#6f42c1", "#28a745", "#17a2b8", "#ffc107", "#e83e8c",
}

// Unit returns the physical unit for a parameter, keyed by the leading
// character of its name.
func Unit(name string) string {
	if name == "" {
		return ""
	}
	switch strings.ToLower(name[:1]) {
	case "r":
		return "Ω"
	case "c":
		return "F"
	case "q":
		return "S·s^n"
	case "l":
		return "H"
	case "w":
		return "S·s^0.5"
	default:
		return ""
	}
}

// LogScale reports whether a parameter spans decades and is plotted on a
// log axis: capacitances and CPE magnitudes.
func LogScale(name string) bool {
	switch Unit(name) {
	case "F", "S·s^n":
		return true
	default:
		return false
	}
}

// Point is one value of a parameter at a given iteration.
type Point struct {
	Iteration int     `json:"iteration"`
	ID        string  `json:"id"`
	Value     float64 `json:"value"`
}

// Series is the evolution of one plottable parameter across a batch.
type Series struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Color    string  `json:"color"`
	LogScale bool    `json:"logScale"`
	Points   []Point `json:"points"`
}

// Row is one record's entry in the parameter table.
type Row struct {
	ID           string             `json:"id"`
	Iteration    int                `json:"iteration"`
	CircuitType  string             `json:"circuitType"`
	ChiSquare    *float64           `json:"chiSquare"`
	Values       map[string]float64 `json:"values"`
	ElementNames []string           `json:"elementNames"`
}

// Evolution holds every plottable series of a batch plus the table.
// Columns is the union of table keys, including n, in first-seen order.
type Evolution struct {
	Names   []string `json:"names"`
	Columns []string `json:"columns"`
	Series  []Series `json:"series"`
	Table   []Row    `json:"table"`
}

// Build sorts records by iteration and derives the parameter evolution.
// The set of series is the union over records; a record missing a
// parameter contributes no point to that series.
func Build(records []models.Record) Evolution {
	sorted := iteration.Sort(records)

	evo := Evolution{
		Names:   []string{},
		Columns: []string{},
		Series:  []Series{},
		Table:   []Row{},
	}
	index := make(map[string]int)
	columns := make(map[string]bool)

	for _, rec := range sorted {
		ex, ok := Extract(rec.Parameters, rec.ElementNames)
		if !ok {
			continue
		}
		iter := iteration.Of(rec.ID)
		evo.Table = append(evo.Table, Row{
			ID:           rec.ID,
			Iteration:    iter,
			CircuitType:  circuitType(rec.CircuitType),
			ChiSquare:    rec.ChiSquare,
			Values:       ex.Values,
			ElementNames: rec.ElementNames,
		})
		for _, name := range ex.Names {
			if !columns[name] {
				columns[name] = true
				evo.Columns = append(evo.Columns, name)
			}
		}

		seen := make(map[string]bool, len(ex.Plot))
		for _, entry := range ex.Plot {
			if seen[entry.Name] {
				continue
			}
			seen[entry.Name] = true

			i, ok := index[entry.Name]
			if !ok {
				i = len(evo.Series)
				index[entry.Name] = i
				evo.Names = append(evo.Names, entry.Name)
				evo.Series = append(evo.Series, Series{
					Name:     entry.Name,
					Unit:     Unit(entry.Name),
					Color:    Palette[i%len(Palette)],
					LogScale: LogScale(entry.Name),
					Points:   []Point{},
				})
			}
			evo.Series[i].Points = append(evo.Series[i].Points, Point{
				Iteration: iter,
				ID:        rec.ID,
				Value:     ex.Values[entry.Name],
			})
		}
	}
	return evo
}

func circuitType(s string) string {
	if s == "" {
		return models.UnknownCircuit
	}
	return s
}
