// Package parameters derives circuit-parameter series from the flat
// element-name/value arrays of fitted spectra.
package parameters

import (
	"strconv"
	"strings"
)

// Display names of the CPE pair. n is shown in tables only.
const (
	CPEMagnitude = "Q"
	CPEExponent  = "n"
)

// Entry is one plottable parameter of a record.
type Entry struct {
	Name        string
	Value       float64
	SourceIndex int
}

// Extraction is the result of classifying one record's parameters.
type Extraction struct {
	// Values maps display name to value, including the CPE exponent.
	Values map[string]float64
	// Names lists the keys of Values in first-seen source order.
	Names []string
	// Plot lists the parameters that get their own evolution series, in
	// source order.
	Plot []Entry
}

// Extract classifies parameters by their element names. ok is false when
// either array is absent (nil) or their lengths differ; such a record
// contributes nothing. Two empty arrays yield an empty extraction.
func Extract(params []float64, elementNames []string) (Extraction, bool) {
	if params == nil || elementNames == nil || len(params) != len(elementNames) {
		return Extraction{}, false
	}

	ex := Extraction{
		Values: make(map[string]float64, len(params)),
		Names:  make([]string, 0, len(params)),
		Plot:   make([]Entry, 0, len(params)),
	}
	counts := make(map[string]int, 4)

	for i, raw := range elementNames {
		name, plotted := displayName(raw, counts)
		if _, seen := ex.Values[name]; !seen {
			ex.Names = append(ex.Names, name)
		}
		ex.Values[name] = params[i]
		if plotted {
			ex.Plot = append(ex.Plot, Entry{Name: name, Value: params[i], SourceIndex: i})
		}
	}
	return ex, true
}

// displayName maps an element name to its display name, advancing the
// per-record occurrence counter for r, c, l and w.
func displayName(raw string, counts map[string]int) (name string, plotted bool) {
	lower := strings.ToLower(raw)
	switch lower {
	case "qy":
		return CPEMagnitude, true
	case "qn":
		return CPEExponent, false
	case "r", "c", "l", "w":
		counts[lower]++
		return strings.ToUpper(lower) + strconv.Itoa(counts[lower]), true
	default:
		return strings.ToUpper(raw), true
	}
}
