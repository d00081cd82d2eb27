package circuit

import (
	"math"
	"math/cmplx"

	"github.com/kacperjurak/eisplot/pkg/models"
)

// ElementImpedances calculates the impedance curve of each circuit element on
// its own. The CPE pair is reported once, as Q, on its exponent entry.
// Elements without a closed form here (O, T, G, F parts) are skipped.
func ElementImpedances(frequencies []float64, parameters []float64, elementNames []string) []models.ElementImpedance {
	result := make([]models.ElementImpedance, 0, len(elementNames))

	for i, name := range elementNames {
		if i >= len(parameters) {
			break
		}
		if !hasCurve(name, i, elementNames) {
			continue
		}

		points := make([]models.ImpedancePoint, 0, len(frequencies))
		for _, freq := range frequencies {
			z := elementImpedance(name, i, 2*math.Pi*freq, parameters, elementNames)
			points = append(points, sanitize(z))
		}

		result = append(result, models.ElementImpedance{
			Name:       displayName(name),
			Impedances: points,
		})
	}
	return result
}

func hasCurve(name string, index int, elementNames []string) bool {
	switch name {
	case "r", "c", "l", "w":
		return true
	case "qn":
		return index > 0 && elementNames[index-1] == "qy"
	}
	return false
}

func elementImpedance(name string, index int, w float64, parameters []float64, elementNames []string) complex128 {
	p := parameters[index]
	jw := complex(0, w)
	switch name {
	case "r":
		return complex(p, 0)
	case "c":
		if p != 0 {
			return 1 / (jw * complex(p, 0))
		}
	case "l":
		return jw * complex(p, 0)
	case "w":
		if p != 0 {
			return 1 / (complex(p, 0) * cmplx.Sqrt(jw))
		}
	case "qn":
		// Z_CPE = 1 / (Y0 * (jw)^n), Y0 is the preceding qy value
		qY := parameters[index-1]
		if qY != 0 {
			return 1 / (complex(qY, 0) * cmplx.Pow(jw, complex(p, 0)))
		}
	}
	return 0
}

// sanitize replaces NaN and Inf parts with zero so the curve stays JSON-encodable.
func sanitize(z complex128) models.ImpedancePoint {
	re, im := real(z), imag(z)
	if math.IsNaN(re) || math.IsInf(re, 0) {
		re = 0
	}
	if math.IsNaN(im) || math.IsInf(im, 0) {
		im = 0
	}
	return models.ImpedancePoint{Real: re, Imag: im}
}

func displayName(name string) string {
	if name == "qn" {
		return "Q"
	}
	return name
}
