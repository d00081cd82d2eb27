// Package feeder produces spectra for an eisplot server: synthetic fitting
// runs and CSV imports, delivered through a worker pool.
package feeder

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/kacperjurak/eisplot/internal/utils"
	"github.com/kacperjurak/eisplot/pkg/circuit"
	"github.com/kacperjurak/eisplot/pkg/models"
)

// SimulateOptions describes a synthetic fitting run.
type SimulateOptions struct {
	Circuit string
	// Params are the true element values; empty means defaults for Circuit.
	Params  []float64
	Spectra int
	Points  int
	FMin    float64
	FMax    float64
	// Noise is the relative amplitude of the measurement noise.
	Noise float64
	// RunID prefixes every record id; empty means a fresh one.
	RunID string
	Seed  int64
	Now   func() time.Time
}

// initial offset of the first iteration's estimate from the true values
const (
	startOffset = 0.5
	decay       = 3.0
)

// DefaultParams returns starting element values for code.
func DefaultParams(code string) []float64 {
	switch strings.ToLower(code) {
	case "r(cr)":
		return []float64{50.0, 1e-6, 100.0}
	case "r(qr)":
		return []float64{50.0, 1e-6, 0.8, 100.0}
	case "r(cr)(cr)":
		return []float64{50.0, 1e-6, 100.0, 1e-6, 100.0}
	case "r(q(r(qr)))":
		return []float64{50.0, 1e-6, 0.8, 100.0, 1e-6, 0.8, 100.0}
	}

	elements := circuit.Elements(code)
	params := make([]float64, len(elements))
	for i, el := range elements {
		switch el {
		case "r":
			params[i] = 100.0
		case "c", "qy", "l":
			params[i] = 1e-6
		case "qn":
			params[i] = 0.8
		case "w":
			params[i] = 1e-3
		default:
			params[i] = 1.0
		}
	}
	return params
}

// Simulate generates one record per iteration. The measured spectrum is the
// true circuit plus noise; each record carries the current estimate, which
// converges on the true values, its model curve and chi-square against the
// measurement.
func Simulate(opts SimulateOptions) ([]models.Record, error) {
	if opts.Spectra <= 0 {
		return []models.Record{}, nil
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RunID == "" {
		opts.RunID = utils.RunID()
	}
	if opts.FMin <= 0 || opts.FMax < opts.FMin {
		return nil, fmt.Errorf("simulate: invalid frequency range [%g, %g]", opts.FMin, opts.FMax)
	}
	elements := circuit.Elements(opts.Circuit)
	if len(elements) == 0 {
		return nil, fmt.Errorf("simulate: circuit %q has no elements", opts.Circuit)
	}
	truth := opts.Params
	if len(truth) == 0 {
		truth = DefaultParams(opts.Circuit)
	}

	freqs := circuit.Frequencies(opts.FMin, opts.FMax, opts.Points)
	clean, err := circuit.Impedance(opts.Circuit, freqs, truth)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	measured := circuit.AddNoise(clean, opts.Noise, rng)

	records := make([]models.Record, 0, opts.Spectra)
	for i := 1; i <= opts.Spectra; i++ {
		estimate := estimateAt(truth, elements, i)
		model, err := circuit.Impedance(opts.Circuit, freqs, estimate)
		if err != nil {
			return nil, fmt.Errorf("simulate iteration %d: %w", i, err)
		}
		chi, err := circuit.ChiSq(measured, model)
		if err != nil {
			return nil, fmt.Errorf("simulate iteration %d: %w", i, err)
		}
		re, im := circuit.Split(model)

		records = append(records, models.Record{
			ID:                 utils.IterationID(opts.RunID, i),
			Time:               utils.Timestamp(opts.Now()),
			ChiSquare:          models.Float(chi),
			RealImpedance:      re,
			ImaginaryImpedance: im,
			Frequencies:        append([]float64(nil), freqs...),
			Parameters:         estimate,
			ElementNames:       append([]string(nil), elements...),
			ElementImpedances:  circuit.ElementImpedances(freqs, estimate, elements),
			CircuitType:        opts.Circuit,
		})
	}
	return records, nil
}

// estimateAt is the parameter estimate after iteration i (1-based). Exponents
// are kept within (0, 1].
func estimateAt(truth []float64, elements []string, i int) []float64 {
	factor := 1 + startOffset*math.Exp(-float64(i-1)/decay)
	out := make([]float64, len(truth))
	for k, v := range truth {
		if elements[k] == "qn" {
			out[k] = math.Min(1, v*(2-factor))
			continue
		}
		out[k] = v * factor
	}
	return out
}
