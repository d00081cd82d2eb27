// Package circuit evaluates Boukamp circuit description codes such as
// R(QR) or R(CR)(CR) over a frequency sweep.
package circuit

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/floats"
)

type mode int

const (
	series mode = iota
	parallel
)

var (
	// ErrUnbalanced is returned for codes with mismatched parentheses.
	ErrUnbalanced = errors.New("circuit: unbalanced parentheses")
	// ErrParamCount is returned when the value count does not match the code.
	ErrParamCount = errors.New("circuit: parameter count mismatch")
)

// Elements returns the element names of code in parameter order. Two-value
// elements expand to their parts, e.g. Q to qy and qn.
func Elements(code string) []string {
	var elements []string
	for _, char := range strings.ToLower(code) {
		switch char {
		case 'r', 'c', 'l', 'w':
			elements = append(elements, string(char))
		case 'q':
			elements = append(elements, "qy", "qn")
		case 'o':
			elements = append(elements, "oy", "ob")
		case 't':
			elements = append(elements, "ty", "tb")
		case 'g':
			elements = append(elements, "gy", "gk")
		case 'f':
			elements = append(elements, "fy", "fk", "fa")
		}
	}
	return elements
}

// Impedance evaluates code at every frequency in freqs using values as the
// element parameters.
func Impedance(code string, freqs []float64, values []float64) ([]complex128, error) {
	code = strings.ToLower(code)
	if len(values) != len(Elements(code)) {
		return nil, fmt.Errorf("%w: code %q needs %d values, got %d", ErrParamCount, code, len(Elements(code)), len(values))
	}

	res := make([]complex128, 0, len(freqs))
	for _, freq := range freqs {
		z, err := evaluate(code, 2*math.Pi*freq, values)
		if err != nil {
			return nil, err
		}
		res = append(res, z)
	}
	return res, nil
}

func evaluate(code string, w float64, values []float64) (complex128, error) {
	var (
		m     = series
		stack []complex128
		tmp   complex128
		i     int
		jw    = complex(0, w)
	)
	for _, char := range code {
		switch char {
		case '(':
			stack = append(stack, tmp)
			tmp = 0
			m = toggle(m)
			continue
		case ')':
			if len(stack) == 0 {
				return 0, ErrUnbalanced
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			m = toggle(m)
			tmp = combine(tmp, top, m)
			continue
		case 'r':
			tmp = combine(tmp, complex(values[i], 0), m)
		case 'c':
			tmp = combine(tmp, 1/(jw*complex(values[i], 0)), m)
		case 'l':
			tmp = combine(tmp, jw*complex(values[i], 0), m)
		case 'w':
			tmp = combine(tmp, 1/(cmplx.Sqrt(jw)*complex(values[i], 0)), m)
		case 'q':
			tmp = combine(tmp, 1/(cmplx.Pow(jw, complex(values[i+1], 0))*complex(values[i], 0)), m)
			i++
		case 'o':
			tanh := cmplx.Tanh(cmplx.Sqrt(jw) * complex(values[i+1], 0))
			if cmplx.IsNaN(tanh) {
				tanh = 1
			}
			tmp = combine(tmp, tanh/(cmplx.Sqrt(jw)*complex(values[i], 0)), m)
			i++
		case 't':
			coth := 1 / cmplx.Tanh(cmplx.Sqrt(jw)*complex(values[i+1], 0))
			tmp = combine(tmp, coth/(cmplx.Sqrt(jw)*complex(values[i], 0)), m)
			i++
		case 'g':
			tmp = combine(tmp, cmplx.Pow(complex(values[i+1], 0)+jw, -0.5)/complex(values[i], 0), m)
			i++
		case 'f':
			tmp = combine(tmp, cmplx.Pow(complex(values[i+1], 0)+jw, complex(-values[i+2], 0))/complex(values[i], 0), m)
			i += 2
		default:
			continue
		}
		i++
	}
	if len(stack) != 0 {
		return 0, ErrUnbalanced
	}
	return tmp, nil
}

func toggle(m mode) mode {
	if m == series {
		return parallel
	}
	return series
}

func combine(z1, z2 complex128, m mode) complex128 {
	if m == series {
		return z1 + z2
	}
	var s1, s2 complex128
	if z1 != 0 {
		s1 = 1 / z1
	}
	if z2 != 0 {
		s2 = 1 / z2
	}
	return 1 / (s1 + s2)
}

// Frequencies returns n log-spaced frequencies from fMax down to fMin, the
// order a potentiostat sweeps them.
func Frequencies(fMin, fMax float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n == 1 {
		return []float64{fMax}
	}
	freqs := floats.LogSpan(make([]float64, n), fMin, fMax)
	floats.Reverse(freqs)
	return freqs
}

// AddNoise perturbs each real and imaginary part uniformly by up to level
// times its magnitude.
func AddNoise(z []complex128, level float64, rng *rand.Rand) []complex128 {
	out := make([]complex128, len(z))
	for i, v := range z {
		re, im := real(v), imag(v)
		re += (rng.Float64()*2 - 1) * math.Abs(re) * level
		im += (rng.Float64()*2 - 1) * math.Abs(im) * level
		out[i] = complex(re, im)
	}
	return out
}

// ChiSq is the modulus-weighted chi-square between observed and calculated,
// normalized by the number of points.
func ChiSq(observed, calculated []complex128) (float64, error) {
	if len(observed) != len(calculated) {
		return 0, fmt.Errorf("circuit: chi-square length mismatch %d vs %d", len(observed), len(calculated))
	}
	if len(observed) == 0 {
		return 0, nil
	}
	chiSq := 0.0
	for i, o := range observed {
		d := o - calculated[i]
		d2 := real(d)*real(d) + imag(d)*imag(d)
		if weight := cmplx.Abs(o); weight > 0 {
			chiSq += d2 / (weight * weight)
		} else {
			chiSq += d2
		}
	}
	return chiSq / float64(len(observed)), nil
}

// Split returns the real and imaginary parts of z as separate slices.
func Split(z []complex128) (re, im []float64) {
	re = make([]float64, len(z))
	im = make([]float64, len(z))
	for i, v := range z {
		re[i] = real(v)
		im[i] = imag(v)
	}
	return re, im
}
