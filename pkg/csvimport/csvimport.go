// Package csvimport reads raw spectra from `Frequency_Hz, Z_real, Z_imag[,
// Spectrum_Number]` files into records without a fitted model.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kacperjurak/eisplot/internal/utils"
	"github.com/kacperjurak/eisplot/pkg/models"
)

// ErrEmpty is returned when no valid row was found.
var ErrEmpty = errors.New("csvimport: no valid rows")

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Stats reports how many rows were used and skipped.
type Stats struct {
	Rows    int
	Skipped int
	Header  bool
}

type spectrum struct {
	freqs []float64
	real  []float64
	imag  []float64
}

// Parse reads r and groups rows by spectrum number. Rows that are short or
// carry non-numeric values are skipped individually.
func Parse(r io.Reader, fileName string, now time.Time) ([]models.Record, Stats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var stats Stats
	groups := make(map[int]*spectrum)
	line := 0

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.Skipped++
				continue
			}
			return nil, stats, fmt.Errorf("csvimport: read: %w", err)
		}
		line++

		if line == 1 && len(fields) > 0 && !isNumber(fields[0]) {
			stats.Header = true
			continue
		}

		n, freq, re, im, ok := parseRow(fields)
		if !ok {
			stats.Skipped++
			continue
		}

		g := groups[n]
		if g == nil {
			g = &spectrum{}
			groups[n] = g
		}
		g.freqs = append(g.freqs, freq)
		g.real = append(g.real, re)
		g.imag = append(g.imag, im)
		stats.Rows++
	}

	if len(groups) == 0 {
		return nil, stats, ErrEmpty
	}

	numbers := make([]int, 0, len(groups))
	for n := range groups {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	base := SanitizeFileName(fileName)
	ts := utils.Timestamp(now)
	records := make([]models.Record, 0, len(numbers))
	for _, n := range numbers {
		g := groups[n]
		records = append(records, models.Record{
			ID:                 fmt.Sprintf("%s_spectrum_%d", base, n),
			Time:               ts,
			ChiSquare:          nil,
			RealImpedance:      g.real,
			ImaginaryImpedance: g.imag,
			Frequencies:        g.freqs,
			Parameters:         []float64{},
			ElementNames:       []string{},
			ElementImpedances:  []models.ElementImpedance{},
			CircuitType:        models.UnknownCircuit,
		})
	}
	return records, stats, nil
}

func parseRow(fields []string) (n int, freq, re, im float64, ok bool) {
	if len(fields) < 3 {
		return 0, 0, 0, 0, false
	}
	var err error
	if freq, err = parseFloat(fields[0]); err != nil {
		return 0, 0, 0, 0, false
	}
	if re, err = parseFloat(fields[1]); err != nil {
		return 0, 0, 0, 0, false
	}
	if im, err = parseFloat(fields[2]); err != nil {
		return 0, 0, 0, 0, false
	}

	n = 1
	if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
		if n, err = strconv.Atoi(strings.TrimSpace(fields[3])); err != nil {
			return 0, 0, 0, 0, false
		}
	}
	return n, freq, re, im, true
}

var errNotFinite = errors.New("csvimport: value is not finite")

// parseFloat accepts finite numbers only; NaN and Inf spellings count as
// non-numeric.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

func isNumber(s string) bool {
	_, err := parseFloat(s)
	return err == nil
}

// SanitizeFileName strips the extension and replaces every character that is
// not a letter or digit with an underscore.
func SanitizeFileName(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return unsafeChars.ReplaceAllString(base, "_")
}
