// Package iteration orders fitted spectra by the iteration number embedded in
// their ids (`<run>_iter_<n>`).
package iteration

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/kacperjurak/eisplot/pkg/models"
)

var iterPattern = regexp.MustCompile(`_iter_(\d+)`)

// Number extracts the iteration number from id. ok is false when the id
// carries none. Numbers beyond the int range saturate at math.MaxInt.
func Number(id string) (n int, ok bool) {
	m := iterPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(m[1], 10, 0)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt, true
	}
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// Of returns the iteration number of id, or 0 when it has none.
func Of(id string) int {
	n, _ := Number(id)
	return n
}

// Sort returns a new slice ordered ascending by iteration number. Records
// with equal numbers keep their input order.
func Sort(records []models.Record) []models.Record {
	sorted := make([]models.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Of(sorted[i].ID) < Of(sorted[j].ID)
	})
	return sorted
}
