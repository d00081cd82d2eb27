package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FallbackID derives a record id from the receipt time for payloads that
// arrive without one.
func FallbackID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// RunID generates a short unique prefix for a simulated fitting run.
func RunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// IterationID builds the id the fitter emits for one spectrum of a batch.
func IterationID(runID string, iteration int) string {
	return runID + "_iter_" + pad3(iteration)
}

func pad3(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// Timestamp formats t the way records carry receipt times.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
