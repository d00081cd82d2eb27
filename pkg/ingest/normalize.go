// Package ingest turns arbitrary webhook bodies into store records.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kacperjurak/eisplot/internal/utils"
	"github.com/kacperjurak/eisplot/pkg/models"
)

// ErrNotObject is returned when the body is neither empty nor a JSON object
// or array.
var ErrNotObject = errors.New("ingest: body is not a JSON object")

// Keys accepted for each record field, in lookup order. The fitter posts
// snake_case, browser tools post camelCase and records read back from the
// query endpoints use the capitalized names.
var (
	idKeys                = []string{"id", "ID"}
	timeKeys              = []string{"time", "Time"}
	chiSquareKeys         = []string{"chiSquare", "chi_square", "ChiSquare"}
	realImpedanceKeys     = []string{"realImpedance", "real_impedance", "RealImpedance"}
	imagImpedanceKeys     = []string{"imaginaryImpedance", "imaginary_impedance", "ImaginaryImpedance"}
	frequenciesKeys       = []string{"frequencies", "Frequencies"}
	parametersKeys        = []string{"parameters", "Parameters"}
	elementNamesKeys      = []string{"elementNames", "element_names", "ElementNames"}
	elementImpedancesKeys = []string{"elementImpedances", "element_impedances", "ElementImpedances"}
	circuitTypeKeys       = []string{"circuitType", "circuit_type", "CircuitType"}
)

// FieldError reports a field whose value had the wrong JSON type and was
// replaced by its default.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %s defaulted: %v", e.Field, e.Err)
}

// Normalize decodes body and fills every missing or mistyped field with its
// default. An empty body and a JSON array carry no fields and yield an
// all-default record; any other non-object body is rejected.
func Normalize(body []byte, now time.Time) (models.Record, []FieldError, error) {
	fields, err := decodeFields(body)
	if err != nil {
		return models.Record{}, nil, err
	}

	n := normalizer{fields: fields}
	record := models.Record{
		ID:                 n.text(idKeys, utils.FallbackID(now)),
		Time:               n.text(timeKeys, utils.Timestamp(now)),
		ChiSquare:          models.Float(n.number(chiSquareKeys)),
		RealImpedance:      n.floats(realImpedanceKeys),
		ImaginaryImpedance: n.floats(imagImpedanceKeys),
		Frequencies:        n.floats(frequenciesKeys),
		Parameters:         n.floats(parametersKeys),
		ElementNames:       n.strings(elementNamesKeys),
		ElementImpedances:  n.elementImpedances(elementImpedancesKeys),
		CircuitType:        n.text(circuitTypeKeys, models.UnknownCircuit),
	}
	return record, n.errs, nil
}

func decodeFields(body []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	switch trimmed[0] {
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, ErrNotObject
		}
		return fields, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, ErrNotObject
		}
		return map[string]json.RawMessage{}, nil
	default:
		return nil, ErrNotObject
	}
}

type normalizer struct {
	fields map[string]json.RawMessage
	errs   []FieldError
}

// lookup returns the first present, non-null alias.
func (n *normalizer) lookup(keys []string) (string, json.RawMessage, bool) {
	for _, key := range keys {
		raw, ok := n.fields[key]
		if !ok {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		return key, raw, true
	}
	return "", nil, false
}

func (n *normalizer) decode(keys []string, out interface{}) bool {
	key, raw, ok := n.lookup(keys)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		n.errs = append(n.errs, FieldError{Field: key, Err: err})
		return false
	}
	return true
}

// text accepts a JSON string, or keeps the raw text of any other scalar.
// Empty values fall back to def.
func (n *normalizer) text(keys []string, def string) string {
	_, raw, ok := n.lookup(keys)
	if !ok {
		return def
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(bytes.TrimSpace(raw))
	}
	if s == "" {
		return def
	}
	return s
}

func (n *normalizer) number(keys []string) float64 {
	var v float64
	if !n.decode(keys, &v) {
		return 0
	}
	return v
}

func (n *normalizer) floats(keys []string) []float64 {
	var v []float64
	if !n.decode(keys, &v) || v == nil {
		return []float64{}
	}
	return v
}

func (n *normalizer) strings(keys []string) []string {
	var v []string
	if !n.decode(keys, &v) || v == nil {
		return []string{}
	}
	return v
}

func (n *normalizer) elementImpedances(keys []string) []models.ElementImpedance {
	var v []models.ElementImpedance
	if !n.decode(keys, &v) || v == nil {
		return []models.ElementImpedance{}
	}
	for i := range v {
		if v[i].Impedances == nil {
			v[i].Impedances = []models.ImpedancePoint{}
		}
	}
	return v
}
