package models

// Record is one fitted EIS spectrum as held by the store and served by the
// query endpoints. Top-level keys are capitalized on the wire.
type Record struct {
	ID                 string             `json:"ID"`
	Time               string             `json:"Time"`
	ChiSquare          *float64           `json:"ChiSquare"`
	RealImpedance      []float64          `json:"RealImpedance"`
	ImaginaryImpedance []float64          `json:"ImaginaryImpedance"`
	Frequencies        []float64          `json:"Frequencies"`
	Parameters         []float64          `json:"Parameters"`
	ElementNames       []string           `json:"ElementNames"`
	ElementImpedances  []ElementImpedance `json:"ElementImpedances"`
	CircuitType        string             `json:"CircuitType"`
}

// ElementImpedance represents impedance data for a circuit element
type ElementImpedance struct {
	Name       string           `json:"name"`
	Impedances []ImpedancePoint `json:"impedances"`
}

// ImpedancePoint is a single complex impedance sample.
type ImpedancePoint struct {
	Real float64 `json:"real"`
	Imag float64 `json:"imag"`
}

// UnknownCircuit is the circuit label used when the sender did not name one.
const UnknownCircuit = "Unknown"

// WebhookPayload is the body posted to /webhook by the fitter and by eisctl.
type WebhookPayload struct {
	ID                 string             `json:"id"`
	Time               string             `json:"time"`
	ChiSquare          *float64           `json:"chi_square"`
	RealImpedance      []float64          `json:"real_impedance"`
	ImaginaryImpedance []float64          `json:"imaginary_impedance"`
	Frequencies        []float64          `json:"frequencies"`
	Parameters         []float64          `json:"parameters"`
	ElementNames       []string           `json:"element_names"`
	ElementImpedances  []ElementImpedance `json:"element_impedances"`
	CircuitType        string             `json:"circuit_type"`
}

// PayloadFromRecord converts a record into the snake_case webhook body.
func PayloadFromRecord(r Record) WebhookPayload {
	return WebhookPayload{
		ID:                 r.ID,
		Time:               r.Time,
		ChiSquare:          r.ChiSquare,
		RealImpedance:      r.RealImpedance,
		ImaginaryImpedance: r.ImaginaryImpedance,
		Frequencies:        r.Frequencies,
		Parameters:         r.Parameters,
		ElementNames:       r.ElementNames,
		ElementImpedances:  r.ElementImpedances,
		CircuitType:        r.CircuitType,
	}
}

// WebhookAck is the response to an accepted webhook.
type WebhookAck struct {
	Status          string `json:"status"`
	ID              string `json:"id"`
	ImpedancePoints int    `json:"impedancePoints"`
}

// NoDataMessage is returned by /latest-webhook before anything was ingested.
type NoDataMessage struct {
	Message string `json:"message"`
}

// NoDataYet is the literal message served while the store is empty.
const NoDataYet = "No webhook data received yet"

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
