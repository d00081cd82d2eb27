package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kacperjurak/eisplot/pkg/models"
)

// Appender is the write side of the record store.
type Appender interface {
	Append(record models.Record)
}

// Reader is the read side of the record store.
type Reader interface {
	Latest() (models.Record, bool)
	All() []models.Record
	Len() int
}

// Publisher receives every record after it has been stored.
type Publisher interface {
	Publish(record models.Record)
}

// setupCORS opens every route to all origins.
func setupCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// preflight answers OPTIONS and rejects any method other than expected.
// It reports whether the handler should continue.
func preflight(w http.ResponseWriter, r *http.Request, expected string) bool {
	setupCORS(w, expected)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return false
	}
	if r.Method != expected {
		w.Header().Set("Allow", expected+", OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
