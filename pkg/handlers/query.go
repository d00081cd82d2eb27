package handlers

import (
	"net/http"

	"github.com/kacperjurak/eisplot/pkg/models"
	"github.com/kacperjurak/eisplot/pkg/parameters"
)

// LatestHandler serves GET /latest-webhook.
type LatestHandler struct {
	store Reader
}

// NewLatestHandler creates a handler for the most recent record.
func NewLatestHandler(store Reader) *LatestHandler {
	return &LatestHandler{store: store}
}

func (h *LatestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r, http.MethodGet) {
		return
	}
	record, ok := h.store.Latest()
	if !ok {
		writeJSON(w, http.StatusOK, models.NoDataMessage{Message: models.NoDataYet})
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// AllHandler serves GET /all-webhooks.
type AllHandler struct {
	store Reader
}

// NewAllHandler creates a handler for the full history.
func NewAllHandler(store Reader) *AllHandler {
	return &AllHandler{store: store}
}

func (h *AllHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.store.All())
}

// EvolutionHandler serves GET /parameter-evolution: the history sorted by
// iteration and reduced to per-parameter series.
type EvolutionHandler struct {
	store Reader
}

// NewEvolutionHandler creates a parameter evolution handler.
func NewEvolutionHandler(store Reader) *EvolutionHandler {
	return &EvolutionHandler{store: store}
}

func (h *EvolutionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, parameters.Build(h.store.All()))
}
