package handlers

import (
	"net/http"
	"time"
)

// HealthHandler reports liveness and the current history size.
type HealthHandler struct {
	store Reader
}

// NewHealthHandler returns handler.
func NewHealthHandler(store Reader) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"records":   h.store.Len(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
