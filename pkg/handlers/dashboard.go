package handlers

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/kacperjurak/eisplot/pkg/dashboard"
	"github.com/kacperjurak/eisplot/pkg/logging"
)

// DashboardHandler serves GET /dashboard as rendered HTML.
type DashboardHandler struct {
	store  Reader
	logger *zap.Logger
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(store Reader, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{store: store, logger: logging.OrNop(logger)}
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r, http.MethodGet) {
		return
	}

	var buf bytes.Buffer
	if err := dashboard.Render(&buf, h.store.All()); err != nil {
		h.logger.Error("dashboard render failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to render dashboard")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
