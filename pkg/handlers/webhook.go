package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/eisplot/pkg/ingest"
	"github.com/kacperjurak/eisplot/pkg/logging"
	"github.com/kacperjurak/eisplot/pkg/models"
	"github.com/kacperjurak/eisplot/pkg/profiling"
)

// DefaultMaxBodyBytes bounds a webhook body; larger bodies get 413.
const DefaultMaxBodyBytes = 64 << 20

// WebhookHandler normalizes pushed spectra and appends them to the store.
type WebhookHandler struct {
	store     Appender
	publisher Publisher
	metrics   *profiling.Metrics
	logger    *zap.Logger
	quiet     bool
	maxBody   int64
	now       func() time.Time
}

// WebhookOptions holds the dependencies of a WebhookHandler. Publisher and
// Metrics are optional.
type WebhookOptions struct {
	Store     Appender
	Publisher Publisher
	Metrics   *profiling.Metrics
	Logger    *zap.Logger
	Quiet     bool
	Now       func() time.Time

	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(opts WebhookOptions) *WebhookHandler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &WebhookHandler{
		store:     opts.Store,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    logging.OrNop(opts.Logger),
		quiet:     opts.Quiet,
		maxBody:   opts.MaxBodyBytes,
		now:       opts.Now,
	}
}

// ServeHTTP handles POST /webhook.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r, http.MethodPost) {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	record, fieldErrs, err := ingest.Normalize(body, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	for _, fe := range fieldErrs {
		h.logger.Warn("webhook field defaulted", zap.String("id", record.ID), zap.String("field", fe.Field), zap.Error(fe.Err))
		if h.metrics != nil {
			h.metrics.FieldsDefaulted.WithLabelValues(fe.Field).Inc()
		}
	}

	h.store.Append(record)
	if h.publisher != nil {
		h.publisher.Publish(record)
	}
	if h.metrics != nil {
		h.metrics.WebhooksReceived.Inc()
	}

	if !h.quiet {
		h.logger.Info("webhook received",
			zap.String("id", record.ID),
			zap.Int("impedance_points", len(record.RealImpedance)),
			zap.String("circuit_type", record.CircuitType))
	}

	writeJSON(w, http.StatusOK, models.WebhookAck{
		Status:          "received",
		ID:              record.ID,
		ImpedancePoints: len(record.RealImpedance),
	})
}
