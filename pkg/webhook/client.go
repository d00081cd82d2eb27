package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/eisplot/pkg/logging"
	"github.com/kacperjurak/eisplot/pkg/models"
)

// Client posts records to a webhook endpoint over a pooled connection set.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
	quiet      bool
	bufferPool sync.Pool
}

// Options holds configuration for creating a new webhook client
type Options struct {
	URL     string
	Timeout time.Duration
	Quiet   bool
	Logger  *zap.Logger
}

// NewClient creates a new webhook client with connection pooling
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DisableCompression:    true,
	}

	return &Client{
		url:    opts.URL,
		logger: logging.OrNop(opts.Logger),
		quiet:  opts.Quiet,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 4096))
			},
		},
	}
}

// Send posts record and decodes the acknowledgement.
func (c *Client) Send(ctx context.Context, record models.Record) (models.WebhookAck, error) {
	payload := models.PayloadFromRecord(record)
	if payload.ChiSquare != nil {
		if clean := sanitizeFloat(*payload.ChiSquare); clean != *payload.ChiSquare {
			c.logger.Warn("chi-square sanitized", zap.String("id", record.ID), zap.Float64("from", *payload.ChiSquare), zap.Float64("to", clean))
			payload.ChiSquare = models.Float(clean)
		}
	}

	buf := c.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer c.bufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return models.WebhookAck{}, fmt.Errorf("failed to marshal webhook data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return models.WebhookAck{}, fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.WebhookAck{}, fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return models.WebhookAck{}, fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	var ack models.WebhookAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return models.WebhookAck{}, fmt.Errorf("failed to decode webhook ack: %w", err)
	}

	if !c.quiet {
		c.logger.Info("webhook sent",
			zap.String("id", ack.ID),
			zap.Int("impedance_points", ack.ImpedancePoints),
			zap.String("circuit_type", record.CircuitType),
			zap.Int("status", resp.StatusCode))
	}
	return ack, nil
}

// sanitizeFloat cleans float64 values for JSON compatibility
func sanitizeFloat(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0.0
	}
	return value
}
