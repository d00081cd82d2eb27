// Package poller periodically reads the query endpoints of an eisplot server
// and republishes the result as an immutable view.
package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kacperjurak/eisplot/pkg/iteration"
	"github.com/kacperjurak/eisplot/pkg/logging"
	"github.com/kacperjurak/eisplot/pkg/models"
	"github.com/kacperjurak/eisplot/pkg/parameters"
	"github.com/kacperjurak/eisplot/pkg/profiling"
)

const (
	latestPath = "/latest-webhook"
	allPath    = "/all-webhooks"
)

// View is the state derived from one successful tick. Views are never
// mutated after they are published.
type View struct {
	// Latest is nil until the server has received a record.
	Latest    *models.Record
	History   []models.Record
	Sorted    []models.Record
	Evolution parameters.Evolution
	UpdatedAt time.Time
}

// Options configures a Poller.
type Options struct {
	BaseURL  string
	Interval time.Duration
	// Timeout bounds a whole tick; zero means no bound.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *profiling.Metrics
	// OnUpdate is called with every new view from the polling goroutine.
	OnUpdate func(*View)
}

// Poller fetches the latest record and the full history on a fixed interval.
type Poller struct {
	baseURL  string
	interval time.Duration
	timeout  time.Duration
	client   *http.Client
	logger   *zap.Logger
	metrics  *profiling.Metrics
	onUpdate func(*View)

	view atomic.Pointer[View]
}

// New creates a poller. Interval defaults to two seconds.
func New(opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Poller{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		interval: opts.Interval,
		timeout:  opts.Timeout,
		client:   opts.HTTPClient,
		logger:   logging.OrNop(opts.Logger),
		metrics:  opts.Metrics,
		onUpdate: opts.OnUpdate,
	}
}

// Current returns the most recent view, or nil before the first successful tick.
func (p *Poller) Current() *View {
	return p.view.Load()
}

// Run polls immediately and then on every interval until ctx is cancelled.
// Failed ticks are logged and skipped.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	view, err := p.Poll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("poll failed", zap.String("base_url", p.baseURL), zap.Error(err))
		p.count("error")
		return
	}
	p.count("ok")

	p.view.Store(view)
	if p.onUpdate != nil {
		p.onUpdate(view)
	}
}

func (p *Poller) count(result string) {
	if p.metrics != nil {
		p.metrics.PollTicks.WithLabelValues(result).Inc()
	}
}

// Poll performs one tick: both reads run concurrently and the view is built
// only when both succeed.
func (p *Poller) Poll(ctx context.Context) (*View, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var (
		latest  *models.Record
		history []models.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := p.get(gctx, latestPath)
		if err != nil {
			return err
		}
		latest, err = decodeLatest(body)
		return err
	})
	g.Go(func() error {
		body, err := p.get(gctx, allPath)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &history); err != nil {
			return fmt.Errorf("decode %s: %w", allPath, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if history == nil {
		history = []models.Record{}
	}
	sorted := iteration.Sort(history)
	return &View{
		Latest:    latest,
		History:   history,
		Sorted:    sorted,
		Evolution: parameters.Build(sorted),
		UpdatedAt: time.Now(),
	}, nil
}

func (p *Poller) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: status %d", path, resp.StatusCode)
	}
	return body, nil
}

// decodeLatest maps the "no data yet" message object to nil.
func decodeLatest(body []byte) (*models.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", latestPath, err)
	}
	if _, ok := fields["ID"]; !ok {
		return nil, nil
	}

	var rec models.Record
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", latestPath, err)
	}
	return &rec, nil
}
