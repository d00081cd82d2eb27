package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kacperjurak/eisplot/pkg/logging"
	"github.com/kacperjurak/eisplot/pkg/models"
)

// ErrClosed is returned by Submit after Shutdown.
var ErrClosed = errors.New("worker: pool is shut down")

// Sender delivers one record, typically to the webhook endpoint.
type Sender interface {
	Send(ctx context.Context, record models.Record) (models.WebhookAck, error)
}

// Pool fans records out to a fixed number of sending workers.
type Pool struct {
	jobs    chan models.Record
	workers int
	sender  Sender
	logger  *zap.Logger
	ctx     context.Context

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	sent   atomic.Int64
	failed atomic.Int64
}

// Options holds configuration for creating a new worker pool
type Options struct {
	Workers int
	Sender  Sender
	Logger  *zap.Logger
}

// Stats summarises a pool's deliveries.
type Stats struct {
	Sent   int64
	Failed int64
}

// New creates a worker pool and starts its workers. Workers stop sending
// once ctx is cancelled.
func New(ctx context.Context, opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}

	// queue twice the worker count so producers rarely block
	p := &Pool{
		jobs:    make(chan models.Record, opts.Workers*2),
		workers: opts.Workers,
		sender:  opts.Sender,
		logger:  logging.OrNop(opts.Logger),
		ctx:     ctx,
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Debug("worker pool started", zap.Int("workers", p.workers))
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for record := range p.jobs {
		if p.ctx.Err() != nil {
			p.failed.Add(1)
			continue
		}
		if _, err := p.sender.Send(p.ctx, record); err != nil {
			p.failed.Add(1)
			p.logger.Warn("failed to deliver record", zap.Int("worker", id), zap.String("id", record.ID), zap.Error(err))
			continue
		}
		p.sent.Add(1)
	}
}

// Submit queues record for delivery, blocking while the queue is full.
func (p *Pool) Submit(ctx context.Context, record models.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.jobs <- record:
		return nil
	default:
		p.logger.Debug("worker pool queue full, submit may be delayed", zap.String("id", record.ID))
	}

	select {
	case p.jobs <- record:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting records, waits for the queue to drain and
// returns the delivery counts.
func (p *Pool) Shutdown() Stats {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	p.wg.Wait()
	stats := Stats{Sent: p.sent.Load(), Failed: p.failed.Load()}
	p.logger.Debug("worker pool shutdown complete", zap.Int64("sent", stats.Sent), zap.Int64("failed", stats.Failed))
	return stats
}
