package feeder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/eisplot/pkg/csvimport"
	"github.com/kacperjurak/eisplot/pkg/logging"
	"github.com/kacperjurak/eisplot/pkg/models"
	"github.com/kacperjurak/eisplot/pkg/worker"
)

// Import reads a CSV spectrum file into records.
func Import(path string, now time.Time) ([]models.Record, csvimport.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, csvimport.Stats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, stats, err := csvimport.Parse(f, filepath.Base(path), now)
	if err != nil {
		return nil, stats, fmt.Errorf("import %s: %w", path, err)
	}
	return records, stats, nil
}

// DeliverOptions configures Deliver.
type DeliverOptions struct {
	Workers int
	Sender  worker.Sender
	Logger  *zap.Logger
}

// Deliver sends records through a worker pool and waits for every delivery
// to finish. The returned error is set only when submission was interrupted.
func Deliver(ctx context.Context, records []models.Record, opts DeliverOptions) (worker.Stats, error) {
	logger := logging.OrNop(opts.Logger)
	pool := worker.New(ctx, worker.Options{
		Workers: opts.Workers,
		Sender:  opts.Sender,
		Logger:  logger,
	})

	var submitErr error
	for _, rec := range records {
		if err := pool.Submit(ctx, rec); err != nil {
			submitErr = fmt.Errorf("submit %s: %w", rec.ID, err)
			break
		}
	}

	stats := pool.Shutdown()
	logger.Info("delivery finished",
		zap.Int("records", len(records)),
		zap.Int64("sent", stats.Sent),
		zap.Int64("failed", stats.Failed))
	return stats, submitErr
}
