package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kacperjurak/eisplot/pkg/feeder"
	"github.com/kacperjurak/eisplot/pkg/models"
	"github.com/kacperjurak/eisplot/pkg/webhook"
)

var (
	webhookURL string
	workers    int

	circuitCode string
	params      []float64
	spectra     int
	points      int
	fMin        float64
	fMax        float64
	noise       float64
	seed        int64
	runID       string

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Send a synthetic fitting run, one spectrum per iteration",
		Args:  cobra.NoArgs,
	}

	importCmd = &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Send the spectra of a CSV measurement file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
)

func init() {
	// Assigned here rather than in the literal: runSimulate reaches
	// simulateCmd through applyFeedFlags, which would be an init cycle.
	simulateCmd.RunE = runSimulate

	for _, cmd := range []*cobra.Command{simulateCmd, importCmd} {
		cmd.Flags().StringVar(&webhookURL, "url", "", "webhook URL (default from config)")
		cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent senders (default from config)")
	}

	f := simulateCmd.Flags()
	f.StringVarP(&circuitCode, "circuit", "c", "", "Boukamp circuit code, e.g. R(QR)")
	f.Float64SliceVarP(&params, "params", "v", nil, "true element values in circuit order")
	f.IntVarP(&spectra, "spectra", "n", 0, "number of iterations to send")
	f.IntVar(&points, "points", 0, "frequencies per spectrum")
	f.Float64Var(&fMin, "fmin", 0, "lowest frequency in Hz")
	f.Float64Var(&fMax, "fmax", 0, "highest frequency in Hz")
	f.Float64Var(&noise, "noise", -1, "relative measurement noise")
	f.Int64Var(&seed, "seed", 0, "noise seed (default: current time)")
	f.StringVar(&runID, "run", "", "run id prefix (default: random)")
}

// applyFeedFlags overlays explicitly set flags on the loaded configuration.
func applyFeedFlags(cmd *cobra.Command) {
	fc := &cfg.Feeder
	if cmd.Flags().Changed("url") {
		fc.WebhookURL = webhookURL
	}
	if cmd.Flags().Changed("workers") && workers > 0 {
		fc.Workers = workers
	}
	if cmd != simulateCmd {
		return
	}
	if cmd.Flags().Changed("circuit") {
		fc.Circuit = circuitCode
	}
	if cmd.Flags().Changed("params") {
		fc.Params = params
	}
	if cmd.Flags().Changed("spectra") {
		fc.Spectra = spectra
	}
	if cmd.Flags().Changed("points") {
		fc.Points = points
	}
	if cmd.Flags().Changed("fmin") {
		fc.FMin = fMin
	}
	if cmd.Flags().Changed("fmax") {
		fc.FMax = fMax
	}
	if cmd.Flags().Changed("noise") {
		fc.Noise = noise
	}
}

func deliver(cmd *cobra.Command, records []models.Record) error {
	client := webhook.NewClient(webhook.Options{
		URL:    cfg.Feeder.WebhookURL,
		Quiet:  quiet,
		Logger: logger.Named("webhook"),
	})
	stats, err := feeder.Deliver(cmd.Context(), records, feeder.DeliverOptions{
		Workers: cfg.Feeder.Workers,
		Sender:  client,
		Logger:  logger.Named("feeder"),
	})
	if err != nil {
		return err
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d records failed to deliver", stats.Failed, len(records))
	}
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	applyFeedFlags(cmd)
	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}

	fc := cfg.Feeder
	records, err := feeder.Simulate(feeder.SimulateOptions{
		Circuit: fc.Circuit,
		Params:  fc.Params,
		Spectra: fc.Spectra,
		Points:  fc.Points,
		FMin:    fc.FMin,
		FMax:    fc.FMax,
		Noise:   fc.Noise,
		RunID:   runID,
		Seed:    seed,
	})
	if err != nil {
		return err
	}
	if len(records) > 0 {
		logger.Info("simulated run",
			zap.String("circuit", fc.Circuit),
			zap.String("first_id", records[0].ID),
			zap.Int("spectra", len(records)),
			zap.String("webhook_url", fc.WebhookURL))
	}
	return deliver(cmd, records)
}

func runImport(cmd *cobra.Command, args []string) error {
	applyFeedFlags(cmd)

	records, stats, err := feeder.Import(args[0], time.Now())
	if err != nil {
		return err
	}
	logger.Info("imported csv",
		zap.String("file", args[0]),
		zap.Int("rows", stats.Rows),
		zap.Int("skipped", stats.Skipped),
		zap.Int("spectra", len(records)))
	return deliver(cmd, records)
}
