package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kacperjurak/eisplot/pkg/poller"
)

var (
	baseURL string
	once    bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Poll a server and log every view update",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
)

func init() {
	watchCmd.Flags().StringVar(&baseURL, "server", "", "server base URL (default from config)")
	watchCmd.Flags().BoolVar(&once, "once", false, "poll once and print the parameter evolution as JSON")
}

func runWatch(cmd *cobra.Command, args []string) error {
	pc := cfg.Poller
	if cmd.Flags().Changed("server") {
		pc.BaseURL = baseURL
	}

	p := poller.New(poller.Options{
		BaseURL:  pc.BaseURL,
		Interval: pc.Interval,
		Timeout:  pc.Timeout,
		Logger:   logger.Named("poller"),
		OnUpdate: logView,
	})

	if once {
		view, err := p.Poll(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view.Evolution)
	}

	logger.Info("watching", zap.String("server", pc.BaseURL), zap.Duration("interval", pc.Interval))
	return p.Run(cmd.Context())
}

func logView(v *poller.View) {
	if v.Latest == nil {
		if !quiet {
			logger.Info("no data yet", zap.Int("records", len(v.History)))
		}
		return
	}

	fields := []zap.Field{
		zap.String("latest_id", v.Latest.ID),
		zap.String("circuit_type", v.Latest.CircuitType),
		zap.Int("records", len(v.History)),
	}
	if v.Latest.ChiSquare != nil {
		fields = append(fields, zap.Float64("chi_square", *v.Latest.ChiSquare))
	}
	for _, row := range v.Evolution.Table {
		if row.ID != v.Latest.ID {
			continue
		}
		fields = append(fields,
			zap.Int("iteration", row.Iteration),
			zap.Any("parameters", row.Values),
			zap.String("series", strings.Join(v.Evolution.Names, ",")))
		break
	}
	logger.Info("view updated", fields...)
}
