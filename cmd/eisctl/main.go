package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kacperjurak/eisplot/pkg/config"
	"github.com/kacperjurak/eisplot/pkg/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	quiet bool

	rootCmd = &cobra.Command{
		Use:   "eisctl",
		Short: "Feed and watch an eisplot server",
		Long: `eisctl sends impedance spectra to an eisplot server, either simulated
fitting runs or CSV measurement files, and watches what the server holds.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logger, err = logging.NewLogger()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-record logs")
	rootCmd.AddCommand(simulateCmd, importCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
