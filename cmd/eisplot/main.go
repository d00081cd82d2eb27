package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kacperjurak/eisplot/pkg/config"
	"github.com/kacperjurak/eisplot/pkg/logging"
	"github.com/kacperjurak/eisplot/pkg/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // best-effort flush

	srv := server.New(server.Options{
		Config: &cfg.Server,
		Logger: logger,
	})

	logger.Info("endpoints available",
		zap.String("webhook", "POST /webhook"),
		zap.Strings("query", []string{"/latest-webhook", "/all-webhooks", "/parameter-evolution"}),
		zap.String("dashboard", "/dashboard"),
		zap.String("stream", "/stream"))

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}
