package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/armory-onboarding/internal/app"
	"github.com/riskibarqy/armory-onboarding/internal/config"
	"github.com/riskibarqy/armory-onboarding/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	telemetry, err := observability.Setup(cfg)
	if err != nil {
		return fmt.Errorf("setup observability: %w", err)
	}
	logger := telemetry.Logger
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "observability shutdown: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close app resources", "error", err)
		}
	}()

	if err := application.Run(ctx, shutdownTimeout); err != nil {
		logger.Error("http server failed", "error", err)
		return err
	}
	return nil
}
