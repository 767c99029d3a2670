package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	clisqlpilot "github.com/sqlpilot/sqlpilot/internal/cli/sqlpilot"
	"github.com/sqlpilot/sqlpilot/internal/config"
	"github.com/sqlpilot/sqlpilot/internal/observability"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("sqlpilot")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stderr)
	if cfg.Observability.MetricsAddr != "" {
		observability.ServeMetrics(cfg.Observability.MetricsAddr, logger)
	}

	code := clisqlpilot.Run(context.Background(), os.Args[1:], clisqlpilot.Options{
		Config: cfg,
		Logger: logger,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	os.Exit(code)
}
