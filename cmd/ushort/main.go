package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sifan077/ushort/config"
	"github.com/sifan077/ushort/internal/cli"
	"github.com/sifan077/ushort/internal/infra/logger"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFailure
	}

	log, err := logger.Init(logger.Config{
		Development: cfg.Log.Development,
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
		OutputPath:  cfg.Log.OutputPath,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		Compress:    cfg.Log.Compress,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFailure
	}
	defer func() { _ = logger.Sync() }()

	log.Debug("Configuration loaded",
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Duration("api_timeout", cfg.API.Timeout),
		zap.String("history_driver", cfg.History.Driver),
		zap.Bool("nats_enabled", cfg.NATS.Enabled()),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled()),
	)

	return cli.Run(ctx, os.Args[1:], cli.Env{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Config: cfg,
		Logger: log,
	})
}
