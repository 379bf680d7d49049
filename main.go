package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"cleen/config"
	"cleen/logger"
	"cleen/metrics"
	"cleen/runner"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to the yaml config (default ./configs/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		return 2
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error setting up logger:", err)
		return 2
	}
	defer logger.Flush(log.Logger)

	if len(cfg.Jobs) == 0 {
		log.Logger.Warn("no jobs configured")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.NewRecorder()
	r := runner.New(cfg, log.Logger, rec)

	log.Logger.Info("running quality reports",
		zap.Int("jobs", len(cfg.Jobs)),
		zap.Int("workers", cfg.Workers))
	results := r.Run(ctx, cfg.Jobs)

	if cfg.MetricsTextfile != "" {
		if err := rec.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Logger.Error("metrics textfile not written", zap.Error(err))
		}
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		log.Logger.Error("some jobs failed", zap.Int("failed", failed), zap.Int("total", len(results)))
		return 1
	}
	return 0
}
