package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Jeffrey-enterN/entern-match/internal/app/apiapp"
	"github.com/Jeffrey-enterN/entern-match/internal/config"
	"github.com/Jeffrey-enterN/entern-match/internal/infra/logger"
)

const shutdownGrace = 10 * time.Second

func main() {
	defaultPath := os.Getenv("APP_CONFIG")
	if defaultPath == "" {
		defaultPath = "configs/config.yaml"
	}
	cfgPath := flag.String("config", defaultPath, "path to the YAML config file")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "entern-match api: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("entern-match api starting",
		zap.String("env", cfg.Env),
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("config", cfgPath),
		zap.Bool("relay_enabled", cfg.Realtime.RelayEnabled),
		zap.String("relay_channel", cfg.Realtime.RelayChannel),
		zap.Bool("kafka_enabled", cfg.Kafka.Enabled),
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
		zap.Duration("negative_hide_for", cfg.Swipes.NegativeHideFor),
		zap.Int("swipes_per_minute", cfg.Swipes.RatePerMinute),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := apiapp.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("create api app: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received", zap.Duration("grace", shutdownGrace))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown api app", zap.Error(err))
			return err
		}
		log.Info("entern-match api stopped")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api server failed", zap.Error(err))
			return err
		}
		return nil
	}
}
