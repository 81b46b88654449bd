// Command notify-tail opens a realtime connection with CLIENT_TOKEN and logs
// every envelope it receives until interrupted.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Jeffrey-enterN/entern-match/internal/config"
	"github.com/Jeffrey-enterN/entern-match/internal/infra/logger"
	"github.com/Jeffrey-enterN/entern-match/internal/realtime"
	"github.com/Jeffrey-enterN/entern-match/internal/realtime/client"
)

func main() {
	cfg, err := config.Load(os.Getenv("APP_CONFIG"))
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.Client.Token == "" {
		log.Fatal("CLIENT_TOKEN is required")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.Client.Token)

	manager, err := client.NewManager(client.Config{
		URL:    cfg.Client.URL,
		Header: header,
		Backoff: client.Backoff{
			BaseDelay:   cfg.Client.BaseDelay,
			Multiplier:  cfg.Client.Multiplier,
			MaxAttempts: cfg.Client.MaxAttempts,
		},
		DialTimeout: cfg.Client.DialTimeout,
		ReadTimeout: cfg.Client.ReadTimeout,
		Logger:      log.Named("realtime"),
	})
	if err != nil {
		log.Fatal("create realtime client", zap.Error(err))
	}

	logEnvelope := func(env realtime.Envelope) error {
		log.Info("envelope",
			zap.String("type", env.Type),
			zap.Int64("timestamp", env.Timestamp),
			zap.ByteString("payload", env.Payload),
		)
		return nil
	}
	for _, typ := range []string{
		realtime.TypeConnection,
		realtime.TypeNewMatch,
		realtime.TypeJobShared,
		realtime.TypeJobInterest,
		realtime.TypeInterviewScheduled,
	} {
		manager.On(typ, logEnvelope)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Connect(ctx); err != nil {
		log.Warn("initial connect failed, waiting for reconnect", zap.Error(err))
	}

	<-ctx.Done()
	manager.Disconnect()
	log.Info("realtime client stopped", zap.Stringer("state", manager.State()))
}
