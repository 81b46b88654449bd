package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Jeffrey-enterN/entern-match/internal/config"
	kafkainfra "github.com/Jeffrey-enterN/entern-match/internal/infra/kafka"
	"github.com/Jeffrey-enterN/entern-match/internal/realtime"
	pgrepo "github.com/Jeffrey-enterN/entern-match/internal/repo/postgres"
	redrepo "github.com/Jeffrey-enterN/entern-match/internal/repo/redis"
	authsvc "github.com/Jeffrey-enterN/entern-match/internal/services/auth"
	jobinterestsvc "github.com/Jeffrey-enterN/entern-match/internal/services/jobinterest"
	matchessvc "github.com/Jeffrey-enterN/entern-match/internal/services/matches"
	"github.com/Jeffrey-enterN/entern-match/internal/services/notify"
	ratesvc "github.com/Jeffrey-enterN/entern-match/internal/services/rate"
	swipesvc "github.com/Jeffrey-enterN/entern-match/internal/services/swipes"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	hub        *realtime.Hub
	relaySub   *redrepo.RelaySubscription
	events     *kafkainfra.MatchEventPublisher
	httpRouter http.Handler

	stopRelay context.CancelFunc
	relayDone sync.WaitGroup
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	pool, err := pgrepo.NewPool(ctx, pgrepo.PoolConfig{
		DSN:      cfg.Postgres.DSN,
		MaxConns: int32(cfg.Postgres.MaxConns),
	})
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if cfg.Postgres.ApplySchema {
		if err := pgrepo.ApplySchema(ctx, pool); err != nil {
			log.Warn("postgres schema apply failed, continuing in degraded mode", zap.Error(err))
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	app := &App{
		cfg:      cfg,
		logger:   log,
		postgres: pool,
		redis:    redisClient,
	}

	app.hub = realtime.NewHub(realtime.HubConfig{
		SendBuffer:     cfg.Realtime.SendBuffer,
		WriteWait:      cfg.Realtime.WriteWait,
		PongWait:       cfg.Realtime.PongWait,
		PingPeriod:     cfg.Realtime.PingPeriod,
		MaxMessageSize: cfg.Realtime.MaxMessageSize,
	}, log.Named("hub"))

	busOpts := []notify.Option{notify.WithLogger(log.Named("notify"))}
	var relay *redrepo.NotifyRelay
	if cfg.Realtime.RelayEnabled {
		relay = redrepo.NewNotifyRelay(redisClient, cfg.Realtime.RelayChannel, log.Named("relay"))
		busOpts = append(busOpts, notify.WithRelay(relay))
	}
	bus := notify.New(app.hub, busOpts...)

	if relay != nil {
		sub, err := relay.Subscribe(ctx)
		if err != nil {
			app.closeStores()
			return nil, fmt.Errorf("subscribe notification relay: %w", err)
		}
		app.relaySub = sub
		app.startRelay(bus)
	}

	var events matchessvc.EventSink
	if cfg.Kafka.Enabled {
		publisher, err := kafkainfra.NewMatchEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.MatchCreatedTopic)
		if err != nil {
			app.closeStores()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		app.events = publisher
		events = publisher
	}

	transactor := pgrepo.NewTransactor(pool, cfg.Postgres.TxAttempts)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	jobInterestRepo := pgrepo.NewJobInterestRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager)

	arbiter := matchessvc.NewArbiter(matchessvc.ArbiterDependencies{
		Tx:       transactor,
		Swipes:   swipeRepo,
		Matches:  matchRepo,
		Notifier: bus,
		Events:   events,
		Logger:   log.Named("arbiter"),
	})
	matchService := matchessvc.NewService(matchessvc.Dependencies{
		Tx:       transactor,
		Matches:  matchRepo,
		Postings: jobInterestRepo,
		Notifier: bus,
		Logger:   log.Named("matches"),
	})
	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Store:   swipeRepo,
		Arbiter: arbiter,
		Limiter: ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), cfg.Swipes.RatePerMinute, cfg.Swipes.RatePer10Sec),
		Logger:  log.Named("swipes"),
	}, swipesvc.Config{NegativeHideFor: cfg.Swipes.NegativeHideFor})
	jobInterestService := jobinterestsvc.NewTracker(jobinterestsvc.Dependencies{
		Store:    jobInterestRepo,
		Postings: jobInterestRepo,
		Notifier: bus,
		Logger:   log.Named("jobinterest"),
	})

	instance := ""
	if relay != nil {
		instance = relay.InstanceID()
	}

	RegisterRoutes(r, Dependencies{
		AuthService:        authService,
		SwipeService:       swipeService,
		JobInterestService: jobInterestService,
		MatchService:       matchService,
		Hub:                app.hub,
		Postgres:           pool,
		Redis:              redisClient,
		Instance:           instance,
		Logger:             log,
		Config:             cfg,
	})

	app.httpRouter = r
	app.server = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return app, nil
}

// startRelay pumps frames published by sibling processes into the local hub.
func (a *App) startRelay(bus *notify.Bus) {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopRelay = cancel
	a.relayDone.Add(1)
	go func() {
		defer a.relayDone.Done()
		if err := a.relaySub.Forward(ctx, bus.DeliverRelayed); err != nil {
			a.logger.Error("notification relay stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	a.hub.Close()

	if a.stopRelay != nil {
		a.stopRelay()
		if err := a.relaySub.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
		a.relayDone.Wait()
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	if err := a.closeStores(); err != nil && shutdownErr == nil {
		shutdownErr = err
	}

	return shutdownErr
}

func (a *App) closeStores() error {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
