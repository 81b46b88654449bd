package apiapp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Jeffrey-enterN/entern-match/internal/config"
	"github.com/Jeffrey-enterN/entern-match/internal/realtime"
	redrepo "github.com/Jeffrey-enterN/entern-match/internal/repo/redis"
	authsvc "github.com/Jeffrey-enterN/entern-match/internal/services/auth"
	jobinterestsvc "github.com/Jeffrey-enterN/entern-match/internal/services/jobinterest"
	matchessvc "github.com/Jeffrey-enterN/entern-match/internal/services/matches"
	swipesvc "github.com/Jeffrey-enterN/entern-match/internal/services/swipes"
	"github.com/Jeffrey-enterN/entern-match/internal/transport/http/handlers"
)

const requestTimeout = 30 * time.Second

type Dependencies struct {
	AuthService        *authsvc.Service
	SwipeService       *swipesvc.Service
	JobInterestService *jobinterestsvc.Tracker
	MatchService       *matchessvc.Service
	Hub                *realtime.Hub
	Postgres           *pgxpool.Pool
	Redis              *goredis.Client
	Instance           string
	Logger             *zap.Logger
	Config             config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Instance, healthChecks(deps))
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	jobInterestHandler := handlers.NewJobInterestHandler(deps.JobInterestService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	wsHandler := handlers.NewWSHandler(deps.AuthService, deps.Hub, deps.Config.Realtime.AllowedOrigins, deps.Logger.Named("ws"))

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	r.Route("/v1", func(v1 chi.Router) {
		// The upgrade endpoint authenticates itself so browsers can pass the
		// token as a query parameter.
		v1.Get("/ws", wsHandler.Handle)

		v1.Group(func(authed chi.Router) {
			authed.Use(chimiddleware.Timeout(requestTimeout))
			authed.Use(AuthMiddleware(deps.AuthService, deps.Logger))

			authed.Post("/swipes", swipeHandler.Submit)
			authed.Post("/swipes/reset", swipeHandler.Reset)
			authed.Get("/swipes/exclusions", swipeHandler.Exclusions)

			authed.Post("/job-interests", jobInterestHandler.Record)
			authed.Get("/job-interests/exclusions", jobInterestHandler.Exclusions)

			authed.Get("/matches", matchesHandler.List)
			authed.Post("/matches/{id}/jobs", matchesHandler.ShareJob)
			authed.Post("/matches/{id}/scheduling", matchesHandler.EnableScheduling)
			authed.Post("/matches/{id}/interview", matchesHandler.ScheduleInterview)
		})
	})
}

func healthChecks(deps Dependencies) map[string]handlers.HealthCheck {
	checks := make(map[string]handlers.HealthCheck, 2)
	if deps.Postgres != nil {
		pool := deps.Postgres
		checks["postgres"] = func(ctx context.Context) error { return pool.Ping(ctx) }
	}
	if deps.Redis != nil {
		client := deps.Redis
		checks["redis"] = func(ctx context.Context) error { return redrepo.Ping(ctx, client) }
	}
	return checks
}

// notFound keeps 404 bodies in the same {code, message} shape as the handlers.
func notFound(w http.ResponseWriter, _ *http.Request) {
	writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
}
