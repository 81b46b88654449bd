package apiapp

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authsvc "github.com/Jeffrey-enterN/entern-match/internal/services/auth"
	httperrors "github.com/Jeffrey-enterN/entern-match/internal/transport/http/errors"
)

// Authenticator resolves a bearer token into the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (authsvc.Identity, error)
}

func ApplyMiddlewares(r chiRouter, log *zap.Logger) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(log))
	r.NotFound(notFound)
}

func AuthMiddleware(auth Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				writeAPIError(w, http.StatusInternalServerError, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
				return
			}

			accessToken, ok := authsvc.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
				return
			}

			identity, err := auth.Authenticate(r.Context(), accessToken)
			if err != nil {
				if log != nil {
					log.Debug("auth middleware validation failed", zap.Error(err))
				}
				writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(authsvc.WithIdentity(r.Context(), identity)))
		})
	}
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if log != nil {
				log.Info("http_request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.String("request_id", chimiddleware.GetReqID(r.Context())),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	httperrors.Write(w, status, httperrors.APIError{Code: code, Message: message})
}

type chiRouter interface {
	Use(middlewares ...func(http.Handler) http.Handler)
	NotFound(h http.HandlerFunc)
}
