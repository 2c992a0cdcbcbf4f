package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/config"
	"github.com/mohammed-shakir/recycler-discovery/internal/core/health"
	middleware "github.com/mohammed-shakir/recycler-discovery/internal/core/middleware"
	"github.com/mohammed-shakir/recycler-discovery/internal/metrics"
	"github.com/mohammed-shakir/recycler-discovery/internal/screen"
)

// NewRouter wires the health, metrics and screen routes.
func NewRouter(logger *slog.Logger, host *screen.Host, prov *metrics.Provider) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(host))
	switch {
	case prov == nil:
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	case prov.Enabled():
		r.Get("/metrics", prov.Handler().ServeHTTP)
	}
	r.Mount("/screen", screen.Routes(host, logger))
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
