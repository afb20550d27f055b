package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/employees-api/internal/config"
	"github.com/UnknownOlympus/employees-api/internal/lib/logger/sl"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	monitoringReadTimeout = 5 * time.Second
	monitoringShutdown    = 5 * time.Second
)

// NewMonitoringHandler serves /metrics from the given registry and /healthz from the database ping.
func NewMonitoringHandler(log *slog.Logger, reg *prometheus.Registry, db DBPinger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          reg,
	}))
	mux.Handle("/healthz", NewHealthChecker(db, log))

	return mux
}

// StartMonitoringServer runs the metrics and health server until ctx is cancelled.
func StartMonitoringServer(ctx context.Context, log *slog.Logger, reg *prometheus.Registry, db DBPinger, port int) {
	log = log.With(sl.Op("server.StartMonitoringServer"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewMonitoringHandler(log, reg, db),
		ReadHeaderTimeout: monitoringReadTimeout,
	}

	if err := serve(ctx, log, srv, monitoringShutdown); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", sl.Err(err))
	}
}

// StartAPIServer runs the REST API server until ctx is cancelled, then shuts it down gracefully.
func StartAPIServer(ctx context.Context, log *slog.Logger, handler http.Handler, cfg config.HTTPConfig) error {
	log = log.With(sl.Op("server.StartAPIServer"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return serve(ctx, log, srv, cfg.ShutdownTimeout)
}

func serve(ctx context.Context, log *slog.Logger, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		log.InfoContext(ctx, "Starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	// ctx is already cancelled, shutdown needs its own deadline
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	log.InfoContext(ctx, "Shutting down HTTP server", "addr", srv.Addr)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server on %s: %w", srv.Addr, err)
	}

	return nil
}
