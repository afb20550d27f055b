package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/UnknownOlympus/employees-api/internal/config"
	"github.com/UnknownOlympus/employees-api/internal/metrics"
	"github.com/UnknownOlympus/employees-api/internal/repository"
	"github.com/UnknownOlympus/employees-api/internal/server"
	"github.com/UnknownOlympus/employees-api/internal/services/employees"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	var wgr sync.WaitGroup
	delta := 2

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	dtb, err := repository.NewDatabase(ctx, cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err) //nolint:gocritic // nothing to release yet
	}
	defer dtb.Close()

	employeeRepo := repository.NewEmployeeRepository(dtb, appMetrics)
	staff := employees.NewStaff(logger, employeeRepo, appMetrics)
	employeeHandler := server.NewEmployeeHandler(staff, logger)
	router := server.NewRouter(logger, employeeHandler, appMetrics, cfg.HTTP.AllowedOrigins)

	wgr.Add(delta)

	go func() {
		defer wgr.Done()
		server.StartMonitoringServer(ctx, logger, reg, dtb, cfg.Monitoring.Port)
	}()

	go func() {
		defer wgr.Done()
		logger.InfoContext(ctx, "Starting Employee API", "port", cfg.HTTP.Port)
		if err := server.StartAPIServer(ctx, logger, router, cfg.HTTP); err != nil {
			logger.ErrorContext(ctx, "Employee API failed", "error", err)
			stop()
		}
		logger.InfoContext(ctx, "Employee API stopped.")
	}()

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	wgr.Wait()

	logger.InfoContext(ctx, "Application stopped gracefully...")
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	dropTime := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{Key: "", Value: slog.Value{}}
		}
		return a
	}

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: false,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				AddSource:   false,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				AddSource:   false,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified, or was invalid. Logging will be minimal, by default." +
				" Please specify the value of `env`: local, development, production")
	}

	return log.With(slog.String("app", "employees-api"))
}
