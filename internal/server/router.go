package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/UnknownOlympus/employees-api/internal/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

const corsMaxAge = 300

// NewRouter builds the public API router: CORS, access logging, panic recovery,
// request metrics and the /api/employees routes.
func NewRouter(
	log *slog.Logger,
	handler *EmployeeHandler,
	appMetrics *metrics.Metrics,
	allowedOrigins []string,
) *chi.Mux {
	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         corsMaxAge,
	}))

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.CleanPath)
	router.Use(httplog.RequestLogger(log, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	router.Use(Instrument(appMetrics))
	router.Use(chiMiddleware.Recoverer)

	router.NotFound(func(writer http.ResponseWriter, req *http.Request) {
		handler.fail(writer, req, http.StatusNotFound, "No handler for "+req.URL.Path)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, req *http.Request) {
		handler.fail(writer, req, http.StatusMethodNotAllowed, "Method "+req.Method+" is not supported")
	})

	router.Route("/api/employees", handler.Routes)

	return router
}

// Instrument records the request count and latency per chi route pattern.
func Instrument(appMetrics *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
			startTime := time.Now()
			wrapped := chiMiddleware.NewWrapResponseWriter(writer, req.ProtoMajor)

			defer func() {
				route := "unmatched"
				if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}

				status := wrapped.Status()
				if status == 0 {
					status = http.StatusOK
				}

				appMetrics.HTTPRequests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
				appMetrics.HTTPRequestDuration.WithLabelValues(req.Method, route).
					Observe(time.Since(startTime).Seconds())
			}()

			next.ServeHTTP(wrapped, req)
		})
	}
}
