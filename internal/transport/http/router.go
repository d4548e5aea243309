package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodpulse/internal/config"
	apperrors "foodpulse/internal/errors"
)

// RouterDeps are the collaborators of the report router.
type RouterDeps struct {
	ReportDir string
	Logger    *slog.Logger
	// Metrics serves /metrics; promhttp.Handler() when nil.
	Metrics http.Handler
	// RateLimitRPS limits the API and chart routes; 0 disables.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the report surface:
//
//	GET /api/report        manifest of the last run
//	GET /api/views         view entries
//	GET /api/views/{name}  one view entry
//	GET /charts/{file}     chart, CSV or manifest file
//	GET /healthz
//	GET /metrics
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	reports := NewReportHandler(deps.ReportDir, logger)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Get("/metrics", metrics.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(StructuredLogger(logger))
		r.Use(Recoverer(logger))
		if deps.RateLimitRPS > 0 {
			r.Use(NewRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst, logger).Handler)
		}

		r.Get("/healthz", reports.Health)
		r.Mount("/api", reports.Routes())
		r.Get("/charts/{file}", reports.ServeFile)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperrors.WriteError(w, apperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apperrors.WriteError(w, apperrors.ErrMethodNotAllowed)
	})
	return r
}

// Serve runs an HTTP server for handler until ctx is cancelled, then shuts
// it down within cfg.ShutdownTimeout.
func Serve(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	return ServeListener(ctx, cfg, ln, handler, logger)
}

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, cfg config.ServerConfig, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "server listening", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}
