package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	httpx "github.com/target/interview-reminder/internal/http"
)

// HTTPServerConfig contains configuration for the ops HTTP server.
type HTTPServerConfig struct {
	Addr     string
	Services ServiceContainer
	Logger   *slog.Logger
}

// buildRouterServices exposes the engine state and poll health to the router.
func buildRouterServices(services ServiceContainer, logger *slog.Logger) httpx.RouterServices {
	rs := httpx.RouterServices{Logger: logger}
	if services.Engine != nil {
		rs.Reminders = services.Engine.Store()
	}
	if services.PollRunner != nil {
		rs.Polls = services.PollRunner
	}
	return rs
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler := httpx.NewRouter(buildRouterServices(cfg.Services, logger))
	return startServer(logger, handler, cfg.Addr)
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
