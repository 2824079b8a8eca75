package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"request-correlator/internal/app"
	"request-correlator/internal/config"
	"request-correlator/internal/requestid"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger, tracker, err := app.NewLogger(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	router := app.NewRouter(cfg, requestid.NewShortUUID())
	server := app.NewServer(cfg, router)

	slog.Info("Starting server", "component", "server", "port", cfg.Port,
		"error_tracking", cfg.ErrorTracking.Enabled())

	// Start server in a goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "component", "server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...", "component", "server")

	// Give outstanding requests time to complete
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()

	exitCode := 0
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "component", "server", "error", err)
		exitCode = 1
	}

	if tracker != nil {
		if err := tracker.Close(ctx); err != nil {
			slog.Warn("Pending error events were not delivered", "component", "shutdown", "error", err)
		}
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	slog.Info("Server exited gracefully", "component", "server")
}
