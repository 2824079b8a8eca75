// Package app assembles the logging pipeline, router and HTTP server from
// configuration.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"request-correlator/internal/config"
	"request-correlator/internal/errtrack"
	"request-correlator/internal/log"
	"request-correlator/internal/metrics"
	"request-correlator/internal/middleware"
	"request-correlator/internal/requestid"

	"github.com/gin-gonic/gin"
)

// NewLogger builds the logging pipeline writing to w. When error tracking is
// enabled the returned client must be closed on shutdown; it is nil otherwise.
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, *errtrack.Client, error) {
	level := log.ParseLevel(cfg.LogLevel)

	var output slog.Handler
	if cfg.LogFormat == config.LogFormatJSON {
		output = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		output = log.NewTextHandler(w, &log.TextHandlerOptions{Level: level, Base: log.ServerFormatter})
	}

	if !cfg.ErrorTracking.Enabled() {
		return slog.New(log.NewContextHandler(output)), nil, nil
	}

	transport, err := errtrack.NewHTTPTransport(cfg.ErrorTracking.URL, errtrack.HTTPTransportOptions{
		Timeout:  cfg.ErrorTracking.Timeout,
		RetryMax: cfg.ErrorTracking.RetryMax,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create error tracking transport: %w", err)
	}

	client := errtrack.NewClient(errtrack.Options{
		Transport:  transport,
		BeforeSend: errtrack.Chain(errtrack.FingerprintDisallowedHost(cfg.DisallowedHostLogger)),
		QueueSize:  cfg.ErrorTracking.QueueSize,
		// Delivery failures must not be captured again.
		Logger: slog.New(log.NewContextHandler(output)).With(log.LoggerKey, "errtrack"),
	})

	capture := errtrack.NewHandler(output, client, log.ParseLevel(cfg.ErrorTracking.Level))
	return slog.New(log.NewContextHandler(capture)), client, nil
}

// NewRouter builds the gin engine with the request correlation middleware.
func NewRouter(cfg *config.Config, gen requestid.Generator) *gin.Engine {
	var opts []middleware.RequestIDOption
	if cfg.TrustRequestIDHeader {
		opts = append(opts, middleware.WithTrustedHeader())
	}

	router := gin.New()
	router.ContextWithFallback = true
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.RequestID(gen, opts...))
	router.Use(middleware.Recovery())
	router.Use(middleware.AllowedHosts(cfg.AllowedHosts, cfg.DisallowedHostLogger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/v1/request-id", func(c *gin.Context) {
		log.Info(c, "Request ID lookup")
		c.JSON(http.StatusOK, gin.H{"request_id": middleware.GetRequestID(c)})
	})

	return router
}

// NewServer returns the HTTP server serving handler. Every accepted
// connection gets its own request ID Slot.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		ConnContext:  middleware.ConnContext,
	}
}
