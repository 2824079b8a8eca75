package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// ErrorTrackingConfig holds settings for reporting error events.
type ErrorTrackingConfig struct {
	// URL is the event ingestion endpoint. Reporting is disabled when empty.
	URL       string
	Level     string
	QueueSize int
	RetryMax  int
	Timeout   time.Duration
}

// Enabled reports whether error events are sent anywhere.
func (c ErrorTrackingConfig) Enabled() bool {
	return c.URL != ""
}

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port                  string
	GinMode               string
	ServerReadTimeout     time.Duration
	ServerWriteTimeout    time.Duration
	ServerShutdownTimeout time.Duration

	// Logging settings
	LogLevel  string
	LogFormat string

	// Request settings
	AllowedHosts         []string
	TrustRequestIDHeader bool
	DisallowedHostLogger string

	ErrorTracking ErrorTrackingConfig
}

// loader collects parse errors so that every invalid variable is reported at once.
type loader struct {
	errs []error
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	l := &loader{}

	cfg := &Config{
		Port:    l.getEnvDefault("PORT", "8080"),
		GinMode: l.getEnvDefault("GIN_MODE", "debug"),

		LogLevel:  l.getEnvDefault("LOG_LEVEL", "info"),
		LogFormat: l.getEnvDefault("LOG_FORMAT", LogFormatText),

		AllowedHosts:         l.getEnvList("ALLOWED_HOSTS", []string{"localhost", "127.0.0.1"}),
		DisallowedHostLogger: l.getEnvDefault("DISALLOWED_HOST_LOGGER", "security.DisallowedHost"),

		ErrorTracking: ErrorTrackingConfig{
			URL:   l.getEnvDefault("ERROR_TRACKING_URL", ""),
			Level: l.getEnvDefault("ERROR_TRACKING_LEVEL", "error"),
		},
	}

	cfg.TrustRequestIDHeader = l.getEnvBool("TRUST_REQUEST_ID_HEADER", false)

	cfg.ServerReadTimeout = l.getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second)
	cfg.ServerWriteTimeout = l.getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second)
	cfg.ServerShutdownTimeout = l.getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)

	cfg.ErrorTracking.QueueSize = l.getEnvInt("ERROR_TRACKING_QUEUE_SIZE", 100)
	cfg.ErrorTracking.RetryMax = l.getEnvInt("ERROR_TRACKING_RETRY_MAX", 2)
	cfg.ErrorTracking.Timeout = l.getEnvDuration("ERROR_TRACKING_TIMEOUT", 5*time.Second)

	l.errs = append(l.errs, cfg.validate()...)
	if len(l.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(l.errs...))
	}

	return cfg, nil
}

// validate checks that all values are present and valid.
func (c *Config) validate() []error {
	var errs []error

	if c.GinMode != "debug" && c.GinMode != "release" && c.GinMode != "test" {
		errs = append(errs, fmt.Errorf("invalid GIN_MODE: %s (must be debug, release, or test)", c.GinMode))
	}

	if !isLogLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %s (must be debug, info, warn, or error)", c.LogLevel))
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		errs = append(errs, fmt.Errorf("invalid LOG_FORMAT: %s (must be text or json)", c.LogFormat))
	}

	if len(c.AllowedHosts) == 0 {
		errs = append(errs, errors.New("ALLOWED_HOSTS must list at least one host"))
	}
	if c.DisallowedHostLogger == "" {
		errs = append(errs, errors.New("DISALLOWED_HOST_LOGGER must not be empty"))
	}

	if c.ServerReadTimeout <= 0 {
		errs = append(errs, errors.New("SERVER_READ_TIMEOUT must be positive"))
	}
	if c.ServerWriteTimeout <= 0 {
		errs = append(errs, errors.New("SERVER_WRITE_TIMEOUT must be positive"))
	}
	if c.ServerShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SERVER_SHUTDOWN_TIMEOUT must be positive"))
	}

	if c.ErrorTracking.Enabled() {
		if u, err := url.Parse(c.ErrorTracking.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid ERROR_TRACKING_URL: %s (must be an absolute http(s) URL)", c.ErrorTracking.URL))
		}
	}
	if !isLogLevel(c.ErrorTracking.Level) {
		errs = append(errs, fmt.Errorf("invalid ERROR_TRACKING_LEVEL: %s (must be debug, info, warn, or error)", c.ErrorTracking.Level))
	}
	if c.ErrorTracking.QueueSize <= 0 {
		errs = append(errs, errors.New("ERROR_TRACKING_QUEUE_SIZE must be positive"))
	}
	if c.ErrorTracking.RetryMax < 0 {
		errs = append(errs, errors.New("ERROR_TRACKING_RETRY_MAX must not be negative"))
	}
	if c.ErrorTracking.Timeout <= 0 {
		errs = append(errs, errors.New("ERROR_TRACKING_TIMEOUT must be positive"))
	}

	return errs
}

func isLogLevel(level string) bool {
	return level == "debug" || level == "info" || level == "warn" || level == "error"
}

// getEnvDefault gets an environment variable with a default value.
func (l *loader) getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList gets a comma separated environment variable with a default value.
func (l *loader) getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvBool gets a boolean environment variable with a default value.
func (l *loader) getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid boolean value for %s: %s", key, value))
		return defaultValue
	}
	return b
}

// getEnvInt gets an integer environment variable with a default value.
func (l *loader) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid integer value for %s: %s", key, value))
		return defaultValue
	}
	return i
}

// getEnvDuration gets a duration environment variable with a default value.
func (l *loader) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid duration value for %s: %s", key, value))
		return defaultValue
	}
	return d
}
