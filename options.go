package models

import (
	"net/http"
	"time"
)

// Network timeout constants for model downloads.
const (
	// DefaultConnectTimeout is the maximum time to establish a connection.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultReadTimeout is the maximum time to wait for response headers.
	DefaultReadTimeout = 60 * time.Second
)

// DownloadOption configures a single download operation.
type DownloadOption func(*downloadConfig)

// downloadConfig holds configuration for a download operation.
type downloadConfig struct {
	// progressFn is called with clamped percent updates during download.
	progressFn func(percent int)
}

// WithProgress sets a callback for percent updates during download.
// Values are delivered in non-decreasing order; the fetch phase never
// reports more than 95, and a successful download ends at 100.
func WithProgress(fn func(percent int)) DownloadOption {
	return func(c *downloadConfig) {
		c.progressFn = fn
	}
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerConfig)

// managerConfig holds configuration for Manager construction.
type managerConfig struct {
	// httpClient is used for all archive fetches.
	httpClient HTTPClient

	// logger receives diagnostic log messages.
	logger Logger

	// probe reports whether some network transport is currently up.
	probe ConnectivityProbe

	// registry maps model names to descriptors.
	registry *Registry
}

// WithHTTPClient sets a custom HTTP client for archive fetches.
// Useful for testing with mock servers or customizing timeouts.
// If not set, a client with the default connect/read timeouts is used.
func WithHTTPClient(client HTTPClient) ManagerOption {
	return func(c *managerConfig) {
		c.httpClient = client
	}
}

// WithLogger sets a logger for diagnostic output.
// If not set, logging is disabled.
func WithLogger(logger Logger) ManagerOption {
	return func(c *managerConfig) {
		c.logger = logger
	}
}

// WithConnectivityProbe sets the probe consulted before starting a download.
// If not set, a probe based on the host's network interfaces is used.
func WithConnectivityProbe(probe ConnectivityProbe) ManagerOption {
	return func(c *managerConfig) {
		c.probe = probe
	}
}

// WithRegistry replaces the built-in model registry.
func WithRegistry(registry *Registry) ManagerOption {
	return func(c *managerConfig) {
		c.registry = registry
	}
}

// HTTPClient is the interface for HTTP operations.
// *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}

// ConnectivityProbe reports whether some network transport (Wi-Fi, cellular,
// or wired) is currently up. Polled synchronously before each download.
type ConnectivityProbe func() bool

// Logger is the interface for diagnostic logging.
// Compatible with slog, zap, logrus, and other structured loggers.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
}
