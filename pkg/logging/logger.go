// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()

	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit/miss/store, fingerprint, TTL)
//   - Request flow (built request, transport selection)
//   - Internal state changes
//
// Info: Normal operation events
//   - Client construction and teardown
//   - Storage backend selection
//   - File cache sweeper start/stop
//   - Server startup/shutdown (cacheproxy)
//
// Warn: Warning conditions that don't prevent operation
//   - Expired entries skipped at read time
//   - Sweeper unable to remove an entry file
//
// Error: Error conditions requiring attention
//   - Failed requests
//   - Storage read/write failures
//   - Configuration errors
//
// Context Fields:
//   - method: HTTP request method
//   - url: Request URL
//   - status_code: HTTP status code
//   - duration: Request duration
//   - kind: Error kind (configuration, connection, timeout, ...)
//   - from_cache: Boolean indicating the response was served from cache
//   - backend: Cache storage backend (sqlite, file, redis)
//   - fingerprint: Cache entry key
//   - request_id: Per-send correlation id
//   - ttl: Cache entry TTL
