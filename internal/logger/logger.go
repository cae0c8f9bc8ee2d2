// Package logger wires log/slog for the gateway. It maps the logging
// section of the config onto a leveled handler writing to stdout, stderr,
// or a file, and stamps every record with a nested service group so logs
// from different replicas can be told apart in aggregation.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"finadvisor/internal/models"
	"finadvisor/internal/version"
)

// Setup builds the service logger from the logging config. The returned
// closer is non-nil only for file output; the caller closes it on shutdown.
func Setup(cfg models.LoggingConfig, ver version.Info) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	writer, closer, err := openWriter(cfg.Output, cfg.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}

	// JSON is the service default; text is opt-in for local runs.
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "text") {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}

	logger := slog.New(handler).With(slog.Group("service",
		slog.String("name", "finadvisor"),
		slog.String("version", ver.Version),
		slog.String("instance_id", ver.InstanceID),
	))

	return logger, closer, nil
}

// parseLevel maps a config level onto slog. An empty level means info;
// anything else unrecognized is a config error.
func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %q", level)
	}
}

// openWriter resolves the configured sink. Unrecognized outputs fail at
// startup rather than silently landing on stdout.
func openWriter(output, filePath string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	case "file":
		if strings.TrimSpace(filePath) == "" {
			return nil, nil, fmt.Errorf("file path is required when output is file")
		}
		// Question text reaches debug records, so the file stays private.
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
		}
		return f, f, nil
	default:
		return nil, nil, fmt.Errorf("unsupported log output: %q", output)
	}
}
