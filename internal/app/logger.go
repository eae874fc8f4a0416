package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. Production deployments always log
// JSON for the ingestion pipeline; elsewhere LOG_FORMAT picks the handler,
// defaulting to human-readable text.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
