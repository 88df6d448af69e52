package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/abhisek/quiznote/internal/store"
)

// OpenLogger creates a JSON logger appending to the configured log file.
// The returned closer closes the file.
func (c *Config) OpenLogger() (*slog.Logger, io.Closer, error) {
	if err := store.EnsureDir(c.LogPath); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: c.LogLevel})
	return slog.New(handler), f, nil
}
