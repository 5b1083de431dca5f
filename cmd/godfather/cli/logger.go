// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"golang.org/x/term"
)

// LogSettings are the logging knobs read from the environment.
type LogSettings struct {
	// Level is a slog level name: debug, info, warn or error.
	Level string `env:"GODFATHER_LOG_LEVEL" envDefault:"info"`
	// Format is text, json, or auto (text on a terminal, JSON
	// otherwise).
	Format string `env:"GODFATHER_LOG_FORMAT" envDefault:"auto"`
}

// LoadLogSettings reads LogSettings from the environment and checks
// them.
func LoadLogSettings() (LogSettings, error) {
	var settings LogSettings
	if err := env.Parse(&settings); err != nil {
		return LogSettings{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := settings.level(); err != nil {
		return LogSettings{}, err
	}
	switch settings.Format {
	case "auto", "text", "json":
	default:
		return LogSettings{}, fmt.Errorf("GODFATHER_LOG_FORMAT must be auto, text or json, got %q", settings.Format)
	}
	return settings, nil
}

func (s LogSettings) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.Level)); err != nil {
		return 0, fmt.Errorf("GODFATHER_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// NewCommandLogger creates the structured logger for a command. In
// auto format it uses slog.TextHandler when stderr is a terminal and
// slog.JSONHandler when stderr is piped or redirected. verbose forces
// debug level.
func NewCommandLogger(verbose bool) *slog.Logger {
	settings, err := LoadLogSettings()
	logger := newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), settings, verbose)
	if err != nil {
		logger.Warn("ignoring logging environment", "error", err)
	}
	return logger
}

func newLogger(w io.Writer, terminal bool, settings LogSettings, verbose bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if level, err := settings.level(); err == nil && settings.Level != "" {
		options.Level = level
	}
	if verbose {
		options.Level = slog.LevelDebug
	}

	text := terminal
	switch settings.Format {
	case "text":
		text = true
	case "json":
		text = false
	}
	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}
