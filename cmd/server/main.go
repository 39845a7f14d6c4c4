// Package main is the entry point for the yatube server.
//
// main stays small: read configuration, build the logger, make sure the
// data directory exists, then hand everything to internal/server. All
// the real work lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/yatube/internal/config"
	"github.com/sakif/yatube/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Environment variables, optionally seeded from a .env file.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// LOG_FORMAT=json for log shippers, text for humans.
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if cfg.JWTSecretGenerated {
		logger.Warn("JWT_SECRET not set; using a random secret, sessions end on restart")
	}
	if !cfg.GitHubEnabled() {
		logger.Info("GitHub login disabled (GITHUB_CLIENT_ID / GITHUB_CLIENT_SECRET not set)")
	}

	// === 3. DATA DIRECTORIES ===
	// SQLite creates the file but not its parent directory.
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
