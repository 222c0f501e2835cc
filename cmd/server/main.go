// Package main is the entry point for the quotes API server.
//
// main stays minimal: load configuration, build the logger, ensure the data
// directory exists, and hand off to internal/server. Everything else lives in
// the internal packages so it can be tested without running a binary.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/quotes-api/internal/config"
	"github.com/sakif/quotes-api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	// The SQLite file lives under a directory that may not exist yet
	// (default: data/quotes.db).
	if dbDir := filepath.Dir(cfg.DBPath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

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
