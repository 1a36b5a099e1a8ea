// ironlog-mcp serves the IronLog MCP tools over stdio. With --url it reads
// from a remote IronLog server's REST API; otherwise it opens the local
// database and catalog directly.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/claude/ironlog/internal/catalog"
	"github.com/claude/ironlog/internal/config"
	"github.com/claude/ironlog/internal/mcp"
	"github.com/claude/ironlog/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	remoteURL := flag.String("url", "", "IronLog server base URL (remote mode)")
	apiKey := flag.String("api-key", "", "API key for remote mode (defaults to IRONLOG_AUTH_API_KEY)")
	flag.Parse()

	// Logs go to stderr; stdout carries the MCP stream.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource

	if *remoteURL != "" {
		key := *apiKey
		if key == "" {
			key = os.Getenv("IRONLOG_AUTH_API_KEY")
		}
		ds = mcp.NewHTTPClient(*remoteURL, key)
		log.Info("remote mode", "url", *remoteURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}

		pool, err := storage.Connect(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		cat, err := catalog.OpenSQLite(cfg.Catalog.Path)
		if err != nil {
			log.Error("failed to open workout catalog", "error", err)
			os.Exit(1)
		}
		defer cat.Close()

		ds = &mcp.Local{SessionRepository: storage.NewPostgres(pool), Catalog: cat}
		log.Info("local mode")
	}

	srv := mcp.New(ds, Version, log)
	if err := server.ServeStdio(srv); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
