package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/ironlog/internal/catalog"
	"github.com/claude/ironlog/internal/config"
	"github.com/claude/ironlog/internal/server"
	"github.com/claude/ironlog/internal/session"
	"github.com/claude/ironlog/internal/storage"
	"github.com/claude/ironlog/internal/store"
	"github.com/google/uuid"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	inMemory := flag.Bool("in-memory", false, "use in-memory storage and a seed workout (dev mode, no database)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("IronLog starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var repo storage.SessionRepository
	var workouts catalog.WorkoutSource

	if *inMemory {
		repo = storage.NewMemory()
		tpl := catalog.DefaultTemplate()
		workouts = catalog.NewMemory(tpl)
		log.Info("in-memory mode", "seed_workout", tpl.Name, "workout_id", tpl.ID)
	} else {
		// Run migrations
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		// Connect database
		pool, err := storage.Connect(context.Background(), dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = storage.NewPostgres(pool)
		log.Info("database connected")

		// Open workout catalog
		cat, err := catalog.OpenSQLite(cfg.Catalog.Path)
		if err != nil {
			log.Error("failed to open workout catalog", "error", err)
			os.Exit(1)
		}
		defer cat.Close()
		workouts = cat
		log.Info("workout catalog opened", "path", cfg.Catalog.Path)
	}

	// Wire session core
	svc := session.NewService(repo, workouts)
	rest := store.NewRestTimerManager(func(exerciseID uuid.UUID) {
		log.Info("rest timer done", "exercise_id", exerciseID)
	})
	storeOpts := []store.Option{store.WithRestNotifier(rest)}
	if cfg.Store.MessageSeconds > 0 || cfg.Store.EndHoldMillis > 0 {
		messageTTL := 3 * time.Second
		if cfg.Store.MessageSeconds > 0 {
			messageTTL = time.Duration(cfg.Store.MessageSeconds) * time.Second
		}
		endHold := 500 * time.Millisecond
		if cfg.Store.EndHoldMillis > 0 {
			endHold = time.Duration(cfg.Store.EndHoldMillis) * time.Millisecond
		}
		storeOpts = append(storeOpts, store.WithTimings(messageTTL, endHold))
	}
	sessions := store.New(svc, repo, storeOpts...)
	defer sessions.Close()

	// Restore any active session from a previous run
	sessions.LoadActiveSession(context.Background())
	if err := sessions.Err(); err != nil {
		log.Warn("active session restore failed", "error", err)
	} else if current := sessions.Current(); current != nil {
		log.Info("active session restored", "session_id", current.ID)
	}

	// Create server
	srv := server.New(sessions, repo, workouts, cfg.Auth.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
