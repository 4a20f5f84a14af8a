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

	"github.com/joho/godotenv"
	"tailscale.com/tsnet"

	"github.com/claude/liftlog/internal/auth"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/dataclient"
	"github.com/claude/liftlog/internal/localstore"
	liftlogmcp "github.com/claude/liftlog/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftlog/internal/server"
	"github.com/claude/liftlog/internal/workouts"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit (postgres mode only)")
	mcpStdio := flag.Bool("mcp", false, "serve MCP over stdio instead of HTTP")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("LiftLog starting", "version", Version)

	// A missing .env is fine; config has its own defaults.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	mode := dataclient.SelectMode(cfg)
	log.Info("datastore selected", "mode", mode.String())

	if mode == dataclient.ModePostgres {
		if err := dataclient.RunMigrations(cfg.Database.DSN(), "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	}
	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// The local store is always opened: it backs the emulator and holds the
	// development sign-in slot even when a real backend is configured.
	store, err := localstore.Open(cfg.Store.Dir, log)
	if err != nil {
		log.Error("failed to open local store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	ds, err := dataclient.New(ctx, cfg, store, log)
	if err != nil {
		log.Error("failed to connect datastore", "error", err)
		os.Exit(1)
	}
	defer ds.Close()

	svc := workouts.New(ds, log)
	if err := svc.SeedCatalog(ctx); err != nil {
		log.Error("catalog seeding failed", "error", err)
		os.Exit(1)
	}

	devUser := auth.NewUser(cfg.Identity.Login, cfg.Identity.DisplayName, "")

	if *mcpStdio {
		mcpSrv := liftlogmcp.New(svc, cfg.WeekStartDay(), Version, log)
		if err := mcpserver.ServeStdio(mcpSrv, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return liftlogmcp.WithUserID(ctx, devUser.ID)
		})); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := server.New(svc, store, devUser, cfg.WeekStartDay(), log)

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

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

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
