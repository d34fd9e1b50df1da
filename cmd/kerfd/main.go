// Command kerfd serves kerf compensation over HTTP.
//
// Usage:
//
//	kerfd [-config kerf.toml] [-v]
//
// See package internal/server for the routes.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/kerf"
	"github.com/gogpu/kerf/internal/config"
	"github.com/gogpu/kerf/internal/server"
)

// ============================================================
// Kerf Service
// ============================================================

func main() {
	var (
		configPath = flag.String("config", os.Getenv("KERF_CONFIG"), "TOML or YAML config file")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	kerf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	srv := server.New(cfg, server.Logger())

	// ============================================================
	// Graceful Shutdown
	// ============================================================

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	// ============================================================
	// Server Start
	// ============================================================

	log.Printf("Starting kerfd on :%s (amount %g, cache %d)", cfg.Server.Port, cfg.Offset.Distance(), cfg.Server.CacheSize)
	if err := srv.Listen(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
