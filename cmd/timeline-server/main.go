// Command timeline-server runs the timeline aggregation API over one of
// the supported entity store backends.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/evercore/timeline/internal/config"
	"github.com/evercore/timeline/internal/server"
	"github.com/evercore/timeline/internal/storage"
	"github.com/evercore/timeline/internal/storage/memory"
	"github.com/evercore/timeline/internal/storage/postgres"
	"github.com/evercore/timeline/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (default: config/timeline.yaml if present)")
	flag.Parse()

	if *configPath == "" {
		defaultPath := "config/timeline.yaml"
		if _, err := os.Stat(defaultPath); err == nil {
			*configPath = defaultPath
		}
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		log.Printf("Using config file: %s", *configPath)
		cfg, err = config.LoadConfigFile(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() { _ = store.Close() }()

	if cfg.Breaker.Enabled {
		store = storage.NewBreakerStoreWithConfig(store, storage.BreakerConfig{
			MaxFailures:          uint32(cfg.Breaker.MaxFailures),
			Timeout:              cfg.Breaker.Timeout,
			HalfOpenMaxSuccesses: 2,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := server.Start(ctx, cfg, store)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Timeline API running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// openStore selects the store backend from configuration.
func openStore(cfg *config.Config) (storage.EntityStore, error) {
	switch cfg.Storage.Engine {
	case "postgres":
		return postgres.NewStore(cfg.Storage.PostgresDSN)
	case "memory":
		return memory.NewStore(), nil
	default:
		if dir := filepath.Dir(cfg.Storage.DataPath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, err
			}
		}
		return sqlite.NewStore(cfg.Storage.DataPath)
	}
}
