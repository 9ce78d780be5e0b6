package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/soltixdb/eventseries/internal/config"
	"github.com/soltixdb/eventseries/internal/ingest"
	"github.com/soltixdb/eventseries/internal/logging"
	"github.com/soltixdb/eventseries/internal/pipeline"
	"github.com/soltixdb/eventseries/internal/queue"
	"github.com/soltixdb/eventseries/internal/router"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Analytics service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime,
		"analytics", cfg.Analytics.String())

	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	p := pipeline.New(logger)
	app := router.New(logger, p, *cfg, Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	if cfg.Ingest.Enabled {
		queueClient := startIngest(ctx, &wg, logger, p, cfg)
		defer func() { _ = queueClient.Close() }()
	}

	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop the ingest worker first so its final flush can still publish
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

// startIngest connects the queue and runs the ingest worker until ctx is canceled
func startIngest(ctx context.Context, wg *sync.WaitGroup, logger *logging.Logger, p *pipeline.Pipeline, cfg *config.Config) queue.Queue {
	req, err := pipeline.RequestFromConfig(cfg.Analytics)
	if err != nil {
		logger.Fatal("Invalid analytics config", "error", err)
	}

	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	queueClient, err := queue.NewQueue(cfg.Queue, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	logger.Info("Queue connection established")

	worker, err := ingest.NewWorker(queueClient, p, cfg.Ingest, req, logger)
	if err != nil {
		logger.Fatal("Failed to create ingest worker", "error", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := worker.Run(ctx); err != nil {
			logger.Error("Ingest worker stopped with error", "error", err)
		}
	}()
	return queueClient
}
