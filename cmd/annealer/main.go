package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/warrenhq/warren/internal/cache"
	"github.com/warrenhq/warren/internal/db"
	"github.com/warrenhq/warren/internal/forum"
	"github.com/warrenhq/warren/pkg/config"
	"github.com/warrenhq/warren/pkg/logging"
	"github.com/warrenhq/warren/pkg/telemetry"
)

func main() {
	once := flag.Bool("once", false, "run a single annealing cycle and exit")
	flag.Parse()

	// Optional .env for local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Warren Annealer")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect to database
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Connect to Redis
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	service := forum.NewService(cfg, database, redisCache)

	if *once {
		if err := service.RunAnnealing(context.Background()); err != nil {
			logger.Fatal("Annealing cycle failed", zap.Error(err))
		}
		logger.Info("Annealer exited")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	go service.AnnealingLoop(ctx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down annealer...")
	cancel()
	logger.Info("Annealer exited")
}
