package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/warrenhq/warren/internal/api"
	"github.com/warrenhq/warren/internal/cache"
	"github.com/warrenhq/warren/internal/db"
	"github.com/warrenhq/warren/internal/forum"
	"github.com/warrenhq/warren/internal/hasher"
	"github.com/warrenhq/warren/internal/relations"
	"github.com/warrenhq/warren/pkg/config"
	"github.com/warrenhq/warren/pkg/logging"
	"github.com/warrenhq/warren/pkg/telemetry"
)

func main() {
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
	logger.Info("Starting Warren API Server")

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

	// The salt rotates on every start, so everything keyed by fingerprint
	// or serialized with an older encoding has to go before serving.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := relations.ClearOutdated(startupCtx, redisCache.Client()); err != nil {
		logger.Fatal("Failed to clear outdated relationship state", zap.Error(err))
	}
	service.ClearAllObjectCache(startupCtx)
	cancelStartup()

	// Background hot-score decay, unless a dedicated annealer runs
	annealCtx, cancelAnneal := context.WithCancel(context.Background())
	defer cancelAnneal()
	if cfg.Annealing.RunInServer {
		go service.AnnealingLoop(annealCtx)
	}

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(api.RequestID())
	engine.Use(api.AccessLog(logger))

	router := api.NewRouter(service, hasher.New())
	router.SetupRoutes(engine)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancelAnneal()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
