package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/stockfolio/stockfolio/api"
	"github.com/stockfolio/stockfolio/internal/cache"
	"github.com/stockfolio/stockfolio/internal/config"
	"github.com/stockfolio/stockfolio/internal/database"
	"github.com/stockfolio/stockfolio/internal/identities"
	"github.com/stockfolio/stockfolio/internal/portfolio"
	"github.com/stockfolio/stockfolio/pkg/logger"
	"github.com/stockfolio/stockfolio/pkg/metrics"
	"github.com/stockfolio/stockfolio/pkg/models"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	zapLogger, err := logger.NewLogger(logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := database.NewPostgresDB(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.User{}, &models.Position{}); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Schedule DB pool metrics collection every 30s
	tickerDB := time.NewTicker(30 * time.Second)
	defer tickerDB.Stop()
	go func() {
		for range tickerDB.C {
			if sqlDB, err := db.DB(); err == nil {
				stats := sqlDB.Stats()
				metrics.DBOpenConns.Set(float64(stats.OpenConnections))
				metrics.DBIdleConns.Set(float64(stats.Idle))
				metrics.DBInUseConns.Set(float64(stats.InUse))
			}
		}
	}()

	// Holdings cache is optional; the service runs without Redis.
	var holdingsCache portfolio.HoldingsCache
	if cfg.Redis.Enabled {
		rc, err := cache.New(context.Background(), cache.Config{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer rc.Close()
		holdingsCache = rc
	}

	identitySvc, err := identities.NewService(zapLogger, db, cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryMinutes)*time.Minute)
	if err != nil {
		zapLogger.Fatal("Failed to create identities service", zap.Error(err))
	}

	portfolioSvc := portfolio.NewService(zapLogger, portfolio.NewGormStore(db), holdingsCache)

	apiServer := api.NewServer(zapLogger, identitySvc, portfolioSvc, cfg.Server.AllowedOrigins)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		if err := apiServer.Start(addr); err != nil {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	// Wait for interrupt to shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	zapLogger.Info("Server exited properly")
}
