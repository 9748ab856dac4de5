package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	ingestdb "web-analytics-service/internal/ingest/database"
	ingesthttp "web-analytics-service/internal/ingest/delivery/http"
	"web-analytics-service/internal/ingest/enrichment"
	"web-analytics-service/internal/ingest/referrer"
	ingestsqlite "web-analytics-service/internal/ingest/repository/sqlite"
	"web-analytics-service/internal/ingest/usecase"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func main() {
	var logger *zap.Logger
	var err error
	if getEnv("LOG_LEVEL", "info") == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	port := getEnv("PORT", "8080")
	databasePath := getEnv("DATABASE_PATH", "data/analytics.db")
	geoipDBPath := getEnv("GEOIP_DB_PATH", "data/GeoLite2-City.mmdb")
	referrerTimeout := time.Duration(getEnvInt("REFERRER_TIMEOUT_SECONDS", 5)) * time.Second
	rateLimit := getEnvInt("RATE_LIMIT_PER_MINUTE", 300)

	if err := os.MkdirAll(filepath.Dir(databasePath), 0755); err != nil {
		logger.Fatal("failed to create data directory", zap.Error(err))
	}

	db, err := ingestdb.OpenDB(databasePath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := ingestdb.RunMigrations(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	logger.Info("database initialized", zap.String("path", databasePath))

	// The geo database opens lazily on first lookup; a missing file just
	// means every visit resolves to an unknown location.
	geoResolver := enrichment.NewGeoResolver(geoipDBPath)
	deviceParser := enrichment.NewDeviceParser()

	siteRepo := ingestsqlite.NewSiteRepository(db)
	visitRepo := ingestsqlite.NewVisitRepository(db)
	referrerRepo := ingestsqlite.NewReferrerRepository(db)

	scraper := referrer.NewScraper(referrerTimeout, logger)
	referrerResolver := referrer.NewResolver(referrerRepo, scraper, logger)

	service := usecase.NewAnalyticsService(siteRepo, visitRepo, geoResolver, deviceParser, referrerResolver, logger)
	handler := ingesthttp.NewHandler(service, logger, db)
	rateLimiter := ingesthttp.NewRateLimiter(rateLimit)
	defer rateLimiter.Stop()
	router := ingesthttp.NewRouter(handler, rateLimiter, logger)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.Info("ingest service starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("ingest service shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("ingest service stopped")
}
