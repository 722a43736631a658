package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ccboard/ccboard/server/internal/database"
	"github.com/ccboard/ccboard/server/internal/handlers"
	"github.com/ccboard/ccboard/server/internal/middleware"
)

var version = "dev"

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "./ccboard.db")
	adminToken := os.Getenv("ADMIN_TOKEN")

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	h := handlers.New(db, logger, version, adminToken)

	// 10 req/s sustained with bursts of 30 per client IP
	limiter := middleware.NewIPRateLimiter(rate.Limit(10), 30)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/users/register", h.Register)
	mux.HandleFunc("GET /api/v1/users/{username}/sync-status", h.SyncStatus)
	mux.HandleFunc("GET /api/v1/users/{username}/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/usage/upload", h.Upload)
	mux.HandleFunc("GET /api/v1/leaderboard", h.Leaderboard)
	mux.HandleFunc("POST /api/v1/admin/users/{username}/recalculate", h.Recalculate)
	mux.HandleFunc("/", h.NotFound)

	handler := middleware.Observe(logger)(
		middleware.SecurityHeaders(
			middleware.CORS(
				limiter.Limit(mux))))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		logger.Info("starting ccboard-server",
			zap.String("addr", srv.Addr),
			zap.String("db", dbPath),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
