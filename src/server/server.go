package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"cryptodash/src/connectors"
	"cryptodash/src/handler"
	"cryptodash/src/pricing"
	"cryptodash/src/store"
)

// requestID tags every request for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		logger.WithFields(logger.Fields{
			"requestId": id,
			"method":    r.Method,
			"path":      r.URL.Path,
		}).Debug("request")
		next.ServeHTTP(w, r)
	})
}

func StartServer(config *Config) {
	positions := store.NewPositionStore(config.AssetPositionsPath, config.ReloadDebounce)
	if err := positions.Reload(); err != nil {
		logger.WithError(err).Fatal("Failed to load asset positions")
	}

	oracle := pricing.NewOracle(connectors.NewBinanceClient(config.BinanceBaseURL), config.PriceCacheTTL)

	watchCtx, stopWatcher := context.WithCancel(context.Background())
	defer stopWatcher()
	go func() {
		err := store.Watch(watchCtx, config.AssetPositionsPath, positions.NotifyChange)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Warn("File watcher stopped")
		}
	}()

	// Router with middleware
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(requestID)

	r.Get("/api/health", handler.HealthHandler(positions))
	r.Get("/api/assets", handler.AssetsHandler(positions))
	r.Get("/api/assets/{symbol}", handler.AssetHandler(positions))
	r.Get("/api/portfolio", handler.PortfolioHandler(positions, oracle))
	r.Get("/api/cache-status", handler.CacheStatusHandler(positions))
	r.Post("/api/refresh", handler.RefreshHandler(positions, oracle))
	r.Get("/api/stream", handler.StreamHandler(positions, oracle, config.AllowedOrigins))

	// Graceful server
	addr := ":" + config.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Asset positions API listening on %s", addr)
		logger.Infof("Reading asset positions from: %s", config.AssetPositionsPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
