package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"market-intel/internal/cache"
	"market-intel/internal/config"
	"market-intel/internal/models"
	"market-intel/internal/provider/injective"
	"market-intel/internal/services/account"
	"market-intel/internal/services/analytics"
	"market-intel/internal/services/markets"
	"market-intel/internal/services/oracle"
	"market-intel/internal/services/orderbook"
	"market-intel/internal/services/rankings"
	"market-intel/internal/services/trades"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logger.WithFields(logrus.Fields{
		"network": cfg.Network.Name,
		"indexer": cfg.Network.ResolvedIndexerURL(),
	}).Info("Starting market intelligence engine")

	store := cache.New(cfg.Cache.SweepInterval)
	defer store.Close()

	client := injective.NewClient(cfg.Network.ResolvedIndexerURL(), cfg.Network.HTTPTimeout, logger)

	catalog := markets.NewCatalog(client, store, cfg.Cache, logger)
	orderbookSvc := orderbook.NewService(client, catalog, store, cfg.Cache, logger)
	tradesSvc := trades.NewService(client, catalog, store, cfg.Cache, logger)
	analyticsSvc := analytics.NewService(client, catalog, orderbookSvc, tradesSvc, store, cfg.Cache, logger)
	rankingsSvc := rankings.NewService(catalog, orderbookSvc, tradesSvc, analyticsSvc, store, cfg.Cache, logger)
	accountSvc := account.NewService(client, store, logger)
	oracleSvc := oracle.NewService(client, store, cfg.Cache, logger)

	// Operational endpoints share the metrics port. They are a diagnostic
	// surface, not a public API.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/cache/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, store.Stats())
	})
	mux.HandleFunc("/ops/summary", func(w http.ResponseWriter, r *http.Request) {
		summary, err := catalog.Summary(r.Context(), models.MarketType(r.URL.Query().Get("type")))
		respond(w, logger, summary, err)
	})
	mux.HandleFunc("/ops/rankings", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		result, err := rankingsSvc.Rankings(
			r.Context(),
			r.URL.Query().Get("sort"),
			limit,
			models.MarketType(r.URL.Query().Get("type")),
		)
		respond(w, logger, result, err)
	})
	mux.HandleFunc("/ops/snapshot", func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := rankingsSvc.Snapshot(r.Context(), r.URL.Query().Get("market_id"))
		respond(w, logger, snapshot, err)
	})
	mux.HandleFunc("/ops/oracle", func(w http.ResponseWriter, r *http.Request) {
		prices, err := oracleSvc.BySymbol(r.Context(), r.URL.Query().Get("symbol"))
		respond(w, logger, prices, err)
	})
	mux.HandleFunc("/ops/portfolio", func(w http.ResponseWriter, r *http.Request) {
		portfolio, err := accountSvc.Portfolio(r.Context(), r.URL.Query().Get("address"))
		respond(w, logger, portfolio, err)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("Metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Metrics server failed")
		}
	}()

	// Warm the catalog so the first analytics call does not pay for it.
	warmCtx, cancel := context.WithTimeout(context.Background(), cfg.Network.HTTPTimeout)
	if _, err := catalog.ListAll(warmCtx); err != nil {
		logger.WithError(err).Warn("Catalog warmup failed")
	}
	cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Metrics server shutdown failed")
	}
	logger.Info("Shutdown complete")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// respond maps the service error taxonomy onto status codes.
func respond(w http.ResponseWriter, logger *logrus.Logger, v any, err error) {
	if err == nil {
		writeJSON(w, v)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrMarketNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrNotDerivative),
		errors.Is(err, models.ErrNoLiquidity),
		errors.Is(err, models.ErrInvalidAddress),
		errors.Is(err, models.ErrNoMarketIDs),
		errors.Is(err, models.ErrTooManyMarkets):
		status = http.StatusBadRequest
	default:
		var upstream *models.UpstreamError
		if errors.As(err, &upstream) {
			status = http.StatusBadGateway
		}
		logger.WithError(err).Warn("Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
