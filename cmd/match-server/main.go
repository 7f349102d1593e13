// cmd/match-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"skyconnect-match/internal/alerting"
	"skyconnect-match/internal/catalog"
	"skyconnect-match/internal/common/config"
	"skyconnect-match/internal/common/database"
	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/common/observability"
	"skyconnect-match/internal/orchestrator"
	"skyconnect-match/internal/profile"
	"skyconnect-match/internal/respond/backend-chain"
	"skyconnect-match/internal/respond/fallback-format"
	"skyconnect-match/internal/respond/generate-text"
	"skyconnect-match/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer func() {
		_ = zapLog.Sync()
	}()

	zapLog.Info("Starting match server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with the configured level and format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("match-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry (only when it backs the catalog) ---
	var esClient *database.ElasticsearchClient
	if cfg.Catalog.Store != "postgres" {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Candidate store ---
	var store catalog.Store
	if cfg.Catalog.Store == "postgres" {
		store = catalog.NewPostgresStore(cfg.Catalog, pg.GetDB(), log)
		zapLog.Info("Catalog store: postgres")
	} else {
		store = catalog.NewElasticsearchStore(cfg.Catalog, esClient.Client, log)
		zapLog.Info("Catalog store: elasticsearch", zap.String("index", cfg.Catalog.Index))
	}

	// --- Profile provider ---
	provider := profile.NewCachedProvider(cfg.Profiles, pg.GetDB(), redisClient.GetClient(), log)

	// --- Response backend chain ---
	entries := make([]backendchain.Entry, 0, len(cfg.Backends))
	backendIDs := make([]string, 0, len(cfg.Backends))
	for _, backendCfg := range cfg.Backends {
		gtCfg := generatetext.FromBackendConfig(backendCfg)
		handler := generatetext.NewHandler(gtCfg, log)
		entries = append(entries, backendchain.Entry{
			ID:       backendCfg.ID,
			Timeout:  gtCfg.Timeout,
			Generate: handler.Generate,
		})
		backendIDs = append(backendIDs, backendCfg.ID)
		zapLog.Info("Registered response backend",
			zap.String("id", backendCfg.ID),
			zap.String("model", backendCfg.Model),
			zap.Duration("timeout", gtCfg.Timeout),
		)
	}
	chain := backendchain.NewChain(entries, log)

	// --- Fallback formatter ---
	fallback := fallbackformat.NewHandler(fallbackformat.FromFallbackConfig(cfg.Fallback), log)

	// --- Degradation alerter ---
	// A broken alerting setup must not keep the service down; it
	// degrades to a disabled alerter instead.
	alerter, err := alerting.NewFromConfig(ctx, cfg.Alerting, log)
	if err != nil {
		zapLog.Warn("alerting disabled, client setup failed", zap.Error(err))
		disabled := cfg.Alerting
		disabled.Enabled = false
		alerter, _ = alerting.NewFromConfig(ctx, disabled, log)
	}

	// --- Orchestrator and HTTP server ---
	orch := orchestrator.New(
		orchestrator.FromMatchingConfig(cfg.Matching),
		store,
		chain,
		fallback,
		obs,
		alerter,
		log,
	)

	deps := server.Dependencies{
		DB:    pg.GetDB(),
		Redis: redisClient.GetClient(),
	}
	if esClient != nil {
		deps.ES = esClient.Client
	}

	srv, err := server.New(orch, provider, store, chain, backendIDs, deps, log)
	if err != nil {
		zapLog.Fatal("server setup failed", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Match server stopped gracefully")
}
