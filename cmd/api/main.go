// Command api runs the concept graph HTTP service.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"conceptgraph-backend/domain/core/aggregates"
	domainlex "conceptgraph-backend/domain/lexicon"
	infralex "conceptgraph-backend/infrastructure/lexicon"
	"conceptgraph-backend/infrastructure/persistence"
	"conceptgraph-backend/internal/config"
	"conceptgraph-backend/internal/handlers"
	"conceptgraph-backend/internal/infrastructure/observability"
	graphsvc "conceptgraph-backend/internal/service/graph"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic("loading configuration: " + err.Error())
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic("creating logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("starting concept graph service",
		zap.String("environment", string(cfg.Environment)),
		zap.Strings("config_sources", cfg.LoadedFrom),
	)

	lex, err := newLexicon(cfg, logger)
	if err != nil {
		logger.Fatal("creating lexicon", zap.Error(err))
	}

	// The decorator must wrap the lexicon before the graph is built, so the
	// lookups issued during document replay are counted as well.
	var collector *observability.Collector
	if cfg.Features.EnableMetrics {
		collector = observability.NewCollector("conceptgraph")
		lex = infralex.NewInstrumented(lex, collector)
	}

	var store *persistence.Store
	if cfg.Persistence.Enabled {
		store, err = persistence.NewStore(cfg.Persistence.Path, logger)
		if err != nil {
			logger.Fatal("creating store", zap.Error(err))
		}
	}

	graph, err := loadOrCreateGraph(store, lex, logger)
	if err != nil {
		logger.Fatal("initializing graph", zap.Error(err))
	}

	writeStore := store
	if !cfg.Features.EnableSaveOnWrite {
		writeStore = nil
	}
	svc, err := graphsvc.NewService(graph, lex, graphsvc.Options{
		Store:     writeStore,
		Collector: collector,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("creating graph service", zap.Error(err))
	}

	watcher, err := config.NewWatcher("", cfg, logger)
	if err != nil {
		logger.Fatal("creating config watcher", zap.Error(err))
	}
	defer watcher.Stop()

	router := handlers.NewRouter(cfg, svc, collector, logger)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newLogger builds a zap logger for the configured environment and level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Environment == config.Production {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

// newLexicon builds the configured lexicon adapter.
func newLexicon(cfg *config.Config, logger *zap.Logger) (domainlex.Lexicon, error) {
	switch cfg.Lexicon.Source {
	case config.LexiconRemote:
		return infralex.NewRemote(infralex.RemoteConfig{
			BaseURL:        cfg.Lexicon.BaseURL,
			RequestTimeout: cfg.Lexicon.RequestTimeout.Std(),
			Breaker: infralex.BreakerConfig{
				MaxRequests:      cfg.Lexicon.BreakerMaxRequests,
				Interval:         cfg.Lexicon.BreakerInterval.Std(),
				Timeout:          cfg.Lexicon.BreakerTimeout.Std(),
				FailureThreshold: cfg.Lexicon.BreakerFailureThreshold,
				MinRequests:      cfg.Lexicon.BreakerMinRequests,
			},
		}, logger)
	default:
		return infralex.NewStaticFromFile(cfg.Lexicon.CorpusPath)
	}
}

// loadOrCreateGraph restores the persisted graph, or starts an empty one when
// no document exists yet.
func loadOrCreateGraph(store *persistence.Store, lex domainlex.Lexicon, logger *zap.Logger) (*aggregates.ConceptGraph, error) {
	if store != nil && store.Exists() {
		graph, err := store.Load(lex)
		if err != nil {
			return nil, err
		}
		logger.Info("graph restored",
			zap.String("path", store.Path()),
			zap.Int("nodes", graph.NodeCount()),
			zap.Int("edges", graph.EdgeCount()),
		)
		return graph, nil
	}
	return aggregates.NewConceptGraph(lex)
}
