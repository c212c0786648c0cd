package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/MyButtermilk/Scriber-sub000/internal/api/server"
	appapi "github.com/MyButtermilk/Scriber-sub000/internal/app/api"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/api/openai"
	apperrors "github.com/MyButtermilk/Scriber-sub000/internal/app/errors"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/provider"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/repository"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/repository/pg"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/repository/sqlite"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/resilience"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/worker"
	"github.com/MyButtermilk/Scriber-sub000/internal/config"
)

func provideLogger() (*zap.Logger, func(), error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideLedger(cfg *config.Config) (repository.JobDAO, func(), error) {
	switch cfg.Database.Driver {
	case "sqlite":
		store, err := sqlite.NewJobStore(cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "postgres":
		store, err := pg.NewJobStore(cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "unknown database driver %q", cfg.Database.Driver)
	}
}

func provideBreaker(cfg *config.Config, logger *zap.Logger) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Cooldown:         cfg.Breaker.Cooldown(),
		OnStateChange: func(p string, from, to resilience.State) {
			logger.Warn("circuit state change",
				zap.String("provider", p),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

func provideMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

func provideRouter(cfg *config.Config, breaker *resilience.CircuitBreaker, registry *prometheus.Registry) *provider.Router {
	return provider.NewRouter(config.NewRoutingSource(cfg), breaker, provider.NewMetrics(registry))
}

// provideExecutorRegistry builds one executor per enabled provider. Every
// provider type currently speaks the OpenAI transcription protocol, local
// gateways included, they only differ in base URL and model.
func provideExecutorRegistry(cfg *config.Config, logger *zap.Logger) *appapi.Registry {
	registry := appapi.NewRegistry()
	for name, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		switch pc.Type {
		case "openai":
			registry.Register(name, openai.NewTranscriber(openai.Config{
				APIKey:  pc.APIKey,
				BaseURL: pc.BaseURL,
				Model:   pc.Model,
			}))
			logger.Info("registered provider", zap.String("provider", name), zap.String("type", pc.Type))
		default:
			logger.Warn("skipping provider with unknown type",
				zap.String("provider", name),
				zap.String("type", pc.Type))
		}
	}
	return registry
}

func provideOrchestrator(
	ledger repository.JobDAO,
	router *provider.Router,
	registry *appapi.Registry,
	logger *zap.Logger,
	cfg *config.Config,
) *worker.Orchestrator {
	return worker.NewOrchestrator(ledger, router, registry, logger, worker.Config{
		RetryPolicy:  cfg.Retry.Policy(),
		Concurrency:  cfg.Worker.Concurrency,
		PollInterval: cfg.Worker.PollInterval(),
		BatchSize:    cfg.Worker.BatchSize,
	})
}

func provideServer(
	cfg *config.Config,
	orchestrator *worker.Orchestrator,
	ledger repository.JobDAO,
	router *provider.Router,
	registry *prometheus.Registry,
	logger *zap.Logger,
) *server.Server {
	return server.NewServer(server.Config{
		ListenAddr: cfg.Server.ListenAddr,
	}, orchestrator, ledger, router, registry, logger)
}
