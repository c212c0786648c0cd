package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/MyButtermilk/Scriber-sub000/internal/api/server"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/provider"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/repository"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/worker"
	"github.com/MyButtermilk/Scriber-sub000/internal/config"
)

// Application bundles the assembled subsystems of one scriber process.
type Application struct {
	Config       *config.Config
	Logger       *zap.Logger
	Ledger       repository.JobDAO
	Router       *provider.Router
	Orchestrator *worker.Orchestrator
	Server       *server.Server
}

func newApplication(
	cfg *config.Config,
	logger *zap.Logger,
	ledger repository.JobDAO,
	router *provider.Router,
	orchestrator *worker.Orchestrator,
	srv *server.Server,
) *Application {
	return &Application{
		Config:       cfg,
		Logger:       logger,
		Ledger:       ledger,
		Router:       router,
		Orchestrator: orchestrator,
		Server:       srv,
	}
}

// Run starts the orchestrator loop and the HTTP server, then blocks until
// ctx is canceled. Shutdown drains in-flight requests and attempts.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		if err := a.Orchestrator.Run(ctx); err != nil && err != context.Canceled {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	go func() {
		errCh <- a.Server.Start()
	}()

	var firstErr error
	select {
	case <-ctx.Done():
	case firstErr = <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("http shutdown failed", zap.Error(err))
	}
	return firstErr
}
