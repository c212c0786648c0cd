//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/MyButtermilk/Scriber-sub000/internal/config"
)

// InitializeApplication assembles a full scriber process from its
// configuration. The returned cleanup closes the ledger and flushes logs.
func InitializeApplication(cfg *config.Config) (*Application, func(), error) {
	wire.Build(
		provideLogger,
		provideLedger,
		provideBreaker,
		provideMetricsRegistry,
		provideRouter,
		provideExecutorRegistry,
		provideOrchestrator,
		provideServer,
		newApplication,
	)
	return nil, nil, nil
}
