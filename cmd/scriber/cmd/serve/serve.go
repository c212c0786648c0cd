package serve

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MyButtermilk/Scriber-sub000/internal/app"
	"github.com/MyButtermilk/Scriber-sub000/internal/config"
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job orchestrator and the HTTP API",
	Long: `Starts the scriber process: recovers jobs interrupted by a previous
crash, drains the queue against the configured providers and serves the
job API until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve()
		if err != nil {
			return err
		}

		application, cleanup, err := app.InitializeApplication(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return application.Run(ctx)
	},
}
