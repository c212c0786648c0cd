package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/MyButtermilk/Scriber-sub000/cmd/scriber/cmd/enqueue"
	"github.com/MyButtermilk/Scriber-sub000/cmd/scriber/cmd/serve"
	"github.com/MyButtermilk/Scriber-sub000/cmd/scriber/cmd/status"
	"github.com/MyButtermilk/Scriber-sub000/cmd/scriber/cmd/version"
	"github.com/MyButtermilk/Scriber-sub000/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scriber",
	Short: "Resilient speech transcription job runner",
	Long: `Scriber runs speech transcription jobs against a fleet of providers.
Jobs survive restarts in a durable ledger, failing providers are routed
around with per-provider circuit breakers, and transient errors retry on
an exponential backoff ladder.`,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(enqueue.Cmd)
	rootCmd.AddCommand(status.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().StringVar(&config.Path, "config", "", "config file (default is scriber.yaml if present)")
}
