// Package cmd provides the ragctl commands: corpus indexing, evaluation
// against a running server, ask-event tailing and key management.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/version"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// loadConfig reads the config named by --config. An empty path yields the
// defaults plus environment overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.configPath)
}

// NewRootCmd creates the root command for the ragctl CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ragctl",
		Short: "Operate the lexical QA service",
		Long: `ragctl builds snippet indexes, scores a running server against
gold answers, tails ask events and manages API keys.`,
		Version:       version.Version,
		SilenceUsage:  true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Setup(opts.logLevel, "auto")
		},
	}

	cmd.SetVersionTemplate("ragctl version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (defaults plus RAG_* env when empty)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newEvalCmd())
	cmd.AddCommand(newEventsCmd(opts))
	cmd.AddCommand(newKeyCmd())
	cmd.AddCommand(newCacheCmd(opts))

	return cmd
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
