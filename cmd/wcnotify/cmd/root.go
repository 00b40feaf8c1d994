package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wcnotify/internal/config"
)

type rootOptions struct {
	configPath string
	envFile    string
}

// NewRootCmd builds the command tree. Running it without a subcommand performs one run.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "wcnotify",
		Short: "Announce new WooCommerce orders in a Telegram chat",
		Long: `wcnotify polls the WooCommerce REST API for pending, processing and on-hold
orders and sends a summary of every order it has not announced yet to a
Telegram chat. Announced order ids are appended to a local record file.

Run it from cron (wcnotify run) or as a long-running service (wcnotify watch).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to the config file (JSON or YAML)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with WCNOTIFY_* variables")

	root.AddCommand(
		newRunCmd(opts),
		newWatchCmd(opts),
		newCheckCmd(opts),
		newPreviewCmd(opts),
		newVersionCmd(),
	)
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}

// manager loads the env file and returns the config manager for the flags.
// An explicitly given config file must exist.
func (o *rootOptions) manager(cmd *cobra.Command) (*config.Manager, error) {
	if err := config.LoadEnvFile(o.envFile); err != nil {
		return nil, err
	}
	required := cmd.Flags().Changed("config")
	return config.NewManager(o.configPath, required), nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
