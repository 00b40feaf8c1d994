package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wcnotify/internal/app"
	logx "wcnotify/pkg/logx"
)

const successMessage = "Script executed successfully."

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch orders once and announce the new ones (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}
}

func runOnce(cmd *cobra.Command, opts *rootOptions) error {
	cfgm, err := opts.manager(cmd)
	if err != nil {
		return err
	}
	cfg, loadErr := cfgm.Load()

	logs, log := app.NewLogging(cfg)
	log = log.With(logx.String("comp", "cli"))
	closeLogs := func() { _ = logs.Close(context.Background()) }

	if loadErr != nil {
		log.Error("configuration error; run aborted", logx.Err(loadErr))
		closeLogs()
		return loadErr
	}

	a, err := app.New(cfg, logs, log)
	if err != nil {
		log.Error("startup failed", logx.Err(err))
		closeLogs()
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	if _, err := a.RunOnce(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successMessage)
	return nil
}
