package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"wcnotify/internal/app"
	"wcnotify/internal/config"
	logx "wcnotify/pkg/logx"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var schedule string
	c := &cobra.Command{
		Use:   "watch",
		Short: "Run continuously on a schedule and hot-reload the config file",
		Long: `watch triggers a run on watch.schedule (default every minute). The schedule
accepts a cron expression ("*/5 * * * *", "@every 2m"), a Go duration ("90s")
or an HH:MM interval ("00:05"). Valid config file changes apply without a
restart. Under systemd (Type=notify) readiness and shutdown are reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgm, err := opts.manager(cmd)
			if err != nil {
				return err
			}
			if schedule != "" {
				cfgm.Override(func(c *config.Config) { c.Watch.Schedule = schedule })
			}
			cfg, loadErr := cfgm.Load()

			logs, log := app.NewLogging(cfg)
			log = log.With(logx.String("comp", "cli"))
			if loadErr != nil {
				log.Error("configuration error; not starting", logx.Err(loadErr))
				_ = logs.Close(context.Background())
				return loadErr
			}

			a, err := app.New(cfg, logs, log)
			if err != nil {
				log.Error("startup failed", logx.Err(err))
				_ = logs.Close(context.Background())
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			werr := a.Watch(ctx, cfgm)

			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			_ = a.Close(closeCtx)
			return werr
		},
	}
	c.Flags().StringVar(&schedule, "schedule", "", "override watch.schedule (kept across config reloads)")
	return c
}
