package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wcnotify/internal/app"
	logx "wcnotify/pkg/logx"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	c := &cobra.Command{
		Use:   "check",
		Short: "Validate the config, the bot token and the WooCommerce credentials",
		Long:  "check sends nothing and records nothing.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgm, err := opts.manager(cmd)
			if err != nil {
				return err
			}
			cfg, err := cfgm.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "config: ok")

			a, err := app.New(cfg, nil, logx.Nop())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			rep, err := a.Check(ctx)
			if rep.BotUsername != "" {
				fmt.Fprintf(out, "telegram: ok (@%s)\n", rep.BotUsername)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "woocommerce: ok (%d candidate orders from %s)\n", rep.Orders, redactQuery(rep.OrdersURL))
			return nil
		},
	}
	c.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline for the checks")
	return c
}
