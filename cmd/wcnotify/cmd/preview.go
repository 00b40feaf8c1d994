package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"wcnotify/internal/app"
	"wcnotify/internal/woo"
)

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var file string
	c := &cobra.Command{
		Use:   "preview",
		Short: "Render order JSON (object or array) the way it would be sent",
		Long: `preview reads a WooCommerce order payload from --file (or stdin with "-")
and prints the Telegram message for every order. Credentials are not needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if file == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("read order payload: %w", err)
			}
			orders, err := decodeOrders(data)
			if err != nil {
				return err
			}

			cfgm, err := opts.manager(cmd)
			if err != nil {
				return err
			}
			cfg, err := cfgm.Parse()
			if err != nil {
				return err
			}
			f, err := app.Formatter(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, o := range orders {
				if i > 0 {
					fmt.Fprintln(out, "\n----")
				}
				fmt.Fprintln(out, f.Format(o))
			}
			return nil
		},
	}
	c.Flags().StringVarP(&file, "file", "f", "", `order JSON file ("-" for stdin)`)
	_ = c.MarkFlagRequired("file")
	return c
}

func decodeOrders(data []byte) ([]woo.Order, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var o woo.Order
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, fmt.Errorf("parse order JSON: %w", err)
		}
		return []woo.Order{o}, nil
	}
	var orders []woo.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("parse order JSON: %w", err)
	}
	return orders, nil
}
