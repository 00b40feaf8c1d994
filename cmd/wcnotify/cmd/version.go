package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wcnotify/internal/app"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "wcnotify", app.Version)
		},
	}
}
