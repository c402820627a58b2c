package main

import (
	"fmt"

	"github.com/reglet-dev/rulegraph/internal/version"
	"github.com/spf13/cobra"
)

// newVersionCmd implements the version command.
func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rulegraph",
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			if short {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), info.String())
				return
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rulegraph version %s\n", info.Full())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
