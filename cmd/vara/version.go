package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askvara/vara-go/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "vara %s (commit %s, %s)\n", info.Version, info.Commit, info.GoVersion)
		},
	}
}
