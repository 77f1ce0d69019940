package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	VersionMajor = 0
	VersionMinor = 3
	VersionPatch = 0
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of evalgen",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "evalgen v%d.%d.%d\n", VersionMajor, VersionMinor, VersionPatch)
		},
	}
}
