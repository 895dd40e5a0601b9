package main

import (
	"fmt"

	"Girder/internal/version"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of beamcalc",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "beamcalc %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
