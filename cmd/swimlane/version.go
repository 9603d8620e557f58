package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/swimlane"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of swimlane",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "swimlane version %s\n", strings.TrimSpace(swimlane.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
