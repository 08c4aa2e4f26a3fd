package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/omnibot"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of omnibot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "omnibot version %s\n", strings.TrimSpace(omnibot.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
