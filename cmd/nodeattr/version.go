package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/nodeattr"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of nodeattr",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nodeattr version %s\n", strings.TrimSpace(nodeattr.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
