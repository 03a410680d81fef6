package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes [pattern]",
	Short: "List node IDs, optionally filtered by a glob pattern",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}

		src, err := openSource(true)
		if err != nil {
			return err
		}
		defer src.Close()

		ids, err := src.Nodes(cmd.Context(), pattern)
		if err != nil {
			return fmt.Errorf("failed to list nodes: %w", err)
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd)
}
