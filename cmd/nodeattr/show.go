package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/nodeattr/internal/platform"
)

var (
	showMatch string
	showJSON  bool
)

var showCmd = &cobra.Command{
	Use:   "show <node>",
	Short: "Print the attributes of a node with their inferred types",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := openSource(true)
		if err != nil {
			return err
		}
		defer src.Close()

		store, err := src.Node(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}

		rows, err := platform.Describe(cmd.Context(), store, showMatch)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if showJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tVALUE")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Type, r.Value)
		}
		return w.Flush()
	},
}

func init() {
	showCmd.Flags().StringVar(&showMatch, "match", "", "Only show attribute names matching this glob")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(showCmd)
}
