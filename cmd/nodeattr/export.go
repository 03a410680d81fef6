package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/nodeattr"
	"github.com/aretw0/nodeattr/pkg/sheet"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <node>",
	Short: "Write an edit sheet holding the current attributes of a node",
	Long: `Write an edit sheet holding the current attributes of a node.

The format follows the extension of --output (.yaml, .yml, .json or .csv);
without --output the sheet is printed as YAML.`,
	Args: cobra.ExactArgs(1),
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

		s, err := nodeattr.Export(cmd.Context(), store)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", args[0], err)
		}

		if exportOutput == "" {
			return sheet.YAMLCodec{}.Encode(cmd.OutOrStdout(), s)
		}
		if err := sheet.WriteFile(exportOutput, s); err != nil {
			return err
		}
		slog.Info("sheet exported", "node", args[0], "path", exportOutput, "rows", len(s.Rows))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Sheet file to write")
	rootCmd.AddCommand(exportCmd)
}
