package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/nodeattr"
	"github.com/aretw0/nodeattr/pkg/core"
)

var applyCreate bool

var applyCmd = &cobra.Command{
	Use:   "apply <node> <sheet>",
	Short: "Validate an edit sheet and commit it to a node",
	Long: `Validate an edit sheet and commit it to a node.

Nothing is written when a row fails validation. Otherwise attributes absent
from the sheet are deleted and every other row is written. Store failures on
single attributes are reported and do not stop the commit.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, sheetPath := args[0], args[1]

		s, err := nodeattr.ReadSheet(sheetPath)
		if err != nil {
			return err
		}

		src, err := openSource(false)
		if err != nil {
			return err
		}
		defer src.Close()

		store, err := src.Node(cmd.Context(), id, applyCreate)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		reporter := core.ReporterFunc(func(err error) {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		})

		res, err := nodeattr.Apply(cmd.Context(), store, s,
			nodeattr.WithLogger(slog.Default()),
			nodeattr.WithReporter(reporter),
		)
		if err != nil {
			return err
		}

		for _, name := range res.Deleted {
			fmt.Fprintf(out, "deleted %s\n", name)
		}
		for _, name := range res.Written {
			fmt.Fprintf(out, "written %s\n", name)
		}
		if res.Failures > 0 {
			return fmt.Errorf("%d attribute(s) could not be committed", res.Failures)
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyCreate, "create", false, "Create the node if it does not exist")
	rootCmd.AddCommand(applyCmd)
}
