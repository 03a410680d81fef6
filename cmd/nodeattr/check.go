package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/aretw0/nodeattr"
	"github.com/aretw0/nodeattr/pkg/adapters/fs"
	"github.com/aretw0/nodeattr/pkg/core"
)

var checkWatch bool

// errRejected marks a sheet rejected by validation; the message was printed already.
var errRejected = errors.New("sheet rejected")

var checkCmd = &cobra.Command{
	Use:   "check <node> <sheet>",
	Short: "Validate an edit sheet against a node without writing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, sheetPath := args[0], args[1]

		src, err := openSource(true)
		if err != nil {
			return err
		}
		defer src.Close()

		store, err := src.Node(cmd.Context(), id, false)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !checkWatch {
			err := runCheck(cmd.Context(), out, store, sheetPath)
			if errors.Is(err, errRejected) {
				cmd.SilenceErrors = true
			}
			return err
		}

		paths := []string{sheetPath}
		if n, ok := store.(*fs.Node); ok {
			paths = append(paths, n.Path)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		events, err := fs.Watch(ctx, paths, slog.Default())
		if err != nil {
			return err
		}

		_ = runCheck(ctx, out, store, sheetPath)
		for e := range events {
			slog.Debug("change detected", "event", e.String())
			if e.Type == core.EventDelete {
				fmt.Fprintf(out, "%s was removed\n", e.ID)
				continue
			}
			_ = runCheck(ctx, out, store, sheetPath)
		}
		return nil
	},
}

// runCheck validates the sheet and prints the outcome.
func runCheck(ctx context.Context, out io.Writer, store core.AttributeStore, sheetPath string) error {
	s, err := nodeattr.ReadSheet(sheetPath)
	if err != nil {
		fmt.Fprintln(out, err)
		return err
	}

	if err := nodeattr.Check(ctx, store, s, nodeattr.WithLogger(slog.Default())); err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(out, verr.Error())
			return fmt.Errorf("%w: %w", errRejected, err)
		}
		fmt.Fprintln(out, err)
		return err
	}
	fmt.Fprintf(out, "%s: %d attributes OK\n", sheetPath, s.EditedSet().Len())
	return nil
}

func init() {
	checkCmd.Flags().BoolVarP(&checkWatch, "watch", "w", false, "Re-check whenever the sheet or the node file changes")
	rootCmd.AddCommand(checkCmd)
}
