package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nodeattr"
)

var (
	verbose    bool
	configPath string
	cfg        *Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nodeattr",
	Short: "Validate and commit typed node attributes",
	Long: `nodeattr edits the user attributes of nodes stored as YAML, JSON or
Markdown files of a data tree, or in a SQLite database.

An edit sheet lists the attributes a node should hold (name, value, type).
Every row is checked against its declared type before anything is written;
attributes missing from the sheet are then deleted.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return err
		}
		slog.SetDefault(SetupLogger(cfg, verbose))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: nodeattr.yaml of the project root)")
}

// openSource opens the configured node source.
func openSource(readOnly bool) (nodeattr.Source, error) {
	src, err := nodeattr.Open(cfg.URI(),
		nodeattr.WithAdapter(cfg.Adapter),
		nodeattr.WithDefaultExt(cfg.Format),
		nodeattr.WithAttrsKey(cfg.AttrsKey),
		nodeattr.WithReadOnly(readOnly || cfg.ReadOnly),
		nodeattr.WithMustExist(true),
		nodeattr.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", cfg.Adapter, err)
	}
	return src, nil
}
