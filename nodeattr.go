package nodeattr

import (
	"context"
	"log/slog"

	"github.com/aretw0/nodeattr/internal/platform"
	"github.com/aretw0/nodeattr/pkg/core"
	"github.com/aretw0/nodeattr/pkg/sheet"
)

// --- Types ---

// Source is an opened attribute backend holding nodes.
type Source = platform.Source

// Sheet is an edit sheet: the rows and optional TITLE of one edit session.
type Sheet = sheet.Sheet

// Editor validates and commits one edit session.
type Editor = core.Editor

// CommitResult summarizes a commit.
type CommitResult = core.CommitResult

// ErrNodeNotFound is returned when opening a node that does not exist.
var ErrNodeNotFound = platform.ErrNodeNotFound

// --- Configuration ---

// Option defines a functional option for configuring nodeattr.
type Option = platform.Option

// WithLogger sets the logger for sources and editors.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithSource injects an already opened source.
func WithSource(src Source) Option {
	return platform.WithSource(src)
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithReporter sets where per-attribute commit failures are sent.
func WithReporter(r core.ErrorReporter) Option {
	return platform.WithReporter(r)
}

// WithEvaluator replaces the expression sandbox.
func WithEvaluator(ev core.Evaluator) Option {
	return platform.WithEvaluator(ev)
}

// WithReadOnly opens the source in read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMustExist requires the data tree to exist already.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithDefaultExt sets the file extension of new node files.
func WithDefaultExt(ext string) Option {
	return platform.WithDefaultExt(ext)
}

// WithAttrsKey nests node attributes under key in JSON/YAML node files.
func WithAttrsKey(key string) Option {
	return platform.WithAttrsKey(key)
}

// --- Factory ---

// Open opens the node source at uri (a directory for "fs", a DSN for "sqlite").
func Open(uri string, opts ...Option) (Source, error) {
	return platform.Open(uri, opts...)
}

// NewEditor builds an editor for one edit session of store.
func NewEditor(store core.AttributeStore, s *Sheet, opts ...Option) *Editor {
	return platform.NewEditor(store, s.EditedSet(), opts...)
}

// --- Operations ---

// ReadSheet decodes the sheet at path (.yaml, .yml, .json or .csv).
func ReadSheet(path string) (*Sheet, error) {
	return sheet.ReadFile(path)
}

// Export builds the sheet describing the current attributes of store.
func Export(ctx context.Context, store core.AttributeStore) (*Sheet, error) {
	return sheet.FromStore(ctx, store)
}

// Check validates s against store without committing.
func Check(ctx context.Context, store core.AttributeStore, s *Sheet, opts ...Option) error {
	return platform.Check(ctx, store, s, opts...)
}

// Apply validates s against store and commits it.
func Apply(ctx context.Context, store core.AttributeStore, s *Sheet, opts ...Option) (CommitResult, error) {
	return platform.Apply(ctx, store, s, opts...)
}

// FindRoot looks upwards from startDir for a project root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
