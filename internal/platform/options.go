package platform

import (
	"log/slog"

	"github.com/aretw0/nodeattr/pkg/core"
)

// options holds the internal configuration for opening a node source and
// building editors over it.
type options struct {
	source    Source
	logger    *slog.Logger
	adapter   string
	reporter  core.ErrorReporter
	evaluator core.Evaluator
	config    map[string]interface{}
}

// Option defines a functional option for configuring nodeattr.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
		config:  make(map[string]interface{}),
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for sources and editors.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSource injects an already opened source (e.g. an in-memory one).
// If provided, the adapter selection is skipped.
func WithSource(src Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default) or "sqlite".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithReporter sets where editors send per-attribute commit failures.
func WithReporter(r core.ErrorReporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithEvaluator replaces the expression sandbox used by editors.
func WithEvaluator(ev core.Evaluator) Option {
	return func(o *options) {
		o.evaluator = ev
	}
}

// WithReadOnly opens the source in read-only mode. Writes fail with
// core.ErrReadOnly and no directory is created.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithMustExist requires the data tree directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithDefaultExt sets the file extension of new node files (fs adapter).
func WithDefaultExt(ext string) Option {
	return func(o *options) {
		o.config["default_ext"] = ext
	}
}

// WithAttrsKey nests node attributes under key in JSON/YAML node files (fs adapter).
func WithAttrsKey(key string) Option {
	return func(o *options) {
		o.config["attrs_key"] = key
	}
}
