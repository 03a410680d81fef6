package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/nodeattr/pkg/adapters/fs"
	"github.com/aretw0/nodeattr/pkg/adapters/sqlite"
	"github.com/aretw0/nodeattr/pkg/core"
)

// ErrNodeNotFound is returned when opening a node that does not exist.
var ErrNodeNotFound = errors.New("node not found")

// Source is an opened attribute backend holding nodes.
type Source interface {
	// Nodes lists node IDs matching a doublestar pattern ("" matches all).
	Nodes(ctx context.Context, pattern string) ([]string, error)
	// Node opens the attribute store of a node. With create set, a missing
	// node is created instead of failing with ErrNodeNotFound.
	Node(ctx context.Context, id string, create bool) (core.AttributeStore, error)
	Close() error
}

// Open opens the source at uri. The uri is adapter-specific: the tree
// directory for "fs", the database DSN for "sqlite".
func Open(uri string, opts ...Option) (Source, error) {
	o := applyOptions(opts)
	if o.source != nil {
		return o.source, nil
	}

	switch o.adapter {
	case "fs":
		return openFS(uri, o)
	case "sqlite":
		return openSQLite(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// NewEditor builds an editor for one edit session of store, wired with the
// reporter, evaluator and logger of opts.
func NewEditor(store core.AttributeStore, set *core.EditedSet, opts ...Option) *core.Editor {
	o := applyOptions(opts)

	var edOpts []core.EditorOption
	if o.logger != nil {
		edOpts = append(edOpts, core.WithLogger(o.logger))
	}
	if o.reporter != nil {
		edOpts = append(edOpts, core.WithReporter(o.reporter))
	}
	if o.evaluator != nil {
		edOpts = append(edOpts, core.WithEvaluator(o.evaluator))
	}
	return core.NewEditor(store, set, edOpts...)
}

func (o *options) logOrDiscard() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.New(slog.DiscardHandler)
}

// --- fs ---

type fsSource struct {
	tree *fs.Tree
}

func openFS(path string, o *options) (Source, error) {
	readOnly, _ := o.config["read_only"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	defaultExt, _ := o.config["default_ext"].(string)
	attrsKey, _ := o.config["attrs_key"].(string)

	tree := fs.NewTree(fs.Config{
		Path:       path,
		DefaultExt: defaultExt,
		ReadOnly:   readOnly,
		MustExist:  mustExist,
		AttrsKey:   attrsKey,
		Logger:     o.logOrDiscard(),
	})
	if err := tree.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return &fsSource{tree: tree}, nil
}

// Tree returns the underlying node tree.
func (s *fsSource) Tree() *fs.Tree { return s.tree }

func (s *fsSource) Nodes(ctx context.Context, pattern string) ([]string, error) {
	return s.tree.Nodes(ctx, pattern)
}

func (s *fsSource) Node(ctx context.Context, id string, create bool) (core.AttributeStore, error) {
	var (
		n   *fs.Node
		err error
	)
	if create {
		n, err = s.tree.CreateNode(ctx, id)
	} else {
		n, err = s.tree.Node(ctx, id)
	}
	if errors.Is(err, fs.ErrNodeNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *fsSource) Close() error { return nil }

// --- sqlite ---

type sqliteSource struct {
	db       *sqlite.Store
	readOnly bool
}

func openSQLite(dsn string, o *options) (Source, error) {
	readOnly, _ := o.config["read_only"].(bool)
	db, err := sqlite.Open(dsn, o.logOrDiscard())
	if err != nil {
		return nil, err
	}
	return &sqliteSource{db: db, readOnly: readOnly}, nil
}

func (s *sqliteSource) Nodes(ctx context.Context, pattern string) ([]string, error) {
	return s.db.Nodes(ctx, pattern)
}

func (s *sqliteSource) Node(ctx context.Context, id string, create bool) (core.AttributeStore, error) {
	if !create {
		ids, err := s.db.Nodes(ctx, "")
		if err != nil {
			return nil, err
		}
		if !slices.Contains(ids, id) {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
	}
	n := s.db.Node(id)
	if s.readOnly {
		return readOnlyStore{n}, nil
	}
	return n, nil
}

func (s *sqliteSource) Close() error { return s.db.Close() }

// readOnlyStore rejects writes to the wrapped store.
type readOnlyStore struct {
	core.AttributeStore
}

func (readOnlyStore) Set(context.Context, string, any) error { return core.ErrReadOnly }
func (readOnlyStore) Delete(context.Context, string) error   { return core.ErrReadOnly }
