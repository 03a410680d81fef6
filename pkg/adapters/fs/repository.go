package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/nodeattr/pkg/core"
)

var ErrNodeNotFound = errors.New("node not found")

// Config holds the configuration for a node tree.
type Config struct {
	Path       string
	DefaultExt string // extension of new nodes and of IDs given without one, e.g. ".yaml"
	MustExist  bool
	ReadOnly   bool
	Logger     *slog.Logger
	AttrsKey   string // If set, attributes are nested under this key in JSON/YAML node files.
}

// Tree is a directory of node files. Each supported file is a node and its
// top-level keys (or front matter, for markdown) are the node attributes.
type Tree struct {
	Path        string
	config      Config
	serializers map[string]Serializer

	mu sync.RWMutex
}

// NewTree creates a filesystem-backed node tree.
func NewTree(config Config) *Tree {
	if config.DefaultExt == "" {
		config.DefaultExt = ".yaml"
	}
	if !strings.HasPrefix(config.DefaultExt, ".") {
		config.DefaultExt = "." + config.DefaultExt
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Tree{
		Path:        config.Path,
		config:      config,
		serializers: DefaultSerializers(),
	}
}

// SetSerializer registers a serializer for an extension.
func (t *Tree) SetSerializer(ext string, s Serializer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.serializers[ext] = s
}

// Initialize ensures the tree directory exists.
func (t *Tree) Initialize(ctx context.Context) error {
	if t.config.MustExist || t.config.ReadOnly {
		info, err := os.Stat(t.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("tree path does not exist: %s", t.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("tree path is not a directory: %s", t.Path)
		}
		return nil
	}
	if err := os.MkdirAll(t.Path, 0755); err != nil {
		return fmt.Errorf("failed to create tree directory: %w", err)
	}
	return nil
}

// Nodes lists node IDs matching a doublestar pattern ("" matches all).
// IDs are slash-separated paths relative to the tree; the default extension is omitted.
func (t *Tree) Nodes(ctx context.Context, pattern string) ([]string, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern: %q", pattern)
	}

	var ids []string
	err := filepath.WalkDir(t.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != t.Path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), TempFilePrefix) || t.serializer(filepath.Ext(path)) == nil {
			return nil
		}

		rel, err := filepath.Rel(t.Path, path)
		if err != nil {
			return err
		}
		id := t.idOf(filepath.ToSlash(rel))
		if pattern != "" {
			ok, err := doublestar.Match(pattern, id)
			if err != nil || !ok {
				return nil
			}
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Node opens an existing node.
func (t *Tree) Node(ctx context.Context, id string) (*Node, error) {
	path, ext, err := t.resolve(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
		return nil, err
	}
	return &Node{tree: t, ID: id, Path: path, ext: ext}, nil
}

// CreateNode opens a node, creating an empty node file if needed.
func (t *Tree) CreateNode(ctx context.Context, id string) (*Node, error) {
	if n, err := t.Node(ctx, id); err == nil {
		return n, nil
	} else if !errors.Is(err, ErrNodeNotFound) {
		return nil, err
	}
	if t.config.ReadOnly {
		return nil, core.ErrReadOnly
	}

	path, ext, err := t.resolve(id)
	if err != nil {
		return nil, err
	}
	n := &Node{tree: t, ID: id, Path: path, ext: ext}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create node directory: %w", err)
	}
	if err := n.write(nodeFile{Attrs: make(core.Metadata)}); err != nil {
		return nil, err
	}
	t.config.Logger.Debug("node created", "id", id, "path", path)
	return n, nil
}

// resolve maps an ID to a file path. IDs with a known extension are used
// as is; others get the default extension unless a file with another
// supported extension already exists.
func (t *Tree) resolve(id string) (path, ext string, err error) {
	if id == "" {
		return "", "", errors.New("node has no ID")
	}
	clean := filepath.Clean(filepath.FromSlash(id))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("node ID escapes the tree: %s", id)
	}
	base := filepath.Join(t.Path, clean)

	if ext := filepath.Ext(clean); t.serializer(ext) != nil {
		return base, ext, nil
	}

	candidates := []string{t.config.DefaultExt, ".yaml", ".yml", ".json", ".md"}
	for _, ext := range candidates {
		if _, err := os.Stat(base + ext); err == nil {
			return base + ext, ext, nil
		}
	}
	return base + t.config.DefaultExt, t.config.DefaultExt, nil
}

func (t *Tree) idOf(rel string) string {
	if strings.HasSuffix(rel, t.config.DefaultExt) {
		return strings.TrimSuffix(rel, t.config.DefaultExt)
	}
	return rel
}

func (t *Tree) serializer(ext string) Serializer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.serializers[ext]
}

// Node is one node file. It implements core.AttributeStore; every call
// reads the file and every change rewrites it atomically.
type Node struct {
	tree *Tree
	ID   string
	Path string
	ext  string
	mu   sync.Mutex
}

var _ core.AttributeStore = (*Node)(nil)

// UserAttributeNames implements core.AttributeStore.
func (n *Node) UserAttributeNames(ctx context.Context) ([]string, error) {
	f, err := n.read()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(f.Attrs))
	for k := range f.Attrs {
		if k != core.TitleName {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names, nil
}

// HasTitle implements core.AttributeStore.
func (n *Node) HasTitle(ctx context.Context) bool {
	f, err := n.read()
	if err != nil {
		return false
	}
	_, ok := f.Attrs[core.TitleName]
	return ok
}

// Title implements core.AttributeStore.
func (n *Node) Title(ctx context.Context) (string, error) {
	v, err := n.Get(ctx, core.TitleName)
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// Get implements core.AttributeStore.
func (n *Node) Get(ctx context.Context, name string) (any, error) {
	f, err := n.read()
	if err != nil {
		return nil, err
	}
	v, ok := f.Attrs[name]
	if !ok {
		return nil, core.ErrNotFound
	}
	return v, nil
}

// Set implements core.AttributeStore.
func (n *Node) Set(ctx context.Context, name string, value any) error {
	return n.update(func(attrs core.Metadata) error {
		attrs[name] = value
		return nil
	})
}

// Delete implements core.AttributeStore.
func (n *Node) Delete(ctx context.Context, name string) error {
	return n.update(func(attrs core.Metadata) error {
		if _, ok := attrs[name]; !ok {
			return core.ErrNotFound
		}
		delete(attrs, name)
		return nil
	})
}

func (n *Node) update(fn func(core.Metadata) error) error {
	if n.tree.config.ReadOnly {
		return core.ErrReadOnly
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	f, err := n.read()
	if err != nil {
		return err
	}
	if err := fn(f.Attrs); err != nil {
		return err
	}
	return n.write(*f)
}

func (n *Node) read() (*nodeFile, error) {
	s := n.tree.serializer(n.ext)
	if s == nil {
		return nil, fmt.Errorf("no serializer for %q", n.ext)
	}

	file, err := os.Open(n.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, n.ID)
		}
		return nil, err
	}
	defer file.Close()

	f, err := s.Parse(file, n.tree.config.AttrsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse node %s: %w", n.ID, err)
	}
	return f, nil
}

func (n *Node) write(f nodeFile) error {
	s := n.tree.serializer(n.ext)
	if s == nil {
		return fmt.Errorf("no serializer for %q", n.ext)
	}
	data, err := s.Serialize(f, n.tree.config.AttrsKey)
	if err != nil {
		return fmt.Errorf("failed to serialize node %s: %w", n.ID, err)
	}
	return writeFileAtomic(n.Path, data)
}
