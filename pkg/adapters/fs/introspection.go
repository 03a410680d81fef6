package fs

import (
	"sort"

	"github.com/aretw0/introspection"
)

// TreeState exposes internal state for observability.
type TreeState struct {
	Path        string   `json:"path"`
	DefaultExt  string   `json:"default_ext"`
	ReadOnly    bool     `json:"read_only"`
	AttrsKey    string   `json:"attrs_key,omitempty"`
	Serializers []string `json:"serializers"`
}

// State implements introspection.Introspectable.
func (t *Tree) State() any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	serializers := make([]string, 0, len(t.serializers))
	for ext := range t.serializers {
		serializers = append(serializers, ext)
	}
	sort.Strings(serializers)

	return TreeState{
		Path:        t.Path,
		DefaultExt:  t.config.DefaultExt,
		ReadOnly:    t.config.ReadOnly,
		AttrsKey:    t.config.AttrsKey,
		Serializers: serializers,
	}
}

// ComponentType implements introspection.Component.
func (t *Tree) ComponentType() string {
	return "fs-tree"
}

// NodeState is the observable state of one node file.
type NodeState struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Format string `json:"format"`
}

// State implements introspection.Introspectable.
func (n *Node) State() any {
	return NodeState{ID: n.ID, Path: n.Path, Format: n.ext}
}

// ComponentType implements introspection.Component.
func (n *Node) ComponentType() string {
	return "fs-node"
}

var (
	_ introspection.Introspectable = (*Tree)(nil)
	_ introspection.Component      = (*Tree)(nil)
	_ introspection.Introspectable = (*Node)(nil)
	_ introspection.Component      = (*Node)(nil)
)
