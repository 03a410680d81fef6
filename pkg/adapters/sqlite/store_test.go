package sqlite_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nodeattr/pkg/adapters/sqlite"
	"github.com/aretw0/nodeattr/pkg/core"
)

func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "attrs.db")
	s, err := sqlite.Open(dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dsn
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	s, dsn := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Node("pump").Set(ctx, "gain", int64(1)))
	require.NoError(t, s.Close())

	again, err := sqlite.Open(dsn, nil)
	require.NoError(t, err)
	defer again.Close()

	v, err := again.Node("pump").Get(ctx, "gain")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestNode_TypedRoundTrip(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	node := s.Node("plant/pump")

	values := map[string]any{
		"flag":  true,
		"off":   false,
		"i8":    int8(-128),
		"u16":   uint16(65535),
		"i64":   int64(math.MinInt64),
		"u64":   uint64(math.MaxUint64),
		"f32":   float32(0.25),
		"f64":   1e300,
		"c64":   complex64(complex(1, 2)),
		"c128":  complex(-1.5, 0),
		"label": "  spaced text ",
		"grid":  []any{[]any{int64(1), int64(2)}, []any{int64(3), int64(4)}},
		"meta":  map[string]any{"unit": "C", "ratio": 0.5},
		"none":  nil,
		"raw":   []byte("a\x00\xff"),
	}
	for name, v := range values {
		require.NoError(t, node.Set(ctx, name, v), name)
	}

	for name, want := range values {
		got, err := node.Get(ctx, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestNode_AttributeStore(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	node := s.Node("pump")

	assert.False(t, node.HasTitle(ctx))
	require.NoError(t, node.Set(ctx, core.TitleName, "Main pump"))
	require.NoError(t, node.Set(ctx, "b", int64(1)))
	require.NoError(t, node.Set(ctx, "a", int64(2)))
	require.NoError(t, s.Node("other").Set(ctx, "c", "x"))

	names, err := node.UserAttributeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	assert.True(t, node.HasTitle(ctx))
	title, err := node.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Main pump", title)

	// Overwrite changes the stored type.
	require.NoError(t, node.Set(ctx, "a", "text"))
	v, err := node.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "text", v)

	require.NoError(t, node.Delete(ctx, "a"))
	assert.ErrorIs(t, node.Delete(ctx, "a"), core.ErrNotFound)
	_, err = node.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNodes(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	for _, id := range []string{"plant/pump", "plant/valve", "office/lamp"} {
		require.NoError(t, s.Node(id).Set(ctx, "x", int64(1)))
	}

	all, err := s.Nodes(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"office/lamp", "plant/pump", "plant/valve"}, all)

	plant, err := s.Nodes(ctx, "plant/*")
	require.NoError(t, err)
	assert.Equal(t, []string{"plant/pump", "plant/valve"}, plant)

	_, err = s.Nodes(ctx, "[")
	assert.Error(t, err)
}

func TestEditorCommit(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	node := s.Node("pump")
	require.NoError(t, node.Set(ctx, "stale", int64(1)))
	require.NoError(t, node.Set(ctx, "grid", []any{int64(1)}))

	ed := core.NewEditor(node, core.NewEditedSet([]core.Row{
		{Name: "gain", Value: "2.5", Type: "float64"},
		{Name: "cfg", Value: "{'k': [1, 2]}", Type: "expr"},
		{Name: "grid", Value: "[1]", Type: "array", MultiDim: true},
	}, nil))
	require.NoError(t, ed.Validate(ctx))
	res, err := ed.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, res.Deleted)
	assert.Equal(t, []string{"gain", "cfg"}, res.Written)

	cfg, err := node.Get(ctx, "cfg")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": []any{int64(1), int64(2)}}, cfg)

	grid, err := node.Get(ctx, "grid")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, grid)
}

func TestState(t *testing.T) {
	s, dsn := openStore(t)
	state, ok := s.State().(sqlite.StoreState)
	require.True(t, ok)
	assert.Equal(t, dsn, state.DSN)
	assert.Equal(t, "sqlite", s.ComponentType())
}
