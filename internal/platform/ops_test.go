package platform_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nodeattr/internal/platform"
	"github.com/aretw0/nodeattr/pkg/adapters/memory"
	"github.com/aretw0/nodeattr/pkg/core"
	"github.com/aretw0/nodeattr/pkg/sheet"
)

func TestOpen_FS(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "tree")

	src, err := platform.Open(dir, platform.WithDefaultExt(".json"))
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Node(ctx, "pump", false)
	assert.ErrorIs(t, err, platform.ErrNodeNotFound)

	store, err := src.Node(ctx, "pump", true)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "gain", int64(1)))

	_, err = os.Stat(filepath.Join(dir, "pump.json"))
	require.NoError(t, err)

	ids, err := src.Nodes(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"pump"}, ids)
}

func TestOpen_FSReadOnlyNeedsTree(t *testing.T) {
	_, err := platform.Open(filepath.Join(t.TempDir(), "missing"), platform.WithReadOnly(true))
	assert.Error(t, err)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "attrs.db")

	src, err := platform.Open(dsn, platform.WithAdapter("sqlite"))
	require.NoError(t, err)

	_, err = src.Node(ctx, "pump", false)
	assert.ErrorIs(t, err, platform.ErrNodeNotFound)

	store, err := src.Node(ctx, "pump", true)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "gain", int64(1)))
	require.NoError(t, src.Close())

	ro, err := platform.Open(dsn, platform.WithAdapter("sqlite"), platform.WithReadOnly(true))
	require.NoError(t, err)
	defer ro.Close()

	store, err = ro.Node(ctx, "pump", false)
	require.NoError(t, err)
	v, err := store.Get(ctx, "gain")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	assert.ErrorIs(t, store.Set(ctx, "gain", int64(2)), core.ErrReadOnly)
}

func TestOpen_UnknownAdapter(t *testing.T) {
	_, err := platform.Open("x", platform.WithAdapter("s3"))
	assert.ErrorContains(t, err, "unknown adapter")
}

type staticSource struct {
	store core.AttributeStore
}

func (s staticSource) Nodes(context.Context, string) ([]string, error) { return []string{"mem"}, nil }
func (s staticSource) Node(context.Context, string, bool) (core.AttributeStore, error) {
	return s.store, nil
}
func (s staticSource) Close() error { return nil }

func TestOpen_InjectedSource(t *testing.T) {
	want := staticSource{store: memory.New(nil)}
	src, err := platform.Open("ignored", platform.WithSource(want))
	require.NoError(t, err)
	assert.Equal(t, want, src)
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()
	store := memory.New(map[string]any{
		"gain":      int16(3),
		"gain_max":  int16(9),
		"label":     "pump",
		"positions": []any{int64(1), int64(2)},
	}, memory.WithTitle("Pump"))

	rows, err := platform.Describe(ctx, store, "")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, core.Row{Name: core.TitleName, Value: "Pump", Type: "string"}, rows[0])

	rows, err = platform.Describe(ctx, store, "gain*")
	require.NoError(t, err)
	assert.Equal(t, []core.Row{
		{Name: "gain", Value: "3", Type: "int16"},
		{Name: "gain_max", Value: "9", Type: "int16"},
	}, rows)

	_, err = platform.Describe(ctx, store, "[")
	assert.Error(t, err)
}

func TestCheckAndApply(t *testing.T) {
	ctx := context.Background()
	store := memory.New(map[string]any{"old": int64(1), "keep": "x"})

	bad := &sheet.Sheet{Rows: []core.Row{{Name: "n", Value: "300", Type: "uint8"}}}
	err := platform.Check(ctx, store, bad)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, core.ErrOutOfRange)
	assert.Equal(t, `"n" value is out of range.`, verr.Error())

	_, err = platform.Apply(ctx, store, bad)
	assert.ErrorIs(t, err, core.ErrOutOfRange)
	assert.Contains(t, store.Attributes(), "old")

	var reported []error
	store.FailSet("broken", errors.New("disk full"))
	good := &sheet.Sheet{Rows: []core.Row{
		{Name: "keep", Value: "y", Type: "string"},
		{Name: "n", Value: "255", Type: "uint8"},
		{Name: "broken", Value: "1", Type: "int8"},
	}}
	res, err := platform.Apply(ctx, store, good,
		platform.WithReporter(core.ReporterFunc(func(err error) { reported = append(reported, err) })))
	require.NoError(t, err)

	assert.Equal(t, []string{"old"}, res.Deleted)
	assert.Equal(t, []string{"keep", "n"}, res.Written)
	assert.Equal(t, 1, res.Failures)
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], core.ErrStoreWrite)

	attrs := store.Attributes()
	assert.Equal(t, "y", attrs["keep"])
	assert.Equal(t, uint8(255), attrs["n"])
	assert.NotContains(t, attrs, "old")
}
