package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nodeattr/pkg/adapters/memory"
	"github.com/aretw0/nodeattr/pkg/core"
)

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := memory.New(map[string]any{"b": 2, "a": 1}, memory.WithTitle("node"))

	names, err := s.UserAttributeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	assert.True(t, s.HasTitle(ctx))
	title, err := s.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "node", title)

	require.NoError(t, s.Set(ctx, "c", int8(3)))
	v, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, int8(3), v)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "a"), core.ErrNotFound)
}

func TestStore_FailureInjection(t *testing.T) {
	ctx := context.Background()
	s := memory.New(map[string]any{"a": 1})
	boom := errors.New("boom")

	s.FailSet("x", boom)
	s.FailDelete("a", boom)

	assert.ErrorIs(t, s.Set(ctx, "x", 1), boom)
	assert.ErrorIs(t, s.Delete(ctx, "a"), boom)
	assert.NoError(t, s.Set(ctx, "y", 1))
}

func TestStore_ReadOnly(t *testing.T) {
	ctx := context.Background()
	s := memory.New(map[string]any{"a": 1}, memory.WithReadOnly(true))

	assert.ErrorIs(t, s.Set(ctx, "a", 2), core.ErrReadOnly)
	assert.ErrorIs(t, s.Delete(ctx, "a"), core.ErrReadOnly)
	assert.Equal(t, memory.StoreState{Attributes: 1, ReadOnly: true}, s.State())
}
