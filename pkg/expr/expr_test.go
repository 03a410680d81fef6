package expr_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nodeattr/pkg/expr"
)

func TestEval_Literals(t *testing.T) {
	ev := expr.New()

	tests := []struct {
		src  string
		want any
	}{
		{"42", int64(42)},
		{"-3", int64(-3)},
		{"1.5", 1.5},
		{"1 + 2 * 3", int64(7)},
		{"True", true},
		{"None", nil},
		{"(1, 'a')", []any{int64(1), "a"}},
		{"[1, [2, 3]]", []any{int64(1), []any{int64(2), int64(3)}}},
		{"{'k': 1}", map[string]any{"k": int64(1)}},
		{"1 if True else 2", int64(1)},
		{"not False", true},
	}

	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			got, err := ev.Eval(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEval_BigInt(t *testing.T) {
	got, err := expr.New().Eval("99999999999999999999")
	require.NoError(t, err)

	want, _ := new(big.Int).SetString("99999999999999999999", 10)
	assert.Equal(t, 0, want.Cmp(got.(*big.Int)))
}

func TestCheckSyntax_Rejections(t *testing.T) {
	ev := expr.New()

	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"leading single quote", "'quoted'"},
		{"leading double quote", `"quoted"`},
		{"syntax error", "1 +"},
		{"runtime error", "1 // 0"},
		{"free identifier", "foo"},
		{"call", "len([1])"},
		{"attribute access", "x.y"},
		{"indexing", "[1, 2][0]"},
		{"comprehension", "[x for x in [1]]"},
		{"lambda", "lambda: 1"},
		{"type error", "1 + 'a'"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, ev.CheckSyntax(tc.src), "expected %q to be rejected", tc.src)
		})
	}
}

func TestEval_LeadingQuoteError(t *testing.T) {
	_, err := expr.New().Eval("'quoted'")
	assert.ErrorIs(t, err, expr.ErrLeadingQuote)

	// The same literal is fine when not in first position.
	v, err := expr.New().Eval("('quoted')")
	require.NoError(t, err)
	assert.Equal(t, "quoted", v)
}

func TestEval_MaxLen(t *testing.T) {
	ev := expr.New(expr.WithMaxLen(8))

	_, err := ev.Eval(strings.Repeat("1+", 8) + "1")
	assert.ErrorIs(t, err, expr.ErrTooLong)
}

func TestEval_NotLiteral(t *testing.T) {
	_, err := expr.New().Eval("print(1)")
	assert.ErrorIs(t, err, expr.ErrNotLiteral)
}

func TestLiteral_RoundTrip(t *testing.T) {
	ev := expr.New()

	values := []any{
		nil,
		true,
		int64(-12),
		2.0,
		[]any{int64(1), "it's \"x\"", []any{false}},
		map[string]any{"b": int64(2), "a": 1.5},
		[]byte("raw \x00\xff\"q\"\\"),
	}
	for _, v := range values {
		src := expr.Literal(v)
		got, err := ev.Eval(src)
		require.NoError(t, err, src)
		assert.Equal(t, v, got, src)
	}
}

func TestEval_DictKeyCollision(t *testing.T) {
	_, err := expr.New().Eval(`{1: "a", "1": "b"}`)
	assert.ErrorIs(t, err, expr.ErrKeyCollision)

	v, err := expr.New().Eval(`{1: "a", 2: "b"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": "a", "2": "b"}, v)
}

func TestLiteral_Bytes(t *testing.T) {
	assert.Equal(t, `b"a\x00\"b"`, expr.Literal([]byte("a\x00\"b")))
}

func TestLiteral_SortedMapKeys(t *testing.T) {
	assert.Equal(t, `{"a": 1, "b": 2}`, expr.Literal(map[string]int{"b": 2, "a": 1}))
}
