// Package expr evaluates free-form attribute values as literal expressions.
//
// Expressions use the Starlark expression grammar restricted to literals:
// numbers, strings, True/False/None, tuples, lists, dicts and arithmetic,
// comparison and logical operators over them. Anything able to reach
// outside the literal (calls, attribute access, indexing, comprehensions,
// lambdas, free identifiers) is rejected before evaluation.
package expr

import (
	"errors"
	"fmt"
	"math/big"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const (
	// DefaultMaxLen caps the length of an expression source.
	DefaultMaxLen = 4096
	// DefaultMaxSteps bounds the work done by a single evaluation.
	DefaultMaxSteps = 100_000
)

var (
	ErrEmpty        = errors.New("empty expression")
	ErrLeadingQuote = errors.New("expression starts with a quote")
	ErrTooLong      = errors.New("expression too long")
	ErrNotLiteral   = errors.New("expression is not a literal")
	ErrKeyCollision = errors.New("dict keys collide")
)

var allowedIdents = map[string]bool{
	"True":  true,
	"False": true,
	"None":  true,
}

// Evaluator checks and evaluates literal expressions.
type Evaluator struct {
	maxLen   int
	maxSteps uint64
	opts     *syntax.FileOptions
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxLen overrides DefaultMaxLen.
func WithMaxLen(n int) Option {
	return func(e *Evaluator) {
		e.maxLen = n
	}
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n uint64) Option {
	return func(e *Evaluator) {
		e.maxSteps = n
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		maxLen:   DefaultMaxLen,
		maxSteps: DefaultMaxSteps,
		opts:     &syntax.FileOptions{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckSyntax reports whether src parses and evaluates as a literal expression.
// Sources starting with a quote are refused even when they would evaluate.
func (e *Evaluator) CheckSyntax(src string) bool {
	_, err := e.Eval(src)
	return err == nil
}

// Eval evaluates src and converts the result to a Go value.
func (e *Evaluator) Eval(src string) (any, error) {
	if src == "" {
		return nil, ErrEmpty
	}
	if src[0] == '\'' || src[0] == '"' {
		return nil, ErrLeadingQuote
	}
	if len(src) > e.maxLen {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLong, len(src), e.maxLen)
	}

	ex, err := e.opts.ParseExpr("attribute", src, 0)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := checkLiteral(ex); err != nil {
		return nil, err
	}

	thread := &starlark.Thread{Name: "attribute"}
	thread.SetMaxExecutionSteps(e.maxSteps)

	v, err := starlark.EvalExprOptions(e.opts, thread, ex, nil)
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}
	return toGo(v)
}

func checkLiteral(ex syntax.Expr) error {
	var bad error
	syntax.Walk(ex, func(n syntax.Node) bool {
		if bad != nil {
			return false
		}
		switch n := n.(type) {
		case *syntax.Literal, *syntax.ParenExpr, *syntax.TupleExpr, *syntax.ListExpr,
			*syntax.DictExpr, *syntax.DictEntry, *syntax.UnaryExpr, *syntax.BinaryExpr,
			*syntax.CondExpr:
			return true
		case *syntax.Ident:
			if allowedIdents[n.Name] {
				return true
			}
			bad = fmt.Errorf("%w: identifier %q", ErrNotLiteral, n.Name)
		default:
			bad = fmt.Errorf("%w: %T", ErrNotLiteral, n)
		}
		return false
	})
	return bad
}

func toGo(v starlark.Value) (any, error) {
	switch x := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(x), nil
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			return i, nil
		}
		return new(big.Int).Set(x.BigInt()), nil
	case starlark.Float:
		return float64(x), nil
	case starlark.String:
		return string(x), nil
	case starlark.Bytes:
		return []byte(x), nil
	case starlark.Tuple:
		return seqToGo(x.Len(), x.Index)
	case *starlark.List:
		return seqToGo(x.Len(), x.Index)
	case *starlark.Dict:
		out := make(map[string]any, x.Len())
		for _, item := range x.Items() {
			k, err := toGo(item[0])
			if err != nil {
				return nil, err
			}
			val, err := toGo(item[1])
			if err != nil {
				return nil, err
			}
			key := fmt.Sprint(k)
			if _, dup := out[key]; dup {
				return nil, fmt.Errorf("%w: %s", ErrKeyCollision, key)
			}
			out[key] = val
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", v.Type())
}

func seqToGo(n int, at func(int) starlark.Value) ([]any, error) {
	out := make([]any, n)
	for i := range n {
		v, err := toGo(at(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
