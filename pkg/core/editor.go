package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/nodeattr/pkg/expr"
)

// Editor validates an edited attribute set and commits it to a store.
type Editor struct {
	mu       sync.RWMutex
	store    AttributeStore
	set      *EditedSet
	reporter ErrorReporter
	eval     Evaluator
	logger   *slog.Logger

	accepted bool
	lastErr  error
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithReporter sets the collaborator receiving commit-time failures.
// By default failures are logged at error level.
func WithReporter(r ErrorReporter) EditorOption {
	return func(e *Editor) {
		e.reporter = r
	}
}

// WithEvaluator replaces the expression evaluator.
func WithEvaluator(ev Evaluator) EditorOption {
	return func(e *Editor) {
		e.eval = ev
	}
}

// WithLogger sets the logger for the editor.
func WithLogger(logger *slog.Logger) EditorOption {
	return func(e *Editor) {
		e.logger = logger
	}
}

// CommitResult summarizes an Apply call.
type CommitResult struct {
	Deleted  []string
	Written  []string
	Failures int
}

// NewEditor creates an editor for one edit session.
func NewEditor(store AttributeStore, set *EditedSet, opts ...EditorOption) *Editor {
	e := &Editor{
		store: store,
		set:   set,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.eval == nil {
		e.eval = expr.New()
	}
	if e.reporter == nil {
		logger := e.logger
		e.reporter = ReporterFunc(func(err error) {
			logger.Error("attribute commit failure", "error", err)
		})
	}
	return e
}

// Set returns the edited set. Values are normalized after a successful Validate.
func (e *Editor) Set() *EditedSet {
	return e.set
}

// Check runs Validate and returns its verdict with a human-readable reason.
func (e *Editor) Check(ctx context.Context) (bool, string) {
	if err := e.Validate(ctx); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// Validate checks the edited set, stopping at the first problem:
//  1. every row has a non-empty name,
//  2. names are unique,
//  3. every scalar row matches its declared type and range, and every
//     expression row is an acceptable literal expression.
//
// Rows that pass step 3 have their value replaced by the normalized form.
// Multi-dimensional rows only take part in the name checks.
func (e *Editor) Validate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.validate()
	e.accepted = err == nil
	e.lastErr = err
	if err != nil {
		e.logger.Debug("attributes rejected", "error", err)
	}
	return err
}

func (e *Editor) validate() error {
	for i, a := range e.set.attrs {
		if a.Name == "" {
			return &ValidationError{Kind: ErrEmptyName, Row: i + 1}
		}
	}

	seen := make(map[string]struct{}, len(e.set.attrs))
	for i, a := range e.set.attrs {
		if _, dup := seen[a.Name]; dup {
			return &ValidationError{Kind: ErrDuplicateName, Row: i + 1, Name: a.Name}
		}
		seen[a.Name] = struct{}{}
	}

	for i, a := range e.set.attrs {
		if a.MultiDim {
			continue
		}
		if a.Type == TypeExpr {
			if !e.eval.CheckSyntax(a.Value) {
				return &ValidationError{Kind: ErrInvalidExpression, Row: i + 1, Name: a.Name}
			}
			continue
		}

		value, ok := FormatValue(a.Type, a.Value)
		if !ok {
			return &ValidationError{Kind: ErrTypeMismatch, Row: i + 1, Name: a.Name}
		}
		value, err := CheckOverflow(a.Type, value)
		if err == nil {
			_, err = Construct(a.Type, value)
		}
		if err != nil {
			kind := ErrTypeMismatch
			if errors.Is(err, ErrOutOfRange) {
				kind = ErrOutOfRange
			}
			return &ValidationError{Kind: kind, Row: i + 1, Name: a.Name}
		}
		e.set.setValue(i, value)
	}
	return nil
}

// Apply commits an accepted set: attributes of the store missing from the
// set are deleted, then every scalar and expression row is written.
// Failures on single attributes are reported and do not stop the commit;
// nothing is rolled back. Apply returns ErrNotValidated unless the last
// Validate accepted the set.
func (e *Editor) Apply(ctx context.Context) (CommitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res CommitResult
	if !e.accepted {
		return res, ErrNotValidated
	}

	fail := func(err error) {
		res.Failures++
		e.reporter.Report(err)
	}

	stale, err := e.staleNames(ctx)
	if err != nil {
		fail(fmt.Errorf("%w: list attributes: %w", ErrStoreDelete, err))
	}
	for _, name := range stale {
		if err := e.store.Delete(ctx, name); err != nil {
			fail(fmt.Errorf("%w: %q: %w", ErrStoreDelete, name, err))
			continue
		}
		res.Deleted = append(res.Deleted, name)
	}

	for _, a := range e.set.attrs {
		if a.MultiDim {
			continue
		}

		var value any
		if a.Type == TypeExpr {
			value, err = e.eval.Eval(a.Value)
		} else {
			value, err = Construct(a.Type, a.Value)
		}
		if err != nil {
			fail(fmt.Errorf("%w: %q: %w", ErrStoreWrite, a.Name, err))
			continue
		}

		if err := e.store.Set(ctx, a.Name, value); err != nil {
			fail(fmt.Errorf("%w: %q: %w", ErrStoreWrite, a.Name, err))
			continue
		}
		res.Written = append(res.Written, a.Name)
	}

	e.logger.Debug("attributes committed",
		"deleted", len(res.Deleted),
		"written", len(res.Written),
		"failures", res.Failures,
	)

	// The set is consumed; another commit needs a fresh validation.
	e.accepted = false
	return res, nil
}

// staleNames returns, sorted, the store names absent from the edited set.
func (e *Editor) staleNames(ctx context.Context) ([]string, error) {
	names, err := e.store.UserAttributeNames(ctx)
	if err != nil {
		return nil, err
	}
	if e.store.HasTitle(ctx) {
		names = append(names, TitleName)
	}

	edited := e.set.Names()
	var stale []string
	for _, n := range names {
		if _, ok := edited[n]; !ok {
			stale = append(stale, n)
		}
	}
	sort.Strings(stale)
	return stale, nil
}
