package core

import "context"

// AttributeStore is the attribute collection of a single node.
// Adhering to this interface keeps the editor independent of the
// underlying data file (node files, SQL, in memory).
type AttributeStore interface {
	// UserAttributeNames lists the names of user attributes, TITLE excluded.
	UserAttributeNames(ctx context.Context) ([]string, error)

	// HasTitle reports whether the node defines a TITLE attribute.
	HasTitle(ctx context.Context) bool

	// Title returns the TITLE attribute.
	Title(ctx context.Context) (string, error)

	// Get returns the value of an attribute or ErrNotFound.
	Get(ctx context.Context, name string) (any, error)

	// Set creates or overwrites an attribute.
	Set(ctx context.Context, name string, value any) error

	// Delete removes an attribute.
	Delete(ctx context.Context, name string) error
}

// ErrorReporter receives commit-time failures. Report must not block.
type ErrorReporter interface {
	Report(err error)
}

// ReporterFunc adapts a function to ErrorReporter.
type ReporterFunc func(err error)

// Report calls f(err).
func (f ReporterFunc) Report(err error) { f(err) }

// Evaluator checks and evaluates free-form expression attributes.
type Evaluator interface {
	// CheckSyntax reports whether expr is an acceptable literal expression.
	CheckSyntax(expr string) bool
	// Eval returns the Go value of expr.
	Eval(expr string) (any, error)
}

// Snapshot returns every attribute of a node, TITLE included when present.
func Snapshot(ctx context.Context, s AttributeStore) (Metadata, error) {
	names, err := s.UserAttributeNames(ctx)
	if err != nil {
		return nil, err
	}
	md := make(Metadata, len(names)+1)
	for _, n := range names {
		v, err := s.Get(ctx, n)
		if err != nil {
			return nil, err
		}
		md[n] = v
	}
	if s.HasTitle(ctx) {
		t, err := s.Title(ctx)
		if err != nil {
			return nil, err
		}
		md[TitleName] = t
	}
	return md, nil
}
