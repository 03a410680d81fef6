package platform

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/nodeattr/pkg/core"
	"github.com/aretw0/nodeattr/pkg/sheet"
)

// Describe returns the attributes of a node as sheet rows, with types
// inferred from the stored values. A non-empty match keeps only the names
// matching that doublestar pattern. TITLE is listed first when present.
func Describe(ctx context.Context, store core.AttributeStore, match string) ([]core.Row, error) {
	if match != "" && !doublestar.ValidatePattern(match) {
		return nil, fmt.Errorf("invalid pattern: %q", match)
	}

	names, err := store.UserAttributeNames(ctx)
	if err != nil {
		return nil, err
	}
	if store.HasTitle(ctx) {
		names = append([]string{core.TitleName}, names...)
	}

	rows := make([]core.Row, 0, len(names))
	for _, name := range names {
		if match != "" {
			if ok, _ := doublestar.Match(match, name); !ok {
				continue
			}
		}
		v, err := store.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read attribute %q: %w", name, err)
		}
		rows = append(rows, sheet.RowOf(name, v))
	}
	return rows, nil
}

// Check validates a sheet against a node without committing it. It
// returns the *core.ValidationError of the first failing row.
func Check(ctx context.Context, store core.AttributeStore, s *sheet.Sheet, opts ...Option) error {
	return NewEditor(store, s.EditedSet(), opts...).Validate(ctx)
}

// Apply validates a sheet against a node and commits it. Per-attribute
// store failures go to the configured reporter and are counted in the result.
func Apply(ctx context.Context, store core.AttributeStore, s *sheet.Sheet, opts ...Option) (core.CommitResult, error) {
	ed := NewEditor(store, s.EditedSet(), opts...)
	if err := ed.Validate(ctx); err != nil {
		return core.CommitResult{}, err
	}
	res, err := ed.Apply(ctx)
	if err != nil {
		return res, err
	}

	o := applyOptions(opts)
	o.logOrDiscard().Info("sheet applied",
		"deleted", len(res.Deleted),
		"written", len(res.Written),
		"failures", res.Failures,
	)
	return res, nil
}
