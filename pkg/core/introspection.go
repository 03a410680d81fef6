package core

import (
	"github.com/aretw0/introspection"
)

// EditorState exposes internal state for observability.
type EditorState struct {
	Rows      int    `json:"rows"`
	HasTitle  bool   `json:"has_title"`
	Accepted  bool   `json:"accepted"`
	LastError string `json:"last_error,omitempty"`
	StoreType string `json:"store_type"`
}

// State implements introspection.Introspectable.
func (e *Editor) State() any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	storeType := "store"
	if comp, ok := e.store.(introspection.Component); ok {
		storeType = comp.ComponentType()
	}

	st := EditorState{
		Rows:      e.set.Len(),
		HasTitle:  e.set.HasTitle(),
		Accepted:  e.accepted,
		StoreType: storeType,
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (e *Editor) ComponentType() string {
	return "editor"
}

var _ introspection.Introspectable = (*Editor)(nil)
var _ introspection.Component = (*Editor)(nil)
