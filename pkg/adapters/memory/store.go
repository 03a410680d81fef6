// Package memory provides an in-memory core.AttributeStore.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/nodeattr/pkg/core"
)

// Store keeps the attributes of one node in memory.
type Store struct {
	mu         sync.RWMutex
	attrs      map[string]any
	readOnly   bool
	failSet    map[string]error
	failDelete map[string]error
	failList   error
}

// Option configures a Store.
type Option func(*Store)

// WithTitle defines the TITLE attribute of the node.
func WithTitle(title string) Option {
	return func(s *Store) {
		s.attrs[core.TitleName] = title
	}
}

// WithReadOnly rejects every write with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return func(s *Store) {
		s.readOnly = enabled
	}
}

// New creates a store holding a copy of initial.
func New(initial map[string]any, opts ...Option) *Store {
	s := &Store{
		attrs:      make(map[string]any, len(initial)),
		failSet:    make(map[string]error),
		failDelete: make(map[string]error),
	}
	for k, v := range initial {
		s.attrs[k] = v
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailSet makes every Set of name return err.
func (s *Store) FailSet(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet[name] = err
}

// FailDelete makes every Delete of name return err.
func (s *Store) FailDelete(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete[name] = err
}

// FailList makes UserAttributeNames return err.
func (s *Store) FailList(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failList = err
}

// UserAttributeNames implements core.AttributeStore.
func (s *Store) UserAttributeNames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failList != nil {
		return nil, s.failList
	}
	names := make([]string, 0, len(s.attrs))
	for k := range s.attrs {
		if k != core.TitleName {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names, nil
}

// HasTitle implements core.AttributeStore.
func (s *Store) HasTitle(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.attrs[core.TitleName]
	return ok
}

// Title implements core.AttributeStore.
func (s *Store) Title(ctx context.Context) (string, error) {
	v, err := s.Get(ctx, core.TitleName)
	if err != nil {
		return "", err
	}
	t, _ := v.(string)
	return t, nil
}

// Get implements core.AttributeStore.
func (s *Store) Get(ctx context.Context, name string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.attrs[name]
	if !ok {
		return nil, core.ErrNotFound
	}
	return v, nil
}

// Set implements core.AttributeStore.
func (s *Store) Set(ctx context.Context, name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return core.ErrReadOnly
	}
	if err := s.failSet[name]; err != nil {
		return err
	}
	s.attrs[name] = value
	return nil
}

// Delete implements core.AttributeStore.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return core.ErrReadOnly
	}
	if err := s.failDelete[name]; err != nil {
		return err
	}
	if _, ok := s.attrs[name]; !ok {
		return core.ErrNotFound
	}
	delete(s.attrs, name)
	return nil
}

// Attributes returns a copy of every attribute, TITLE included.
func (s *Store) Attributes() core.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(core.Metadata, len(s.attrs))
	for k, v := range s.attrs {
		out[k] = v
	}
	return out
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Attributes int  `json:"attributes"`
	ReadOnly   bool `json:"read_only"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{Attributes: len(s.attrs), ReadOnly: s.readOnly}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory"
}

var _ core.AttributeStore = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
