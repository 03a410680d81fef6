// Package core holds the attribute editing domain: declared types, the
// edited attribute set, and the Editor that validates and commits edits
// against an AttributeStore.
package core

// TitleName is the reserved attribute holding a node title.
const TitleName = "TITLE"

// Metadata is the full attribute map of a node.
type Metadata map[string]any

// Row is one line of an edit snapshot as typed by the user.
type Row struct {
	Name     string `json:"name" yaml:"name"`
	Value    string `json:"value" yaml:"value"`
	Type     string `json:"type" yaml:"type"`
	MultiDim bool   `json:"multidim,omitempty" yaml:"multidim,omitempty"`
}

// EditedAttribute is a row resolved against the declared type table.
// Value is replaced by its normalized form once the row passes validation.
type EditedAttribute struct {
	Name     string
	Value    string
	Type     DataType
	TypeName string
	MultiDim bool
}

// EditedSet is the ordered set of attributes of one edit session.
type EditedSet struct {
	attrs    []EditedAttribute
	hasTitle bool
}

// NewEditedSet builds the set from snapshot rows. A non-nil title is
// appended as a synthetic TITLE row of type string.
func NewEditedSet(rows []Row, title *string) *EditedSet {
	s := &EditedSet{attrs: make([]EditedAttribute, 0, len(rows)+1)}
	for _, r := range rows {
		s.attrs = append(s.attrs, EditedAttribute{
			Name:     r.Name,
			Value:    r.Value,
			Type:     ParseDataType(r.Type),
			TypeName: r.Type,
			MultiDim: r.MultiDim,
		})
	}
	if title != nil {
		s.attrs = append(s.attrs, EditedAttribute{
			Name:     TitleName,
			Value:    *title,
			Type:     TypeString,
			TypeName: TypeString.String(),
		})
		s.hasTitle = true
	}
	return s
}

// Len returns the number of rows, TITLE included.
func (s *EditedSet) Len() int { return len(s.attrs) }

// At returns the row at index i (0-based).
func (s *EditedSet) At(i int) EditedAttribute { return s.attrs[i] }

// Attributes returns a copy of all rows in order.
func (s *EditedSet) Attributes() []EditedAttribute {
	out := make([]EditedAttribute, len(s.attrs))
	copy(out, s.attrs)
	return out
}

// HasTitle reports whether the set carries a TITLE row.
func (s *EditedSet) HasTitle() bool { return s.hasTitle }

// Names returns the set of names present in the edit.
func (s *EditedSet) Names() map[string]struct{} {
	names := make(map[string]struct{}, len(s.attrs))
	for _, a := range s.attrs {
		names[a.Name] = struct{}{}
	}
	return names
}

func (s *EditedSet) setValue(i int, v string) {
	s.attrs[i].Value = v
}

// EventType represents the kind of change seen on a watched file.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a node file or sheet.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}
