// Package sheet reads and writes edit sheets: the table of attribute rows a
// user edits for one node, with an optional TITLE.
package sheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/nodeattr/pkg/core"
	"github.com/aretw0/nodeattr/pkg/expr"
)

// ArrayType is the declared type written for multi-dimensional rows.
const ArrayType = "array"

var ErrUnknownFormat = errors.New("unknown sheet format")

// Sheet is the snapshot of one edit session.
type Sheet struct {
	Title *string    `yaml:"title,omitempty" json:"title,omitempty"`
	Rows  []core.Row `yaml:"attributes" json:"attributes"`
}

// EditedSet builds the edited set of the sheet.
func (s *Sheet) EditedSet() *core.EditedSet {
	return core.NewEditedSet(s.Rows, s.Title)
}

// Codec defines how to read and write a specific sheet format.
type Codec interface {
	Decode(r io.Reader) (*Sheet, error)
	Encode(w io.Writer, s *Sheet) error
}

// Codecs returns the codec per file extension.
func Codecs() map[string]Codec {
	return map[string]Codec{
		".yaml": YAMLCodec{},
		".yml":  YAMLCodec{},
		".json": JSONCodec{},
		".csv":  CSVCodec{},
	}
}

// CodecFor returns the codec registered for the extension of path.
func CodecFor(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := Codecs()[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return c, nil
}

// ReadFile decodes the sheet at path, choosing the codec by extension.
func ReadFile(path string) (*Sheet, error) {
	c, err := CodecFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := c.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", path, err)
	}
	return s, nil
}

// WriteFile encodes s to path, choosing the codec by extension.
func WriteFile(path string, s *Sheet) error {
	c, err := CodecFor(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf, s); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// FromStore exports the attributes of a node as a sheet. Array values
// become multi-dimensional rows, which an editor passes through untouched.
func FromStore(ctx context.Context, store core.AttributeStore) (*Sheet, error) {
	names, err := store.UserAttributeNames(ctx)
	if err != nil {
		return nil, err
	}

	s := &Sheet{Rows: make([]core.Row, 0, len(names))}
	for _, name := range names {
		v, err := store.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read attribute %q: %w", name, err)
		}
		s.Rows = append(s.Rows, RowOf(name, v))
	}

	if store.HasTitle(ctx) {
		title, err := store.Title(ctx)
		if err != nil {
			return nil, err
		}
		s.Title = &title
	}
	return s, nil
}

// RowOf describes a stored value as a sheet row.
func RowOf(name string, v any) core.Row {
	dt, multi := core.TypeOf(v)
	switch {
	case multi:
		return core.Row{Name: name, Value: expr.Literal(v), Type: ArrayType, MultiDim: true}
	case dt == core.TypeExpr:
		return core.Row{Name: name, Value: expr.Literal(v), Type: dt.String()}
	}
	return core.Row{Name: name, Value: core.FormatScalar(v), Type: dt.String()}
}

// --- YAML ---

// YAMLCodec handles YAML sheets. Unquoted scalar values keep their text.
type YAMLCodec struct{}

func (YAMLCodec) Decode(r io.Reader) (*Sheet, error) {
	var s Sheet
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return &s, nil
}

func (YAMLCodec) Encode(w io.Writer, s *Sheet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// --- JSON ---

// JSONCodec handles JSON sheets. Non-string values keep their source text.
type JSONCodec struct{}

type jsonRow struct {
	Name     string          `json:"name"`
	Value    json.RawMessage `json:"value"`
	Type     string          `json:"type"`
	MultiDim bool            `json:"multidim,omitempty"`
}

type jsonSheet struct {
	Title *string   `json:"title,omitempty"`
	Rows  []jsonRow `json:"attributes"`
}

func (JSONCodec) Decode(r io.Reader) (*Sheet, error) {
	var js jsonSheet
	if err := json.NewDecoder(r).Decode(&js); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	s := &Sheet{Title: js.Title, Rows: make([]core.Row, 0, len(js.Rows))}
	for _, jr := range js.Rows {
		row := core.Row{Name: jr.Name, Type: jr.Type, MultiDim: jr.MultiDim}
		raw := bytes.TrimSpace(jr.Value)
		switch {
		case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		case raw[0] == '"':
			if err := json.Unmarshal(raw, &row.Value); err != nil {
				return nil, fmt.Errorf("invalid value for %q: %w", jr.Name, err)
			}
		default:
			row.Value = string(raw)
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

func (JSONCodec) Encode(w io.Writer, s *Sheet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// --- CSV ---

// CSVCodec handles CSV sheets with a name,value,type[,multidim] header.
// CSV sheets carry no TITLE.
type CSVCodec struct{}

var csvHeader = []string{"name", "value", "type", "multidim"}

func (CSVCodec) Decode(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range csvHeader[:3] {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header misses column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	s := &Sheet{}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		row := core.Row{
			Name:  field(rec, "name"),
			Value: field(rec, "value"),
			Type:  field(rec, "type"),
		}
		if md := strings.TrimSpace(field(rec, "multidim")); md != "" {
			row.MultiDim, err = strconv.ParseBool(md)
			if err != nil {
				return nil, fmt.Errorf("invalid multidim flag %q: %w", md, err)
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

func (CSVCodec) Encode(w io.Writer, s *Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range s.Rows {
		if err := cw.Write([]string{r.Name, r.Value, r.Type, strconv.FormatBool(r.MultiDim)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
