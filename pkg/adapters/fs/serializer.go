package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/nodeattr/pkg/core"
)

// nodeFile is the parsed content of a node file. Body is the markdown text
// after the front matter. Extra holds the top-level keys next to AttrsKey;
// both are written back untouched.
type nodeFile struct {
	Attrs core.Metadata
	Body  string
	Extra map[string]any
}

// Serializer defines how to read and write a specific node file format.
type Serializer interface {
	// Parse reads from r and returns the node content.
	Parse(r io.Reader, attrsKey string) (*nodeFile, error)
	// Serialize converts the node content to bytes.
	Serialize(n nodeFile, attrsKey string) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": &JSONSerializer{},
		".yaml": &YAMLSerializer{},
		".yml":  &YAMLSerializer{},
		".md":   &MarkdownSerializer{},
	}
}

// --- JSON Serializer ---

// JSONSerializer handles JSON node files. Numbers are decoded as int64 when
// integral, float64 otherwise.
type JSONSerializer struct{}

func (s *JSONSerializer) Parse(r io.Reader, attrsKey string) (*nodeFile, error) {
	var payload map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return &nodeFile{Attrs: make(core.Metadata)}, nil
		}
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	n, err := splitPayload(payload, attrsKey)
	if err != nil {
		return nil, err
	}
	n.Attrs = normalizeNumbers(n.Attrs).(core.Metadata)
	return n, nil
}

func (s *JSONSerializer) Serialize(n nodeFile, attrsKey string) ([]byte, error) {
	payload, err := joinPayload(n, attrsKey)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// --- YAML Serializer ---

// YAMLSerializer handles YAML node files.
type YAMLSerializer struct{}

func (s *YAMLSerializer) Parse(r io.Reader, attrsKey string) (*nodeFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return splitPayload(payload, attrsKey)
}

func (s *YAMLSerializer) Serialize(n nodeFile, attrsKey string) ([]byte, error) {
	payload, err := joinPayload(n, attrsKey)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(payload)
}

// --- Markdown Serializer ---

// MarkdownSerializer stores attributes as YAML front matter; the body is the
// markdown text after it.
type MarkdownSerializer struct{}

func (s *MarkdownSerializer) Parse(r io.Reader, _ string) (*nodeFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	n := &nodeFile{Attrs: make(core.Metadata)}
	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		n.Body = string(data)
		return n, nil
	}

	rest := data[3:]
	parts := bytes.SplitN(rest, []byte("\n---"), 2)
	if len(parts) == 1 {
		return nil, errors.New("frontmatter started but no closing delimiter found")
	}

	if err := yaml.Unmarshal(parts[0], &n.Attrs); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	if n.Attrs == nil {
		n.Attrs = make(core.Metadata)
	}

	body := strings.TrimPrefix(string(parts[1]), "\r")
	body = strings.TrimPrefix(body, "\n")
	n.Body = strings.TrimPrefix(body, "\r\n")
	return n, nil
}

func (s *MarkdownSerializer) Serialize(n nodeFile, _ string) ([]byte, error) {
	attrs, err := encodeValue(map[string]any(n.Attrs))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if len(n.Attrs) > 0 {
		buf.WriteString("---\n")
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(attrs); err != nil {
			return nil, err
		}
		encoder.Close()
		buf.WriteString("---\n")
	}
	buf.WriteString(n.Body)
	return buf.Bytes(), nil
}

// --- Helpers ---

// splitPayload separates the attributes from the rest of a JSON or YAML
// document. Without attrsKey every top-level key is an attribute.
func splitPayload(payload map[string]any, attrsKey string) (*nodeFile, error) {
	n := &nodeFile{Attrs: make(core.Metadata)}
	if payload == nil {
		return n, nil
	}

	if attrsKey == "" {
		for k, v := range payload {
			n.Attrs[k] = v
		}
		return n, nil
	}

	for k, v := range payload {
		if k != attrsKey {
			if n.Extra == nil {
				n.Extra = make(map[string]any)
			}
			n.Extra[k] = v
			continue
		}
		if v == nil {
			continue
		}
		attrs, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%q is not a mapping", attrsKey)
		}
		n.Attrs = attrs
	}
	return n, nil
}

func joinPayload(n nodeFile, attrsKey string) (map[string]any, error) {
	encoded, err := encodeValue(map[string]any(n.Attrs))
	if err != nil {
		return nil, err
	}
	attrs := encoded.(map[string]any)
	if attrsKey == "" {
		return attrs, nil
	}

	payload := make(map[string]any, len(n.Extra)+1)
	for k, v := range n.Extra {
		payload[k] = v
	}
	payload[attrsKey] = attrs
	return payload, nil
}

// encodeValue converts attribute values into forms both encoders accept.
// Complex numbers become their "(a+bj)" text and big integers their decimal text.
func encodeValue(v any) (any, error) {
	switch x := v.(type) {
	case core.Metadata:
		return encodeValue(map[string]any(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			enc, err := encodeValue(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = enc
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			enc, err := encodeValue(val)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case complex64, complex128:
		return core.FormatScalar(x), nil
	case *big.Int:
		return x.String(), nil
	case []byte:
		return string(x), nil
	}
	return v, nil
}

// normalizeNumbers converts json.Number values to int64 or float64.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case core.Metadata:
		return core.Metadata(normalizeNumbers(map[string]any(x)).(map[string]any))
	case map[string]any:
		for k, val := range x {
			x[k] = normalizeNumbers(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = normalizeNumbers(val)
		}
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	}
	return v
}
