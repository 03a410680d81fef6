package fs

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nodeattr/pkg/core"
)

func TestSerializers_RoundTrip(t *testing.T) {
	n := nodeFile{
		Attrs: core.Metadata{
			"TITLE": "Pump",
			"count": int64(42),
			"ratio": 0.5,
			"on":    true,
			"tags":  []any{"a", "b"},
			"meta":  map[string]any{"foo": "bar"},
		},
		Body: "Notes about the pump.",
	}

	for ext, s := range DefaultSerializers() {
		t.Run(ext, func(t *testing.T) {
			data, err := s.Serialize(n, "")
			require.NoError(t, err)

			parsed, err := s.Parse(bytes.NewReader(data), "")
			require.NoError(t, err)

			if ext == ".md" {
				assert.Equal(t, n.Body, parsed.Body)
			} else {
				assert.Empty(t, parsed.Body)
			}
			assert.Equal(t, "Pump", parsed.Attrs["TITLE"])
			assert.Equal(t, true, parsed.Attrs["on"])
			assert.Equal(t, 0.5, parsed.Attrs["ratio"])
			assert.EqualValues(t, 42, parsed.Attrs["count"])
			assert.Equal(t, []any{"a", "b"}, parsed.Attrs["tags"])
			assert.Equal(t, map[string]any{"foo": "bar"}, parsed.Attrs["meta"])
		})
	}
}

func TestSerializers_ContentIsAnAttribute(t *testing.T) {
	n := nodeFile{Attrs: core.Metadata{"content": "hello", "gain": int64(2)}}

	for _, ext := range []string{".json", ".yaml", ".yml"} {
		t.Run(ext, func(t *testing.T) {
			s := DefaultSerializers()[ext]
			data, err := s.Serialize(n, "")
			require.NoError(t, err)

			parsed, err := s.Parse(bytes.NewReader(data), "")
			require.NoError(t, err)
			assert.Equal(t, "hello", parsed.Attrs["content"])
			assert.EqualValues(t, 2, parsed.Attrs["gain"])
			assert.Empty(t, parsed.Body)
		})
	}
}

func TestJSONSerializer_Numbers(t *testing.T) {
	parsed, err := (&JSONSerializer{}).Parse(bytes.NewReader([]byte(`{"i": 7, "f": 1.5, "l": [1, 2.5]}`)), "")
	require.NoError(t, err)

	assert.Equal(t, int64(7), parsed.Attrs["i"])
	assert.Equal(t, 1.5, parsed.Attrs["f"])
	assert.Equal(t, []any{int64(1), 2.5}, parsed.Attrs["l"])
}

func TestSerializers_AttrsKey(t *testing.T) {
	n := nodeFile{
		Attrs: core.Metadata{"gain": int64(3)},
		Extra: map[string]any{"id": "keepme", "content": "text"},
	}

	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			s := DefaultSerializers()[ext]
			data, err := s.Serialize(n, "attrs")
			require.NoError(t, err)
			assert.Contains(t, string(data), "attrs")

			parsed, err := s.Parse(bytes.NewReader(data), "attrs")
			require.NoError(t, err)
			assert.Len(t, parsed.Attrs, 1)
			assert.EqualValues(t, 3, parsed.Attrs["gain"])
			assert.Equal(t, map[string]any{"id": "keepme", "content": "text"}, parsed.Extra)
		})
	}

	t.Run("Attrs Key Not a Mapping", func(t *testing.T) {
		_, err := (&YAMLSerializer{}).Parse(bytes.NewReader([]byte("attrs: 5\n")), "attrs")
		assert.Error(t, err)
	})
}

func TestSerializers_EncodeSpecialValues(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	n := nodeFile{Attrs: core.Metadata{
		"z":   complex(1, -2),
		"big": huge,
		"raw": []byte("bytes"),
	}}

	for ext, s := range DefaultSerializers() {
		t.Run(ext, func(t *testing.T) {
			data, err := s.Serialize(n, "")
			require.NoError(t, err)

			parsed, err := s.Parse(bytes.NewReader(data), "")
			require.NoError(t, err)
			assert.Equal(t, "(1-2j)", parsed.Attrs["z"])
			assert.Equal(t, "123456789012345678901234567890", parsed.Attrs["big"])
			assert.Equal(t, "bytes", parsed.Attrs["raw"])
		})
	}
}

func TestMarkdownSerializer(t *testing.T) {
	s := &MarkdownSerializer{}

	t.Run("No Front Matter", func(t *testing.T) {
		parsed, err := s.Parse(bytes.NewReader([]byte("# Just text\n")), "")
		require.NoError(t, err)
		assert.Empty(t, parsed.Attrs)
		assert.Equal(t, "# Just text\n", parsed.Body)
	})

	t.Run("Unclosed Front Matter", func(t *testing.T) {
		_, err := s.Parse(bytes.NewReader([]byte("---\ngain: 1\n")), "")
		assert.Error(t, err)
	})

	t.Run("Body Preserved", func(t *testing.T) {
		parsed, err := s.Parse(bytes.NewReader([]byte("---\ngain: 1\n---\nline one\nline two\n")), "")
		require.NoError(t, err)
		assert.Equal(t, 1, parsed.Attrs["gain"])
		assert.Equal(t, "line one\nline two\n", parsed.Body)
	})
}
