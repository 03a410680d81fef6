package expr

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Literal renders v as expression source that Eval turns back into v.
// Unsupported values are rendered with fmt and will not evaluate.
func Literal(v any) string {
	var b strings.Builder
	writeLiteral(&b, v)
	return b.String()
}

func writeLiteral(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("None")
		return
	case bool:
		if x {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
		return
	case string:
		b.WriteString(strconv.Quote(x))
		return
	case []byte:
		writeBytes(b, x)
		return
	case *big.Int:
		b.WriteString(x.String())
		return
	case float32:
		b.WriteString(floatLiteral(float64(x), 32))
		return
	case float64:
		b.WriteString(floatLiteral(x, 64))
		return
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Slice, reflect.Array:
		b.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			writeLiteral(b, rv.Index(i).Interface())
		}
		b.WriteByte(']')
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			writeLiteral(b, k.Interface())
			b.WriteString(": ")
			writeLiteral(b, rv.MapIndex(k).Interface())
		}
		b.WriteByte('}')
	default:
		fmt.Fprint(b, v)
	}
}

// writeBytes renders a bytes literal, escaping everything outside printable ASCII.
func writeBytes(b *strings.Builder, x []byte) {
	b.WriteString(`b"`)
	for _, c := range x {
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c >= 0x20 && c < 0x7f:
			b.WriteByte(c)
		default:
			fmt.Fprintf(b, `\x%02x`, c)
		}
	}
	b.WriteByte('"')
}

func floatLiteral(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	// Keep floats distinguishable from ints on the way back.
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
