package core

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// DataType is the declared type of an edited attribute.
type DataType int

const (
	TypeUnknown DataType = iota
	TypeBool
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeComplex64
	TypeComplex128
	TypeString
	// TypeExpr marks a free-form literal expression evaluated by an Evaluator.
	TypeExpr
)

var typeNames = [...]string{
	TypeUnknown:    "unknown",
	TypeBool:       "bool",
	TypeInt8:       "int8",
	TypeInt16:      "int16",
	TypeInt32:      "int32",
	TypeInt64:      "int64",
	TypeUint8:      "uint8",
	TypeUint16:     "uint16",
	TypeUint32:     "uint32",
	TypeUint64:     "uint64",
	TypeFloat32:    "float32",
	TypeFloat64:    "float64",
	TypeComplex64:  "complex64",
	TypeComplex128: "complex128",
	TypeString:     "string",
	TypeExpr:       "expr",
}

func (t DataType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return typeNames[TypeUnknown]
	}
	return typeNames[t]
}

// IsInteger reports whether t is one of the fixed-width integer types.
func (t DataType) IsInteger() bool {
	return t >= TypeInt8 && t <= TypeUint64
}

// IsFloat reports whether t is a floating point type.
func (t DataType) IsFloat() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// IsComplex reports whether t is a complex type.
func (t DataType) IsComplex() bool {
	return t == TypeComplex64 || t == TypeComplex128
}

// ParseDataType resolves a declared type tag. Unknown tags yield TypeUnknown.
func ParseDataType(name string) DataType {
	if name == "str" {
		return TypeString
	}
	for i, n := range typeNames {
		if i != int(TypeUnknown) && n == name {
			return DataType(i)
		}
	}
	return TypeUnknown
}

// DataTypes returns every declared type an editor accepts, in table order.
func DataTypes() []DataType {
	out := make([]DataType, 0, len(typeNames)-1)
	for i := TypeBool; i <= TypeExpr; i++ {
		out = append(out, i)
	}
	return out
}

// typeEntry is the per-type dispatch entry. Any nil func means pass-through.
type typeEntry struct {
	format    func(string) (string, bool)
	checkRng  func(string) error
	construct func(string) (any, error)
}

type intLimits struct {
	min, max *big.Int
}

var typeTable map[DataType]typeEntry

func init() {
	typeTable = map[DataType]typeEntry{
		TypeBool:       {format: formatBool, construct: constructBool},
		TypeInt8:       intEntry(8, true),
		TypeInt16:      intEntry(16, true),
		TypeInt32:      intEntry(32, true),
		TypeInt64:      intEntry(64, true),
		TypeUint8:      intEntry(8, false),
		TypeUint16:     intEntry(16, false),
		TypeUint32:     intEntry(32, false),
		TypeUint64:     intEntry(64, false),
		TypeFloat32:    floatEntry(32),
		TypeFloat64:    floatEntry(64),
		TypeComplex64:  {format: formatComplex, construct: complexConstructor(64)},
		TypeComplex128: {format: formatComplex, construct: complexConstructor(128)},
		TypeString:     {construct: func(s string) (any, error) { return s, nil }},
	}
}

func intEntry(bits int, signed bool) typeEntry {
	lim := intLimits{min: new(big.Int), max: new(big.Int)}
	if signed {
		lim.max.Lsh(big.NewInt(1), uint(bits-1))
		lim.min.Neg(lim.max)
		lim.max.Sub(lim.max, big.NewInt(1))
	} else {
		lim.max.Lsh(big.NewInt(1), uint(bits))
		lim.max.Sub(lim.max, big.NewInt(1))
	}

	return typeEntry{
		checkRng: func(s string) error {
			v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
			if !ok {
				return fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, s)
			}
			if v.Cmp(lim.min) < 0 || v.Cmp(lim.max) > 0 {
				return fmt.Errorf("%w: %s not in [%s, %s]", ErrOutOfRange, v, lim.min, lim.max)
			}
			return nil
		},
		construct: func(s string) (any, error) {
			s = strings.TrimSpace(s)
			if signed {
				v, err := strconv.ParseInt(s, 10, bits)
				if err != nil {
					return nil, numError(err)
				}
				switch bits {
				case 8:
					return int8(v), nil
				case 16:
					return int16(v), nil
				case 32:
					return int32(v), nil
				}
				return v, nil
			}
			v, err := strconv.ParseUint(s, 10, bits)
			if err != nil {
				return nil, numError(err)
			}
			switch bits {
			case 8:
				return uint8(v), nil
			case 16:
				return uint16(v), nil
			case 32:
				return uint32(v), nil
			}
			return v, nil
		},
	}
}

func floatEntry(bits int) typeEntry {
	limit := math.MaxFloat64
	if bits == 32 {
		limit = math.MaxFloat32
	}

	return typeEntry{
		checkRng: func(s string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil && !isRangeErr(err) {
				return fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, s)
			}
			// NaN compares false on both sides and is accepted.
			if v < -limit || v > limit {
				return fmt.Errorf("%w: %s exceeds float%d", ErrOutOfRange, s, bits)
			}
			return nil
		},
		construct: func(s string) (any, error) {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), bits)
			if err != nil {
				return nil, numError(err)
			}
			if bits == 32 {
				return float32(v), nil
			}
			return v, nil
		},
	}
}

func complexConstructor(bits int) func(string) (any, error) {
	return func(s string) (any, error) {
		s = strings.TrimSpace(s)
		// Wrapping parentheses are removed by FormatValue; a second pair is not a literal.
		if strings.HasPrefix(s, "(") {
			return nil, fmt.Errorf("%w: %q is not a complex literal", ErrTypeMismatch, s)
		}
		if strings.HasSuffix(s, "j") || strings.HasSuffix(s, "J") {
			s = s[:len(s)-1] + "i"
		}
		v, err := strconv.ParseComplex(s, bits)
		if err != nil {
			return nil, numError(err)
		}
		if bits == 64 {
			return complex64(v), nil
		}
		return v, nil
	}
}

func formatBool(s string) (string, bool) {
	switch s {
	case "1", "TRUE", "True", "true":
		return "1", true
	case "0", "FALSE", "False", "false":
		return "0", true
	}
	return "", false
}

func constructBool(s string) (any, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return nil, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, s)
}

func formatComplex(s string) (string, bool) {
	if len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return s[1 : len(s)-1], true
	}
	return s, true
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func numError(err error) error {
	if isRangeErr(err) {
		return fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
}

// FormatValue normalizes raw for its declared type before range checks.
// It returns false when raw does not match the type at all.
func FormatValue(t DataType, raw string) (string, bool) {
	if entry, ok := typeTable[t]; ok && entry.format != nil {
		return entry.format(raw)
	}
	return raw, true
}

// CheckOverflow rejects values outside the representable range of
// fixed-width integer and float types with ErrOutOfRange. Values of any
// other type are returned unchanged.
func CheckOverflow(t DataType, value string) (string, error) {
	if entry, ok := typeTable[t]; ok && entry.checkRng != nil {
		if err := entry.checkRng(value); err != nil {
			return "", err
		}
	}
	return value, nil
}

// Construct builds the typed scalar for a formatted value.
func Construct(t DataType, value string) (any, error) {
	entry, ok := typeTable[t]
	if !ok || entry.construct == nil {
		return nil, fmt.Errorf("%w: no scalar constructor for type %s", ErrTypeMismatch, t)
	}
	return entry.construct(value)
}

// TypeOf infers the declared type of a stored value. The second result is
// false for values that cannot be edited as scalars; multi reports array values.
func TypeOf(v any) (t DataType, multi bool) {
	switch v.(type) {
	case bool:
		return TypeBool, false
	case int8:
		return TypeInt8, false
	case int16:
		return TypeInt16, false
	case int32:
		return TypeInt32, false
	case int64, int:
		return TypeInt64, false
	case uint8:
		return TypeUint8, false
	case uint16:
		return TypeUint16, false
	case uint32:
		return TypeUint32, false
	case uint64, uint:
		return TypeUint64, false
	case float32:
		return TypeFloat32, false
	case float64:
		return TypeFloat64, false
	case complex64:
		return TypeComplex64, false
	case complex128:
		return TypeComplex128, false
	case string:
		return TypeString, false
	case nil, []byte:
		return TypeExpr, false
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return TypeUnknown, true
	}
	return TypeExpr, false
}

// FormatScalar renders a stored value in the textual form the editor accepts back.
func FormatScalar(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case complex64:
		return formatComplexValue(complex128(x), 32)
	case complex128:
		return formatComplexValue(x, 64)
	case string:
		return x
	case nil:
		return "None"
	}
	return fmt.Sprint(v)
}

func formatComplexValue(c complex128, bits int) string {
	s := strconv.FormatComplex(c, 'g', -1, bits*2)
	// "(1+2i)" -> "(1+2j)"
	return strings.TrimSuffix(s, "i)") + "j)"
}
