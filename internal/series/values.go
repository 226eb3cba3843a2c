package series

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

// Compare orders two canonical values. Nulls sort before values, NaN sorts
// after every other float. Integers of different signedness compare
// exactly.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareBools(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case []any:
		if y, ok := b.([]any); ok {
			return compareLists(x, y)
		}
	}

	if c, ok := compareNumbers(a, b); ok {
		return c
	}
	return strings.Compare(keyString(a), keyString(b))
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareLists(a, b []any) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// integer returns v as a signed or unsigned 64-bit integer.
func integer(v any) (i int64, u uint64, signed, ok bool) {
	switch x := v.(type) {
	case int8:
		return int64(x), 0, true, true
	case int16:
		return int64(x), 0, true, true
	case int32:
		return int64(x), 0, true, true
	case int64:
		return x, 0, true, true
	case int:
		return int64(x), 0, true, true
	case uint8:
		return 0, uint64(x), false, true
	case uint16:
		return 0, uint64(x), false, true
	case uint32:
		return 0, uint64(x), false, true
	case uint64:
		return 0, x, false, true
	}
	return 0, 0, false, false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	if i, u, signed, ok := integer(v); ok {
		if signed {
			return float64(i), true
		}
		return float64(u), true
	}
	return 0, false
}

func compareNumbers(a, b any) (int, bool) {
	ai, au, as, aok := integer(a)
	bi, bu, bs, bok := integer(b)
	if aok && bok {
		switch {
		case as && bs:
			return cmpOrdered(ai, bi), true
		case !as && !bs:
			return cmpOrdered(au, bu), true
		case as:
			if ai < 0 {
				return -1, true
			}
			return cmpOrdered(uint64(ai), bu), true
		default:
			if bi < 0 {
				return 1, true
			}
			return cmpOrdered(au, uint64(bi)), true
		}
	}

	fa, ok1 := asFloat(a)
	fb, ok2 := asFloat(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	return compareFloats(fa, fb), true
}

func compareFloats(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	return cmpOrdered(a, b)
}

func cmpOrdered[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Key tags keep values of different kinds apart in encoded keys.
const (
	tagNull byte = iota
	tagBool
	tagInt
	tagUint
	tagFloat
	tagString
	tagTime
	tagList
	tagOther
)

// AppendKey appends a byte encoding of v to buf. Two values produce the same
// encoding exactly when they are equal for grouping: nulls are equal to each
// other, NaN equals NaN and integers compare by value across widths.
func AppendKey(buf []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(buf, tagNull)
	case bool:
		if x {
			return append(buf, tagBool, 1)
		}
		return append(buf, tagBool, 0)
	case string:
		buf = append(buf, tagString)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(x))) //nolint:gosec // string length
		return append(buf, x...)
	case time.Time:
		buf = append(buf, tagTime)
		return binary.LittleEndian.AppendUint64(buf, uint64(x.UnixNano())) //nolint:gosec // bit pattern
	case []any:
		buf = append(buf, tagList)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(x))) //nolint:gosec // list length
		for _, item := range x {
			buf = AppendKey(buf, item)
		}
		return buf
	case float32:
		return appendFloatKey(buf, float64(x))
	case float64:
		return appendFloatKey(buf, x)
	}

	if i, u, signed, ok := integer(v); ok {
		if signed && i >= 0 {
			u, signed = uint64(i), false
		}
		if signed {
			buf = append(buf, tagInt)
			return binary.LittleEndian.AppendUint64(buf, uint64(i)) //nolint:gosec // bit pattern
		}
		buf = append(buf, tagUint)
		return binary.LittleEndian.AppendUint64(buf, u)
	}
	return fmt.Appendf(append(buf, tagOther), "%T:%v", v, v)
}

func appendFloatKey(buf []byte, f float64) []byte {
	switch {
	case math.IsNaN(f):
		f = math.NaN()
	case f == 0:
		f = 0
	}
	buf = append(buf, tagFloat)
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
}

func keyString(v any) string {
	return string(AppendKey(nil, v))
}
