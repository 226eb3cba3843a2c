package dtype

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	dferrors "github.com/paveg/tabula/internal/errors"
)

// Layouts used to render and parse temporal values.
const (
	DateLayout       = "2006-01-02"
	DatetimeLayoutMS = "2006-01-02 15:04:05.000"
	DatetimeLayoutUS = "2006-01-02 15:04:05.000000"
)

const secondsPerDay = 86400

var parseLayouts = []string{
	time.RFC3339Nano,
	DatetimeLayoutUS,
	DatetimeLayoutMS,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	DateLayout,
}

// numKind tags the active field of number.
type numKind uint8

const (
	numSigned numKind = iota
	numUnsigned
	numFloat
)

// number is an intermediate numeric value that keeps full 64-bit integer
// precision while a cast is in progress.
type number struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

func (n number) int() int64 {
	switch n.kind {
	case numSigned:
		return n.i
	case numUnsigned:
		return int64(n.u) //nolint:gosec // temporal offsets fit in int64
	default:
		return int64(n.f)
	}
}

func (n number) float() float64 {
	switch n.kind {
	case numSigned:
		return float64(n.i)
	case numUnsigned:
		return float64(n.u)
	default:
		return n.f
	}
}

// CastValue converts a single canonical value of type from into type to.
// Int64 and UInt64 convert by reinterpreting the bit pattern. A value that
// cannot be represented becomes nil, or an error when strict is set.
func CastValue(v any, from, to DataType, strict bool) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch {
	case from.Kind == KindInt64 && to.Kind == KindUInt64:
		if i, ok := v.(int64); ok {
			return uint64(i), nil //nolint:gosec // bit reinterpretation
		}
	case from.Kind == KindUInt64 && to.Kind == KindInt64:
		if u, ok := v.(uint64); ok {
			return int64(u), nil //nolint:gosec // bit reinterpretation
		}
	case from.IsTemporal() && (to.IsNumeric() || to.Kind == KindBool):
		t, ok := v.(time.Time)
		if !ok {
			break
		}
		return Coerce(temporalToInt(t, from), to, strict)
	case from.IsTemporal() && (to.Kind == KindUtf8 || to.Kind == KindCategorical):
		if t, ok := v.(time.Time); ok {
			return FormatTemporal(t, from), nil
		}
	case from.IsNumeric() && to.IsTemporal():
		n, ok := toNumber(v)
		if !ok {
			break
		}
		if n.kind == numFloat {
			if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
				return castFailure(v, to, strict)
			}
		}
		return intToTemporal(n.int(), to), nil
	}

	return Coerce(v, to, strict)
}

// Coerce converts an arbitrary supported Go value into the canonical
// representation of type to.
func Coerce(v any, to DataType, strict bool) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch {
	case to.IsNumeric():
		n, ok := toNumber(v)
		if !ok {
			return castFailure(v, to, strict)
		}
		out, ok := numberTo(n, to)
		if !ok {
			return castFailure(v, to, strict)
		}
		return out, nil
	case to.Kind == KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err != nil {
				return castFailure(v, to, strict)
			}
			return b, nil
		}
		n, ok := toNumber(v)
		if !ok {
			return castFailure(v, to, strict)
		}
		return n.float() != 0, nil
	case to.Kind == KindUtf8 || to.Kind == KindCategorical:
		if t, ok := v.(time.Time); ok {
			return FormatTemporal(t, Datetime), nil
		}
		return FormatValue(v), nil
	case to.IsTemporal():
		t, ok := toTime(v, to)
		if !ok {
			return castFailure(v, to, strict)
		}
		if to.Kind == KindDate {
			return TruncateDay(t), nil
		}
		return truncateUnit(t, to.Unit), nil
	case to.Kind == KindList:
		items, ok := AsList(v)
		if !ok {
			items = []any{v}
		}
		out := make([]any, len(items))
		for i, item := range items {
			c, err := Coerce(item, to.Elem(), strict)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}

	return castFailure(v, to, strict)
}

func castFailure(v any, to DataType, strict bool) (any, error) {
	if strict {
		return nil, dferrors.NewTypeMismatchError("Cast", "", "cannot cast %v (%T) to %s", v, v, to)
	}
	return nil, nil
}

func toNumber(v any) (number, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return number{kind: numSigned, i: 1}, true
		}
		return number{kind: numSigned}, true
	case int:
		return number{kind: numSigned, i: int64(x)}, true
	case int8:
		return number{kind: numSigned, i: int64(x)}, true
	case int16:
		return number{kind: numSigned, i: int64(x)}, true
	case int32:
		return number{kind: numSigned, i: int64(x)}, true
	case int64:
		return number{kind: numSigned, i: x}, true
	case uint:
		return number{kind: numUnsigned, u: uint64(x)}, true
	case uint8:
		return number{kind: numUnsigned, u: uint64(x)}, true
	case uint16:
		return number{kind: numUnsigned, u: uint64(x)}, true
	case uint32:
		return number{kind: numUnsigned, u: uint64(x)}, true
	case uint64:
		return number{kind: numUnsigned, u: x}, true
	case float32:
		return number{kind: numFloat, f: float64(x)}, true
	case float64:
		return number{kind: numFloat, f: x}, true
	case *big.Int:
		if x.IsInt64() {
			return number{kind: numSigned, i: x.Int64()}, true
		}
		if x.IsUint64() {
			return number{kind: numUnsigned, u: x.Uint64()}, true
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return number{kind: numFloat, f: f}, true
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return number{kind: numSigned, i: i}, true
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return number{kind: numUnsigned, u: u}, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return number{kind: numFloat, f: f}, true
		}
	}
	return number{}, false
}

// numberTo converts n into the Go type backing the numeric type to.
func numberTo(n number, to DataType) (any, bool) {
	if to.IsFloat() {
		if to.Kind == KindFloat32 {
			return float32(n.float()), true
		}
		return n.float(), true
	}

	var (
		i        int64
		u        uint64
		negative bool
	)
	switch n.kind {
	case numSigned:
		i, u, negative = n.i, uint64(n.i), n.i < 0 //nolint:gosec // sign tracked separately
	case numUnsigned:
		i, u = int64(n.u), n.u //nolint:gosec // range checked below
		if n.u > math.MaxInt64 {
			i = math.MaxInt64
		}
	case numFloat:
		if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return nil, false
		}
		t := math.Trunc(n.f)
		if t < math.MinInt64 || t >= math.MaxUint64 {
			return nil, false
		}
		negative = t < 0
		if negative || t < math.MaxInt64 {
			i = int64(t)
			u = uint64(i) //nolint:gosec // sign tracked separately
		} else {
			u = uint64(t)
			i = math.MaxInt64
		}
	}

	if to.IsUnsigned() {
		if negative {
			return nil, false
		}
		switch to.Kind {
		case KindUInt8:
			if u > math.MaxUint8 {
				return nil, false
			}
			return uint8(u), true
		case KindUInt16:
			if u > math.MaxUint16 {
				return nil, false
			}
			return uint16(u), true
		case KindUInt32:
			if u > math.MaxUint32 {
				return nil, false
			}
			return uint32(u), true
		default:
			return u, true
		}
	}

	if !negative && u > math.MaxInt64 {
		return nil, false
	}
	switch to.Kind {
	case KindInt8:
		if i < math.MinInt8 || i > math.MaxInt8 {
			return nil, false
		}
		return int8(i), true
	case KindInt16:
		if i < math.MinInt16 || i > math.MaxInt16 {
			return nil, false
		}
		return int16(i), true
	case KindInt32:
		if i < math.MinInt32 || i > math.MaxInt32 {
			return nil, false
		}
		return int32(i), true
	default:
		return i, true
	}
}

// ToFloat64 converts a numeric or boolean value to float64.
func ToFloat64(v any) (float64, bool) {
	if _, isString := v.(string); isString {
		return 0, false
	}
	n, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	return n.float(), true
}

func toTime(v any, to DataType) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range parseLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	}
	n, ok := toNumber(v)
	if !ok || n.kind == numFloat {
		return time.Time{}, false
	}
	return intToTemporal(n.int(), to).(time.Time), true
}

func temporalToInt(t time.Time, from DataType) any {
	if from.Kind == KindDate {
		return int32(floorDiv(t.Unix(), secondsPerDay)) //nolint:gosec // day counts fit in int32
	}
	if from.Unit == Microseconds {
		return t.UnixMicro()
	}
	return t.UnixMilli()
}

func intToTemporal(v int64, to DataType) any {
	if to.Kind == KindDate {
		return time.Unix(v*secondsPerDay, 0).UTC()
	}
	if to.Unit == Microseconds {
		return time.UnixMicro(v).UTC()
	}
	return time.UnixMilli(v).UTC()
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// TruncateDay returns midnight UTC of the day containing t.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateUnit(t time.Time, unit TimeUnit) time.Time {
	if unit == Microseconds {
		return t.Truncate(time.Microsecond)
	}
	return t.Truncate(time.Millisecond)
}

// FormatFloat renders a float with the shortest representation that
// round-trips. Whole numbers keep a trailing ".0".
func FormatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// FormatTemporal renders a date or datetime value.
func FormatTemporal(t time.Time, d DataType) string {
	switch {
	case d.Kind == KindDate:
		return t.UTC().Format(DateLayout)
	case d.Unit == Microseconds:
		return t.UTC().Format(DatetimeLayoutUS)
	default:
		return t.UTC().Format(DatetimeLayoutMS)
	}
}

// FormatValue renders a canonical value as text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatFloat(x, 64)
	case float32:
		return FormatFloat(float64(x), 32)
	case time.Time:
		return FormatTemporal(x, Datetime)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = FormatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *big.Int:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
