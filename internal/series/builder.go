package series

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dtype"
	"golang.org/x/exp/constraints"
)

// Number is the set of Go types backing numeric data types.
type Number interface {
	constraints.Integer | constraints.Float
}

// buildArray builds an Arrow array of type dt from boxed values. Values
// that are not already in the canonical Go representation of dt are
// coerced; nil appends a null.
func buildArray(dt dtype.DataType, values []any, strict bool, mem memory.Allocator) (arrow.Array, error) {
	b := array.NewBuilder(mem, dt.ToArrow())
	defer b.Release()
	b.Reserve(len(values))

	for _, v := range values {
		if err := appendValue(b, dt, v, strict); err != nil {
			return nil, err
		}
	}
	return b.NewArray(), nil
}

// appendValue appends one value to a builder created for dt.
func appendValue(b array.Builder, dt dtype.DataType, v any, strict bool) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	if !isCanonical(v, dt) {
		c, err := dtype.Coerce(v, dt, strict)
		if err != nil {
			return err
		}
		if c == nil {
			b.AppendNull()
			return nil
		}
		v = c
	}

	switch bb := b.(type) {
	case *array.BooleanBuilder:
		bb.Append(v.(bool))
	case *array.Int8Builder:
		bb.Append(v.(int8))
	case *array.Int16Builder:
		bb.Append(v.(int16))
	case *array.Int32Builder:
		bb.Append(v.(int32))
	case *array.Int64Builder:
		bb.Append(v.(int64))
	case *array.Uint8Builder:
		bb.Append(v.(uint8))
	case *array.Uint16Builder:
		bb.Append(v.(uint16))
	case *array.Uint32Builder:
		bb.Append(v.(uint32))
	case *array.Uint64Builder:
		bb.Append(v.(uint64))
	case *array.Float32Builder:
		bb.Append(v.(float32))
	case *array.Float64Builder:
		bb.Append(v.(float64))
	case *array.StringBuilder:
		bb.Append(v.(string))
	case *array.Date32Builder:
		bb.Append(arrow.Date32FromTime(v.(time.Time)))
	case *array.TimestampBuilder:
		t := v.(time.Time)
		if dt.Unit == dtype.Microseconds {
			bb.Append(arrow.Timestamp(t.UnixMicro()))
		} else {
			bb.Append(arrow.Timestamp(t.UnixMilli()))
		}
	case *array.BinaryDictionaryBuilder:
		if err := bb.AppendString(v.(string)); err != nil {
			return err
		}
	case *array.ListBuilder:
		items := v.([]any)
		bb.Append(true)
		vb := bb.ValueBuilder()
		for _, item := range items {
			if err := appendValue(vb, dt.Elem(), item, strict); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}

// isCanonical reports whether v already has the Go type used for dt.
func isCanonical(v any, dt dtype.DataType) bool {
	switch v.(type) {
	case bool:
		return dt.Kind == dtype.KindBool
	case int8:
		return dt.Kind == dtype.KindInt8
	case int16:
		return dt.Kind == dtype.KindInt16
	case int32:
		return dt.Kind == dtype.KindInt32
	case int64:
		return dt.Kind == dtype.KindInt64
	case uint8:
		return dt.Kind == dtype.KindUInt8
	case uint16:
		return dt.Kind == dtype.KindUInt16
	case uint32:
		return dt.Kind == dtype.KindUInt32
	case uint64:
		return dt.Kind == dtype.KindUInt64
	case float32:
		return dt.Kind == dtype.KindFloat32
	case float64:
		return dt.Kind == dtype.KindFloat64
	case string:
		return dt.Kind == dtype.KindUtf8 || dt.Kind == dtype.KindCategorical
	case time.Time:
		return false
	case []any:
		return false
	}
	return false
}

// valueAt returns the canonical Go value at index i, or nil for null.
func valueAt(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return a.Value(i)
	case *array.Int16:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return a.Value(i)
	case *array.Uint16:
		return a.Value(i)
	case *array.Uint32:
		return a.Value(i)
	case *array.Uint64:
		return a.Value(i)
	case *array.Float32:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Date32:
		return a.Value(i).ToTime().UTC()
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC()
	case *array.Dictionary:
		idx := a.GetValueIndex(i)
		if dict, ok := a.Dictionary().(*array.String); ok {
			return dict.Value(idx)
		}
		return valueAt(a.Dictionary(), idx)
	case *array.List:
		start, end := a.ValueOffsets(i)
		child := a.ListValues()
		out := make([]any, 0, end-start)
		for j := start; j < end; j++ {
			out = append(out, valueAt(child, int(j)))
		}
		return out
	default:
		return arr.GetOneForMarshal(i)
	}
}

// validity returns one flag per element, true where the value is present.
func validity(arr arrow.Array) []bool {
	out := make([]bool, arr.Len())
	for i := range out {
		out[i] = arr.IsValid(i)
	}
	return out
}

// float64s converts a numeric or boolean array into float64 values plus
// validity. Nulls hold zero.
func float64s(arr arrow.Array) ([]float64, []bool) {
	n := arr.Len()
	vals := make([]float64, n)
	valid := validity(arr)
	for i := range n {
		if !valid[i] {
			continue
		}
		switch a := arr.(type) {
		case *array.Float64:
			vals[i] = a.Value(i)
		case *array.Float32:
			vals[i] = float64(a.Value(i))
		case *array.Int64:
			vals[i] = float64(a.Value(i))
		case *array.Int32:
			vals[i] = float64(a.Value(i))
		case *array.Int16:
			vals[i] = float64(a.Value(i))
		case *array.Int8:
			vals[i] = float64(a.Value(i))
		case *array.Uint64:
			vals[i] = float64(a.Value(i))
		case *array.Uint32:
			vals[i] = float64(a.Value(i))
		case *array.Uint16:
			vals[i] = float64(a.Value(i))
		case *array.Uint8:
			vals[i] = float64(a.Value(i))
		case *array.Boolean:
			if a.Value(i) {
				vals[i] = 1
			}
		case *array.Date32:
			vals[i] = float64(a.Value(i))
		case *array.Timestamp:
			vals[i] = float64(a.Value(i))
		}
	}
	return vals, valid
}

// int64s converts a signed integer (or boolean) array into int64 values.
func int64s(arr arrow.Array) ([]int64, []bool) {
	n := arr.Len()
	vals := make([]int64, n)
	valid := validity(arr)
	for i := range n {
		if !valid[i] {
			continue
		}
		switch a := arr.(type) {
		case *array.Int64:
			vals[i] = a.Value(i)
		case *array.Int32:
			vals[i] = int64(a.Value(i))
		case *array.Int16:
			vals[i] = int64(a.Value(i))
		case *array.Int8:
			vals[i] = int64(a.Value(i))
		case *array.Uint32:
			vals[i] = int64(a.Value(i))
		case *array.Uint16:
			vals[i] = int64(a.Value(i))
		case *array.Uint8:
			vals[i] = int64(a.Value(i))
		case *array.Boolean:
			if a.Value(i) {
				vals[i] = 1
			}
		}
	}
	return vals, valid
}

// uint64s converts an unsigned integer array into uint64 values.
func uint64s(arr arrow.Array) ([]uint64, []bool) {
	n := arr.Len()
	vals := make([]uint64, n)
	valid := validity(arr)
	for i := range n {
		if !valid[i] {
			continue
		}
		switch a := arr.(type) {
		case *array.Uint64:
			vals[i] = a.Value(i)
		case *array.Uint32:
			vals[i] = uint64(a.Value(i))
		case *array.Uint16:
			vals[i] = uint64(a.Value(i))
		case *array.Uint8:
			vals[i] = uint64(a.Value(i))
		case *array.Boolean:
			if a.Value(i) {
				vals[i] = 1
			}
		}
	}
	return vals, valid
}

// buildNumeric builds a numeric array of type dt from native values. A nil
// valid slice means every value is present.
func buildNumeric[T Number](dt dtype.DataType, vals []T, valid []bool, mem memory.Allocator) arrow.Array {
	b := array.NewBuilder(mem, dt.ToArrow())
	defer b.Release()
	b.Reserve(len(vals))

	present := func(i int) bool { return valid == nil || valid[i] }

	switch bb := b.(type) {
	case *array.Int8Builder:
		for i, v := range vals {
			appendOrNull(bb, present(i), func() { bb.Append(int8(v)) })
		}
	case *array.Int16Builder:
		for i, v := range vals {
			appendOrNull(bb, present(i), func() { bb.Append(int16(v)) })
		}
	case *array.Int32Builder:
		for i, v := range vals {
			appendOrNull(bb, present(i), func() { bb.Append(int32(v)) })
		}
	case *array.Int64Builder:
		for i, v := range vals {
			appendOrNull(bb, present(i), func() { bb.Append(int64(v)) })
		}
	case *array.Uint8Builder:
		for i, v := range vals {
			appendOrNull(bb, present(i), func() { bb.Append(uint8(v)) })
		}
	case *array.Uint16Builder:
		for i, v := range vals {
			appendOrNull(bb, present(i), func() { bb.Append(uint16(v)) })
		}
	case *array.Uint32Builder:
		for i, v := range vals {
			appendOrNull(bb, present(i), func() { bb.Append(uint32(v)) })
		}
	case *array.Uint64Builder:
		for i, v := range vals {
			appendOrNull(bb, present(i), func() { bb.Append(uint64(v)) })
		}
	case *array.Float32Builder:
		for i, v := range vals {
			appendOrNull(bb, present(i), func() { bb.Append(float32(v)) })
		}
	case *array.Float64Builder:
		for i, v := range vals {
			appendOrNull(bb, present(i), func() { bb.Append(float64(v)) })
		}
	case *array.BooleanBuilder:
		for i, v := range vals {
			appendOrNull(bb, present(i), func() { bb.Append(v != 0) })
		}
	default:
		panic(fmt.Sprintf("buildNumeric: unsupported type %s", dt))
	}
	return b.NewArray()
}

func appendOrNull(b array.Builder, ok bool, appendFn func()) {
	if ok {
		appendFn()
		return
	}
	b.AppendNull()
}

// buildBools builds a Bool array. A nil valid slice means no nulls.
func buildBools(vals []bool, valid []bool, mem memory.Allocator) arrow.Array {
	b := array.NewBooleanBuilder(mem)
	defer b.Release()
	b.AppendValues(vals, valid)
	return b.NewArray()
}

// takeArray gathers rows by index; -1 produces a null.
func takeArray(arr arrow.Array, dt dtype.DataType, indices []int, mem memory.Allocator) arrow.Array {
	b := array.NewBuilder(mem, dt.ToArrow())
	defer b.Release()
	b.Reserve(len(indices))
	for _, idx := range indices {
		if idx < 0 {
			b.AppendNull()
			continue
		}
		// values read from an array of the same type are always canonical
		_ = appendValue(b, dt, valueAt(arr, idx), false)
	}
	return b.NewArray()
}
