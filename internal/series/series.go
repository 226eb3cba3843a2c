// Package series provides the named, typed, nullable column of the engine.
//
// A Series is backed by an immutable, reference-counted Apache Arrow array
// whose validity bitmap is the null representation for every data type.
// Clone shares the array; operations that change values build a new array
// and swap it into the receiver, so clones never observe each other's
// writes.
package series

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
)

// Series represents a typed data column with Apache Arrow backend
type Series struct {
	name  string
	dtype dtype.DataType
	array arrow.Array
	mem   memory.Allocator
}

func allocator(mem memory.Allocator) memory.Allocator {
	if mem == nil {
		return memory.NewGoAllocator()
	}
	return mem
}

// New creates a new Series from a slice of values. Fixed-width numeric
// slices map 1:1 to their data type; []time.Time becomes Datetime.
// It panics on an unsupported element type; use NewSafe to get an error.
func New[T any](name string, values []T, mem memory.Allocator) *Series {
	s, err := NewSafe(name, values, mem)
	if err != nil {
		panic(err)
	}
	return s
}

// NewSafe is New returning an error instead of panicking.
func NewSafe[T any](name string, values []T, mem memory.Allocator) (*Series, error) {
	mem = allocator(mem)

	var arr arrow.Array
	switch v := any(values).(type) {
	case []bool:
		arr = buildBools(v, nil, mem)
	case []int8:
		arr = buildNumeric(dtype.Int8, v, nil, mem)
	case []int16:
		arr = buildNumeric(dtype.Int16, v, nil, mem)
	case []int32:
		arr = buildNumeric(dtype.Int32, v, nil, mem)
	case []int64:
		arr = buildNumeric(dtype.Int64, v, nil, mem)
	case []int:
		arr = buildNumeric(dtype.Int64, v, nil, mem)
	case []uint8:
		arr = buildNumeric(dtype.UInt8, v, nil, mem)
	case []uint16:
		arr = buildNumeric(dtype.UInt16, v, nil, mem)
	case []uint32:
		arr = buildNumeric(dtype.UInt32, v, nil, mem)
	case []uint64:
		arr = buildNumeric(dtype.UInt64, v, nil, mem)
	case []float32:
		arr = buildNumeric(dtype.Float32, v, nil, mem)
	case []float64:
		arr = buildNumeric(dtype.Float64, v, nil, mem)
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, nil)
		arr = builder.NewArray()
	case []time.Time:
		boxed := make([]any, len(v))
		for i, t := range v {
			boxed[i] = t
		}
		var err error
		if arr, err = buildArray(dtype.Datetime, boxed, true, mem); err != nil {
			return nil, err
		}
	case []any:
		return FromValues(name, v, mem)
	default:
		return nil, dferrors.NewUnsupportedTypeError("New", fmt.Sprintf("%T", values))
	}

	return fromArray(name, arr, mem), nil
}

// FromValues creates a Series from untyped values, inferring the data type.
func FromValues(name string, values []any, mem memory.Allocator) (*Series, error) {
	dt, err := dtype.Infer(values)
	if err != nil {
		if dfErr, ok := err.(*dferrors.DataFrameError); ok {
			dfErr.Column = name
		}
		return nil, err
	}
	return FromValuesWithType(name, values, dt, mem)
}

// FromValuesWithType creates a Series of the given type, coercing each value.
// A value that cannot be represented is a type mismatch error.
func FromValuesWithType(name string, values []any, dt dtype.DataType, mem memory.Allocator) (*Series, error) {
	mem = allocator(mem)
	arr, err := buildArray(dt, values, true, mem)
	if err != nil {
		return nil, dferrors.NewTypeMismatchError("New", name, "%v", err)
	}
	return fromArray(name, arr, mem), nil
}

// FromArrow wraps an existing Arrow array. The array is retained.
func FromArrow(name string, arr arrow.Array, mem memory.Allocator) (*Series, error) {
	mem = allocator(mem)
	dt, err := dtype.FromArrow(arr.DataType())
	if err != nil {
		return nil, dferrors.NewUnsupportedTypeError("FromArrow", arr.DataType().String())
	}
	if !arrow.TypeEqual(dt.ToArrow(), arr.DataType()) {
		// normalise foreign physical layouts (large strings, other
		// timestamp units, other dictionary index widths)
		values := make([]any, arr.Len())
		for i := range values {
			values[i] = valueAt(arr, i)
		}
		converted, err := buildArray(dt, values, false, mem)
		if err != nil {
			return nil, err
		}
		return fromArray(name, converted, mem), nil
	}
	arr.Retain()
	return fromArray(name, arr, mem), nil
}

// Full creates a Series of n copies of value.
func Full(name string, value any, n int, dt dtype.DataType, mem memory.Allocator) (*Series, error) {
	values := make([]any, n)
	for i := range values {
		values[i] = value
	}
	return FromValuesWithType(name, values, dt, mem)
}

// Empty creates a zero-length Series of the given type.
func Empty(name string, dt dtype.DataType, mem memory.Allocator) *Series {
	mem = allocator(mem)
	b := array.NewBuilder(mem, dt.ToArrow())
	defer b.Release()
	return fromArray(name, b.NewArray(), mem)
}

// fromArray takes ownership of arr.
func fromArray(name string, arr arrow.Array, mem memory.Allocator) *Series {
	dt, err := dtype.FromArrow(arr.DataType())
	if err != nil {
		panic(fmt.Sprintf("series: unsupported array type %s", arr.DataType()))
	}
	return &Series{name: name, dtype: dt, array: arr, mem: mem}
}

// derive creates a new Series sharing s's name and allocator.
func (s *Series) derive(arr arrow.Array) *Series {
	return fromArray(s.name, arr, s.mem)
}

// replace swaps the backing array of s, releasing the previous one.
func (s *Series) replace(arr arrow.Array) {
	old := s.array
	dt, err := dtype.FromArrow(arr.DataType())
	if err != nil {
		panic(fmt.Sprintf("series: unsupported array type %s", arr.DataType()))
	}
	s.array = arr
	s.dtype = dt
	if old != nil {
		old.Release()
	}
}

// Name returns the column name
func (s *Series) Name() string {
	return s.name
}

// SetName renames the series in place.
func (s *Series) SetName(name string) {
	s.name = name
}

// Rename returns a copy of the series with a new name.
func (s *Series) Rename(name string) *Series {
	c := s.Clone()
	c.name = name
	return c
}

// Alias is Rename.
func (s *Series) Alias(name string) *Series {
	return s.Rename(name)
}

// DataType returns the logical data type
func (s *Series) DataType() dtype.DataType {
	return s.dtype
}

// Allocator returns the memory allocator used for derived arrays.
func (s *Series) Allocator() memory.Allocator {
	return s.mem
}

// Len returns the length of the series
func (s *Series) Len() int {
	return s.array.Len()
}

// IsEmpty reports whether the series has no elements.
func (s *Series) IsEmpty() bool {
	return s.Len() == 0
}

// NullCount returns the number of null elements.
func (s *Series) NullCount() int {
	return s.array.NullN()
}

// HasValidity reports whether the series contains any null.
func (s *Series) HasValidity() bool {
	return s.NullCount() > 0
}

// IsNullAt checks if the value at index is null
func (s *Series) IsNullAt(index int) bool {
	return s.array.IsNull(index)
}

// IsBoolean reports whether the data type is Bool.
func (s *Series) IsBoolean() bool { return s.dtype.Kind == dtype.KindBool }

// IsDateTime reports whether the data type is Date or Datetime.
func (s *Series) IsDateTime() bool { return s.dtype.IsTemporal() }

// IsFloat reports whether the data type is Float32 or Float64.
func (s *Series) IsFloat() bool { return s.dtype.IsFloat() }

// IsNumeric reports whether the data type is an integer or float.
func (s *Series) IsNumeric() bool { return s.dtype.IsNumeric() }

// IsUtf8 reports whether the data type is Utf8.
func (s *Series) IsUtf8() bool { return s.dtype.Kind == dtype.KindUtf8 }

// Get returns the value at index i; nil marks a null.
func (s *Series) Get(i int) (any, error) {
	if i < 0 || i >= s.Len() {
		return nil, dferrors.NewOutOfBoundsError("Get", i, s.Len())
	}
	return valueAt(s.array, i), nil
}

// Value returns the value at index i, or nil when i is out of range.
func (s *Series) Value(i int) any {
	if i < 0 || i >= s.Len() {
		return nil
	}
	return valueAt(s.array, i)
}

// Values returns all values in order; nulls are nil.
func (s *Series) Values() []any {
	out := make([]any, s.Len())
	for i := range out {
		out[i] = valueAt(s.array, i)
	}
	return out
}

// All iterates over the elements with their indices.
func (s *Series) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		for i := range s.Len() {
			if !yield(i, valueAt(s.array, i)) {
				return
			}
		}
	}
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series) Array() arrow.Array {
	s.array.Retain()
	return s.array
}

// Clone returns an independent Series sharing the immutable backing array.
func (s *Series) Clone() *Series {
	s.array.Retain()
	return &Series{name: s.name, dtype: s.dtype, array: s.array, mem: s.mem}
}

// Release releases the underlying Arrow memory
func (s *Series) Release() {
	if s.array != nil {
		s.array.Release()
	}
}

// GetAsString renders the value at index as text; nulls render as "".
func (s *Series) GetAsString(index int) string {
	v := s.Value(index)
	if v == nil {
		return ""
	}
	if t, ok := v.(time.Time); ok {
		return dtype.FormatTemporal(t, s.dtype)
	}
	return dtype.FormatValue(v)
}

const displayRows = 10

// String returns a string representation of the series
func (s *Series) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "shape: (%d,)\nSeries: '%s' [%s]\n[\n", s.Len(), s.name, s.dtype)
	n := s.Len()
	for i := 0; i < n; i++ {
		if n > displayRows && i == displayRows/2 {
			sb.WriteString("\t...\n")
			i = n - displayRows/2
		}
		if s.IsNullAt(i) {
			sb.WriteString("\tnull\n")
			continue
		}
		fmt.Fprintf(&sb, "\t%s\n", s.GetAsString(i))
	}
	sb.WriteString("]")
	return sb.String()
}
