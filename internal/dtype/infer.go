package dtype

import (
	"math"
	"math/big"
	"time"

	dferrors "github.com/paveg/tabula/internal/errors"
)

// valueClass groups Go values into the primitive kinds recognised by
// inference.
type valueClass uint8

const (
	classNull valueClass = iota
	classBool
	classNumber
	classInteger
	classString
	classTime
	classList
	classOther
)

func (c valueClass) String() string {
	switch c {
	case classNull:
		return "null"
	case classBool:
		return "boolean"
	case classNumber, classInteger:
		return "number"
	case classString:
		return "string"
	case classTime:
		return "datetime"
	case classList:
		return "list"
	default:
		return "object"
	}
}

// classify reports the class of v. Plain Go numbers (int, float64, ...)
// behave like untyped numeric literals and infer Float64; explicitly 64-bit
// integers (int64, uint64, *big.Int) are integer tokens and infer UInt64 or
// Int64.
func classify(v any) valueClass {
	switch v.(type) {
	case nil:
		return classNull
	case bool:
		return classBool
	case int, int8, int16, int32, uint, uint8, uint16, uint32, float32, float64:
		return classNumber
	case int64, uint64, *big.Int:
		return classInteger
	case string:
		return classString
	case time.Time:
		return classTime
	}
	if _, ok := AsList(v); ok {
		return classList
	}
	return classOther
}

// Infer determines the DataType of an untyped column. Nulls are ignored;
// an empty or all-null column is Float64. Mixing incompatible kinds is a
// type mismatch error.
func Infer(values []any) (DataType, error) {
	var (
		seen        [classOther + 1]bool
		negative    bool
		overflowI64 bool
		lists       [][]any
	)

	for _, v := range values {
		c := classify(v)
		seen[c] = true
		switch c {
		case classInteger:
			neg, over := integerSign(v)
			negative = negative || neg
			overflowI64 = overflowI64 || over
			if bi, ok := v.(*big.Int); ok && !fitsInt64OrUint64(bi) {
				return Unknown, dferrors.NewTypeMismatchError("Infer", "",
					"integer %s does not fit in 64 bits", bi.String())
			}
		case classList:
			l, _ := AsList(v)
			lists = append(lists, l)
		case classOther:
			return Unknown, dferrors.NewTypeMismatchError("Infer", "", "unsupported value of type %T", v)
		}
	}

	var kinds []valueClass
	for c := classBool; c < classOther; c++ {
		if seen[c] {
			kinds = append(kinds, c)
		}
	}
	if len(kinds) == 0 {
		return Float64, nil
	}

	// numbers and integer tokens form a single numeric kind
	if seen[classNumber] && seen[classInteger] {
		kinds = kinds[:0]
		for c := classBool; c < classOther; c++ {
			if seen[c] && c != classInteger {
				kinds = append(kinds, c)
			}
		}
	}
	if len(kinds) > 1 {
		return Unknown, dferrors.NewTypeMismatchError("Infer", "",
			"cannot combine %s and %s values in one column", kinds[0], kinds[1])
	}

	switch kinds[0] {
	case classBool:
		return Bool, nil
	case classNumber:
		return Float64, nil
	case classInteger:
		switch {
		case negative && overflowI64:
			return Float64, nil
		case negative:
			return Int64, nil
		default:
			return UInt64, nil
		}
	case classString:
		return Utf8, nil
	case classTime:
		return Datetime, nil
	case classList:
		var flat []any
		for _, l := range lists {
			flat = append(flat, l...)
		}
		inner, err := Infer(flat)
		if err != nil {
			return Unknown, err
		}
		return List(inner), nil
	default:
		return Unknown, dferrors.NewTypeMismatchError("Infer", "", "cannot infer type")
	}
}

// integerSign reports whether an integer token is negative and whether it
// exceeds the Int64 range.
func integerSign(v any) (negative, overflow bool) {
	switch x := v.(type) {
	case int64:
		return x < 0, false
	case uint64:
		return false, x > math.MaxInt64
	case *big.Int:
		return x.Sign() < 0, !x.IsInt64()
	}
	return false, false
}

func fitsInt64OrUint64(b *big.Int) bool {
	return b.IsInt64() || b.IsUint64()
}

// AsList converts a nested sequence value into []any. Typed slices of the
// supported element types are accepted.
func AsList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []float64:
		return boxSlice(x), true
	case []float32:
		return boxSlice(x), true
	case []int:
		return boxSlice(x), true
	case []int8:
		return boxSlice(x), true
	case []int16:
		return boxSlice(x), true
	case []int32:
		return boxSlice(x), true
	case []int64:
		return boxSlice(x), true
	case []uint8:
		return boxSlice(x), true
	case []uint16:
		return boxSlice(x), true
	case []uint32:
		return boxSlice(x), true
	case []uint64:
		return boxSlice(x), true
	case []string:
		return boxSlice(x), true
	case []bool:
		return boxSlice(x), true
	case []time.Time:
		return boxSlice(x), true
	}
	return nil, false
}

func boxSlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
