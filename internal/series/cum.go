package series

import (
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
)

// Diff null behaviours.
const (
	DiffIgnore = "ignore"
	DiffDrop   = "drop"
)

// cumulate folds step over the present values in order (or in reverse).
// Null positions stay null and do not interrupt the accumulation.
func cumulate[T Number](vals []T, valid []bool, reverse bool, step func(acc, v T) T) []T {
	out := make([]T, len(vals))
	var acc T
	started := false
	visit := func(i int) {
		if !valid[i] {
			return
		}
		if !started {
			acc, started = vals[i], true
		} else {
			acc = step(acc, vals[i])
		}
		out[i] = acc
	}
	if reverse {
		for i := len(vals) - 1; i >= 0; i-- {
			visit(i)
		}
	} else {
		for i := range vals {
			visit(i)
		}
	}
	return out
}

func sum[T Number](a, b T) T  { return a + b }
func prod[T Number](a, b T) T { return a * b }

func minOf[T Number](a, b T) T {
	if b < a {
		return b
	}
	return a
}

func maxOf[T Number](a, b T) T {
	if b > a {
		return b
	}
	return a
}

// CumSum returns the running sum. Bool sums to UInt32 and small integers
// widen to Int64.
func (s *Series) CumSum(reverse bool) (*Series, error) {
	return s.cumulative("CumSum", SumType(s.dtype), reverse, sum[float64], sum[int64], sum[uint64])
}

// CumProd returns the running product. Signed integers widen to Int64 and
// unsigned to UInt64.
func (s *Series) CumProd(reverse bool) (*Series, error) {
	out := s.dtype
	switch {
	case s.dtype.IsSigned() || s.IsBoolean():
		out = dtype.Int64
	case s.dtype.IsUnsigned():
		out = dtype.UInt64
	}
	return s.cumulative("CumProd", out, reverse, prod[float64], prod[int64], prod[uint64])
}

// CumMin returns the running minimum.
func (s *Series) CumMin(reverse bool) (*Series, error) {
	return s.cumulative("CumMin", s.dtype, reverse, minOf[float64], minOf[int64], minOf[uint64])
}

// CumMax returns the running maximum.
func (s *Series) CumMax(reverse bool) (*Series, error) {
	return s.cumulative("CumMax", s.dtype, reverse, maxOf[float64], maxOf[int64], maxOf[uint64])
}

func (s *Series) cumulative(
	op string,
	out dtype.DataType,
	reverse bool,
	f func(a, b float64) float64,
	i func(a, b int64) int64,
	u func(a, b uint64) uint64,
) (*Series, error) {
	if !arithmeticOperand(s.dtype) {
		return nil, dferrors.NewUnsupportedTypeError(op, s.dtype.String())
	}
	switch {
	case out.IsFloat():
		vals, valid := float64s(s.array)
		return s.derive(buildNumeric(out, cumulate(vals, valid, reverse, f), valid, s.mem)), nil
	case out.IsSigned():
		vals, valid := int64s(s.array)
		return s.derive(buildNumeric(out, cumulate(vals, valid, reverse, i), valid, s.mem)), nil
	case out.IsUnsigned():
		vals, valid := uint64s(s.array)
		return s.derive(buildNumeric(out, cumulate(vals, valid, reverse, u), valid, s.mem)), nil
	default:
		// Bool min/max stay Bool
		vals, valid := uint64s(s.array)
		return s.derive(buildNumeric(out, cumulate(vals, valid, reverse, u), valid, s.mem)), nil
	}
}

// Diff returns the difference between each element and the element n
// positions before it. With DiffDrop the leading n nulls are removed.
// Unsigned series produce Int64.
func (s *Series) Diff(n int, nullBehavior string) (*Series, error) {
	if nullBehavior == "" {
		nullBehavior = DiffIgnore
	}
	if nullBehavior != DiffIgnore && nullBehavior != DiffDrop {
		return nil, dferrors.NewInvalidInputError("Diff", "unknown null behavior: "+nullBehavior)
	}
	if !s.dtype.IsNumeric() {
		return nil, dferrors.NewUnsupportedTypeError("Diff", s.dtype.String())
	}

	base := s
	if s.dtype.IsUnsigned() {
		casted, err := s.Cast(dtype.Int64, false)
		if err != nil {
			return nil, err
		}
		defer casted.Release()
		base = casted
	}

	shifted := base.Shift(n)
	defer shifted.Release()
	diff, err := base.Sub(shifted)
	if err != nil {
		return nil, err
	}
	if nullBehavior == DiffIgnore {
		return diff, nil
	}
	defer diff.Release()
	if n >= 0 {
		return diff.Slice(n, diff.Len()), nil
	}
	return diff.Slice(0, diff.Len()+n), nil
}
