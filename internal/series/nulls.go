package series

import (
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
)

// Fill strategies accepted by FillNull.
const (
	FillZero     = "zero"
	FillOne      = "one"
	FillMin      = "min"
	FillMax      = "max"
	FillMean     = "mean"
	FillForward  = "forward"
	FillBackward = "backward"
)

// IsNull returns a mask marking the null elements.
func (s *Series) IsNull() *Series {
	out := make([]bool, s.Len())
	for i := range out {
		out[i] = s.array.IsNull(i)
	}
	return s.derive(buildBools(out, nil, s.mem))
}

// IsNotNull returns a mask marking the present elements.
func (s *Series) IsNotNull() *Series {
	return s.derive(buildBools(validity(s.array), nil, s.mem))
}

// FillNull replaces nulls according to strategy. Forward and backward fill
// leave a null in place when no neighbour exists. The mean strategy always
// produces a Float64 series.
func (s *Series) FillNull(strategy string) (*Series, error) {
	switch strategy {
	case FillForward:
		return s.fillDirectional(false), nil
	case FillBackward:
		return s.fillDirectional(true), nil
	case FillZero, FillOne:
		if !arithmeticOperand(s.dtype) {
			return nil, dferrors.NewTypeMismatchError("FillNull", s.name,
				"strategy %q not supported for dtype %s", strategy, s.dtype)
		}
		if strategy == FillZero {
			return s.FillNullValue(0)
		}
		return s.FillNullValue(1)
	case FillMin, FillMax:
		v := s.Min()
		if strategy == FillMax {
			v = s.Max()
		}
		if v == nil {
			return s.Clone(), nil
		}
		return s.FillNullValue(v)
	case FillMean:
		if !arithmeticOperand(s.dtype) {
			return nil, dferrors.NewTypeMismatchError("FillNull", s.name,
				"strategy %q not supported for dtype %s", strategy, s.dtype)
		}
		f, err := s.Cast(dtype.Float64, false)
		if err != nil {
			return nil, err
		}
		defer f.Release()
		mean := s.Mean()
		if mean == nil {
			return f.Clone(), nil
		}
		return f.FillNullValue(mean)
	}
	return nil, dferrors.NewInvalidInputError("FillNull", "unknown fill strategy: "+strategy)
}

// FillNullValue replaces nulls with value, which must be representable in
// the series data type.
func (s *Series) FillNullValue(value any) (*Series, error) {
	if s.NullCount() == 0 || value == nil {
		return s.Clone(), nil
	}
	fill, err := dtype.Coerce(value, s.dtype, true)
	if err != nil {
		return nil, dferrors.NewTypeMismatchError("FillNull", s.name,
			"fill value %v does not fit dtype %s", value, s.dtype)
	}
	vals := s.Values()
	for i, v := range vals {
		if v == nil {
			vals[i] = fill
		}
	}
	return s.rebuild(vals)
}

func (s *Series) fillDirectional(backward bool) *Series {
	vals := s.Values()
	var last any
	if backward {
		for i := len(vals) - 1; i >= 0; i-- {
			if vals[i] == nil {
				vals[i] = last
			} else {
				last = vals[i]
			}
		}
	} else {
		for i, v := range vals {
			if v == nil {
				vals[i] = last
			} else {
				last = v
			}
		}
	}
	out, _ := s.rebuild(vals)
	return out
}

// rebuild creates a series of the same name and type from canonical values.
func (s *Series) rebuild(vals []any) (*Series, error) {
	arr, err := buildArray(s.dtype, vals, false, s.mem)
	if err != nil {
		return nil, dferrors.NewInternalError("rebuild", err)
	}
	return s.derive(arr), nil
}

// DropNulls returns the series without its null elements.
func (s *Series) DropNulls() *Series {
	if s.NullCount() == 0 {
		return s.Clone()
	}
	keep := make([]int, 0, s.Len()-s.NullCount())
	for i := range s.Len() {
		if s.array.IsValid(i) {
			keep = append(keep, i)
		}
	}
	return s.derive(takeArray(s.array, s.dtype, keep, s.mem))
}

// Interpolate fills interior nulls by linear interpolation between the
// surrounding values. Leading and trailing nulls remain. Integer series
// produce Float64.
func (s *Series) Interpolate() (*Series, error) {
	if !s.dtype.IsNumeric() {
		return nil, dferrors.NewUnsupportedTypeError("Interpolate", s.dtype.String())
	}
	vals, valid := float64s(s.array)
	out := append([]float64(nil), vals...)
	filled := append([]bool(nil), valid...)

	prev := -1
	for i := range vals {
		if !valid[i] {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (vals[i] - vals[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				out[j] = vals[prev] + step*float64(j-prev)
				filled[j] = true
			}
		}
		prev = i
	}

	dt := dtype.Float64
	if s.dtype.Kind == dtype.KindFloat32 {
		dt = dtype.Float32
	}
	return s.derive(buildNumeric(dt, out, filled, s.mem)), nil
}
