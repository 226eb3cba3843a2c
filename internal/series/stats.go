package series

import (
	"math"
	"slices"

	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Quantile interpolation methods.
const (
	InterpolNearest  = "nearest"
	InterpolLower    = "lower"
	InterpolHigher   = "higher"
	InterpolMidpoint = "midpoint"
	InterpolLinear   = "linear"
)

// SumType returns the data type produced by summing values of dt.
func SumType(dt dtype.DataType) dtype.DataType {
	switch dt.Kind {
	case dtype.KindBool:
		return dtype.UInt32
	case dtype.KindInt8, dtype.KindInt16, dtype.KindUInt8, dtype.KindUInt16:
		return dtype.Int64
	default:
		return dt
	}
}

// scalarOf boxes v as the canonical value of dt.
func scalarOf[T Number](dt dtype.DataType, v T) any {
	switch dt.Kind {
	case dtype.KindInt8:
		return int8(v)
	case dtype.KindInt16:
		return int16(v)
	case dtype.KindInt32:
		return int32(v)
	case dtype.KindInt64:
		return int64(v)
	case dtype.KindUInt8:
		return uint8(v)
	case dtype.KindUInt16:
		return uint16(v)
	case dtype.KindUInt32:
		return uint32(v)
	case dtype.KindUInt64:
		return uint64(v)
	case dtype.KindFloat32:
		return float32(v)
	default:
		return float64(v)
	}
}

// Sum returns the sum of the present values, zero for an empty or all-null
// numeric series, and nil for non-numeric data types.
func (s *Series) Sum() any {
	if !arithmeticOperand(s.dtype) {
		return nil
	}
	out := SumType(s.dtype)
	switch {
	case out.IsFloat():
		vals, valid := float64s(s.array)
		return scalarOf(out, floats.Sum(present(vals, valid)))
	case out.IsSigned():
		vals, valid := int64s(s.array)
		var total int64
		for _, v := range present(vals, valid) {
			total += v
		}
		return scalarOf(out, total)
	default:
		vals, valid := uint64s(s.array)
		var total uint64
		for _, v := range present(vals, valid) {
			total += v
		}
		return scalarOf(out, total)
	}
}

// presentFloats returns the non-null values as float64, or nil when the
// data type is not numeric.
func (s *Series) presentFloats() ([]float64, bool) {
	if !arithmeticOperand(s.dtype) {
		return nil, false
	}
	vals, valid := float64s(s.array)
	return present(vals, valid), true
}

// Mean returns the arithmetic mean of the present values as float64, or nil.
func (s *Series) Mean() any {
	xs, ok := s.presentFloats()
	if !ok || len(xs) == 0 {
		return nil
	}
	return stat.Mean(xs, nil)
}

// Min returns the smallest present value, or nil.
func (s *Series) Min() any {
	return s.extreme(func(c int) bool { return c < 0 })
}

// Max returns the largest present value, or nil.
func (s *Series) Max() any {
	return s.extreme(func(c int) bool { return c > 0 })
}

func (s *Series) extreme(better func(int) bool) any {
	if s.dtype.IsNested() {
		return nil
	}
	var best any
	for i := range s.Len() {
		v := valueAt(s.array, i)
		if v == nil || isNaN(v) {
			continue
		}
		if best == nil || better(Compare(v, best)) {
			best = v
		}
	}
	return best
}

// Median returns the linearly interpolated median as float64, or nil.
func (s *Series) Median() any {
	v, _ := s.Quantile(0.5, InterpolLinear)
	return v
}

// Quantile returns the q-th quantile of the present values as float64.
// interp selects how a position between two values resolves; the empty
// string means nearest.
func (s *Series) Quantile(q float64, interp string) (any, error) {
	if q < 0 || q > 1 || math.IsNaN(q) {
		return nil, dferrors.NewInvalidInputError("Quantile", "quantile must be between 0 and 1")
	}
	if interp == "" {
		interp = InterpolNearest
	}
	switch interp {
	case InterpolNearest, InterpolLower, InterpolHigher, InterpolMidpoint, InterpolLinear:
	default:
		return nil, dferrors.NewInvalidInputError("Quantile", "unknown interpolation: "+interp)
	}

	xs, ok := s.presentFloats()
	if !ok || len(xs) == 0 {
		return nil, nil
	}
	slices.Sort(xs)
	return quantileSorted(xs, q, interp), nil
}

func quantileSorted(xs []float64, q float64, interp string) float64 {
	pos := q * float64(len(xs)-1)
	lo, hi := int(math.Floor(pos)), int(math.Ceil(pos))
	switch interp {
	case InterpolLower:
		return xs[lo]
	case InterpolHigher:
		return xs[hi]
	case InterpolMidpoint:
		return (xs[lo] + xs[hi]) / 2
	case InterpolLinear:
		return xs[lo] + (xs[hi]-xs[lo])*(pos-float64(lo))
	default:
		return xs[int(math.Round(pos))]
	}
}

// Var returns the variance with ddof delta degrees of freedom, or nil when
// fewer than ddof+1 values are present.
func (s *Series) Var(ddof int) any {
	xs, ok := s.presentFloats()
	n := len(xs)
	if !ok || n == 0 || n-ddof <= 0 {
		return nil
	}
	_, pop := stat.PopMeanVariance(xs, nil)
	return pop * float64(n) / float64(n-ddof)
}

// Std returns the standard deviation with ddof delta degrees of freedom.
func (s *Series) Std(ddof int) any {
	v := s.Var(ddof)
	if v == nil {
		return nil
	}
	return math.Sqrt(v.(float64))
}

// centralMoments returns the second, third and fourth central moments.
func centralMoments(xs []float64) (m2, m3, m4 float64) {
	mean := stat.Mean(xs, nil)
	for _, x := range xs {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	n := float64(len(xs))
	return m2 / n, m3 / n, m4 / n
}

// Skew returns the sample skewness. With bias false the estimate is
// corrected for statistical bias.
func (s *Series) Skew(bias bool) any {
	xs, ok := s.presentFloats()
	if !ok || len(xs) == 0 {
		return nil
	}
	if !bias {
		if len(xs) < 3 {
			return nil
		}
		return stat.Skew(xs, nil)
	}
	m2, m3, _ := centralMoments(xs)
	return m3 / math.Pow(m2, 1.5)
}

// Kurtosis returns the sample kurtosis. With fisher set, 3.0 is subtracted
// so a normal distribution yields 0. With bias false the estimate is
// corrected for statistical bias.
func (s *Series) Kurtosis(fisher, bias bool) any {
	xs, ok := s.presentFloats()
	if !ok || len(xs) == 0 {
		return nil
	}
	var excess float64
	if bias {
		m2, _, m4 := centralMoments(xs)
		excess = m4/(m2*m2) - 3
	} else {
		if len(xs) < 4 {
			return nil
		}
		excess = stat.ExKurtosis(xs, nil)
	}
	if fisher {
		return excess
	}
	return excess + 3
}

// groupIndices partitions element indices by value. Groups are ordered by
// first occurrence; nulls form one group.
func (s *Series) groupIndices() [][]int {
	pos := make(map[string]int)
	var groups [][]int
	var buf []byte
	for i := range s.Len() {
		buf = AppendKey(buf[:0], valueAt(s.array, i))
		g, ok := pos[string(buf)]
		if !ok {
			g = len(groups)
			pos[string(buf)] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// Mode returns the most frequent values in order of first occurrence.
func (s *Series) Mode() *Series {
	groups := s.groupIndices()
	best := 0
	for _, g := range groups {
		best = max(best, len(g))
	}
	var idx []int
	for _, g := range groups {
		if len(g) == best {
			idx = append(idx, g[0])
		}
	}
	return s.derive(takeArray(s.array, s.dtype, idx, s.mem))
}

// NUnique returns the number of distinct values. Null counts as one value.
func (s *Series) NUnique() int {
	return len(s.groupIndices())
}

// ArgMax returns the index of the first largest present value.
func (s *Series) ArgMax() (int, bool) {
	return s.argExtreme(func(c int) bool { return c > 0 })
}

// ArgMin returns the index of the first smallest present value.
func (s *Series) ArgMin() (int, bool) {
	return s.argExtreme(func(c int) bool { return c < 0 })
}

func (s *Series) argExtreme(better func(int) bool) (int, bool) {
	best := -1
	var bestVal any
	for i := range s.Len() {
		v := valueAt(s.array, i)
		if v == nil || isNaN(v) {
			continue
		}
		if best < 0 || better(Compare(v, bestVal)) {
			best, bestVal = i, v
		}
	}
	return best, best >= 0
}

// ArgTrue returns the indices of true elements of a Bool series.
func (s *Series) ArgTrue() (*Series, error) {
	if !s.IsBoolean() {
		return nil, dferrors.NewTypeMismatchError("ArgTrue", s.name,
			"expected Bool, got %s", s.dtype)
	}
	var idx []uint32
	for i := range s.Len() {
		if v, ok := valueAt(s.array, i).(bool); ok && v {
			idx = append(idx, uint32(i)) //nolint:gosec // index fits
		}
	}
	return s.derive(buildNumeric(dtype.UInt32, idx, nil, s.mem)), nil
}

// ArgUnique returns the index of the first occurrence of each distinct value.
func (s *Series) ArgUnique() *Series {
	groups := s.groupIndices()
	idx := make([]uint32, len(groups))
	for i, g := range groups {
		idx[i] = uint32(g[0]) //nolint:gosec // index fits
	}
	return s.derive(buildNumeric(dtype.UInt32, idx, nil, s.mem))
}
