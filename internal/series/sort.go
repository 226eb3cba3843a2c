package series

import (
	"slices"

	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
)

// Rank methods.
const (
	RankAverage = "average"
	RankMin     = "min"
	RankMax     = "max"
	RankDense   = "dense"
	RankOrdinal = "ordinal"
)

// sortedIndices returns a stable ordering of the element indices. Nulls are
// placed last in both directions.
func (s *Series) sortedIndices(reverse bool) []int {
	vals := s.Values()
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return CompareNullsLast(vals[a], vals[b], reverse)
	})
	return idx
}

// CompareNullsLast orders two values ascending, or descending when reverse
// is set, with nulls after every value.
func CompareNullsLast(a, b any, reverse bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := Compare(a, b)
	if reverse {
		return -c
	}
	return c
}

// Sort returns the series sorted ascending, or descending when reverse is
// set. The sort is stable and nulls come last.
func (s *Series) Sort(reverse bool) *Series {
	return s.derive(takeArray(s.array, s.dtype, s.sortedIndices(reverse), s.mem))
}

// ArgSort returns the indices that would sort the series.
func (s *Series) ArgSort(reverse bool) *Series {
	idx := s.sortedIndices(reverse)
	out := make([]uint32, len(idx))
	for i, v := range idx {
		out[i] = uint32(v) //nolint:gosec // index fits
	}
	return s.derive(buildNumeric(dtype.UInt32, out, nil, s.mem))
}

// Rank assigns 1-based ranks to the present values. Ties resolve according
// to method; the empty string means average. Average ranks are Float64,
// every other method produces UInt32. Nulls keep a null rank.
func (s *Series) Rank(method string) (*Series, error) {
	if method == "" {
		method = RankAverage
	}
	switch method {
	case RankAverage, RankMin, RankMax, RankDense, RankOrdinal:
	default:
		return nil, dferrors.NewInvalidInputError("Rank", "unknown rank method: "+method)
	}

	n := s.Len()
	order := s.sortedIndices(false)
	ranks := make([]float64, n)
	valid := validity(s.array)

	dense := 0
	for start := 0; start < n; {
		if !valid[order[start]] {
			break
		}
		end := start + 1
		for end < n && valid[order[end]] && Compare(valueAt(s.array, order[start]), valueAt(s.array, order[end])) == 0 {
			end++
		}
		dense++
		for k := start; k < end; k++ {
			var r float64
			switch method {
			case RankAverage:
				r = float64(start+end+1) / 2
			case RankMin:
				r = float64(start + 1)
			case RankMax:
				r = float64(end)
			case RankDense:
				r = float64(dense)
			default:
				r = float64(k + 1)
			}
			ranks[order[k]] = r
		}
		start = end
	}

	if method == RankAverage {
		return s.derive(buildNumeric(dtype.Float64, ranks, valid, s.mem)), nil
	}
	return s.derive(buildNumeric(dtype.UInt32, ranks, valid, s.mem)), nil
}

// Reverse returns the elements in reverse order.
func (s *Series) Reverse() *Series {
	n := s.Len()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = n - 1 - i
	}
	return s.derive(takeArray(s.array, s.dtype, idx, s.mem))
}
