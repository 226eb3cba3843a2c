package series

import (
	"slices"

	"github.com/paveg/tabula/internal/dtype"
)

// Unique returns the distinct values. With maintainOrder they appear in
// order of first occurrence, otherwise sorted ascending with null last.
func (s *Series) Unique(maintainOrder bool) *Series {
	groups := s.groupIndices()
	idx := make([]int, len(groups))
	for i, g := range groups {
		idx[i] = g[0]
	}
	if !maintainOrder {
		slices.SortStableFunc(idx, func(a, b int) int {
			return CompareNullsLast(valueAt(s.array, a), valueAt(s.array, b), false)
		})
	}
	return s.derive(takeArray(s.array, s.dtype, idx, s.mem))
}

// groupSizes returns, for every element, the size of its value group and
// whether it is the first element of that group.
func (s *Series) groupSizes() (sizes []int, first []bool) {
	sizes = make([]int, s.Len())
	first = make([]bool, s.Len())
	for _, g := range s.groupIndices() {
		first[g[0]] = true
		for _, i := range g {
			sizes[i] = len(g)
		}
	}
	return sizes, first
}

// IsDuplicated marks every element whose value occurs more than once.
func (s *Series) IsDuplicated() *Series {
	sizes, _ := s.groupSizes()
	out := make([]bool, len(sizes))
	for i, n := range sizes {
		out[i] = n > 1
	}
	return s.derive(buildBools(out, nil, s.mem))
}

// IsUnique marks every element whose value occurs exactly once. It is the
// complement of IsDuplicated.
func (s *Series) IsUnique() *Series {
	sizes, _ := s.groupSizes()
	out := make([]bool, len(sizes))
	for i, n := range sizes {
		out[i] = n == 1
	}
	return s.derive(buildBools(out, nil, s.mem))
}

// IsFirst marks the first occurrence of every distinct value.
func (s *Series) IsFirst() *Series {
	_, first := s.groupSizes()
	return s.derive(buildBools(first, nil, s.mem))
}

// ValueCounts returns the distinct values and how often each occurs,
// ordered by descending count and then by first occurrence. The counts
// series is named "counts".
func (s *Series) ValueCounts() (values, counts *Series) {
	groups := s.groupIndices()
	slices.SortStableFunc(groups, func(a, b []int) int {
		return len(b) - len(a)
	})
	idx := make([]int, len(groups))
	n := make([]uint32, len(groups))
	for i, g := range groups {
		idx[i] = g[0]
		n[i] = uint32(len(g)) //nolint:gosec // count fits
	}
	values = s.derive(takeArray(s.array, s.dtype, idx, s.mem))
	counts = fromArray("counts", buildNumeric(dtype.UInt32, n, nil, s.mem), s.mem)
	return values, counts
}
