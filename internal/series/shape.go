package series

import (
	"math"
	"math/rand/v2"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
)

// Concat returns s followed by others. Data types are promoted to a common
// type.
func (s *Series) Concat(others ...*Series) (*Series, error) {
	if len(others) == 0 {
		return s.Clone(), nil
	}

	dt := s.dtype
	for _, o := range others {
		var err error
		if dt, err = dtype.Promote(dt, o.dtype); err != nil {
			return nil, dferrors.NewTypeMismatchError("Concat", s.name,
				"cannot concatenate %s with %s", s.dtype, o.dtype)
		}
	}

	if dt.Kind == dtype.KindCategorical {
		// dictionaries differ per array; rebuild through one builder
		vals := s.Values()
		for _, o := range others {
			vals = append(vals, o.Values()...)
		}
		arr, err := buildArray(dt, vals, false, s.mem)
		if err != nil {
			return nil, dferrors.NewInternalError("Concat", err)
		}
		return s.derive(arr), nil
	}

	parts := make([]arrow.Array, 0, len(others)+1)
	defer func() {
		for _, p := range parts {
			p.Release()
		}
	}()
	for _, part := range append([]*Series{s}, others...) {
		c, err := part.Cast(dt, true)
		if err != nil {
			return nil, err
		}
		parts = append(parts, c.array)
	}

	arr, err := array.Concatenate(parts, s.mem)
	if err != nil {
		return nil, dferrors.NewInternalError("Concat", err)
	}
	return s.derive(arr), nil
}

// Append appends other to s in place. Clones of s are unaffected.
func (s *Series) Append(other *Series) error {
	joined, err := s.Concat(other)
	if err != nil {
		return err
	}
	s.replace(joined.array)
	return nil
}

// Extend returns s followed by n copies of value.
func (s *Series) Extend(value any, n int) (*Series, error) {
	if n < 0 {
		return nil, dferrors.NewInvalidInputError("Extend", "count must not be negative")
	}
	tail, err := Full(s.name, value, n, s.dtype, s.mem)
	if err != nil {
		return nil, err
	}
	defer tail.Release()
	return s.Concat(tail)
}

// Slice returns length elements starting at offset. A negative offset
// counts from the end. The result shares memory with s.
func (s *Series) Slice(offset, length int) *Series {
	start, end := sliceBounds(s.Len(), offset, length)
	return s.derive(array.NewSlice(s.array, int64(start), int64(end)))
}

func sliceBounds(n, offset, length int) (start, end int) {
	if offset < 0 {
		offset = max(n+offset, 0)
	}
	start = min(offset, n)
	end = min(start+max(length, 0), n)
	return start, end
}

// Head returns the first n elements.
func (s *Series) Head(n int) *Series {
	return s.Slice(0, n)
}

// Limit is Head.
func (s *Series) Limit(n int) *Series {
	return s.Head(n)
}

// Tail returns the last n elements.
func (s *Series) Tail(n int) *Series {
	n = min(max(n, 0), s.Len())
	return s.Slice(s.Len()-n, n)
}

// Take gathers elements by index.
func (s *Series) Take(indices []int) (*Series, error) {
	for _, i := range indices {
		if i < 0 || i >= s.Len() {
			return nil, dferrors.NewOutOfBoundsError("Take", i, s.Len())
		}
	}
	return s.derive(takeArray(s.array, s.dtype, indices, s.mem)), nil
}

// TakeIndices gathers elements by index without bounds checks. A negative
// index produces a null.
func (s *Series) TakeIndices(indices []int) *Series {
	return s.derive(takeArray(s.array, s.dtype, indices, s.mem))
}

// TakeEvery returns every n-th element starting with the first.
func (s *Series) TakeEvery(n int) (*Series, error) {
	if n <= 0 {
		return nil, dferrors.NewInvalidInputError("TakeEvery", "step must be positive")
	}
	idx := make([]int, 0, s.Len()/n+1)
	for i := 0; i < s.Len(); i += n {
		idx = append(idx, i)
	}
	return s.derive(takeArray(s.array, s.dtype, idx, s.mem)), nil
}

// MaskIndices returns the positions where mask is true. Null mask entries
// count as false.
func MaskIndices(mask *Series, n int) ([]int, error) {
	if !mask.IsBoolean() {
		return nil, dferrors.NewTypeMismatchError("Filter", mask.name,
			"mask must be Bool, got %s", mask.dtype)
	}
	if mask.Len() != n {
		return nil, dferrors.NewShapeError("Filter", n, mask.Len())
	}
	bools := mask.array.(*array.Boolean)
	idx := make([]int, 0, n)
	for i := range n {
		if bools.IsValid(i) && bools.Value(i) {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

// Filter keeps the elements where mask is true.
func (s *Series) Filter(mask *Series) (*Series, error) {
	idx, err := MaskIndices(mask, s.Len())
	if err != nil {
		return nil, err
	}
	return s.derive(takeArray(s.array, s.dtype, idx, s.mem)), nil
}

// shiftIndices maps each output position to its source index, -1 for a
// position the shift vacated.
func shiftIndices(n, periods int) []int {
	idx := make([]int, n)
	for i := range idx {
		src := i - periods
		if src < 0 || src >= n {
			src = -1
		}
		idx[i] = src
	}
	return idx
}

// Shift moves values by periods positions. Positive periods move values
// toward higher indices; vacated positions are null and the length is
// unchanged.
func (s *Series) Shift(periods int) *Series {
	return s.derive(takeArray(s.array, s.dtype, shiftIndices(s.Len(), periods), s.mem))
}

// ShiftAndFill is Shift with vacated positions set to fill.
func (s *Series) ShiftAndFill(periods int, fill any) (*Series, error) {
	c, err := dtype.Coerce(fill, s.dtype, true)
	if err != nil {
		return nil, dferrors.NewTypeMismatchError("ShiftAndFill", s.name,
			"fill value %v does not fit dtype %s", fill, s.dtype)
	}
	idx := shiftIndices(s.Len(), periods)
	vals := make([]any, len(idx))
	for i, src := range idx {
		if src < 0 {
			vals[i] = c
		} else {
			vals[i] = valueAt(s.array, src)
		}
	}
	return s.rebuild(vals)
}

// SampleOptions selects a random sample. Exactly one of N and Frac must be
// set.
type SampleOptions struct {
	N               int
	Frac            float64
	WithReplacement bool
	// Seed makes the sample reproducible. Zero picks a random seed.
	Seed uint64
}

// SampleIndices draws row positions from a population of size n.
func SampleIndices(n int, opts SampleOptions) ([]int, error) {
	if (opts.N > 0) == (opts.Frac > 0) || opts.N < 0 || opts.Frac < 0 {
		return nil, dferrors.NewInvalidInputError("Sample", "expected exactly one of a positive sample size or fraction")
	}
	k := opts.N
	if opts.Frac > 0 {
		k = int(math.Floor(opts.Frac * float64(n)))
	}
	if !opts.WithReplacement && k > n {
		return nil, dferrors.NewInvalidInputError("Sample",
			"cannot take a larger sample than the population without replacement")
	}
	if n == 0 && k > 0 {
		return nil, dferrors.NewInvalidInputError("Sample", "cannot sample from an empty population")
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	idx := make([]int, k)
	if opts.WithReplacement {
		for i := range idx {
			idx[i] = rng.IntN(n)
		}
		return idx, nil
	}
	perm := rng.Perm(n)
	copy(idx, perm[:k])
	return idx, nil
}

// Sample returns a random sample of the elements.
func (s *Series) Sample(opts SampleOptions) (*Series, error) {
	idx, err := SampleIndices(s.Len(), opts)
	if err != nil {
		return nil, err
	}
	return s.derive(takeArray(s.array, s.dtype, idx, s.mem)), nil
}
