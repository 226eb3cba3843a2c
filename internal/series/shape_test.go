package series

import (
	"testing"

	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceFamily(t *testing.T) {
	s := fromValues(t, "", 1, 2, 3, 3, 0)
	defer s.Release()

	tests := []struct {
		name     string
		got      *Series
		expected []any
	}{
		{"slice negative offset", s.Slice(-3, 3), []any{3.0, 3.0, 0.0}},
		{"slice", s.Slice(1, 3), []any{2.0, 3.0, 3.0}},
		{"slice past end", s.Slice(4, 10), []any{0.0}},
		{"head", s.Head(2), []any{1.0, 2.0}},
		{"limit", s.Limit(2), []any{1.0, 2.0}},
		{"tail", s.Tail(2), []any{3.0, 0.0}},
		{"tail too long", s.Tail(10), []any{1.0, 2.0, 3.0, 3.0, 0.0}},
		{"reverse", s.Reverse(), []any{0.0, 3.0, 3.0, 2.0, 1.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer tt.got.Release()
			assert.Equal(t, tt.expected, tt.got.Values())
		})
	}
}

func TestTake(t *testing.T) {
	s := fromValues(t, "", 1, 3, 2, 9, 1)
	defer s.Release()

	taken, err := s.Take([]int{0, 1, 3})
	require.NoError(t, err)
	defer taken.Release()
	assert.Equal(t, []any{1.0, 3.0, 9.0}, taken.Values())

	every, err := s.TakeEvery(2)
	require.NoError(t, err)
	defer every.Release()
	assert.Equal(t, []any{1.0, 2.0, 1.0}, every.Values())

	_, err = s.Take([]int{5})
	assert.ErrorIs(t, err, dferrors.ErrOutOfBounds)
}

func TestFilter(t *testing.T) {
	s := fromValues(t, "", 1, 2, 3)
	defer s.Release()
	mask := fromValues(t, "", true, nil, true)
	defer mask.Release()

	out, err := s.Filter(mask)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{1.0, 3.0}, out.Values())

	_, err = s.Filter(s)
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
}

func TestShift(t *testing.T) {
	s := New("foo", []float64{1, 2, 3}, nil)
	defer s.Release()

	fwd := s.Shift(1)
	defer fwd.Release()
	assert.Equal(t, []any{nil, 1.0, 2.0}, fwd.Values())

	back := s.Shift(-1)
	defer back.Release()
	assert.Equal(t, []any{2.0, 3.0, nil}, back.Values())

	all := s.Shift(5)
	defer all.Release()
	assert.Equal(t, 3, all.NullCount())

	filled, err := s.ShiftAndFill(1, 99)
	require.NoError(t, err)
	defer filled.Release()
	assert.Equal(t, []any{99.0, 1.0, 2.0}, filled.Values())
	assert.Equal(t, "foo", filled.Name())

	_, err = s.ShiftAndFill(1, "x")
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
}

func TestConcat(t *testing.T) {
	a := New("a", []int32{1, 2}, nil)
	defer a.Release()
	b := New("b", []float64{3.5}, nil)
	defer b.Release()

	out, err := a.Concat(b)
	require.NoError(t, err)
	defer out.Release()
	assert.True(t, dtype.Float64.Equal(out.DataType()))
	assert.Equal(t, []any{1.0, 2.0, 3.5}, out.Values())

	strs := New("s", []string{"x"}, nil)
	defer strs.Release()
	_, err = a.Concat(strs)
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)

	ext, err := a.Extend(7, 2)
	require.NoError(t, err)
	defer ext.Release()
	assert.Equal(t, []any{int32(1), int32(2), int32(7), int32(7)}, ext.Values())

	cat, err := FromValuesWithType("c", []any{"x", "y"}, dtype.Categorical, nil)
	require.NoError(t, err)
	defer cat.Release()
	more, err := FromValuesWithType("c", []any{"z", "x"}, dtype.Categorical, nil)
	require.NoError(t, err)
	defer more.Release()
	joined, err := cat.Concat(more)
	require.NoError(t, err)
	defer joined.Release()
	assert.Equal(t, []any{"x", "y", "z", "x"}, joined.Values())
}

func TestSample(t *testing.T) {
	s := fromValues(t, "", 1, 2, 3, 4, 5)
	defer s.Release()

	n, err := s.Sample(SampleOptions{N: 2, Seed: 7})
	require.NoError(t, err)
	defer n.Release()
	assert.Equal(t, 2, n.Len())

	frac, err := s.Sample(SampleOptions{Frac: 0.4, Seed: 7})
	require.NoError(t, err)
	defer frac.Release()
	assert.Equal(t, 2, frac.Len())

	again, err := s.Sample(SampleOptions{Frac: 0.4, Seed: 7})
	require.NoError(t, err)
	defer again.Release()
	assert.Equal(t, frac.Values(), again.Values(), "seeded samples are reproducible")

	_, err = s.Sample(SampleOptions{})
	assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)
	_, err = s.Sample(SampleOptions{N: 10})
	assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)

	big, err := s.Sample(SampleOptions{N: 10, WithReplacement: true, Seed: 1})
	require.NoError(t, err)
	defer big.Release()
	assert.Equal(t, 10, big.Len())

	empty := New("x", []float64{}, nil)
	defer empty.Release()
	_, err = empty.Sample(SampleOptions{N: 2, WithReplacement: true, Seed: 1})
	assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)
	none, err := empty.Sample(SampleOptions{Frac: 0.5, WithReplacement: true, Seed: 1})
	require.NoError(t, err)
	defer none.Release()
	assert.Equal(t, 0, none.Len())
}

func TestZipWith(t *testing.T) {
	a := fromValues(t, "a", 1, 2, 3)
	defer a.Release()
	b := fromValues(t, "b", 10, 20, 30)
	defer b.Release()
	mask := New("m", []bool{true, false, true}, nil)
	defer mask.Release()

	out, err := a.ZipWith(mask, b)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{1.0, 20.0, 3.0}, out.Values())
}

func TestSortAndRank(t *testing.T) {
	s := fromValues(t, "", 4, 2, 5, 1, 2, 3, 3, 0)
	defer s.Release()

	sorted := s.Sort(false)
	defer sorted.Release()
	assert.Equal(t, []any{0.0, 1.0, 2.0, 2.0, 3.0, 3.0, 4.0, 5.0}, sorted.Values())

	desc := fromValues(t, "", 4, nil, 2, 5, 0)
	defer desc.Release()
	rev := desc.Sort(true)
	defer rev.Release()
	assert.Equal(t, []any{5.0, 4.0, 2.0, 0.0, nil}, rev.Values(), "nulls sort last in both directions")

	r := fromValues(t, "", 1, 2, 3, 2, 2, 3, 0)
	defer r.Release()
	dense, err := r.Rank(RankDense)
	require.NoError(t, err)
	defer dense.Release()
	assert.True(t, dtype.UInt32.Equal(dense.DataType()))
	assert.Equal(t, []any{uint32(2), uint32(3), uint32(4), uint32(3), uint32(3), uint32(4), uint32(1)}, dense.Values())

	avg, err := r.Rank("")
	require.NoError(t, err)
	defer avg.Release()
	assert.Equal(t, []any{2.0, 4.0, 6.5, 4.0, 4.0, 6.5, 1.0}, avg.Values())

	ordinal, err := r.Rank(RankOrdinal)
	require.NoError(t, err)
	defer ordinal.Release()
	assert.Equal(t, []any{uint32(2), uint32(3), uint32(6), uint32(4), uint32(5), uint32(7), uint32(1)}, ordinal.Values())

	_, err = r.Rank("random")
	assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)
}

func TestUniqueness(t *testing.T) {
	s := fromValues(t, "", 1, 2, 3, 1)
	defer s.Release()

	isUnique := s.IsUnique()
	defer isUnique.Release()
	assert.Equal(t, []any{false, true, true, false}, isUnique.Values())

	dup := s.IsDuplicated()
	defer dup.Release()
	assert.Equal(t, []any{true, false, false, true}, dup.Values())

	first := s.IsFirst()
	defer first.Release()
	assert.Equal(t, []any{true, true, true, false}, first.Values())

	u := fromValues(t, "", 3, 1, 3, nil, 2)
	defer u.Release()
	ordered := u.Unique(true)
	defer ordered.Release()
	assert.Equal(t, []any{3.0, 1.0, nil, 2.0}, ordered.Values())
	sortedU := u.Unique(false)
	defer sortedU.Release()
	assert.Equal(t, []any{1.0, 2.0, 3.0, nil}, sortedU.Values())

	values, counts := fromValues(t, "v", "a", "b", "b", "c", "c", "c").ValueCounts()
	defer values.Release()
	defer counts.Release()
	assert.Equal(t, []any{"c", "b", "a"}, values.Values())
	assert.Equal(t, []any{uint32(3), uint32(2), uint32(1)}, counts.Values())
	assert.Equal(t, "counts", counts.Name())
}
