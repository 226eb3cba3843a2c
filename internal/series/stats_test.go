package series

import (
	"testing"

	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReductions(t *testing.T) {
	t.Run("sum", func(t *testing.T) {
		s := fromValues(t, "", 1, 2, 2, 1)
		defer s.Release()
		assert.Equal(t, 6.0, s.Sum())

		ints := New("", []int8{100, 100}, nil)
		defer ints.Release()
		assert.Equal(t, int64(200), ints.Sum(), "small integers widen")

		bools := New("", []bool{true, true, false}, nil)
		defer bools.Release()
		assert.Equal(t, uint32(2), bools.Sum())

		strs := New("", []string{"a"}, nil)
		defer strs.Release()
		assert.Nil(t, strs.Sum())
	})

	t.Run("min max mean median", func(t *testing.T) {
		s := fromValues(t, "", -1, 10, 3)
		defer s.Release()
		assert.Equal(t, -1.0, s.Min())
		assert.Equal(t, 10.0, s.Max())

		m := fromValues(t, "", 1, 1, 10)
		defer m.Release()
		assert.Equal(t, 4.0, m.Mean())
		assert.Equal(t, 1.0, m.Median())

		strs := New("", []string{"b", "a"}, nil)
		defer strs.Release()
		assert.Equal(t, "a", strs.Min())
	})

	t.Run("all null", func(t *testing.T) {
		s := fromValues(t, "", nil, nil)
		defer s.Release()
		assert.Nil(t, s.Mean())
		assert.Nil(t, s.Min())
		assert.Equal(t, 0.0, s.Sum())
	})

	t.Run("quantile", func(t *testing.T) {
		s := fromValues(t, "", 1, 2, 3)
		defer s.Release()

		v, err := s.Quantile(0.5, "")
		require.NoError(t, err)
		assert.Equal(t, 2.0, v)

		four := fromValues(t, "", 1, 2, 3, 4)
		defer four.Release()
		v, err = four.Quantile(0.5, InterpolLinear)
		require.NoError(t, err)
		assert.Equal(t, 2.5, v)
		v, err = four.Quantile(0.5, InterpolLower)
		require.NoError(t, err)
		assert.Equal(t, 2.0, v)
		v, err = four.Quantile(0.5, InterpolHigher)
		require.NoError(t, err)
		assert.Equal(t, 3.0, v)

		_, err = s.Quantile(1.5, "")
		assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)
		_, err = s.Quantile(0.5, "cubic")
		assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)
	})

	t.Run("variance", func(t *testing.T) {
		s := fromValues(t, "", 1, 2, 3, 4)
		defer s.Release()
		assert.InDelta(t, 1.6666667, s.Var(1), 1e-6)
		assert.InDelta(t, 1.25, s.Var(0), 1e-9)
		assert.InDelta(t, 1.2909944, s.Std(1), 1e-6)

		one := fromValues(t, "", 1)
		defer one.Release()
		assert.Nil(t, one.Var(1))
	})

	t.Run("moments", func(t *testing.T) {
		k := fromValues(t, "", 1, 2, 3, 3, 4)
		defer k.Release()
		assert.InDelta(t, -1.044379, k.Kurtosis(true, true), 1e-6)
		assert.InDelta(t, 1.955621, k.Kurtosis(false, true), 1e-6)

		s := fromValues(t, "", 1, 2, 3, 3, 0)
		defer s.Release()
		assert.InDelta(t, -0.363173, s.Skew(true), 1e-6)
		assert.NotNil(t, s.Skew(false))
	})

	t.Run("mode and n unique", func(t *testing.T) {
		s := fromValues(t, "", 1, 2, 2, 3, 3, nil)
		defer s.Release()

		mode := s.Mode()
		defer mode.Release()
		assert.Equal(t, []any{2.0, 3.0}, mode.Values())
		assert.Equal(t, 4, s.NUnique())
	})

	t.Run("arg functions", func(t *testing.T) {
		s := fromValues(t, "", 3, nil, 7, 7, 1)
		defer s.Release()

		idx, ok := s.ArgMax()
		assert.True(t, ok)
		assert.Equal(t, 2, idx)
		idx, ok = s.ArgMin()
		assert.True(t, ok)
		assert.Equal(t, 4, idx)

		unique := s.ArgUnique()
		defer unique.Release()
		assert.Equal(t, []any{uint32(0), uint32(1), uint32(2), uint32(4)}, unique.Values())

		sorted := s.ArgSort(false)
		defer sorted.Release()
		assert.Equal(t, []any{uint32(4), uint32(0), uint32(2), uint32(3), uint32(1)}, sorted.Values())

		mask := New("", []bool{false, true, true}, nil)
		defer mask.Release()
		trues, err := mask.ArgTrue()
		require.NoError(t, err)
		defer trues.Release()
		assert.Equal(t, []any{uint32(1), uint32(2)}, trues.Values())

		_, err = s.ArgTrue()
		assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
	})
}

func TestCumulative(t *testing.T) {
	s := fromValues(t, "", 1, nil, 2, 3)
	defer s.Release()

	sum, err := s.CumSum(false)
	require.NoError(t, err)
	defer sum.Release()
	assert.Equal(t, []any{1.0, nil, 3.0, 6.0}, sum.Values())

	rev, err := s.CumSum(true)
	require.NoError(t, err)
	defer rev.Release()
	assert.Equal(t, []any{6.0, nil, 5.0, 3.0}, rev.Values())

	ints := New("", []int32{3, 1, 2}, nil)
	defer ints.Release()

	prod, err := ints.CumProd(false)
	require.NoError(t, err)
	defer prod.Release()
	assert.True(t, dtype.Int64.Equal(prod.DataType()))
	assert.Equal(t, []any{int64(3), int64(3), int64(6)}, prod.Values())

	cmin, err := ints.CumMin(false)
	require.NoError(t, err)
	defer cmin.Release()
	assert.Equal(t, []any{int32(3), int32(1), int32(1)}, cmin.Values())

	cmax, err := ints.CumMax(false)
	require.NoError(t, err)
	defer cmax.Release()
	assert.Equal(t, []any{int32(3), int32(3), int32(3)}, cmax.Values())

	diff, err := ints.Diff(1, DiffIgnore)
	require.NoError(t, err)
	defer diff.Release()
	assert.Equal(t, []any{nil, int32(-2), int32(1)}, diff.Values())

	dropped, err := ints.Diff(1, DiffDrop)
	require.NoError(t, err)
	defer dropped.Release()
	assert.Equal(t, []any{int32(-2), int32(1)}, dropped.Values())

	strs := New("", []string{"a"}, nil)
	defer strs.Release()
	_, err = strs.CumSum(false)
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
}

func TestRolling(t *testing.T) {
	s := fromValues(t, "", 1, 2, 3, 2, 1)
	defer s.Release()
	window := RollingOptions{WindowSize: 2}

	tests := []struct {
		name     string
		fn       func(RollingOptions) (*Series, error)
		expected []any
	}{
		{"max", s.RollingMax, []any{nil, 2.0, 3.0, 3.0, 2.0}},
		{"min", s.RollingMin, []any{nil, 1.0, 2.0, 2.0, 1.0}},
		{"sum", s.RollingSum, []any{nil, 3.0, 5.0, 5.0, 3.0}},
		{"mean", s.RollingMean, []any{nil, 1.5, 2.5, 2.5, 1.5}},
		{"median", s.RollingMedian, []any{nil, 1.5, 2.5, 2.5, 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.fn(window)
			require.NoError(t, err)
			defer out.Release()
			assert.Equal(t, tt.expected, out.Values())
		})
	}

	t.Run("var", func(t *testing.T) {
		out, err := s.RollingVar(window)
		require.NoError(t, err)
		defer out.Release()
		assert.InDelta(t, 0.5, out.Value(1), 1e-12)
	})

	t.Run("weights and min periods", func(t *testing.T) {
		out, err := s.RollingSum(RollingOptions{WindowSize: 2, Weights: []float64{0, 10}, MinPeriods: 1})
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []any{10.0, 20.0, 30.0, 20.0, 10.0}, out.Values())
	})

	t.Run("centered", func(t *testing.T) {
		out, err := s.RollingMax(RollingOptions{WindowSize: 3, Center: true})
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []any{nil, 3.0, 3.0, 3.0, nil}, out.Values())
	})

	t.Run("rejects non numeric", func(t *testing.T) {
		strs := New("", []string{"foo"}, nil)
		defer strs.Release()
		_, err := strs.RollingMax(window)
		assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)

		bools := New("", []bool{true}, nil)
		defer bools.Release()
		_, err = bools.RollingSum(window)
		assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := s.RollingMax(RollingOptions{})
		assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)
		_, err = s.RollingMax(RollingOptions{WindowSize: 2, Weights: []float64{1}})
		assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)
	})
}
