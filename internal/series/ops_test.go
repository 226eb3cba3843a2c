package series

import (
	"math"
	"testing"

	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmetic(t *testing.T) {
	a := New("a", []int32{1, 2, 3}, nil)
	defer a.Release()
	b := New("b", []float64{0.5, 1, 2}, nil)
	defer b.Release()

	t.Run("promotes to float", func(t *testing.T) {
		out, err := a.Add(b)
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, "a", out.Name())
		assert.True(t, dtype.Float64.Equal(out.DataType()))
		assert.Equal(t, []any{1.5, 3.0, 5.0}, out.Values())
	})

	t.Run("integer scalar keeps the integer type", func(t *testing.T) {
		out, err := a.Mul(2)
		require.NoError(t, err)
		defer out.Release()

		assert.True(t, dtype.Int32.Equal(out.DataType()))
		assert.Equal(t, []any{int32(2), int32(4), int32(6)}, out.Values())
	})

	t.Run("division is true division", func(t *testing.T) {
		out, err := a.Div(2)
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, []any{0.5, 1.0, 1.5}, out.Values())
	})

	t.Run("remainder by zero is null", func(t *testing.T) {
		zeros := New("z", []int32{0, 2, 0}, nil)
		defer zeros.Release()

		out, err := a.Rem(zeros)
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []any{nil, int32(0), nil}, out.Values())
	})

	t.Run("nulls propagate", func(t *testing.T) {
		n := fromValues(t, "n", 1, nil, 3)
		defer n.Release()

		out, err := n.Sub(1)
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []any{0.0, nil, 2.0}, out.Values())
	})

	t.Run("length mismatch", func(t *testing.T) {
		short := New("s", []int32{1, 2}, nil)
		defer short.Release()

		_, err := a.Add(short)
		require.Error(t, err)
		assert.ErrorIs(t, err, dferrors.ErrShapeMismatch)
	})

	t.Run("length one operand broadcasts", func(t *testing.T) {
		one := New("o", []int32{10}, nil)
		defer one.Release()

		out, err := a.Add(one)
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []any{int32(11), int32(12), int32(13)}, out.Values())
	})

	t.Run("string concatenation", func(t *testing.T) {
		s := New("s", []string{"a", "b"}, nil)
		defer s.Release()

		out, err := s.Add("x")
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []any{"ax", "bx"}, out.Values())

		_, err = s.Mul(2)
		assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
	})
}

func TestUnaryMath(t *testing.T) {
	s := New("f", []float64{1.1, -2.26}, nil)
	defer s.Release()

	floor, err := s.Floor()
	require.NoError(t, err)
	defer floor.Release()
	assert.Equal(t, []any{1.0, -3.0}, floor.Values())

	abs, err := s.Abs()
	require.NoError(t, err)
	defer abs.Release()
	assert.Equal(t, []any{1.1, 2.26}, abs.Values())

	rounded, err := s.Round(1)
	require.NoError(t, err)
	defer rounded.Release()
	assert.InDelta(t, -2.3, rounded.Value(1), 1e-9)

	b := New("b", []bool{true}, nil)
	defer b.Release()
	_, err = b.Round(0)
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
}

func TestComparison(t *testing.T) {
	s := fromValues(t, "a", 1, 2, nil, 4)
	defer s.Release()

	gt, err := s.Gt(2)
	require.NoError(t, err)
	defer gt.Release()
	assert.Equal(t, []any{false, false, nil, true}, gt.Values())

	eq, err := s.Eq(s)
	require.NoError(t, err)
	defer eq.Release()
	assert.Equal(t, []any{true, true, nil, true}, eq.Values())

	strs := New("s", []string{"a"}, nil)
	defer strs.Release()
	_, err = strs.Lt(1)
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)

	in, err := s.IsIn([]any{2, 4})
	require.NoError(t, err)
	defer in.Release()
	assert.Equal(t, []any{false, true, false, true}, in.Values())
}

func TestFloatPredicates(t *testing.T) {
	s := New("f", []float64{1, math.Inf(1), math.NaN()}, nil)
	defer s.Release()

	finite, err := s.IsFinite()
	require.NoError(t, err)
	defer finite.Release()
	assert.Equal(t, []any{true, false, false}, finite.Values())

	inf, err := s.IsInfinite()
	require.NoError(t, err)
	defer inf.Release()
	assert.Equal(t, []any{false, true, false}, inf.Values())

	nan, err := s.IsNaN()
	require.NoError(t, err)
	defer nan.Release()
	assert.Equal(t, []any{false, false, true}, nan.Values())

	strs := New("s", []string{"foo"}, nil)
	defer strs.Release()
	_, err = strs.IsFinite()
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
	_, err = strs.IsInfinite()
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
}

func TestPeaks(t *testing.T) {
	s := fromValues(t, "", 9, 4, 5)
	defer s.Release()
	peaks, err := s.PeakMax()
	require.NoError(t, err)
	defer peaks.Release()
	assert.Equal(t, []any{true, false, true}, peaks.Values())

	m := fromValues(t, "", 4, 1, 3, 2, 5)
	defer m.Release()
	troughs, err := m.PeakMin()
	require.NoError(t, err)
	defer troughs.Release()
	assert.Equal(t, []any{false, true, false, true, false}, troughs.Values())
}

func TestFillNull(t *testing.T) {
	tests := []struct {
		strategy string
		input    []any
		expected []any
	}{
		{FillZero, []any{1, nil, 2, 3}, []any{1.0, 0.0, 2.0, 3.0}},
		{FillOne, []any{1, nil, 2}, []any{1.0, 1.0, 2.0}},
		{FillMax, []any{1, nil, 5}, []any{1.0, 5.0, 5.0}},
		{FillMin, []any{1, nil, 5}, []any{1.0, 1.0, 5.0}},
		{FillMean, []any{1, 1, nil, 10}, []any{1.0, 1.0, 4.0, 10.0}},
		{FillBackward, []any{1, 1, nil, 10}, []any{1.0, 1.0, 10.0, 10.0}},
		{FillForward, []any{1, 1, nil, 10}, []any{1.0, 1.0, 1.0, 10.0}},
		{FillForward, []any{nil, 1}, []any{nil, 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			s := fromValues(t, "", tt.input...)
			defer s.Release()

			out, err := s.FillNull(tt.strategy)
			require.NoError(t, err)
			defer out.Release()
			assert.Equal(t, tt.expected, out.Values())
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		s := fromValues(t, "", 1, nil, 2)
		defer s.Release()
		once, err := s.FillNull(FillZero)
		require.NoError(t, err)
		defer once.Release()
		twice, err := once.FillNull(FillZero)
		require.NoError(t, err)
		defer twice.Release()
		assert.True(t, once.Equal(twice, true))
	})

	t.Run("mean of integers is float", func(t *testing.T) {
		s, err := FromValuesWithType("", []any{1, nil, 2}, dtype.Int64, nil)
		require.NoError(t, err)
		defer s.Release()

		out, err := s.FillNull(FillMean)
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []any{1.0, 1.5, 2.0}, out.Values())
	})

	t.Run("unknown strategy", func(t *testing.T) {
		s := fromValues(t, "", 1)
		defer s.Release()
		_, err := s.FillNull("sideways")
		assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)
	})
}

func TestDropNullsAndInterpolate(t *testing.T) {
	s := New("s", []string{"a", "b", "f"}, nil)
	defer s.Release()
	withNull := fromValues(t, "s", "a", nil, "f")
	defer withNull.Release()

	dropped := withNull.DropNulls()
	defer dropped.Release()
	assert.Equal(t, []any{"a", "f"}, dropped.Values())

	gaps := fromValues(t, "", 1, 2, nil, nil, 5)
	defer gaps.Release()
	filled, err := gaps.Interpolate()
	require.NoError(t, err)
	defer filled.Release()
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0, 5.0}, filled.Values())

	_, err = s.Interpolate()
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
}

func TestIsNull(t *testing.T) {
	s := fromValues(t, "", 1, nil, nil, 2)
	defer s.Release()

	isNull := s.IsNull()
	defer isNull.Release()
	assert.Equal(t, []any{false, true, true, false}, isNull.Values())

	notNull := s.IsNotNull()
	defer notNull.Release()
	assert.Equal(t, []any{true, false, false, true}, notNull.Values())
}
