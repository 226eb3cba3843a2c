package dtype_test

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfer(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		values   []any
		expected dtype.DataType
	}{
		{"empty", []any{}, dtype.Float64},
		{"all null", []any{nil, nil}, dtype.Float64},
		{"numbers", []any{1, 2, 3}, dtype.Float64},
		{"numbers with null", []any{1.5, nil, 3}, dtype.Float64},
		{"integer tokens", []any{int64(1), int64(2)}, dtype.UInt64},
		{"negative integer tokens", []any{int64(1), int64(-2)}, dtype.Int64},
		{"big ints", []any{big.NewInt(1), big.NewInt(2)}, dtype.UInt64},
		{"numbers and integer tokens", []any{1.5, int64(2)}, dtype.Float64},
		{"strings", []any{"foo", nil, "bar"}, dtype.Utf8},
		{"booleans", []any{true, nil, false}, dtype.Bool},
		{"datetimes", []any{now}, dtype.Datetime},
		{"lists", []any{[]any{1, 2}, []any{}, []any{3, nil}}, dtype.List(dtype.Float64)},
		{"typed lists", []any{[]string{"a"}, nil}, dtype.List(dtype.Utf8)},
		{"empty lists", []any{[]any{}}, dtype.List(dtype.Float64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dtype.Infer(tt.values)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestInferMixedKinds(t *testing.T) {
	cases := [][]any{
		{"a", 1},
		{true, "b"},
		{true, 1.0},
		{struct{}{}},
	}
	for _, values := range cases {
		_, err := dtype.Infer(values)
		require.Error(t, err)
		assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
	}
}

func TestParseAndString(t *testing.T) {
	for _, dt := range []dtype.DataType{
		dtype.Bool, dtype.Int8, dtype.UInt64, dtype.Float32, dtype.Utf8, dtype.Date,
		dtype.Datetime, dtype.DatetimeUS, dtype.Categorical, dtype.List(dtype.List(dtype.Int32)),
	} {
		parsed, err := dtype.Parse(dt.String())
		require.NoError(t, err)
		assert.True(t, dt.Equal(parsed), dt.String())
	}

	assert.Equal(t, "List", dtype.List(dtype.Utf8).Name())
	assert.Equal(t, "List(Utf8)", dtype.List(dtype.Utf8).String())
	assert.Equal(t, "Datetime(ms)", dtype.Datetime.String())

	_, err := dtype.Parse("Decimal")
	assert.Error(t, err)
}

func TestArrowRoundTrip(t *testing.T) {
	for _, dt := range []dtype.DataType{
		dtype.Bool, dtype.Int16, dtype.UInt32, dtype.Float64, dtype.Utf8, dtype.Date,
		dtype.Datetime, dtype.DatetimeUS, dtype.Categorical, dtype.List(dtype.Float64),
	} {
		back, err := dtype.FromArrow(dt.ToArrow())
		require.NoError(t, err)
		assert.True(t, dt.Equal(back), dt.String())
	}

	_, err := dtype.FromArrow(arrow.BinaryTypes.Binary)
	assert.Error(t, err)
}

func TestPromote(t *testing.T) {
	tests := []struct {
		a, b     dtype.DataType
		expected dtype.DataType
	}{
		{dtype.Int32, dtype.Float32, dtype.Float64},
		{dtype.UInt64, dtype.Float64, dtype.Float64},
		{dtype.Float32, dtype.Float32, dtype.Float32},
		{dtype.Int8, dtype.Int32, dtype.Int32},
		{dtype.UInt8, dtype.Int8, dtype.Int16},
		{dtype.UInt16, dtype.Int32, dtype.Int32},
		{dtype.UInt32, dtype.Int32, dtype.Int64},
		{dtype.UInt64, dtype.Int64, dtype.Float64},
		{dtype.Bool, dtype.Int64, dtype.Int64},
		{dtype.Date, dtype.Datetime, dtype.Datetime},
		{dtype.Categorical, dtype.Utf8, dtype.Utf8},
		{dtype.List(dtype.Int32), dtype.List(dtype.Float64), dtype.List(dtype.Float64)},
	}

	for _, tt := range tests {
		ab, err := dtype.Promote(tt.a, tt.b)
		require.NoError(t, err)
		ba, err := dtype.Promote(tt.b, tt.a)
		require.NoError(t, err)
		assert.True(t, tt.expected.Equal(ab), "%s + %s = %s", tt.a, tt.b, ab)
		assert.True(t, ab.Equal(ba), "promotion must be commutative")
	}

	_, err := dtype.Promote(dtype.Utf8, dtype.Int64)
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
}

func TestCastValue(t *testing.T) {
	t.Run("whole floats render with a fractional part", func(t *testing.T) {
		v, err := dtype.CastValue(1.0, dtype.Float64, dtype.Utf8, true)
		require.NoError(t, err)
		assert.Equal(t, "1.0", v)

		v, err = dtype.CastValue(2.5, dtype.Float64, dtype.Utf8, true)
		require.NoError(t, err)
		assert.Equal(t, "2.5", v)
	})

	t.Run("int64 and uint64 reinterpret bits", func(t *testing.T) {
		v, err := dtype.CastValue(int64(-1), dtype.Int64, dtype.UInt64, true)
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64), v)

		back, err := dtype.CastValue(v, dtype.UInt64, dtype.Int64, true)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), back)
	})

	t.Run("out of range is null unless strict", func(t *testing.T) {
		v, err := dtype.CastValue(300.0, dtype.Float64, dtype.UInt8, false)
		require.NoError(t, err)
		assert.Nil(t, v)

		_, err = dtype.CastValue(300.0, dtype.Float64, dtype.UInt8, true)
		assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
	})

	t.Run("strings parse into numbers", func(t *testing.T) {
		v, err := dtype.CastValue("42", dtype.Utf8, dtype.Int32, true)
		require.NoError(t, err)
		assert.Equal(t, int32(42), v)

		v, err = dtype.CastValue("abc", dtype.Utf8, dtype.Float64, false)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("temporal values", func(t *testing.T) {
		day := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
		v, err := dtype.CastValue(day, dtype.Date, dtype.Int32, true)
		require.NoError(t, err)
		assert.Equal(t, int32(18690), v)

		v, err = dtype.CastValue(int32(18690), dtype.Int32, dtype.Date, true)
		require.NoError(t, err)
		assert.Equal(t, day, v)

		v, err = dtype.CastValue(day, dtype.Date, dtype.Utf8, true)
		require.NoError(t, err)
		assert.Equal(t, "2021-03-04", v)
	})

	t.Run("bool to numeric", func(t *testing.T) {
		v, err := dtype.CastValue(true, dtype.Bool, dtype.Float64, true)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, v, 0)
	})
}
