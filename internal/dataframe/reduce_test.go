//nolint:testpackage // requires internal access to unexported types and functions
package dataframe

import (
	"fmt"
	"iter"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedFrame(t *testing.T) *DataFrame {
	t.Helper()
	mem := memory.NewGoAllocator()
	return newFrame(t,
		series.New("foo", []int64{1, 2, 3}, mem),
		series.New("bar", []int64{6, 7, 8}, mem),
		series.New("ham", []string{"a", "b", "c"}, mem),
	)
}

func TestDataFrameSumMixed(t *testing.T) {
	df := mixedFrame(t)
	defer df.Release()

	sum := df.Sum()
	defer sum.Release()

	assert.Equal(t, 1, sum.Len())
	assert.Equal(t, []string{"foo", "bar", "ham"}, sum.Columns())
	assert.Equal(t, []any{int64(6)}, values(t, sum, "foo"))
	assert.Equal(t, []any{int64(21)}, values(t, sum, "bar"))
	assert.Equal(t, []any{nil}, values(t, sum, "ham"))
	assert.Equal(t, dtype.Utf8, sum.DTypes()[2])
}

func TestDataFrameAxisZeroReductions(t *testing.T) {
	df := mixedFrame(t)
	defer df.Release()

	tests := []struct {
		name    string
		reduce  func() (*DataFrame, error)
		foo     any
		fooType dtype.DataType
	}{
		{"min", func() (*DataFrame, error) { return df.Min(), nil }, int64(1), dtype.Int64},
		{"max", func() (*DataFrame, error) { return df.Max(), nil }, int64(3), dtype.Int64},
		{"mean", func() (*DataFrame, error) { return df.Mean(), nil }, 2.0, dtype.Float64},
		{"median", func() (*DataFrame, error) { return df.Median(), nil }, 2.0, dtype.Float64},
		{"std", func() (*DataFrame, error) { return df.Std(1), nil }, 1.0, dtype.Float64},
		{"var", func() (*DataFrame, error) { return df.Var(1), nil }, 1.0, dtype.Float64},
		{"quantile", func() (*DataFrame, error) { return df.Quantile(1, series.InterpolLinear) }, 3.0, dtype.Float64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.reduce()
			require.NoError(t, err)
			defer out.Release()
			got := values(t, out, "foo")
			require.Len(t, got, 1)
			if want, ok := tt.foo.(float64); ok {
				assert.InDelta(t, want, got[0], 1e-12)
			} else {
				assert.Equal(t, tt.foo, got[0])
			}
			assert.Equal(t, tt.fooType, out.DTypes()[0])
			assert.Equal(t, []any{nil}, values(t, out, "ham"))
		})
	}

	_, err := df.Quantile(2, series.InterpolLinear)
	assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)
}

func TestDataFrameHorizontal(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := newFrame(t,
		nullable(t, "a", 1.0, nil, nil),
		series.New("b", []int64{3, 5, 7}, mem),
	)
	defer df.Release()

	propagate, err := df.MeanHorizontal("")
	require.NoError(t, err)
	defer propagate.Release()
	assert.Equal(t, []any{2.0, nil, nil}, propagate.Values())

	ignore, err := df.MeanHorizontal(NullIgnore)
	require.NoError(t, err)
	defer ignore.Release()
	assert.Equal(t, []any{2.0, 5.0, 7.0}, ignore.Values())

	sum, err := df.SumHorizontal()
	require.NoError(t, err)
	defer sum.Release()
	assert.Equal(t, dtype.Float64, sum.DataType())
	assert.Equal(t, []any{4.0, 5.0, 7.0}, sum.Values())

	minimum, err := df.MinHorizontal()
	require.NoError(t, err)
	defer minimum.Release()
	assert.Equal(t, []any{1.0, 5.0, 7.0}, minimum.Values())

	maximum, err := df.MaxHorizontal()
	require.NoError(t, err)
	defer maximum.Release()
	assert.Equal(t, []any{3.0, 5.0, 7.0}, maximum.Values())

	_, err = df.MeanHorizontal("sometimes")
	assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)

	strings := mixedFrame(t)
	defer strings.Release()
	_, err = strings.SumHorizontal()
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
}

func TestDataFrameSumHorizontalIntegers(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := newFrame(t,
		series.New("a", []int32{1, 2}, mem),
		series.New("b", []int64{10, 20}, mem),
	)
	defer df.Release()

	sum, err := df.SumHorizontal()
	require.NoError(t, err)
	defer sum.Release()
	assert.Equal(t, dtype.Int64, sum.DataType())
	assert.Equal(t, []any{int64(11), int64(22)}, sum.Values())
}

func TestDataFrameDescribe(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := newFrame(t,
		series.New("x", []float64{1, 2, 3}, mem),
		series.New("s", []string{"a", "b", "c"}, mem),
	)
	defer df.Release()

	desc, err := df.Describe()
	require.NoError(t, err)
	defer desc.Release()

	assert.Equal(t, []string{"describe", "x", "s"}, desc.Columns())
	assert.Equal(t, []any{"mean", "std", "min", "max", "median"}, values(t, desc, "describe"))
	stats := values(t, desc, "x")
	for i, want := range []float64{2.0, 1.0, 1.0, 3.0, 2.0} {
		assert.InDelta(t, want, stats[i], 1e-12, describeStats[i])
	}
	assert.Equal(t, []any{nil, nil, nil, nil, nil}, values(t, desc, "s"))
}

func TestDataFrameTranspose(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := newFrame(t,
		series.New("a", []int64{1, 2}, mem),
		series.New("b", []int64{3, 4}, mem),
	)
	defer df.Release()

	plain, err := df.Transpose(TransposeOptions{})
	require.NoError(t, err)
	defer plain.Release()
	assert.Equal(t, []string{"column_0", "column_1"}, plain.Columns())
	assert.Equal(t, []any{int64(1), int64(3)}, values(t, plain, "column_0"))
	assert.Equal(t, []any{int64(2), int64(4)}, values(t, plain, "column_1"))

	var unbounded iter.Seq[string] = func(yield func(string) bool) {
		for i := 0; ; i++ {
			if !yield(fmt.Sprintf("r%d", i)) {
				return
			}
		}
	}
	named, err := df.Transpose(TransposeOptions{IncludeHeader: true, ColumnNames: unbounded})
	require.NoError(t, err)
	defer named.Release()
	assert.Equal(t, []string{"column", "r0", "r1"}, named.Columns())
	assert.Equal(t, []any{"a", "b"}, values(t, named, "column"))

	short := func(yield func(string) bool) { yield("only") }
	_, err = df.Transpose(TransposeOptions{ColumnNames: short})
	assert.ErrorIs(t, err, dferrors.ErrShapeMismatch)
}

func TestDataFrameTransposeMixed(t *testing.T) {
	df := mixedFrame(t)
	defer df.Release()

	out, err := df.Transpose(TransposeOptions{IncludeHeader: true, HeaderName: "field"})
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, dtype.Utf8, out.DTypes()[1])
	assert.Equal(t, []any{"1", "6", "a"}, values(t, out, "column_0"))
	assert.Equal(t, []any{"foo", "bar", "ham"}, values(t, out, "field"))
}
