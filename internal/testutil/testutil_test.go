package testutil_test

import (
	"testing"

	"github.com/paveg/tabula/internal/dtype"
	"github.com/paveg/tabula/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMemoryTest(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	require.NotNil(t, mem.Allocator)

	df := testutil.CreateTestDataFrame(t, mem.Allocator)
	defer df.Release()

	assert.NotNil(t, df)
}

func TestSetupCheckedMemoryTest(t *testing.T) {
	mem := testutil.SetupCheckedMemoryTest(t)

	df := testutil.CreateTestDataFrame(t, mem.Allocator, testutil.WithNulls(), testutil.WithActiveColumn())
	df.Release()

	// every buffer has been returned, so the size check passes
	mem.Release()
	mem.Release()
}

func TestCreateTestDataFrame(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	t.Run("default configuration", func(t *testing.T) {
		df := testutil.CreateTestDataFrame(t, mem.Allocator)
		defer df.Release()

		assert.Equal(t, 4, df.Len())
		assert.Equal(t, 4, df.Width())
		testutil.AssertDataFrameHasColumns(t, df, []string{"name", "age", "department", "salary"})
		assert.Equal(t, []dtype.DataType{dtype.Utf8, dtype.Int64, dtype.Utf8, dtype.Int64}, df.DTypes())
	})

	t.Run("with active column", func(t *testing.T) {
		df := testutil.CreateTestDataFrame(t, mem.Allocator, testutil.WithActiveColumn())
		defer df.Release()

		assert.Equal(t, 5, df.Width())
		testutil.AssertSeriesValues(t, df, "active", []any{true, true, false, true})
	})

	t.Run("with custom row count", func(t *testing.T) {
		df := testutil.CreateTestDataFrame(t, mem.Allocator, testutil.WithRowCount(10))
		defer df.Release()

		assert.Equal(t, 10, df.Len())
		assert.Equal(t, 4, df.Width())
	})

	t.Run("with nulls", func(t *testing.T) {
		df := testutil.CreateTestDataFrame(t, mem.Allocator, testutil.WithNulls())
		defer df.Release()

		testutil.AssertSeriesValues(t, df, "salary", []any{int64(100000), int64(80000), nil, int64(75000)})
	})
}

func TestAssertDataFrameEqual(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	df1 := testutil.CreateSimpleTestDataFrame(t, mem.Allocator)
	defer df1.Release()
	df2 := testutil.CreateSimpleTestDataFrame(t, mem.Allocator)
	defer df2.Release()

	testutil.AssertDataFrameEqual(t, df1, df2)
	testutil.AssertDataFrameNotEmpty(t, df1)
	testutil.AssertSeriesValues(t, df1, "name", []any{"Alice", "Bob"})
}

func BenchmarkCreateTestDataFrame(b *testing.B) {
	mem := testutil.SetupMemoryTest(b)
	defer mem.Release()

	b.ResetTimer()
	for range b.N {
		df := testutil.CreateTestDataFrame(b, mem.Allocator)
		df.Release()
	}
}
