// Package testutil provides common testing utilities shared by the
// tabula test suites.
//
// It covers:
// - Memory allocator setup and leak checking
// - Standard test DataFrame creation
// - Common DataFrame assertions
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dataframe"
	"github.com/paveg/tabula/internal/dtype"
	"github.com/paveg/tabula/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// defaultRowCount is the default number of rows in test DataFrames.
	defaultRowCount = 4
)

// TestMemoryContext provides a memory allocator with cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context. It is safe to call
// more than once.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
		tmc.cleanup = nil
	}
}

// SetupMemoryTest creates a Go allocator for tests.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	return &TestMemoryContext{Allocator: memory.NewGoAllocator()}
}

// SetupCheckedMemoryTest creates an allocator that fails the test on
// Release when any buffer allocated from it is still live.
func SetupCheckedMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	checked := memory.NewCheckedAllocator(memory.NewGoAllocator())
	return &TestMemoryContext{
		Allocator: checked,
		cleanup: func() {
			checked.AssertSize(tb, 0)
		},
	}
}

// TestDataFrameOption configures test DataFrame creation.
type TestDataFrameOption func(*testDataFrameConfig)

type testDataFrameConfig struct {
	includeNulls bool
	rowCount     int
	withActive   bool
}

// WithNulls makes every third salary null.
func WithNulls() TestDataFrameOption {
	return func(cfg *testDataFrameConfig) {
		cfg.includeNulls = true
	}
}

// WithRowCount sets the number of rows in test data.
func WithRowCount(count int) TestDataFrameOption {
	return func(cfg *testDataFrameConfig) {
		cfg.rowCount = count
	}
}

// WithActiveColumn includes an 'active' boolean column.
func WithActiveColumn() TestDataFrameOption {
	return func(cfg *testDataFrameConfig) {
		cfg.withActive = true
	}
}

// CreateTestDataFrame creates a standard test DataFrame with employee data.
//
// Default DataFrame includes:
// - name (Utf8): ["Alice", "Bob", "Charlie", "David"]
// - age (Int64): [25, 30, 35, 28]
// - department (Utf8): ["Engineering", "Sales", "Engineering", "Marketing"]
// - salary (Int64): [100000, 80000, 120000, 75000]
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
//	df := testutil.CreateTestDataFrame(t, mem.Allocator)
//	defer df.Release()
func CreateTestDataFrame(tb testing.TB, allocator memory.Allocator, opts ...TestDataFrameOption) *dataframe.DataFrame {
	tb.Helper()
	cfg := &testDataFrameConfig{rowCount: defaultRowCount}
	for _, opt := range opts {
		opt(cfg)
	}

	salaries := make([]any, cfg.rowCount)
	for i, v := range generateSalaries(cfg.rowCount) {
		if cfg.includeNulls && i%3 == 2 {
			continue
		}
		salaries[i] = v
	}
	salary, err := series.FromValuesWithType("salary", salaries, dtype.Int64, allocator)
	require.NoError(tb, err)

	columns := []*series.Series{
		series.New("name", generateNames(cfg.rowCount), allocator),
		series.New("age", generateAges(cfg.rowCount), allocator),
		series.New("department", generateDepartments(cfg.rowCount), allocator),
		salary,
	}
	if cfg.withActive {
		columns = append(columns, series.New("active", generateActiveFlags(cfg.rowCount), allocator))
	}
	return newFrame(tb, columns)
}

// CreateSimpleTestDataFrame creates a simple 2-column DataFrame for basic testing.
func CreateSimpleTestDataFrame(tb testing.TB, allocator memory.Allocator) *dataframe.DataFrame {
	tb.Helper()
	return newFrame(tb, []*series.Series{
		series.New("name", []string{"Alice", "Bob"}, allocator),
		series.New("age", []int64{25, 30}, allocator),
	})
}

func newFrame(tb testing.TB, columns []*series.Series) *dataframe.DataFrame {
	tb.Helper()
	defer func() {
		for _, col := range columns {
			col.Release()
		}
	}()
	df, err := dataframe.New(columns...)
	require.NoError(tb, err)
	return df
}

// AssertDataFrameEqual checks shape, names, types and values, treating
// nulls in the same position as equal.
func AssertDataFrameEqual(t *testing.T, expected, actual *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, expected, "expected DataFrame should not be nil")
	require.NotNil(t, actual, "actual DataFrame should not be nil")

	assert.Equal(t, expected.Columns(), actual.Columns(), "DataFrame columns should match")
	assert.Equal(t, expected.DTypes(), actual.DTypes(), "DataFrame dtypes should match")
	assert.True(t, expected.Equal(actual, true), "expected:\n%s\nactual:\n%s", expected, actual)
}

// AssertSeriesValues checks the values of one column of df.
func AssertSeriesValues(t *testing.T, df *dataframe.DataFrame, name string, expected []any) {
	t.Helper()

	col, ok := df.Column(name)
	require.True(t, ok, "DataFrame should have column %s", name)
	assert.Equal(t, expected, col.Values(), "values of column %s", name)
}

// AssertDataFrameHasColumns verifies that a DataFrame has the expected columns.
func AssertDataFrameHasColumns(t *testing.T, df *dataframe.DataFrame, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Len(t, df.Columns(), len(expectedColumns), "column count should match")
	for _, col := range expectedColumns {
		assert.True(t, df.HasColumn(col), "DataFrame should have column %s", col)
	}
}

// AssertDataFrameNotEmpty verifies that a DataFrame is not empty.
func AssertDataFrameNotEmpty(t *testing.T, df *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Positive(t, df.Len(), "DataFrame should not be empty")
	assert.Positive(t, df.Width(), "DataFrame should have columns")
}

// Helper functions for generating test data

func generateNames(count int) []string {
	return cycle([]string{"Alice", "Bob", "Charlie", "David", "Eve", "Frank", "Grace", "Henry"}, count)
}

func generateAges(count int) []int64 {
	return cycle([]int64{25, 30, 35, 28, 32, 45, 29, 38}, count)
}

func generateDepartments(count int) []string {
	return cycle([]string{"Engineering", "Sales", "Engineering", "Marketing", "HR", "Finance", "Engineering", "Sales"}, count)
}

func generateSalaries(count int) []int64 {
	return cycle([]int64{100000, 80000, 120000, 75000, 90000, 110000, 95000, 85000}, count)
}

func generateActiveFlags(count int) []bool {
	return cycle([]bool{true, true, false, true, true, false, true, false}, count)
}

func cycle[T any](base []T, count int) []T {
	out := make([]T, count)
	for i := range count {
		out[i] = base[i%len(base)]
	}
	return out
}
