//nolint:testpackage // requires internal access to unexported types and functions
package dataframe

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/config"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/monitoring"
	"github.com/paveg/tabula/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func column(name string) ColumnFunc {
	return func(df *DataFrame) (*series.Series, error) {
		return df.GetColumn(name)
	}
}

func olderThan(age int64) ColumnFunc {
	return func(df *DataFrame) (*series.Series, error) {
		col, err := df.GetColumn("age")
		if err != nil {
			return nil, err
		}
		return col.Gt(age)
	}
}

func TestLazyFrameCollect(t *testing.T) {
	df := createTestDataFrame(t)
	defer df.Release()

	doubled := func(df *DataFrame) (*series.Series, error) {
		col, err := df.GetColumn("salary")
		if err != nil {
			return nil, err
		}
		return col.Mul(2.0)
	}

	lf := df.Lazy().
		Filter(olderThan(28)).
		WithColumn("double", doubled).
		Select("name", "double").
		Sort(SortOptions{By: []string{"double"}, Reverse: []bool{true}})

	assert.Len(t, lf.Operations(), 4)

	out, err := lf.Collect()
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []string{"name", "double"}, out.Columns())
	assert.Equal(t, []any{"Charlie", "Bob"}, values(t, out, "name"))
	assert.Equal(t, []any{140000.0, 120000.0}, values(t, out, "double"))
	assert.Equal(t, 3, df.Len(), "source is untouched")
}

func TestLazyFrameImmutableChain(t *testing.T) {
	df := createTestDataFrame(t)
	defer df.Release()

	base := df.Lazy().Head(2)
	a := base.Select("name")
	b := base.Select("age")

	assert.Len(t, base.Operations(), 1)
	assert.Len(t, a.Operations(), 2)

	outA, err := a.Collect()
	require.NoError(t, err)
	defer outA.Release()
	outB, err := b.Collect()
	require.NoError(t, err)
	defer outB.Release()

	assert.Equal(t, []string{"name"}, outA.Columns())
	assert.Equal(t, []string{"age"}, outB.Columns())
	assert.Equal(t, 2, outB.Len())
}

func TestLazyFrameErrors(t *testing.T) {
	df := createTestDataFrame(t)
	defer df.Release()

	_, err := df.Lazy().Select("missing").Head(1).Collect()
	assert.ErrorIs(t, err, dferrors.ErrColumnNotFound)

	boom := errors.New("boom")
	_, err = df.Lazy().Filter(func(*DataFrame) (*series.Series, error) { return nil, boom }).Collect()
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "filter predicate")

	_, err = df.Lazy().WithColumn("x", column("missing")).Collect()
	assert.ErrorIs(t, err, dferrors.ErrColumnNotFound)
}

func TestLazyFrameGroupByAndJoin(t *testing.T) {
	mem := memory.NewGoAllocator()
	sales := newFrame(t,
		series.New("region", []string{"n", "s", "n", "e"}, mem),
		series.New("amount", []float64{10, 20, 30, 40}, mem),
	)
	defer sales.Release()
	regions := newFrame(t,
		series.New("region", []string{"n", "s"}, mem),
		series.New("label", []string{"north", "south"}, mem),
	)
	defer regions.Release()

	out, err := sales.Lazy().
		GroupBy("region").MaintainOrder().
		Agg(Aggregation{Column: "amount", Func: AggSum, Alias: "total"}).
		Join(regions.Lazy(), JoinOptions{On: []string{"region"}, How: LeftJoin}).
		Collect()
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []string{"region", "total", "label"}, out.Columns())
	assert.Equal(t, []any{"n", "s", "e"}, values(t, out, "region"))
	assert.Equal(t, []any{40.0, 20.0, 40.0}, values(t, out, "total"))
	assert.Equal(t, []any{"north", "south", nil}, values(t, out, "label"))
}

func TestLazyFrameRowOperations(t *testing.T) {
	df := newFrame(t,
		nullable(t, "a", 1.0, nil, 1.0, 2.0),
		nullable(t, "b", []any{"x", "y"}, []any{"z"}, []any{"x", "y"}, nil),
	)
	defer df.Release()

	out, err := df.Lazy().
		DropDuplicates(DropDuplicatesOptions{}).
		FillNull(series.FillZero).
		Slice(0, 2).
		Explode("b").
		Collect()
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []any{1.0, 1.0, 0.0}, values(t, out, "a"))
	assert.Equal(t, []any{"x", "y", "z"}, values(t, out, "b"))

	dropped, err := df.Lazy().DropNulls("a").Drop("b").Rename(map[string]string{"a": "c"}).Collect()
	require.NoError(t, err)
	defer dropped.Release()
	assert.Equal(t, []string{"c"}, dropped.Columns())
	assert.Equal(t, 3, dropped.Len())
}

func TestLazyFrameMetrics(t *testing.T) {
	originalConfig := config.GetGlobalConfig()
	defer config.SetGlobalConfig(originalConfig)
	originalCollector := monitoring.GetGlobalCollector()
	defer monitoring.SetGlobalCollector(originalCollector)

	cfg := config.NewConfig()
	cfg.MetricsCollection = true
	config.SetGlobalConfig(cfg)
	collector := monitoring.EnableGlobalMonitoring()

	df := createTestDataFrame(t)
	defer df.Release()

	out, err := df.Lazy().Filter(olderThan(28)).Head(1).Collect()
	require.NoError(t, err)
	defer out.Release()

	metrics := collector.GetMetrics()
	require.Len(t, metrics, 2)
	assert.Equal(t, "Filter", metrics[0].Operation)
	assert.Equal(t, int64(2), metrics[0].RowsProcessed)
	assert.Equal(t, "Head", metrics[1].Operation)
	assert.Equal(t, int64(1), metrics[1].RowsProcessed)
}

func TestLazyFrameString(t *testing.T) {
	df := createTestDataFrame(t)
	defer df.Release()

	plan := df.Lazy().
		Select("name", "age").
		Join(df.Lazy(), JoinOptions{On: []string{"name"}, How: OuterJoin}).
		GroupBy("name").Agg(Aggregation{Column: "age", Func: AggMax}).
		String()

	assert.Contains(t, plan, "source: shape (3, 3)")
	assert.Contains(t, plan, "1. SELECT name, age")
	assert.Contains(t, plan, "2. OUTER JOIN ON name")
	assert.Contains(t, plan, "3. GROUP BY name AGG MAX(age)")

	empty := (&LazyFrame{}).String()
	assert.NotContains(t, empty, "source")

	out, err := (&LazyFrame{}).Collect()
	require.NoError(t, err)
	assert.Equal(t, 0, out.Width())
}
