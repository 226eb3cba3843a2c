package dataframe

import (
	"fmt"
	"slices"

	"github.com/paveg/tabula/internal/config"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/parallel"
	"github.com/paveg/tabula/internal/series"
	"github.com/paveg/tabula/internal/validation"
)

// Aggregation functions understood by GroupBy.Agg.
const (
	AggSum      = "sum"
	AggMean     = "mean"
	AggMin      = "min"
	AggMax      = "max"
	AggMedian   = "median"
	AggFirst    = "first"
	AggLast     = "last"
	AggCount    = "count"
	AggNUnique  = "n_unique"
	AggStd      = "std"
	AggVar      = "var"
	AggQuantile = "quantile"
	AggList     = "list"
)

// minGroupsForParallel is the group count from which columns are
// aggregated concurrently.
const minGroupsForParallel = 100

// Aggregation reduces one column per group.
type Aggregation struct {
	Column string
	Func   string
	// Alias names the output column. Defaults to Column.
	Alias string
	// Ddof is used by std and var.
	Ddof int
	// Quantile and Interpolation are used by quantile.
	Quantile      float64
	Interpolation string
}

func (a Aggregation) name() string {
	if a.Alias != "" {
		return a.Alias
	}
	return a.Column
}

// GroupBy partitions the rows of a DataFrame by the values of its key
// columns. Rows whose keys are equal, nulls included, share a group.
type GroupBy struct {
	df            *DataFrame
	by            []string
	groups        [][]int
	maintainOrder bool
}

// GroupBy groups the rows by the given key columns.
func (df *DataFrame) GroupBy(by ...string) (*GroupBy, error) {
	if len(by) == 0 {
		return nil, dferrors.NewConfigError("GroupBy", "no group columns given")
	}
	cols, err := df.subset("GroupBy", by)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateColumnNames("GroupBy", by...); err != nil {
		return nil, err
	}

	ids, sizes := groupRows(rowKeys(cols, df.Len()))
	groups := make([][]int, len(sizes))
	for id, size := range sizes {
		groups[id] = make([]int, 0, size)
	}
	for r, id := range ids {
		groups[id] = append(groups[id], r)
	}
	return &GroupBy{df: df, by: by, groups: groups}, nil
}

// MaintainOrder makes results list groups in order of their first row.
// Otherwise groups are ordered by key, nulls last.
func (gb *GroupBy) MaintainOrder() *GroupBy {
	gb.maintainOrder = true
	return gb
}

// NGroups returns the number of groups.
func (gb *GroupBy) NGroups() int {
	return len(gb.groups)
}

// ordered returns the groups in output order.
func (gb *GroupBy) ordered() [][]int {
	if gb.maintainOrder {
		return gb.groups
	}
	keys := make([][]any, len(gb.by))
	for i, name := range gb.by {
		keys[i] = gb.df.columns[name].Values()
	}
	out := slices.Clone(gb.groups)
	slices.SortStableFunc(out, func(a, b []int) int {
		for _, vals := range keys {
			if c := series.CompareNullsLast(vals[a[0]], vals[b[0]], false); c != 0 {
				return c
			}
		}
		return 0
	})
	return out
}

// keyColumns returns the key columns holding one row per group.
func (gb *GroupBy) keyColumns(groups [][]int) []*series.Series {
	first := make([]int, len(groups))
	for i, rows := range groups {
		first[i] = rows[0]
	}
	out := make([]*series.Series, len(gb.by))
	for i, name := range gb.by {
		out[i] = gb.df.columns[name].TakeIndices(first)
	}
	return out
}

// valueColumns returns every column that is not a key.
func (gb *GroupBy) valueColumns() []string {
	var out []string
	for _, name := range gb.df.order {
		if !slices.Contains(gb.by, name) {
			out = append(out, name)
		}
	}
	return out
}

// Agg computes one row per group holding the keys followed by one column
// per aggregation.
func (gb *GroupBy) Agg(aggs ...Aggregation) (*DataFrame, error) {
	for _, agg := range aggs {
		if err := validation.ValidateColumns(gb.df, "Agg", agg.Column); err != nil {
			return nil, err
		}
	}
	groups := gb.ordered()
	out := gb.keyColumns(groups)

	aggregate := func(_ int, agg Aggregation) aggResult {
		col, err := aggregateColumn(gb.df.columns[agg.Column], groups, agg)
		return aggResult{col, err}
	}
	var results []aggResult
	cfg := config.GetGlobalConfig()
	if len(groups) >= minGroupsForParallel && cfg.ShouldParallelize(gb.df.Len(), config.OperationConfig{}) {
		pool := parallel.NewWorkerPoolFromConfig(cfg)
		defer pool.Close()
		results = parallel.ProcessIndexed(pool, aggs, aggregate)
	} else {
		results = make([]aggResult, len(aggs))
		for i, agg := range aggs {
			results[i] = aggregate(i, agg)
		}
	}

	var firstErr error
	for _, res := range results {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		if res.col != nil {
			out = append(out, res.col)
		}
	}
	if firstErr != nil {
		releaseAll(out)
		return nil, firstErr
	}
	return fromValidated("Agg", out)
}

type aggResult struct {
	col *series.Series
	err error
}

// AggMap aggregates each named column with each listed function. Columns
// appear in frame order; a column with several functions gets output
// columns named column_function.
func (gb *GroupBy) AggMap(funcsByColumn map[string][]string) (*DataFrame, error) {
	var aggs []Aggregation
	for _, name := range gb.df.order {
		funcs, ok := funcsByColumn[name]
		if !ok {
			continue
		}
		for _, fn := range funcs {
			agg := Aggregation{Column: name, Func: fn, Ddof: 1, Quantile: 0.5, Interpolation: series.InterpolLinear}
			if len(funcs) > 1 {
				agg.Alias = fmt.Sprintf("%s_%s", name, fn)
			}
			aggs = append(aggs, agg)
		}
	}
	for name := range funcsByColumn {
		if !gb.df.HasColumn(name) {
			return nil, dferrors.NewColumnNotFoundError("Agg", name)
		}
	}
	return gb.Agg(aggs...)
}

// all applies one aggregation to every value column.
func (gb *GroupBy) all(template Aggregation) (*DataFrame, error) {
	var aggs []Aggregation
	for _, name := range gb.valueColumns() {
		agg := template
		agg.Column = name
		aggs = append(aggs, agg)
	}
	return gb.Agg(aggs...)
}

// Sum sums every value column per group.
func (gb *GroupBy) Sum() (*DataFrame, error) { return gb.all(Aggregation{Func: AggSum}) }

// Mean averages every value column per group.
func (gb *GroupBy) Mean() (*DataFrame, error) { return gb.all(Aggregation{Func: AggMean}) }

// Min takes the minimum of every value column per group.
func (gb *GroupBy) Min() (*DataFrame, error) { return gb.all(Aggregation{Func: AggMin}) }

// Max takes the maximum of every value column per group.
func (gb *GroupBy) Max() (*DataFrame, error) { return gb.all(Aggregation{Func: AggMax}) }

// Median takes the median of every value column per group.
func (gb *GroupBy) Median() (*DataFrame, error) { return gb.all(Aggregation{Func: AggMedian}) }

// First takes the first row of every group.
func (gb *GroupBy) First() (*DataFrame, error) { return gb.all(Aggregation{Func: AggFirst}) }

// Last takes the last row of every group.
func (gb *GroupBy) Last() (*DataFrame, error) { return gb.all(Aggregation{Func: AggLast}) }

// NUnique counts the distinct values of every value column per group.
func (gb *GroupBy) NUnique() (*DataFrame, error) { return gb.all(Aggregation{Func: AggNUnique}) }

// Std computes the standard deviation of every value column per group.
func (gb *GroupBy) Std(ddof int) (*DataFrame, error) {
	return gb.all(Aggregation{Func: AggStd, Ddof: ddof})
}

// Var computes the variance of every value column per group.
func (gb *GroupBy) Var(ddof int) (*DataFrame, error) {
	return gb.all(Aggregation{Func: AggVar, Ddof: ddof})
}

// Quantile computes the q-th quantile of every value column per group.
func (gb *GroupBy) Quantile(q float64, interp string) (*DataFrame, error) {
	return gb.all(Aggregation{Func: AggQuantile, Quantile: q, Interpolation: interp})
}

// AggList collects the values of every value column per group into lists.
func (gb *GroupBy) AggList() (*DataFrame, error) { return gb.all(Aggregation{Func: AggList}) }

// Count returns the keys and the number of rows of each group in a UInt32
// column named "count".
func (gb *GroupBy) Count() (*DataFrame, error) {
	groups := gb.ordered()
	sizes := make([]uint32, len(groups))
	for i, rows := range groups {
		sizes[i] = uint32(len(rows)) //nolint:gosec // row counts fit
	}
	out := append(gb.keyColumns(groups), series.New("count", sizes, gb.df.mem))
	return fromValidated("Count", out)
}

// Head returns the first n rows of every group, groups in output order.
func (gb *GroupBy) Head(n int) *DataFrame {
	var idx []int
	for _, rows := range gb.ordered() {
		idx = append(idx, rows[:min(max(n, 0), len(rows))]...)
	}
	return gb.df.takeRows(idx)
}

// aggregateColumn reduces col once per group. Numeric reductions skip nulls
// and yield null for a group holding only nulls.
func aggregateColumn(col *series.Series, groups [][]int, agg Aggregation) (*series.Series, error) {
	dt := col.DataType()
	numeric := col.IsNumeric()

	var out dtype.DataType
	var reduce func(*series.Series) (any, error)
	switch agg.Func {
	case AggSum:
		out = series.SumType(dt)
		reduce = func(s *series.Series) (any, error) { return s.Sum(), nil }
	case AggMin:
		out = dt
		numeric = !dt.IsNested()
		reduce = func(s *series.Series) (any, error) { return s.Min(), nil }
	case AggMax:
		out = dt
		numeric = !dt.IsNested()
		reduce = func(s *series.Series) (any, error) { return s.Max(), nil }
	case AggMean:
		out = dtype.Float64
		reduce = func(s *series.Series) (any, error) { return s.Mean(), nil }
	case AggMedian:
		out = dtype.Float64
		reduce = func(s *series.Series) (any, error) { return s.Median(), nil }
	case AggStd:
		out = dtype.Float64
		reduce = func(s *series.Series) (any, error) { return s.Std(agg.Ddof), nil }
	case AggVar:
		out = dtype.Float64
		reduce = func(s *series.Series) (any, error) { return s.Var(agg.Ddof), nil }
	case AggQuantile:
		out = dtype.Float64
		reduce = func(s *series.Series) (any, error) { return s.Quantile(agg.Quantile, agg.Interpolation) }
	case AggFirst, AggLast, AggCount, AggNUnique, AggList:
		return gatherColumn(col, groups, agg)
	default:
		return nil, dferrors.NewConfigError("Agg", "unknown aggregation %q", agg.Func)
	}

	values := make([]any, len(groups))
	if !numeric {
		return series.FromValuesWithType(agg.name(), values, dt, col.Allocator())
	}
	for g, rows := range groups {
		part := col.TakeIndices(rows)
		if part.NullCount() < part.Len() {
			v, err := reduce(part)
			if err != nil {
				part.Release()
				return nil, err
			}
			values[g] = v
		}
		part.Release()
	}
	return series.FromValuesWithType(agg.name(), values, out, col.Allocator())
}

// gatherColumn handles the aggregations that pick or count values instead
// of reducing them numerically.
func gatherColumn(col *series.Series, groups [][]int, agg Aggregation) (*series.Series, error) {
	all := col.Values()
	values := make([]any, len(groups))
	out := col.DataType()
	for g, rows := range groups {
		switch agg.Func {
		case AggFirst:
			values[g] = all[rows[0]]
		case AggLast:
			values[g] = all[rows[len(rows)-1]]
		case AggCount:
			n := uint32(0)
			for _, r := range rows {
				if all[r] != nil {
					n++
				}
			}
			values[g] = n
		case AggNUnique:
			part := col.TakeIndices(rows)
			values[g] = uint32(part.NUnique()) //nolint:gosec // counts fit
			part.Release()
		case AggList:
			list := make([]any, len(rows))
			for i, r := range rows {
				list[i] = all[r]
			}
			values[g] = list
		}
	}
	switch agg.Func {
	case AggCount, AggNUnique:
		out = dtype.UInt32
	case AggList:
		out = dtype.List(col.DataType())
	}
	return series.FromValuesWithType(agg.name(), values, out, col.Allocator())
}
