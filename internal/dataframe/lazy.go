package dataframe

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/paveg/tabula/internal/config"
	"github.com/paveg/tabula/internal/monitoring"
	"github.com/paveg/tabula/internal/series"
)

// LazyOperation represents a deferred operation on a DataFrame
type LazyOperation interface {
	// Name identifies the operation kind in logs and metrics.
	Name() string
	Apply(df *DataFrame) (*DataFrame, error)
	String() string
}

// ColumnFunc computes a Series from the frame it is applied to.
type ColumnFunc func(df *DataFrame) (*series.Series, error)

// lazyOp adapts a closure to LazyOperation.
type lazyOp struct {
	name  string
	desc  string
	apply func(df *DataFrame) (*DataFrame, error)
}

func (o *lazyOp) Name() string                            { return o.name }
func (o *lazyOp) Apply(df *DataFrame) (*DataFrame, error) { return o.apply(df) }
func (o *lazyOp) String() string                          { return o.desc }

// LazyFrame records a chain of operations and runs them eagerly, in order,
// on Collect. Nothing is reordered or merged.
type LazyFrame struct {
	source     *DataFrame
	operations []LazyOperation
}

// Lazy starts a deferred chain over df. df must stay alive until Collect.
func (df *DataFrame) Lazy() *LazyFrame {
	return &LazyFrame{source: df}
}

// then returns a copy of lf with op appended.
func (lf *LazyFrame) then(op LazyOperation) *LazyFrame {
	ops := make([]LazyOperation, len(lf.operations), len(lf.operations)+1)
	copy(ops, lf.operations)
	return &LazyFrame{source: lf.source, operations: append(ops, op)}
}

func (lf *LazyFrame) add(name, desc string, apply func(df *DataFrame) (*DataFrame, error)) *LazyFrame {
	return lf.then(&lazyOp{name: name, desc: desc, apply: apply})
}

// Select keeps the named columns.
func (lf *LazyFrame) Select(columns ...string) *LazyFrame {
	return lf.add("Select", fmt.Sprintf("SELECT %s", strings.Join(columns, ", ")),
		func(df *DataFrame) (*DataFrame, error) { return df.Select(columns...) })
}

// Drop removes the named columns.
func (lf *LazyFrame) Drop(columns ...string) *LazyFrame {
	return lf.add("Drop", fmt.Sprintf("DROP %s", strings.Join(columns, ", ")),
		func(df *DataFrame) (*DataFrame, error) { return df.Drop(columns...) })
}

// WithColumn adds or replaces the column computed by fn under name.
func (lf *LazyFrame) WithColumn(name string, fn ColumnFunc) *LazyFrame {
	return lf.add("WithColumn", fmt.Sprintf("WITH COLUMN %s", name),
		func(df *DataFrame) (*DataFrame, error) {
			col, err := fn(df)
			if err != nil {
				return nil, err
			}
			defer col.Release()
			named := col.Rename(name)
			defer named.Release()
			return df.WithColumn(named)
		})
}

// Rename renames columns by mapping.
func (lf *LazyFrame) Rename(mapping map[string]string) *LazyFrame {
	return lf.add("Rename", fmt.Sprintf("RENAME %v", mapping),
		func(df *DataFrame) (*DataFrame, error) { return df.Rename(mapping) })
}

// Filter keeps the rows where the mask computed by predicate is true.
func (lf *LazyFrame) Filter(predicate ColumnFunc) *LazyFrame {
	return lf.add("Filter", "FILTER", func(df *DataFrame) (*DataFrame, error) {
		mask, err := predicate(df)
		if err != nil {
			return nil, fmt.Errorf("evaluating filter predicate: %w", err)
		}
		defer mask.Release()
		return df.Filter(mask)
	})
}

// Sort orders the rows.
func (lf *LazyFrame) Sort(opts SortOptions) *LazyFrame {
	return lf.add("Sort", fmt.Sprintf("SORT BY %s %v", strings.Join(opts.By, ", "), opts.Reverse),
		func(df *DataFrame) (*DataFrame, error) { return df.Sort(opts) })
}

// Join joins with another lazy chain, collected when this one is.
func (lf *LazyFrame) Join(right *LazyFrame, opts JoinOptions) *LazyFrame {
	how := opts.How
	if how == "" {
		how = InnerJoin
	}
	keys := opts.On
	if len(keys) == 0 {
		keys = append(append([]string{}, opts.LeftOn...), opts.RightOn...)
	}
	desc := fmt.Sprintf("%s JOIN ON %s", strings.ToUpper(string(how)), strings.Join(keys, ", "))
	return lf.add("Join", desc, func(df *DataFrame) (*DataFrame, error) {
		rightDF, err := right.Collect()
		if err != nil {
			return nil, fmt.Errorf("collecting right DataFrame for join: %w", err)
		}
		defer rightDF.Release()
		return df.Join(rightDF, opts)
	})
}

// Head keeps the first n rows.
func (lf *LazyFrame) Head(n int) *LazyFrame {
	return lf.add("Head", fmt.Sprintf("HEAD %d", n),
		func(df *DataFrame) (*DataFrame, error) { return df.Head(n), nil })
}

// Slice keeps length rows from offset.
func (lf *LazyFrame) Slice(offset, length int) *LazyFrame {
	return lf.add("Slice", fmt.Sprintf("SLICE %d, %d", offset, length),
		func(df *DataFrame) (*DataFrame, error) { return df.Slice(offset, length), nil })
}

// DropDuplicates removes repeated rows.
func (lf *LazyFrame) DropDuplicates(opts DropDuplicatesOptions) *LazyFrame {
	return lf.add("DropDuplicates", fmt.Sprintf("DISTINCT %s", strings.Join(opts.Subset, ", ")),
		func(df *DataFrame) (*DataFrame, error) { return df.DropDuplicates(opts) })
}

// DropNulls removes rows holding nulls.
func (lf *LazyFrame) DropNulls(subset ...string) *LazyFrame {
	return lf.add("DropNulls", fmt.Sprintf("DROP NULLS %s", strings.Join(subset, ", ")),
		func(df *DataFrame) (*DataFrame, error) { return df.DropNulls(subset...) })
}

// FillNull fills nulls with a strategy.
func (lf *LazyFrame) FillNull(strategy string) *LazyFrame {
	return lf.add("FillNull", fmt.Sprintf("FILL NULL %s", strategy),
		func(df *DataFrame) (*DataFrame, error) { return df.FillNull(strategy) })
}

// Explode expands list columns.
func (lf *LazyFrame) Explode(columns ...string) *LazyFrame {
	return lf.add("Explode", fmt.Sprintf("EXPLODE %s", strings.Join(columns, ", ")),
		func(df *DataFrame) (*DataFrame, error) { return df.Explode(columns...) })
}

// LazyGroupBy is a grouping awaiting its aggregations.
type LazyGroupBy struct {
	lf            *LazyFrame
	by            []string
	maintainOrder bool
}

// GroupBy groups by key columns; follow with Agg.
func (lf *LazyFrame) GroupBy(by ...string) *LazyGroupBy {
	return &LazyGroupBy{lf: lf, by: by}
}

// MaintainOrder keeps groups in order of first occurrence.
func (lgb *LazyGroupBy) MaintainOrder() *LazyGroupBy {
	lgb.maintainOrder = true
	return lgb
}

// Agg completes the grouping.
func (lgb *LazyGroupBy) Agg(aggs ...Aggregation) *LazyFrame {
	parts := make([]string, len(aggs))
	for i, agg := range aggs {
		parts[i] = fmt.Sprintf("%s(%s)", strings.ToUpper(agg.Func), agg.Column)
	}
	desc := fmt.Sprintf("GROUP BY %s AGG %s", strings.Join(lgb.by, ", "), strings.Join(parts, ", "))
	return lgb.lf.add("GroupBy", desc, func(df *DataFrame) (*DataFrame, error) {
		gb, err := df.GroupBy(lgb.by...)
		if err != nil {
			return nil, err
		}
		if lgb.maintainOrder {
			gb.MaintainOrder()
		}
		return gb.Agg(aggs...)
	})
}

// Operations returns the recorded operations in order.
func (lf *LazyFrame) Operations() []LazyOperation {
	return append([]LazyOperation(nil), lf.operations...)
}

// Collect executes all deferred operations and returns the resulting DataFrame
func (lf *LazyFrame) Collect() (*DataFrame, error) {
	if lf.source == nil {
		return Empty(), nil
	}
	cfg := config.GetGlobalConfig()
	logger := config.Logger(cfg, os.Stderr)

	current := lf.source.Clone()
	for i, op := range lf.operations {
		var result *DataFrame
		start := time.Now()
		run := func() (int, error) {
			var err error
			result, err = op.Apply(current)
			if err != nil {
				return 0, err
			}
			return result.Len(), nil
		}

		var err error
		if cfg.MetricsCollection {
			err = monitoring.RecordGlobalOperation(op.Name(), run)
		} else {
			_, err = run()
		}
		current.Release()
		if err != nil {
			logger.Debug("collect failed", slog.Int("step", i+1), slog.String("op", op.Name()), slog.Any("error", err))
			return nil, err
		}
		logger.Debug("collect",
			slog.Int("step", i+1),
			slog.String("op", op.Name()),
			slog.String("plan", op.String()),
			slog.Int("rows", result.Len()),
			slog.Duration("elapsed", time.Since(start)),
		)
		current = result
	}
	return current, nil
}

// String returns a string representation of the lazy frame and its operations
func (lf *LazyFrame) String() string {
	var b strings.Builder
	b.WriteString("LazyFrame:\n")
	if lf.source != nil {
		h, w := lf.source.Shape()
		fmt.Fprintf(&b, "  source: shape (%d, %d)\n", h, w)
	}
	b.WriteString("  operations:\n")
	for i, op := range lf.operations {
		fmt.Fprintf(&b, "    %d. %s\n", i+1, op.String())
	}
	return b.String()
}
