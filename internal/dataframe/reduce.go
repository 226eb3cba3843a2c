package dataframe

import (
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/series"
)

// reduceColumns builds a one-row frame holding reduce(col) for every
// column. Numeric columns produce a value of type out(col); other columns
// produce a null of their own type.
func (df *DataFrame) reduceColumns(
	reduce func(*series.Series) (any, error),
	out func(dtype.DataType) dtype.DataType,
) (*DataFrame, error) {
	return df.mapColumns(func(col *series.Series) (*series.Series, error) {
		if !col.IsNumeric() {
			return series.FromValuesWithType(col.Name(), []any{nil}, col.DataType(), df.mem)
		}
		v, err := reduce(col)
		if err != nil {
			return nil, err
		}
		return series.FromValuesWithType(col.Name(), []any{v}, out(col.DataType()), df.mem)
	})
}

func same(dt dtype.DataType) dtype.DataType { return dt }

func float(dtype.DataType) dtype.DataType { return dtype.Float64 }

func scalar(fn func(*series.Series) any) func(*series.Series) (any, error) {
	return func(col *series.Series) (any, error) { return fn(col), nil }
}

// Sum reduces each column to its sum.
func (df *DataFrame) Sum() *DataFrame {
	out, _ := df.reduceColumns(scalar((*series.Series).Sum), series.SumType)
	return out
}

// Min reduces each column to its minimum.
func (df *DataFrame) Min() *DataFrame {
	out, _ := df.reduceColumns(scalar((*series.Series).Min), same)
	return out
}

// Max reduces each column to its maximum.
func (df *DataFrame) Max() *DataFrame {
	out, _ := df.reduceColumns(scalar((*series.Series).Max), same)
	return out
}

// Mean reduces each column to its mean.
func (df *DataFrame) Mean() *DataFrame {
	out, _ := df.reduceColumns(scalar((*series.Series).Mean), float)
	return out
}

// Median reduces each column to its median.
func (df *DataFrame) Median() *DataFrame {
	out, _ := df.reduceColumns(scalar((*series.Series).Median), float)
	return out
}

// Std reduces each column to its standard deviation.
func (df *DataFrame) Std(ddof int) *DataFrame {
	out, _ := df.reduceColumns(scalar(func(s *series.Series) any { return s.Std(ddof) }), float)
	return out
}

// Var reduces each column to its variance.
func (df *DataFrame) Var(ddof int) *DataFrame {
	out, _ := df.reduceColumns(scalar(func(s *series.Series) any { return s.Var(ddof) }), float)
	return out
}

// Quantile reduces each column to its q-th quantile.
func (df *DataFrame) Quantile(q float64, interp string) (*DataFrame, error) {
	return df.reduceColumns(func(s *series.Series) (any, error) { return s.Quantile(q, interp) }, float)
}

// Null handling modes of MeanHorizontal.
const (
	NullPropagate = "propagate"
	NullIgnore    = "ignore"
)

// horizontal reduces across each row. Every column must be numeric; cells
// are coerced to the promoted type of all columns before being passed to
// reduce as the row's non-null values. nulls reports whether the row held
// any null.
func (df *DataFrame) horizontal(
	op, name string,
	outType func(dtype.DataType) dtype.DataType,
	reduce func(present []any, nulls bool, out dtype.DataType) any,
) (*series.Series, error) {
	cols := df.ordered()
	if len(cols) == 0 {
		return nil, dferrors.NewInvalidInputError(op, "frame has no columns")
	}
	promoted := cols[0].DataType()
	for _, col := range cols {
		if !col.IsNumeric() {
			return nil, dferrors.NewTypeMismatchError(op, col.Name(),
				"expected a numeric column, got %s", col.DataType())
		}
		var err error
		if promoted, err = dtype.Promote(promoted, col.DataType()); err != nil {
			return nil, err
		}
	}
	out := outType(promoted)

	values := make([][]any, len(cols))
	for i, col := range cols {
		values[i] = col.Values()
	}
	result := make([]any, df.Len())
	row := make([]any, 0, len(cols))
	for r := range result {
		row = row[:0]
		nulls := false
		for _, vals := range values {
			if vals[r] == nil {
				nulls = true
				continue
			}
			v, err := dtype.Coerce(vals[r], out, false)
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
		result[r] = reduce(row, nulls, out)
	}
	return series.FromValuesWithType(name, result, out, df.mem)
}

func sumValues(present []any, out dtype.DataType) any {
	switch {
	case out.IsFloat():
		var total float64
		for _, v := range present {
			f, _ := dtype.ToFloat64(v)
			total += f
		}
		v, _ := dtype.Coerce(total, out, false)
		return v
	case out.IsSigned():
		var total int64
		for _, v := range present {
			i, _ := dtype.Coerce(v, dtype.Int64, false)
			total += i.(int64)
		}
		v, _ := dtype.Coerce(total, out, false)
		return v
	default:
		var total uint64
		for _, v := range present {
			u, _ := dtype.Coerce(v, dtype.UInt64, false)
			total += u.(uint64)
		}
		v, _ := dtype.Coerce(total, out, false)
		return v
	}
}

// SumHorizontal sums across each row, skipping nulls. A row of nulls sums
// to null.
func (df *DataFrame) SumHorizontal() (*series.Series, error) {
	return df.horizontal("SumHorizontal", "sum", series.SumType, func(present []any, _ bool, out dtype.DataType) any {
		if len(present) == 0 {
			return nil
		}
		return sumValues(present, out)
	})
}

func extremeOf(better func(int) bool) func([]any, bool, dtype.DataType) any {
	return func(present []any, _ bool, _ dtype.DataType) any {
		var best any
		for _, v := range present {
			if best == nil || better(series.Compare(v, best)) {
				best = v
			}
		}
		return best
	}
}

// MinHorizontal returns the smallest non-null value of each row.
func (df *DataFrame) MinHorizontal() (*series.Series, error) {
	return df.horizontal("MinHorizontal", "min", same, extremeOf(func(c int) bool { return c < 0 }))
}

// MaxHorizontal returns the largest non-null value of each row.
func (df *DataFrame) MaxHorizontal() (*series.Series, error) {
	return df.horizontal("MaxHorizontal", "max", same, extremeOf(func(c int) bool { return c > 0 }))
}

// MeanHorizontal averages across each row. With NullPropagate, the default,
// a row holding any null averages to null; with NullIgnore nulls are left
// out of the average.
func (df *DataFrame) MeanHorizontal(mode string) (*series.Series, error) {
	switch mode {
	case "", NullPropagate, NullIgnore:
	default:
		return nil, dferrors.NewConfigError("MeanHorizontal", "unknown null handling mode %q", mode)
	}
	return df.horizontal("MeanHorizontal", "mean", float, func(present []any, nulls bool, _ dtype.DataType) any {
		if len(present) == 0 || (nulls && mode != NullIgnore) {
			return nil
		}
		var total float64
		for _, v := range present {
			total += v.(float64)
		}
		return total / float64(len(present))
	})
}

// describeStats are the rows of Describe, in order.
var describeStats = []string{"mean", "std", "min", "max", "median"}

// Describe summarizes every column with the statistics mean, std, min, max
// and median. The first column, "describe", names the statistic. Values are
// Float64; non-numeric columns are null throughout.
func (df *DataFrame) Describe() (*DataFrame, error) {
	labels := make([]any, len(describeStats))
	for i, stat := range describeStats {
		labels[i] = stat
	}
	header, err := series.FromValuesWithType("describe", labels, dtype.Utf8, df.mem)
	if err != nil {
		return nil, err
	}
	if df.HasColumn("describe") {
		header.Release()
		return nil, dferrors.NewDuplicateColumnError("Describe", "describe")
	}

	columns := []*series.Series{header}
	for _, col := range df.ordered() {
		values := make([]any, len(describeStats))
		if col.IsNumeric() {
			stats := []any{col.Mean(), col.Std(1), col.Min(), col.Max(), col.Median()}
			for i, v := range stats {
				if f, ok := dtype.ToFloat64(v); ok && v != nil {
					values[i] = f
				}
			}
		}
		summary, err := series.FromValuesWithType(col.Name(), values, dtype.Float64, df.mem)
		if err != nil {
			releaseAll(columns)
			return nil, err
		}
		columns = append(columns, summary)
	}
	return df.derive(columns), nil
}
