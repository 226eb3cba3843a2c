package dataframe

import (
	"encoding/binary"
	stderrors "errors"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/paveg/tabula/internal/config"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/parallel"
	"github.com/paveg/tabula/internal/series"
	"github.com/paveg/tabula/internal/validation"
)

// Row returns the values of row i in column order.
func (df *DataFrame) Row(i int) ([]any, error) {
	if err := validation.ValidateIndex(i, df.Len(), "Row"); err != nil {
		return nil, err
	}
	row := make([]any, len(df.order))
	for c, col := range df.ordered() {
		row[c] = col.Value(i)
	}
	return row, nil
}

// Rows returns every row as a slice of values.
func (df *DataFrame) Rows() [][]any {
	rows := make([][]any, df.Len())
	for r := range rows {
		rows[r] = make([]any, len(df.order))
	}
	for c, col := range df.ordered() {
		for r, v := range col.All() {
			rows[r][c] = v
		}
	}
	return rows
}

// takeRows gathers rows by position. A negative position yields a null row.
func (df *DataFrame) takeRows(indices []int) *DataFrame {
	columns := make([]*series.Series, len(df.order))
	for i, col := range df.ordered() {
		columns[i] = col.TakeIndices(indices)
	}
	return df.derive(columns)
}

// Take gathers rows by position.
func (df *DataFrame) Take(indices []int) (*DataFrame, error) {
	for _, i := range indices {
		if err := validation.ValidateIndex(i, df.Len(), "Take"); err != nil {
			return nil, err
		}
	}
	return df.takeRows(indices), nil
}

// Slice returns length rows starting at offset. A negative offset counts
// from the end.
func (df *DataFrame) Slice(offset, length int) *DataFrame {
	columns := make([]*series.Series, len(df.order))
	for i, col := range df.ordered() {
		columns[i] = col.Slice(offset, length)
	}
	return df.derive(columns)
}

// Head returns the first n rows.
func (df *DataFrame) Head(n int) *DataFrame {
	return df.Slice(0, n)
}

// Limit is Head.
func (df *DataFrame) Limit(n int) *DataFrame {
	return df.Head(n)
}

// Tail returns the last n rows.
func (df *DataFrame) Tail(n int) *DataFrame {
	n = min(max(n, 0), df.Len())
	return df.Slice(df.Len()-n, n)
}

// Filter keeps the rows where mask is true. Null mask entries drop the row.
func (df *DataFrame) Filter(mask *series.Series) (*DataFrame, error) {
	idx, err := series.MaskIndices(mask, df.Len())
	if err != nil {
		return nil, err
	}
	return df.takeRows(idx), nil
}

// Sample returns a random sample of rows.
func (df *DataFrame) Sample(opts series.SampleOptions) (*DataFrame, error) {
	idx, err := series.SampleIndices(df.Len(), opts)
	if err != nil {
		return nil, err
	}
	return df.takeRows(idx), nil
}

// Shift moves every column by periods rows, filling with nulls.
func (df *DataFrame) Shift(periods int) *DataFrame {
	out, _ := df.mapColumns(func(col *series.Series) (*series.Series, error) {
		return col.Shift(periods), nil
	})
	return out
}

// ShiftAndFill moves every column by periods rows, filling with fill.
func (df *DataFrame) ShiftAndFill(periods int, fill any) (*DataFrame, error) {
	return df.mapColumns(func(col *series.Series) (*series.Series, error) {
		return col.ShiftAndFill(periods, fill)
	})
}

// subset resolves column names to series, defaulting to every column.
func (df *DataFrame) subset(op string, names []string) ([]*series.Series, error) {
	if len(names) == 0 {
		return df.ordered(), nil
	}
	if err := validation.ValidateColumns(df, op, names...); err != nil {
		return nil, err
	}
	out := make([]*series.Series, len(names))
	for i, name := range names {
		out[i] = df.columns[name]
	}
	return out, nil
}

// DropNulls removes rows holding a null in any of the subset columns, or in
// any column when subset is empty.
func (df *DataFrame) DropNulls(subset ...string) (*DataFrame, error) {
	cols, err := df.subset("DropNulls", subset)
	if err != nil {
		return nil, err
	}
	keep := make([]int, 0, df.Len())
	for r := range df.Len() {
		if !slices.ContainsFunc(cols, func(c *series.Series) bool { return c.IsNullAt(r) }) {
			keep = append(keep, r)
		}
	}
	return df.takeRows(keep), nil
}

// FillNull applies a fill strategy to every column. Columns whose type
// does not support the strategy are left unchanged.
func (df *DataFrame) FillNull(strategy string) (*DataFrame, error) {
	return df.mapColumns(func(col *series.Series) (*series.Series, error) {
		out, err := col.FillNull(strategy)
		if stderrors.Is(err, dferrors.ErrTypeMismatch) {
			return col.Clone(), nil
		}
		return out, err
	})
}

// FillNullValue replaces nulls in every column that can hold value.
func (df *DataFrame) FillNullValue(value any) (*DataFrame, error) {
	return df.mapColumns(func(col *series.Series) (*series.Series, error) {
		out, err := col.FillNullValue(value)
		if stderrors.Is(err, dferrors.ErrTypeMismatch) {
			return col.Clone(), nil
		}
		return out, err
	})
}

// Interpolate interpolates every numeric column; other columns are kept.
func (df *DataFrame) Interpolate() (*DataFrame, error) {
	return df.mapColumns(func(col *series.Series) (*series.Series, error) {
		if !col.IsNumeric() {
			return col.Clone(), nil
		}
		return col.Interpolate()
	})
}

// NullCount returns a one-row frame with the null count of every column.
func (df *DataFrame) NullCount() *DataFrame {
	out, _ := df.mapColumns(func(col *series.Series) (*series.Series, error) {
		return series.New(col.Name(), []uint32{uint32(col.NullCount())}, df.mem), nil //nolint:gosec // counts fit
	})
	return out
}

// SortOptions configures a multi-column sort. Reverse holds either one flag
// for every key or one flag per key.
type SortOptions struct {
	By      []string
	Reverse []bool
}

func (o SortOptions) descending(i int) bool {
	switch len(o.Reverse) {
	case 0:
		return false
	case 1:
		return o.Reverse[0]
	default:
		return o.Reverse[i]
	}
}

// Sort returns the rows ordered by the key columns. Later keys break ties in
// earlier ones, equal rows keep their original order and nulls sort last.
func (df *DataFrame) Sort(opts SortOptions) (*DataFrame, error) {
	if len(opts.By) == 0 {
		return nil, dferrors.NewConfigError("Sort", "no sort columns given")
	}
	if len(opts.Reverse) > 1 && len(opts.Reverse) != len(opts.By) {
		return nil, dferrors.NewConfigError("Sort",
			"expected 1 or %d reverse flags, got %d", len(opts.By), len(opts.Reverse))
	}
	cols, err := df.subset("Sort", opts.By)
	if err != nil {
		return nil, err
	}
	keys := make([][]any, len(cols))
	for i, col := range cols {
		keys[i] = col.Values()
	}

	idx := identity(df.Len())
	slices.SortStableFunc(idx, func(a, b int) int {
		for k, vals := range keys {
			if c := series.CompareNullsLast(vals[a], vals[b], opts.descending(k)); c != 0 {
				return c
			}
		}
		return 0
	})
	return df.takeRows(idx), nil
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Explode expands list columns into one row per element, repeating the
// other columns. An empty list contributes no rows and a null list one row
// holding null. Exploding several columns requires equal list lengths per
// row.
func (df *DataFrame) Explode(columns ...string) (*DataFrame, error) {
	if len(columns) == 0 {
		return nil, dferrors.NewConfigError("Explode", "no columns given")
	}
	cols, err := df.subset("Explode", columns)
	if err != nil {
		return nil, err
	}
	for _, col := range cols {
		if !col.DataType().IsNested() {
			return nil, dferrors.NewTypeMismatchError("Explode", col.Name(),
				"expected a List column, got %s", col.DataType())
		}
	}

	lists := make([][]any, len(cols))
	for i, col := range cols {
		lists[i] = col.Values()
	}
	var rowIdx []int
	flat := make([][]any, len(cols))
	for r := range df.Len() {
		width := -1
		for i := range cols {
			n := 1
			if l, ok := lists[i][r].([]any); ok {
				n = len(l)
			}
			if width >= 0 && n != width {
				return nil, dferrors.NewShapeError("Explode", width, n)
			}
			width = n
		}
		for range width {
			rowIdx = append(rowIdx, r)
		}
		for i := range cols {
			if l, ok := lists[i][r].([]any); ok {
				flat[i] = append(flat[i], l...)
			} else {
				flat[i] = append(flat[i], nil)
			}
		}
	}

	repeated := df.takeRows(rowIdx)
	for i, col := range cols {
		exploded, err := series.FromValuesWithType(col.Name(), flat[i], col.DataType().Elem(), df.mem)
		if err != nil {
			repeated.Release()
			return nil, err
		}
		repeated.columns[col.Name()].Release()
		repeated.columns[col.Name()] = exploded
	}
	return repeated, nil
}

// rowKeys encodes the values of cols for every row so that equal rows get
// equal keys. Nulls are equal to each other.
func rowKeys(cols []*series.Series, n int) []string {
	values := make([][]any, len(cols))
	for i, col := range cols {
		values[i] = col.Values()
	}
	keys := make([]string, n)
	var buf []byte
	for r := range n {
		buf = buf[:0]
		for _, vals := range values {
			buf = series.AppendKey(buf, vals[r])
		}
		keys[r] = string(buf)
	}
	return keys
}

// groupRows assigns every row the id of its key group. Ids are numbered in
// order of first occurrence.
func groupRows(keys []string) (ids []int, sizes []int) {
	ids = make([]int, len(keys))
	index := make(map[string]int, len(keys))
	for r, key := range keys {
		id, ok := index[key]
		if !ok {
			id = len(sizes)
			index[key] = id
			sizes = append(sizes, 0)
		}
		ids[r] = id
		sizes[id]++
	}
	return ids, sizes
}

// IsDuplicated marks rows whose values occur more than once.
func (df *DataFrame) IsDuplicated() *series.Series {
	ids, sizes := groupRows(rowKeys(df.ordered(), df.Len()))
	out := make([]bool, len(ids))
	for r, id := range ids {
		out[r] = sizes[id] > 1
	}
	return series.New("", out, df.mem)
}

// IsUnique marks rows whose values occur exactly once.
func (df *DataFrame) IsUnique() *series.Series {
	ids, sizes := groupRows(rowKeys(df.ordered(), df.Len()))
	out := make([]bool, len(ids))
	for r, id := range ids {
		out[r] = sizes[id] == 1
	}
	return series.New("", out, df.mem)
}

// Which duplicate DropDuplicates keeps.
const (
	KeepFirst = "first"
	KeepLast  = "last"
	KeepNone  = "none"
)

// DropDuplicatesOptions configures DropDuplicates.
type DropDuplicatesOptions struct {
	Subset        []string
	MaintainOrder bool
	Keep          string
}

// DropDuplicates removes rows whose subset values repeat an earlier row.
// Survivors are returned in their original order, which also satisfies
// MaintainOrder; the result is identical across runs.
func (df *DataFrame) DropDuplicates(opts DropDuplicatesOptions) (*DataFrame, error) {
	cols, err := df.subset("DropDuplicates", opts.Subset)
	if err != nil {
		return nil, err
	}
	ids, sizes := groupRows(rowKeys(cols, df.Len()))

	keep := make([]int, 0, len(sizes))
	switch opts.Keep {
	case KeepFirst, "":
		seen := make([]bool, len(sizes))
		for r, id := range ids {
			if !seen[id] {
				seen[id] = true
				keep = append(keep, r)
			}
		}
	case KeepLast:
		last := make([]int, len(sizes))
		for r, id := range ids {
			last[id] = r
		}
		for r, id := range ids {
			if last[id] == r {
				keep = append(keep, r)
			}
		}
	case KeepNone:
		for r, id := range ids {
			if sizes[id] == 1 {
				keep = append(keep, r)
			}
		}
	default:
		return nil, dferrors.NewConfigError("DropDuplicates", "unknown keep strategy %q", opts.Keep)
	}
	return df.takeRows(keep), nil
}

// HashRows returns one UInt64 hash per row. Every column's element hash is
// fed in column order to an xxhash digest, so equal data in the same column
// order hashes identically. Large frames are hashed in parallel chunks.
// Without explicit seeds the configured hash seed is used when non-zero.
func (df *DataFrame) HashRows(seeds ...uint64) *series.Series {
	n := df.Len()
	cfg := config.GetGlobalConfig()
	if len(seeds) == 0 && cfg.HashSeed != 0 {
		seeds = []uint64{cfg.HashSeed}
	}
	cols := df.ordered()
	hashes := make([][]any, len(cols))
	for i, col := range cols {
		hashes[i] = col.Values()
	}

	hashRange := func(r parallel.Range) []uint64 {
		out := make([]uint64, 0, r.Len())
		digest := xxhash.New()
		var word [8]byte
		for row := r.Start; row < r.End; row++ {
			digest.Reset()
			for _, vals := range hashes {
				binary.LittleEndian.PutUint64(word[:], series.HashValue(vals[row], seeds...))
				_, _ = digest.Write(word[:])
			}
			out = append(out, digest.Sum64())
		}
		return out
	}

	var out []uint64
	if cfg.ShouldParallelize(n, config.OperationConfig{}) {
		pool := parallel.NewWorkerPoolFromConfig(cfg)
		defer pool.Close()
		for _, part := range parallel.ProcessChunks(pool, n, cfg.ChunkSize, hashRange) {
			out = append(out, part...)
		}
	} else {
		out = hashRange(parallel.Range{Start: 0, End: n})
	}
	return series.New("hash", out, df.mem)
}

// Fold reduces the columns left to right with fn. A single column folds to
// a copy of itself.
func (df *DataFrame) Fold(fn func(acc, next *series.Series) (*series.Series, error)) (*series.Series, error) {
	cols := df.ordered()
	if len(cols) == 0 {
		return nil, dferrors.NewInvalidInputError("Fold", "frame has no columns")
	}
	acc := cols[0].Clone()
	for _, next := range cols[1:] {
		folded, err := fn(acc, next)
		acc.Release()
		if err != nil {
			return nil, err
		}
		acc = folded
	}
	return acc, nil
}
