// Package dataframe provides the DataFrame: an ordered collection of
// uniquely named, equal-length Series, together with the join, group-by and
// lazy evaluation engines built on top of it.
//
// A DataFrame owns its columns. Constructors clone the Series they are
// given, and every transform returns a new DataFrame that shares Arrow
// buffers with its source until one of them is written. Methods documented
// as in place mutate only the receiver.
package dataframe

import (
	"fmt"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/series"
	"github.com/paveg/tabula/internal/validation"
)

// DataFrame represents a collection of series with the same length
type DataFrame struct {
	columns map[string]*series.Series
	order   []string
	mem     memory.Allocator
}

// Field is one entry of a schema.
type Field struct {
	Name     string
	DataType dtype.DataType
}

// Schema lists the columns of a DataFrame in order.
type Schema []Field

// Lookup returns the data type of the named column.
func (s Schema) Lookup(name string) (dtype.DataType, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.DataType, true
		}
	}
	return dtype.Unknown, false
}

// String renders the schema as name: type pairs.
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.DataType)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// New creates a new DataFrame from the given series. The series are cloned,
// so the caller keeps ownership of its arguments. Names must be unique and
// all series must have the same length.
func New(columns ...*series.Series) (*DataFrame, error) {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name()
	}
	if err := validation.ValidateColumnNames("New", names...); err != nil {
		return nil, err
	}
	for _, col := range columns[min(1, len(columns)):] {
		if err := validation.ValidateLength(columns[0].Len(), col.Len(), "New",
			fmt.Sprintf("column '%s'", col.Name())); err != nil {
			return nil, err
		}
	}

	cloned := make([]*series.Series, len(columns))
	for i, col := range columns {
		cloned[i] = col.Clone()
	}
	return fromOwned(cloned, nil), nil
}

// Empty returns a DataFrame with no columns.
func Empty() *DataFrame {
	return fromOwned(nil, nil)
}

// fromOwned builds a DataFrame that takes ownership of columns.
func fromOwned(columns []*series.Series, mem memory.Allocator) *DataFrame {
	df := &DataFrame{
		columns: make(map[string]*series.Series, len(columns)),
		order:   make([]string, 0, len(columns)),
		mem:     mem,
	}
	for _, col := range columns {
		df.columns[col.Name()] = col
		df.order = append(df.order, col.Name())
		if df.mem == nil {
			df.mem = col.Allocator()
		}
	}
	if df.mem == nil {
		df.mem = memory.NewGoAllocator()
	}
	return df
}

// derive builds a DataFrame from owned columns, keeping df's allocator.
func (df *DataFrame) derive(columns []*series.Series) *DataFrame {
	return fromOwned(columns, df.mem)
}

// ordered returns the columns in order. The slice is fresh but the series
// are borrowed.
func (df *DataFrame) ordered() []*series.Series {
	out := make([]*series.Series, len(df.order))
	for i, name := range df.order {
		out[i] = df.columns[name]
	}
	return out
}

// mapColumns applies fn to every column in order. On error all columns
// produced so far are released.
func (df *DataFrame) mapColumns(fn func(*series.Series) (*series.Series, error)) (*DataFrame, error) {
	out := make([]*series.Series, 0, len(df.order))
	for _, col := range df.ordered() {
		mapped, err := fn(col)
		if err != nil {
			releaseAll(out)
			return nil, err
		}
		out = append(out, mapped)
	}
	return df.derive(out), nil
}

func releaseAll(columns []*series.Series) {
	for _, col := range columns {
		col.Release()
	}
}

// Allocator returns the memory allocator used for new columns.
func (df *DataFrame) Allocator() memory.Allocator {
	return df.mem
}

// Columns returns the column names in order
func (df *DataFrame) Columns() []string {
	return slices.Clone(df.order)
}

// SetColumns renames every column positionally, in place.
func (df *DataFrame) SetColumns(names []string) error {
	if err := validation.ValidateLength(len(df.order), len(names), "SetColumns", "column names"); err != nil {
		return err
	}
	if err := validation.ValidateColumnNames("SetColumns", names...); err != nil {
		return err
	}
	columns := df.ordered()
	df.columns = make(map[string]*series.Series, len(names))
	for i, col := range columns {
		col.SetName(names[i])
		df.columns[names[i]] = col
	}
	df.order = slices.Clone(names)
	return nil
}

// DTypes returns the data type of each column in order.
func (df *DataFrame) DTypes() []dtype.DataType {
	out := make([]dtype.DataType, len(df.order))
	for i, col := range df.ordered() {
		out[i] = col.DataType()
	}
	return out
}

// Schema returns the ordered name and type of every column.
func (df *DataFrame) Schema() Schema {
	out := make(Schema, len(df.order))
	for i, col := range df.ordered() {
		out[i] = Field{Name: col.Name(), DataType: col.DataType()}
	}
	return out
}

// Len returns the number of rows
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	return df.columns[df.order[0]].Len()
}

// Height is an alias of Len.
func (df *DataFrame) Height() int {
	return df.Len()
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.order)
}

// Shape returns (height, width).
func (df *DataFrame) Shape() (int, int) {
	return df.Len(), df.Width()
}

// IsEmpty reports whether the frame has no rows.
func (df *DataFrame) IsEmpty() bool {
	return df.Len() == 0
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Column returns the named column. The series is borrowed from the frame
// and must not be released by the caller.
func (df *DataFrame) Column(name string) (*series.Series, bool) {
	col, exists := df.columns[name]
	return col, exists
}

// GetColumn returns a clone of the named column that the caller owns.
func (df *DataFrame) GetColumn(name string) (*series.Series, error) {
	col, ok := df.columns[name]
	if !ok {
		return nil, dferrors.NewColumnNotFoundError("GetColumn", name)
	}
	return col.Clone(), nil
}

// GetColumns returns clones of every column in order.
func (df *DataFrame) GetColumns() []*series.Series {
	out := df.ordered()
	for i, col := range out {
		out[i] = col.Clone()
	}
	return out
}

// FindIdxByName returns the position of the named column, or -1.
func (df *DataFrame) FindIdxByName(name string) int {
	return slices.Index(df.order, name)
}

// ToSeries returns a clone of the column at index.
func (df *DataFrame) ToSeries(index int) (*series.Series, error) {
	if err := validation.ValidateIndex(index, len(df.order), "ToSeries"); err != nil {
		return nil, err
	}
	return df.columns[df.order[index]].Clone(), nil
}

// checkHeight verifies that col can join the frame.
func (df *DataFrame) checkHeight(op string, col *series.Series) error {
	if len(df.order) == 0 {
		return nil
	}
	return validation.ValidateLength(df.Len(), col.Len(), op, fmt.Sprintf("column '%s'", col.Name()))
}

// WithColumn returns a new DataFrame with col added, replacing any column of
// the same name in its position.
func (df *DataFrame) WithColumn(col *series.Series) (*DataFrame, error) {
	return df.WithColumns(col)
}

// WithColumns adds or replaces several columns.
func (df *DataFrame) WithColumns(columns ...*series.Series) (*DataFrame, error) {
	out := df.Clone()
	for _, col := range columns {
		if err := out.checkHeight("WithColumn", col); err != nil {
			out.Release()
			return nil, err
		}
		if old, exists := out.columns[col.Name()]; exists {
			old.Release()
		} else {
			out.order = append(out.order, col.Name())
		}
		out.columns[col.Name()] = col.Clone()
	}
	return out, nil
}

// WithColumnRenamed returns a new DataFrame with one column renamed.
func (df *DataFrame) WithColumnRenamed(existing, replacement string) (*DataFrame, error) {
	return df.Rename(map[string]string{existing: replacement})
}

// Rename returns a new DataFrame with columns renamed per mapping. Unknown
// source names are an error, as are renames that produce duplicates.
func (df *DataFrame) Rename(mapping map[string]string) (*DataFrame, error) {
	names := df.Columns()
	for from, to := range mapping {
		idx := df.FindIdxByName(from)
		if idx < 0 {
			return nil, dferrors.NewColumnNotFoundError("Rename", from)
		}
		names[idx] = to
	}
	if err := validation.ValidateColumnNames("Rename", names...); err != nil {
		return nil, err
	}
	out := df.Clone()
	if err := out.SetColumns(names); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// InsertAtIdx inserts col at position index, in place.
func (df *DataFrame) InsertAtIdx(index int, col *series.Series) error {
	if index < 0 || index > len(df.order) {
		return dferrors.NewOutOfBoundsError("InsertAtIdx", index, len(df.order)+1)
	}
	if df.HasColumn(col.Name()) {
		return dferrors.NewDuplicateColumnError("InsertAtIdx", col.Name())
	}
	if err := df.checkHeight("InsertAtIdx", col); err != nil {
		return err
	}
	df.order = slices.Insert(df.order, index, col.Name())
	df.columns[col.Name()] = col.Clone()
	return nil
}

// ReplaceAtIdx replaces the column at position index with col, in place.
func (df *DataFrame) ReplaceAtIdx(index int, col *series.Series) error {
	if err := validation.ValidateIndex(index, len(df.order), "ReplaceAtIdx"); err != nil {
		return err
	}
	old := df.order[index]
	if col.Name() != old && df.HasColumn(col.Name()) {
		return dferrors.NewDuplicateColumnError("ReplaceAtIdx", col.Name())
	}
	if len(df.order) > 1 {
		if err := df.checkHeight("ReplaceAtIdx", col); err != nil {
			return err
		}
	}
	df.columns[old].Release()
	delete(df.columns, old)
	df.order[index] = col.Name()
	df.columns[col.Name()] = col.Clone()
	return nil
}

// DropInPlace removes the named column and hands it to the caller.
func (df *DataFrame) DropInPlace(name string) (*series.Series, error) {
	col, ok := df.columns[name]
	if !ok {
		return nil, dferrors.NewColumnNotFoundError("DropInPlace", name)
	}
	delete(df.columns, name)
	df.order = slices.DeleteFunc(df.order, func(n string) bool { return n == name })
	return col, nil
}

// Select returns a new DataFrame with only the specified columns, in the
// given order.
func (df *DataFrame) Select(names ...string) (*DataFrame, error) {
	if err := validation.NewCompoundValidator(
		validation.NewColumnValidator(df, "Select", names...),
		validation.NewColumnNamesValidator("Select", names...),
	).Validate(); err != nil {
		return nil, err
	}
	columns := make([]*series.Series, len(names))
	for i, name := range names {
		columns[i] = df.columns[name].Clone()
	}
	return df.derive(columns), nil
}

// Drop returns a new DataFrame without the specified columns
func (df *DataFrame) Drop(names ...string) (*DataFrame, error) {
	if err := validation.ValidateColumns(df, "Drop", names...); err != nil {
		return nil, err
	}
	columns := make([]*series.Series, 0, len(df.order))
	for _, col := range df.ordered() {
		if !slices.Contains(names, col.Name()) {
			columns = append(columns, col.Clone())
		}
	}
	return df.derive(columns), nil
}

// HStack returns a new DataFrame with the columns appended. Names must not
// collide with existing columns.
func (df *DataFrame) HStack(columns ...*series.Series) (*DataFrame, error) {
	names := df.Columns()
	for _, col := range columns {
		names = append(names, col.Name())
	}
	if err := validation.ValidateColumnNames("HStack", names...); err != nil {
		return nil, err
	}
	return df.WithColumns(columns...)
}

// VStack returns a new DataFrame with the rows of other appended. Both
// frames must have the same column names in the same order; column types
// are promoted.
func (df *DataFrame) VStack(other *DataFrame) (*DataFrame, error) {
	return df.Concat(other)
}

// Concat concatenates rows of frames with matching column names.
func (df *DataFrame) Concat(others ...*DataFrame) (*DataFrame, error) {
	for _, other := range others {
		if !slices.Equal(df.order, other.order) {
			return nil, dferrors.NewValidationError("Concat", "",
				fmt.Sprintf("column names differ: %v vs %v", df.order, other.order))
		}
	}
	return df.mapColumns(func(col *series.Series) (*series.Series, error) {
		parts := make([]*series.Series, len(others))
		for i, other := range others {
			parts[i] = other.columns[col.Name()]
		}
		return col.Concat(parts...)
	})
}

// WithRowCount returns a new DataFrame with a UInt32 row index column
// named name prepended, counting from offset.
func (df *DataFrame) WithRowCount(name string, offset uint32) (*DataFrame, error) {
	if name == "" {
		name = "row_nr"
	}
	if df.HasColumn(name) {
		return nil, dferrors.NewDuplicateColumnError("WithRowCount", name)
	}
	idx := make([]uint32, df.Len())
	for i := range idx {
		idx[i] = offset + uint32(i) //nolint:gosec // row counts fit in uint32
	}
	col := series.New(name, idx, df.mem)
	defer col.Release()

	out := df.Clone()
	if err := out.InsertAtIdx(0, col); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// Clone returns a DataFrame sharing buffers with df.
func (df *DataFrame) Clone() *DataFrame {
	return df.derive(df.GetColumns())
}

// Release releases all series in the DataFrame
func (df *DataFrame) Release() {
	for _, col := range df.columns {
		col.Release()
	}
}

const maxDisplayRows = 10

// String returns a tabular rendering with a shape line and a header of
// names and types. Long frames show the first and last rows.
func (df *DataFrame) String() string {
	h, w := df.Shape()
	var sb strings.Builder
	fmt.Fprintf(&sb, "shape: (%d, %d)\n", h, w)
	if w == 0 {
		return sb.String()
	}

	rows := make([]int, 0, min(h, maxDisplayRows+1))
	if h <= maxDisplayRows {
		for i := range h {
			rows = append(rows, i)
		}
	} else {
		for i := range maxDisplayRows / 2 {
			rows = append(rows, i)
		}
		rows = append(rows, -1)
		for i := h - maxDisplayRows/2; i < h; i++ {
			rows = append(rows, i)
		}
	}

	cells := make([][]string, len(rows)+2)
	for i := range cells {
		cells[i] = make([]string, w)
	}
	widths := make([]int, w)
	for c, col := range df.ordered() {
		cells[0][c] = col.Name()
		cells[1][c] = col.DataType().String()
		for r, row := range rows {
			if row < 0 {
				cells[r+2][c] = "…"
			} else {
				cells[r+2][c] = col.GetAsString(row)
			}
		}
		for r := range cells {
			widths[c] = max(widths[c], len([]rune(cells[r][c])))
		}
	}

	rule := func() {
		sb.WriteString("+")
		for _, width := range widths {
			sb.WriteString(strings.Repeat("-", width+2))
			sb.WriteString("+")
		}
		sb.WriteString("\n")
	}
	line := func(row []string) {
		sb.WriteString("|")
		for c, cell := range row {
			fmt.Fprintf(&sb, " %s%s |", cell, strings.Repeat(" ", widths[c]-len([]rune(cell))))
		}
		sb.WriteString("\n")
	}

	rule()
	line(cells[0])
	line(cells[1])
	rule()
	for _, row := range cells[2:] {
		line(row)
	}
	rule()
	return sb.String()
}
