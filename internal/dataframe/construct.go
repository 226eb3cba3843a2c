package dataframe

import (
	"fmt"
	"slices"

	"github.com/apache/arrow-go/v18/arrow/memory"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/series"
	"github.com/paveg/tabula/internal/validation"
)

// Orient describes the layout of a two dimensional input.
type Orient string

// Orientations accepted by FromRows.
const (
	OrientRow Orient = "row"
	OrientCol Orient = "col"
)

// DefaultColumnName returns the generated name of the i-th column.
func DefaultColumnName(i int) string {
	return fmt.Sprintf("column_%d", i)
}

// FromMap builds a DataFrame from column-major data, inferring each column's
// type. names fixes the column order; when empty the keys are sorted.
func FromMap(names []string, data map[string][]any, mem memory.Allocator) (*DataFrame, error) {
	if len(names) == 0 {
		for name := range data {
			names = append(names, name)
		}
		slices.Sort(names)
	}
	columns := make([]*series.Series, 0, len(names))
	for _, name := range names {
		values, ok := data[name]
		if !ok {
			releaseAll(columns)
			return nil, dferrors.NewColumnNotFoundError("FromMap", name)
		}
		col, err := series.FromValues(name, values, mem)
		if err != nil {
			releaseAll(columns)
			return nil, err
		}
		columns = append(columns, col)
	}
	return fromValidated("FromMap", columns)
}

// FromRecords builds a DataFrame from row objects. A key missing from a
// record is null in that row. Without explicit columns the union of keys
// is used, sorted by name.
func FromRecords(records []map[string]any, columns []string, mem memory.Allocator) (*DataFrame, error) {
	if len(columns) == 0 {
		seen := make(map[string]struct{})
		for _, rec := range records {
			for key := range rec {
				if _, ok := seen[key]; !ok {
					seen[key] = struct{}{}
					columns = append(columns, key)
				}
			}
		}
		slices.Sort(columns)
	}
	data := make(map[string][]any, len(columns))
	for _, name := range columns {
		values := make([]any, len(records))
		for i, rec := range records {
			values[i] = rec[name]
		}
		data[name] = values
	}
	return FromMap(columns, data, mem)
}

// FromRows builds a DataFrame from a two dimensional slice. With OrientRow
// each inner slice is a record; with OrientCol each inner slice is a column.
// Names missing from columns default to column_0, column_1, and so on. More
// names than data columns is a shape error.
func FromRows(rows [][]any, orient Orient, columns []string, mem memory.Allocator) (*DataFrame, error) {
	var data [][]any
	switch orient {
	case OrientCol:
		data = rows
	case OrientRow, "":
		width := 0
		if len(rows) > 0 {
			width = len(rows[0])
		}
		data = make([][]any, width)
		for c := range data {
			data[c] = make([]any, len(rows))
		}
		for r, row := range rows {
			if err := validation.ValidateLength(width, len(row), "FromRows", fmt.Sprintf("row %d", r)); err != nil {
				return nil, err
			}
			for c, v := range row {
				data[c][r] = v
			}
		}
	default:
		return nil, dferrors.NewConfigError("FromRows", "unknown orientation %q", orient)
	}

	if len(columns) > len(data) {
		return nil, dferrors.NewShapeError("FromRows", len(data), len(columns))
	}
	names := slices.Clone(columns)
	for i := len(names); i < len(data); i++ {
		names = append(names, DefaultColumnName(i))
	}

	cols := make([]*series.Series, 0, len(data))
	for i, values := range data {
		col, err := series.FromValues(names[i], values, mem)
		if err != nil {
			releaseAll(cols)
			return nil, err
		}
		cols = append(cols, col)
	}
	return fromValidated("FromRows", cols)
}

// fromValidated checks names and heights and takes ownership of columns.
func fromValidated(op string, columns []*series.Series) (*DataFrame, error) {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name()
	}
	err := validation.ValidateColumnNames(op, names...)
	for _, col := range columns {
		if err != nil {
			break
		}
		err = validation.ValidateLength(columns[0].Len(), col.Len(), op, fmt.Sprintf("column '%s'", col.Name()))
	}
	if err != nil {
		releaseAll(columns)
		return nil, err
	}
	return fromOwned(columns, nil), nil
}
