package dataframe

import (
	"iter"

	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/series"
)

// TransposeOptions configures Transpose.
type TransposeOptions struct {
	// IncludeHeader prepends a column holding the original column names.
	IncludeHeader bool
	// HeaderName names the header column. Defaults to "column".
	HeaderName string
	// ColumnNames yields the output column names, one per original row. It
	// may be unbounded; only as many names as needed are pulled. Without it
	// the names are column_0, column_1, and so on.
	ColumnNames iter.Seq[string]
}

// Transpose flips rows and columns. The output columns take the common type
// of all input columns, falling back to Utf8 when there is none.
func (df *DataFrame) Transpose(opts TransposeOptions) (*DataFrame, error) {
	cols := df.ordered()
	height := df.Len()

	names := make([]string, height)
	if opts.ColumnNames != nil {
		next, stop := iter.Pull(opts.ColumnNames)
		defer stop()
		for i := range names {
			name, ok := next()
			if !ok {
				return nil, dferrors.NewShapeError("Transpose", height, i)
			}
			names[i] = name
		}
	} else {
		for i := range names {
			names[i] = DefaultColumnName(i)
		}
	}

	target := dtype.Unknown
	for i, col := range cols {
		if i == 0 {
			target = col.DataType()
			continue
		}
		promoted, err := dtype.Promote(target, col.DataType())
		if err != nil {
			target = dtype.Utf8
			break
		}
		target = promoted
	}

	var out []*series.Series
	if opts.IncludeHeader {
		headerName := opts.HeaderName
		if headerName == "" {
			headerName = "column"
		}
		header := make([]any, len(cols))
		for i, col := range cols {
			header[i] = col.Name()
		}
		h, err := series.FromValuesWithType(headerName, header, dtype.Utf8, df.mem)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}

	values := make([][]any, len(cols))
	for i, col := range cols {
		values[i] = col.Values()
	}
	for r, name := range names {
		row := make([]any, len(cols))
		for c := range cols {
			v := values[c][r]
			if v != nil && target.Kind == dtype.KindUtf8 {
				if _, ok := v.(string); !ok {
					v = dtype.FormatValue(v)
				}
			}
			row[c] = v
		}
		col, err := series.FromValuesWithType(name, row, target, df.mem)
		if err != nil {
			releaseAll(out)
			return nil, err
		}
		out = append(out, col)
	}
	return fromValidated("Transpose", out)
}
