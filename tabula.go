// Package tabula provides columnar Series and DataFrames backed by Apache
// Arrow. This package is the public API for the library.
//
// Key features:
//   - Typed, nullable Series with arithmetic, comparison, statistics and
//     windowed operations
//   - DataFrames with joins, group-bys, sorting, deduplication and reshaping
//   - Lazy evaluation through LazyFrame, executed in order by Collect
//   - CSV, JSON, Parquet and Arrow IPC readers and writers
//   - Parallel execution above a configurable row threshold
//
// Memory management: Series and DataFrames hold reference-counted Arrow
// buffers. Every constructor and operation returns a value the caller owns
// and must Release; inputs are never consumed.
//
//	mem := memory.NewGoAllocator()
//	ids := tabula.NewSeries("id", []int64{1, 2, 3}, mem)
//	defer ids.Release()
//	names := tabula.NewSeries("name", []string{"a", "b", "c"}, mem)
//	defer names.Release()
//
//	df, err := tabula.NewDataFrame(ids, names)
//	if err != nil {
//		return err
//	}
//	defer df.Release()
//
//	result, err := df.Lazy().
//		Filter(func(df *tabula.DataFrame) (*tabula.Series, error) {
//			id, err := df.GetColumn("id")
//			if err != nil {
//				return nil, err
//			}
//			defer id.Release()
//			return id.Gt(int64(1))
//		}).
//		Select("name").
//		Collect()
package tabula

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/tabula/internal/config"
	"github.com/paveg/tabula/internal/dataframe"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	tio "github.com/paveg/tabula/internal/io"
	"github.com/paveg/tabula/internal/series"
)

type (
	// Series is a named, typed, nullable column.
	Series = series.Series
	// DataFrame is an ordered collection of equally long Series with unique names.
	DataFrame = dataframe.DataFrame
	// LazyFrame records operations on a DataFrame and runs them on Collect.
	LazyFrame = dataframe.LazyFrame
	// GroupBy partitions a DataFrame by key columns.
	GroupBy = dataframe.GroupBy
	// DataType describes the logical type of a Series.
	DataType = dtype.DataType
	// Schema lists the names and types of a DataFrame's columns.
	Schema = dataframe.Schema

	JoinOptions           = dataframe.JoinOptions
	JoinType              = dataframe.JoinType
	SortOptions           = dataframe.SortOptions
	Aggregation           = dataframe.Aggregation
	DropDuplicatesOptions = dataframe.DropDuplicatesOptions
	RollingOptions        = series.RollingOptions
	SampleOptions         = series.SampleOptions

	CSVOptions     = tio.CSVOptions
	JSONOptions    = tio.JSONOptions
	JSONOrient     = tio.JSONOrient
	ParquetOptions = tio.ParquetOptions

	// Config holds engine-wide settings.
	Config = config.Config
)

// Join types.
const (
	InnerJoin = dataframe.InnerJoin
	LeftJoin  = dataframe.LeftJoin
	OuterJoin = dataframe.OuterJoin
)

// JSON orientations.
const (
	JSONRow       = tio.JSONRow
	JSONCol       = tio.JSONCol
	JSONDataFrame = tio.JSONDataFrame
)

// Data types.
var (
	Bool        = dtype.Bool
	Int8        = dtype.Int8
	Int16       = dtype.Int16
	Int32       = dtype.Int32
	Int64       = dtype.Int64
	UInt8       = dtype.UInt8
	UInt16      = dtype.UInt16
	UInt32      = dtype.UInt32
	UInt64      = dtype.UInt64
	Float32     = dtype.Float32
	Float64     = dtype.Float64
	Utf8        = dtype.Utf8
	Date        = dtype.Date
	Datetime    = dtype.Datetime
	DatetimeUS  = dtype.DatetimeUS
	Categorical = dtype.Categorical
)

// List returns the type of lists of elem.
func List(elem DataType) DataType {
	return dtype.List(elem)
}

// Error classes, matchable with errors.Is.
var (
	ErrInvalidConfig   = dferrors.ErrInvalidConfig
	ErrTypeMismatch    = dferrors.ErrTypeMismatch
	ErrShapeMismatch   = dferrors.ErrShapeMismatch
	ErrColumnNotFound  = dferrors.ErrColumnNotFound
	ErrDuplicateColumn = dferrors.ErrDuplicateColumn
	ErrOutOfBounds     = dferrors.ErrOutOfBounds
	ErrDecode          = dferrors.ErrDecode
)

// NewSeries creates a Series from a typed slice. It panics on an
// unsupported element type.
func NewSeries[T any](name string, values []T, mem memory.Allocator) *Series {
	return series.New(name, values, mem)
}

// SeriesFromValues creates a Series from untyped values, inferring the
// type. Nil entries are nulls.
func SeriesFromValues(name string, values []any, mem memory.Allocator) (*Series, error) {
	return series.FromValues(name, values, mem)
}

// SeriesFromValuesWithType creates a Series of type dt, converting each value.
func SeriesFromValuesWithType(name string, values []any, dt DataType, mem memory.Allocator) (*Series, error) {
	return series.FromValuesWithType(name, values, dt, mem)
}

// NewDataFrame creates a DataFrame from series. The series are retained,
// so the caller still releases its own references.
func NewDataFrame(columns ...*Series) (*DataFrame, error) {
	return dataframe.New(columns...)
}

// FromMap builds a DataFrame from column-major data. names fixes the
// column order; when empty the keys are sorted.
func FromMap(names []string, data map[string][]any, mem memory.Allocator) (*DataFrame, error) {
	return dataframe.FromMap(names, data, mem)
}

// FromRecords builds a DataFrame from row objects. Keys missing from a
// record are null.
func FromRecords(records []map[string]any, columns []string, mem memory.Allocator) (*DataFrame, error) {
	return dataframe.FromRecords(records, columns, mem)
}

// ReadCSV decodes CSV from r.
func ReadCSV(r io.Reader, opts CSVOptions, mem memory.Allocator) (*DataFrame, error) {
	return tio.ReadCSV(r, opts, mem)
}

// WriteCSV encodes df as CSV into w.
func WriteCSV(w io.Writer, df *DataFrame, opts CSVOptions) error {
	return tio.WriteCSV(w, df, opts)
}

// DefaultCSVOptions returns comma separated options with a header row.
func DefaultCSVOptions() CSVOptions {
	return tio.DefaultCSVOptions()
}

// ReadJSON decodes JSON rows, columns, a dataframe document or
// line-delimited records from r.
func ReadJSON(r io.Reader, opts JSONOptions, mem memory.Allocator) (*DataFrame, error) {
	return tio.ReadJSON(r, opts, mem)
}

// WriteJSON encodes df as JSON into w.
func WriteJSON(w io.Writer, df *DataFrame, opts JSONOptions) error {
	return tio.WriteJSON(w, df, opts)
}

// ReadParquet decodes a Parquet file from r.
func ReadParquet(r io.Reader, opts ParquetOptions, mem memory.Allocator) (*DataFrame, error) {
	return tio.NewParquetReader(r, opts, mem).Read()
}

// WriteParquet encodes df as Parquet into w.
func WriteParquet(w io.Writer, df *DataFrame, opts ParquetOptions) error {
	return tio.NewParquetWriter(w, opts).Write(df)
}

// ReadFile reads path in the format implied by its extension.
func ReadFile(path string, mem memory.Allocator) (*DataFrame, error) {
	return tio.ReadFile(path, mem)
}

// WriteFile writes df to path in the format implied by its extension.
func WriteFile(path string, df *DataFrame) error {
	return tio.WriteFile(path, df)
}

// SetConfig replaces the engine-wide configuration after validating it.
func SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	config.SetGlobalConfig(cfg)
	return nil
}

// GetConfig returns the engine-wide configuration.
func GetConfig() Config {
	return config.GetGlobalConfig()
}
