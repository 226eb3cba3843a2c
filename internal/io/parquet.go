package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/series"
)

// ParquetOptions contains configuration options for Parquet operations
type ParquetOptions struct {
	// Compression is one of snappy, gzip, lz4, zstd or uncompressed
	Compression string
	// BatchSize is the row group chunk size when writing and the record
	// batch size when reading
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: "snappy",
		BatchSize:   DefaultBatchSize,
	}
}

// ParquetReader reads Parquet data and converts it to DataFrames
type ParquetReader struct {
	reader  io.Reader
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetReader creates a new Parquet reader with the specified options
func NewParquetReader(reader io.Reader, options ParquetOptions, mem memory.Allocator) *ParquetReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &ParquetReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// ParquetWriter writes DataFrames to Parquet format
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
}

// NewParquetWriter creates a new Parquet writer with the specified options
func NewParquetWriter(writer io.Writer, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{
		writer:  writer,
		options: options,
	}
}

// Read reads Parquet data and returns a DataFrame.
func (r *ParquetReader) Read() (*dataframe.DataFrame, error) {
	// Parquet needs random access to the footer.
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, dferrors.NewDecodeError("ReadParquet", err)
	}
	defer pqReader.Close()

	props := pqarrow.ArrowReadProperties{BatchSize: int64(max(r.options.BatchSize, 1))}
	arrowReader, err := pqarrow.NewFileReader(pqReader, props, r.mem)
	if err != nil {
		return nil, dferrors.NewDecodeError("ReadParquet", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, dferrors.NewDecodeError("ReadParquet", err)
	}
	defer table.Release()

	return tableToDataFrame(table, r.mem)
}

// compression maps the option name to a codec; unknown names use snappy.
func (w *ParquetWriter) compression() compress.Compression {
	switch w.options.Compression {
	case "gzip":
		return compress.Codecs.Gzip
	case "lz4":
		return compress.Codecs.Lz4Raw
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

// Write writes the DataFrame to Parquet format.
func (w *ParquetWriter) Write(df *dataframe.DataFrame) error {
	mem := memory.NewGoAllocator()
	table := dataFrameToTable(df)
	defer table.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(w.compression()),
		parquet.WithAllocator(mem),
	)
	// The stored Arrow schema restores categorical and timestamp types on read.
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(mem),
		pqarrow.WithStoreSchema(),
	)

	writer, err := pqarrow.NewFileWriter(table.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}
	if err := writer.WriteTable(table, int64(max(w.options.BatchSize, 1))); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	return nil
}

// ReadParquetFile reads the Parquet file at path.
func ReadParquetFile(path string, opts ParquetOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	return readFile(path, func(r io.Reader) (*dataframe.DataFrame, error) {
		return NewParquetReader(r, opts, mem).Read()
	})
}

// WriteParquetFile writes df to path as Parquet.
func WriteParquetFile(path string, df *dataframe.DataFrame, opts ParquetOptions) error {
	return writeFile(path, func(w io.Writer) error { return NewParquetWriter(w, opts).Write(df) })
}

// dataFrameSchema builds the Arrow schema of df.
func dataFrameSchema(cols []*series.Series) *arrow.Schema {
	fields := make([]arrow.Field, len(cols))
	for i, col := range cols {
		fields[i] = arrow.Field{Name: col.Name(), Type: col.DataType().ToArrow(), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// dataFrameToRecord wraps the columns of df in a single record batch.
func dataFrameToRecord(df *dataframe.DataFrame) arrow.Record {
	cols := df.GetColumns()
	arrs := make([]arrow.Array, len(cols))
	for i, col := range cols {
		arrs[i] = col.Array()
	}
	defer func() {
		for i := range cols {
			arrs[i].Release()
			cols[i].Release()
		}
	}()
	return array.NewRecord(dataFrameSchema(cols), arrs, int64(df.Len()))
}

func dataFrameToTable(df *dataframe.DataFrame) arrow.Table {
	rec := dataFrameToRecord(df)
	defer rec.Release()
	return array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
}

// tableToDataFrame converts every column of table, concatenating chunks.
func tableToDataFrame(table arrow.Table, mem memory.Allocator) (*dataframe.DataFrame, error) {
	schema := table.Schema()
	results := make([]columnResult, table.NumCols())
	for i := range results {
		field := schema.Field(i)
		chunks := table.Column(i).Data().Chunks()
		results[i].col, results[i].err = chunksToSeries(field, chunks, mem)
	}
	return collectColumns(results)
}

// chunksToSeries joins the chunks of one column into a Series.
func chunksToSeries(field arrow.Field, chunks []arrow.Array, mem memory.Allocator) (*series.Series, error) {
	switch len(chunks) {
	case 0:
		empty := array.MakeArrayOfNull(mem, field.Type, 0)
		defer empty.Release()
		return series.FromArrow(field.Name, empty, mem)
	case 1:
		return series.FromArrow(field.Name, chunks[0], mem)
	}
	joined, err := array.Concatenate(chunks, mem)
	if err != nil {
		return nil, dferrors.NewDecodeError("ReadArrow", fmt.Errorf("column %s: %w", field.Name, err))
	}
	defer joined.Release()
	return series.FromArrow(field.Name, joined, mem)
}
