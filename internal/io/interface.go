// Package io reads and writes DataFrames.
//
// Supported formats:
//   - CSV with a configurable separator, optional header and type inference
//   - JSON in row, col and dataframe orientations, or one record per line
//   - Parquet through arrow-go's pqarrow bridge
//   - Arrow IPC streams
//
// Every writer encodes to an io.Writer; the string and file helpers route
// through the same writer so all sinks produce identical bytes.
//
// Memory management: readers allocate from the given Arrow allocator and the
// returned DataFrame must be released by the caller.
package io

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
)

const (
	// DefaultChunkSize is the number of rows per parallel parsing chunk
	DefaultChunkSize = 1000
	// DefaultBatchSize is the default batch size for columnar I/O
	DefaultBatchSize = 1000
)

// DataReader defines the interface for reading data from various sources
type DataReader interface {
	// Read reads data from the source and returns a DataFrame
	Read() (*dataframe.DataFrame, error)
}

// DataWriter defines the interface for writing data to various destinations
type DataWriter interface {
	// Write writes the DataFrame to the destination
	Write(df *dataframe.DataFrame) error
}

// Format names a serialization format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatJSON    Format = "json"
	FormatNDJSON  Format = "ndjson"
	FormatParquet Format = "parquet"
	FormatIPC     Format = "ipc"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".json":
		return FormatJSON, nil
	case ".ndjson", ".jsonl":
		return FormatNDJSON, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	case ".arrow", ".ipc", ".arrows":
		return FormatIPC, nil
	}
	return "", dferrors.NewConfigError("FormatFromPath", "cannot infer format of %q", path)
}

// NewReader returns a reader for format with default options.
func NewReader(format Format, r io.Reader, mem memory.Allocator) (DataReader, error) {
	switch format {
	case FormatCSV:
		return NewCSVReader(r, DefaultCSVOptions(), mem), nil
	case FormatTSV:
		opts := DefaultCSVOptions()
		opts.Separator = '\t'
		return NewCSVReader(r, opts, mem), nil
	case FormatJSON:
		return NewJSONReader(r, DefaultJSONOptions(), mem), nil
	case FormatNDJSON:
		opts := DefaultJSONOptions()
		opts.Multiline = true
		return NewJSONReader(r, opts, mem), nil
	case FormatParquet:
		return NewParquetReader(r, DefaultParquetOptions(), mem), nil
	case FormatIPC:
		return NewIPCReader(r, mem), nil
	}
	return nil, dferrors.NewConfigError("NewReader", "unsupported format %q", format)
}

// NewWriter returns a writer for format with default options.
func NewWriter(format Format, w io.Writer) (DataWriter, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(w, DefaultCSVOptions()), nil
	case FormatTSV:
		opts := DefaultCSVOptions()
		opts.Separator = '\t'
		return NewCSVWriter(w, opts), nil
	case FormatJSON:
		return NewJSONWriter(w, DefaultJSONOptions()), nil
	case FormatNDJSON:
		opts := DefaultJSONOptions()
		opts.Multiline = true
		return NewJSONWriter(w, opts), nil
	case FormatParquet:
		return NewParquetWriter(w, DefaultParquetOptions()), nil
	case FormatIPC:
		return NewIPCWriter(w), nil
	}
	return nil, dferrors.NewConfigError("NewWriter", "unsupported format %q", format)
}

// ReadFile reads path in the format implied by its extension.
func ReadFile(path string, mem memory.Allocator) (*dataframe.DataFrame, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return readFile(path, func(r io.Reader) (*dataframe.DataFrame, error) {
		reader, err := NewReader(format, r, mem)
		if err != nil {
			return nil, err
		}
		return reader.Read()
	})
}

// WriteFile writes df to path in the format implied by its extension.
func WriteFile(path string, df *dataframe.DataFrame) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		writer, err := NewWriter(format, w)
		if err != nil {
			return err
		}
		return writer.Write(df)
	})
}

// readFile opens path and decodes it with decode.
func readFile(path string, decode func(io.Reader) (*dataframe.DataFrame, error)) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return decode(bufio.NewReader(f))
}

// writeFile creates path and streams encode into it.
func writeFile(path string, encode func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("closing %s: %w", path, closeErr)
		}
	}()

	buf := bufio.NewWriter(f)
	if err := encode(buf); err != nil {
		return err
	}
	return buf.Flush()
}

// encodeString runs encode against an in-memory buffer.
func encodeString(encode func(io.Writer) error) (string, error) {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
