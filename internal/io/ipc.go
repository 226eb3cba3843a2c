package io

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
)

// IPCReader reads an Arrow IPC stream.
type IPCReader struct {
	reader io.Reader
	mem    memory.Allocator
}

// NewIPCReader creates an IPC stream reader.
func NewIPCReader(reader io.Reader, mem memory.Allocator) *IPCReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &IPCReader{reader: reader, mem: mem}
}

// IPCWriter writes DataFrames as an Arrow IPC stream of one record batch.
type IPCWriter struct {
	writer io.Writer
}

// NewIPCWriter creates an IPC stream writer.
func NewIPCWriter(writer io.Writer) *IPCWriter {
	return &IPCWriter{writer: writer}
}

// Read consumes every record batch of the stream.
func (r *IPCReader) Read() (*dataframe.DataFrame, error) {
	rdr, err := ipc.NewReader(r.reader, ipc.WithAllocator(r.mem))
	if err != nil {
		return nil, dferrors.NewDecodeError("ReadIPC", err)
	}
	defer rdr.Release()

	schema := rdr.Schema()
	chunks := make([][]arrow.Array, schema.NumFields())
	defer func() {
		for _, col := range chunks {
			for _, arr := range col {
				arr.Release()
			}
		}
	}()

	for rdr.Next() {
		rec := rdr.Record()
		for i := range chunks {
			arr := rec.Column(i)
			arr.Retain()
			chunks[i] = append(chunks[i], arr)
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, dferrors.NewDecodeError("ReadIPC", err)
	}

	results := make([]columnResult, len(chunks))
	for i := range results {
		results[i].col, results[i].err = chunksToSeries(schema.Field(i), chunks[i], r.mem)
	}
	return collectColumns(results)
}

// Write encodes df as a single record batch.
func (w *IPCWriter) Write(df *dataframe.DataFrame) error {
	rec := dataFrameToRecord(df)
	defer rec.Release()

	writer := ipc.NewWriter(w.writer, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(memory.NewGoAllocator()))
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing record batch: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing IPC writer: %w", err)
	}
	return nil
}

// WriteIPCFile writes df to path as an Arrow IPC stream.
func WriteIPCFile(path string, df *dataframe.DataFrame) error {
	return writeFile(path, func(w io.Writer) error { return NewIPCWriter(w).Write(df) })
}
