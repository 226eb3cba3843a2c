package io

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/config"
	"github.com/paveg/tabula/internal/dataframe"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/parallel"
	"github.com/paveg/tabula/internal/series"
)

const (
	trueStr  = "true"
	falseStr = "false"

	// DefaultInferSchemaLength is the number of non-null fields per column
	// inspected to pick its type.
	DefaultInferSchemaLength = 100
)

// CSVOptions contains configuration options for CSV operations
type CSVOptions struct {
	// Separator is the field separator (default: the configured csv_separator)
	Separator rune
	// HasHeader indicates whether the first row holds column names
	HasHeader bool
	// Columns restricts reading to the named columns, in that order
	Columns []string
	// NewColumns renames the read columns positionally
	NewColumns []string
	// Comment starts a line that is ignored (0 disables comments)
	Comment rune
	// SkipRows is the number of lines skipped before the header
	SkipRows int
	// NullValues are fields read as null in addition to the empty field
	NullValues []string
	// InferSchemaLength caps the fields inspected for type inference; 0
	// inspects every field
	InferSchemaLength int
	// Strict turns fields that do not parse as the inferred type into
	// decode errors instead of nulls
	Strict bool
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	sep, _ := utf8.DecodeRuneInString(config.GetGlobalConfig().CSVSeparator)
	if sep == utf8.RuneError {
		sep = ','
	}
	return CSVOptions{
		Separator:         sep,
		HasHeader:         true,
		InferSchemaLength: DefaultInferSchemaLength,
	}
}

func (o CSVOptions) separator() rune {
	if o.Separator == 0 {
		return ','
	}
	return o.Separator
}

// CSVReader reads CSV data and converts it to DataFrames
type CSVReader struct {
	reader  io.Reader
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a new CSV reader with the specified options
func NewCSVReader(reader io.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &CSVReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// CSVWriter writes DataFrames to CSV format
type CSVWriter struct {
	writer  io.Writer
	options CSVOptions
}

// NewCSVWriter creates a new CSV writer with the specified options
func NewCSVWriter(writer io.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{
		writer:  writer,
		options: options,
	}
}

// ReadCSV decodes CSV from r.
func ReadCSV(r io.Reader, opts CSVOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	return NewCSVReader(r, opts, mem).Read()
}

// ReadCSVString decodes CSV held in s.
func ReadCSVString(s string, opts CSVOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	return ReadCSV(strings.NewReader(s), opts, mem)
}

// ReadCSVFile decodes the CSV file at path.
func ReadCSVFile(path string, opts CSVOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	return readFile(path, func(r io.Reader) (*dataframe.DataFrame, error) { return ReadCSV(r, opts, mem) })
}

// WriteCSV encodes df as CSV into w.
func WriteCSV(w io.Writer, df *dataframe.DataFrame, opts CSVOptions) error {
	return NewCSVWriter(w, opts).Write(df)
}

// WriteCSVString encodes df as CSV and returns the text.
func WriteCSVString(df *dataframe.DataFrame, opts CSVOptions) (string, error) {
	return encodeString(func(w io.Writer) error { return WriteCSV(w, df, opts) })
}

// WriteCSVFile encodes df as CSV into the file at path.
func WriteCSVFile(path string, df *dataframe.DataFrame, opts CSVOptions) error {
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, df, opts) })
}

// Read reads CSV data and returns a DataFrame
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	buffered := bufio.NewReader(r.reader)
	for range r.options.SkipRows {
		if _, err := buffered.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("skipping CSV rows: %w", err)
		}
	}

	csvReader := csv.NewReader(buffered)
	csvReader.Comma = r.options.separator()
	csvReader.Comment = r.options.Comment
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, dferrors.NewDecodeError("ReadCSV", err)
	}
	if len(records) == 0 {
		return dataframe.Empty(), nil
	}

	var headers []string
	dataRows := records
	if r.options.HasHeader {
		headers = records[0]
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = dataframe.DefaultColumnName(i)
		}
	}
	for i, row := range dataRows {
		if len(row) > len(headers) {
			return nil, dferrors.NewDecodeError("ReadCSV",
				fmt.Errorf("row %d has %d fields, expected %d", i+1, len(row), len(headers)))
		}
	}

	selected, err := r.project(headers)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(selected))
	for i, idx := range selected {
		names[i] = headers[idx]
	}
	if len(r.options.NewColumns) > len(names) {
		return nil, dferrors.NewShapeError("ReadCSV", len(names), len(r.options.NewColumns))
	}
	copy(names, r.options.NewColumns)

	parse := func(i int, idx int) columnResult {
		fields := make([]string, len(dataRows))
		for j, row := range dataRows {
			if idx < len(row) {
				fields[j] = row[idx]
			}
		}
		col, err := r.parseColumn(names[i], fields)
		return columnResult{col, err}
	}

	var results []columnResult
	cfg := config.GetGlobalConfig()
	if len(selected) > 1 && cfg.ShouldParallelize(len(dataRows), config.OperationConfig{}) {
		pool := parallel.NewWorkerPoolFromConfig(cfg)
		defer pool.Close()
		results = parallel.ProcessIndexed(pool, selected, parse)
	} else {
		results = make([]columnResult, len(selected))
		for i, idx := range selected {
			results[i] = parse(i, idx)
		}
	}
	return collectColumns(results)
}

// project returns the header positions to read.
func (r *CSVReader) project(headers []string) ([]int, error) {
	if len(r.options.Columns) == 0 {
		out := make([]int, len(headers))
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	out := make([]int, len(r.options.Columns))
	for i, name := range r.options.Columns {
		idx := slices.Index(headers, name)
		if idx < 0 {
			return nil, dferrors.NewColumnNotFoundError("ReadCSV", name)
		}
		out[i] = idx
	}
	return out, nil
}

type columnResult struct {
	col *series.Series
	err error
}

// collectColumns assembles parsed columns, releasing all of them on error.
func collectColumns(results []columnResult) (*dataframe.DataFrame, error) {
	cols := make([]*series.Series, 0, len(results))
	var firstErr error
	for _, res := range results {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		if res.col != nil {
			cols = append(cols, res.col)
		}
	}
	defer func() {
		for _, col := range cols {
			col.Release()
		}
	}()
	if firstErr != nil {
		return nil, firstErr
	}
	return dataframe.New(cols...)
}

func (r *CSVReader) isNull(field string) bool {
	return field == "" || slices.Contains(r.options.NullValues, field)
}

// parseColumn infers the column type and converts every field to it.
func (r *CSVReader) parseColumn(name string, fields []string) (*series.Series, error) {
	dt := r.inferDataType(fields)
	values := make([]any, len(fields))
	for i, field := range fields {
		if r.isNull(field) {
			continue
		}
		if dt.Kind == dtype.KindUtf8 {
			values[i] = field
			continue
		}
		v, err := dtype.Coerce(field, dt, r.options.Strict)
		if err != nil {
			return nil, dferrors.NewDecodeError("ReadCSV",
				fmt.Errorf("column %s, row %d: %w", name, i+1, err))
		}
		values[i] = v
	}
	return series.FromValuesWithType(name, values, dt, r.mem)
}

// inferDataType determines the most appropriate data type for the given string data
func (r *CSVReader) inferDataType(data []string) dtype.DataType {
	canBeBool, canBeInt, canBeFloat := true, true, true
	canBeDate, canBeDatetime, canBeDatetimeUS := true, true, true
	seen := 0

	for _, value := range data {
		if r.isNull(value) {
			continue
		}
		if limit := r.options.InferSchemaLength; limit > 0 && seen >= limit {
			break
		}
		seen++

		if canBeBool {
			lower := strings.ToLower(value)
			canBeBool = lower == trueStr || lower == falseStr
		}
		if canBeInt {
			_, err := strconv.ParseInt(value, 10, 64)
			canBeInt = err == nil
		}
		if canBeFloat {
			_, err := strconv.ParseFloat(value, 64)
			canBeFloat = err == nil
		}
		if canBeDate {
			_, err := time.Parse(dtype.DateLayout, value)
			canBeDate = err == nil
		}
		if canBeDatetime {
			_, err := time.Parse(dtype.DatetimeLayoutMS, value)
			canBeDatetime = err == nil
		}
		if canBeDatetimeUS {
			_, err := time.Parse(dtype.DatetimeLayoutUS, value)
			canBeDatetimeUS = err == nil
		}
	}

	switch {
	case seen == 0:
		return dtype.Float64
	case canBeBool:
		return dtype.Bool
	case canBeInt:
		return dtype.Int64
	case canBeFloat:
		return dtype.Float64
	case canBeDate:
		return dtype.Date
	case canBeDatetime:
		return dtype.Datetime
	case canBeDatetimeUS:
		return dtype.DatetimeUS
	default:
		return dtype.Utf8
	}
}

// Write writes the DataFrame to CSV format
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.separator()

	if w.options.HasHeader {
		if err := w.writeRecord(csvWriter, df.Columns()); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	cols := df.GetColumns()
	defer func() {
		for _, col := range cols {
			col.Release()
		}
	}()

	row := make([]string, len(cols))
	for i := range df.Len() {
		for j, col := range cols {
			row[j] = col.GetAsString(i)
		}
		if err := w.writeRecord(csvWriter, row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// writeRecord writes one record. A lone empty field is written quoted so it
// does not become a blank line, which readers skip.
func (w *CSVWriter) writeRecord(csvWriter *csv.Writer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return csvWriter.Write(record)
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w.writer, "\"\"\n")
	return err
}
