package io

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	json "github.com/goccy/go-json"
	"github.com/paveg/tabula/internal/dataframe"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/series"
)

// JSONOrient selects the JSON layout of a frame.
type JSONOrient string

const (
	// JSONRow is an array of objects, one per row.
	JSONRow JSONOrient = "row"
	// JSONCol is an object mapping each column name to its values.
	JSONCol JSONOrient = "col"
	// JSONDataFrame is an object listing each column's name, type and values.
	JSONDataFrame JSONOrient = "dataframe"
)

// JSONOptions configures JSON encoding and decoding.
type JSONOptions struct {
	Orient JSONOrient
	// Multiline writes one row object per line with no enclosing array.
	// Readers detect line-delimited input on their own.
	Multiline bool
}

// DefaultJSONOptions returns row orientation without multiline.
func DefaultJSONOptions() JSONOptions {
	return JSONOptions{Orient: JSONRow}
}

// JSONReader reads JSON data into DataFrames.
type JSONReader struct {
	reader  io.Reader
	options JSONOptions
	mem     memory.Allocator
}

// NewJSONReader creates a JSON reader.
func NewJSONReader(reader io.Reader, options JSONOptions, mem memory.Allocator) *JSONReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &JSONReader{reader: reader, options: options, mem: mem}
}

// JSONWriter writes DataFrames as JSON.
type JSONWriter struct {
	writer  io.Writer
	options JSONOptions
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(writer io.Writer, options JSONOptions) *JSONWriter {
	return &JSONWriter{writer: writer, options: options}
}

// ReadJSON decodes JSON from r.
func ReadJSON(r io.Reader, opts JSONOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	return NewJSONReader(r, opts, mem).Read()
}

// ReadJSONString decodes JSON held in s.
func ReadJSONString(s string, opts JSONOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	return ReadJSON(strings.NewReader(s), opts, mem)
}

// ReadJSONFile decodes the JSON file at path.
func ReadJSONFile(path string, opts JSONOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	return readFile(path, func(r io.Reader) (*dataframe.DataFrame, error) { return ReadJSON(r, opts, mem) })
}

// WriteJSON encodes df as JSON into w.
func WriteJSON(w io.Writer, df *dataframe.DataFrame, opts JSONOptions) error {
	return NewJSONWriter(w, opts).Write(df)
}

// WriteJSONString encodes df as JSON and returns the text.
func WriteJSONString(df *dataframe.DataFrame, opts JSONOptions) (string, error) {
	return encodeString(func(w io.Writer) error { return WriteJSON(w, df, opts) })
}

// WriteJSONFile encodes df as JSON into the file at path.
func WriteJSONFile(path string, df *dataframe.DataFrame, opts JSONOptions) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, df, opts) })
}

// jsonFrame is the dataframe orientation.
type jsonFrame struct {
	Columns []jsonColumn `json:"columns"`
}

type jsonColumn struct {
	Name     string `json:"name"`
	Datatype string `json:"datatype"`
	Values   []any  `json:"values"`
}

// Read decodes the whole input. Arrays are read as rows, objects as a
// dataframe or col layout, and a sequence of objects as line-delimited rows.
func (r *JSONReader) Read() (*dataframe.DataFrame, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading JSON data: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return dataframe.Empty(), nil
	}

	values, err := splitValues(data)
	if err != nil {
		return nil, dferrors.NewDecodeError("ReadJSON", err)
	}
	if len(values) > 1 || (r.options.Multiline && data[0] == '{') {
		return r.readRecords(values)
	}

	switch data[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, dferrors.NewDecodeError("ReadJSON", err)
		}
		return r.readRecords(records)
	case '{':
		if frame, ok := asDataFrameLayout(data); ok {
			return r.readDataFrameLayout(frame)
		}
		return r.readColumns(data)
	}
	return nil, dferrors.NewDecodeError("ReadJSON", fmt.Errorf("expected an array or object, got %q", data[0]))
}

// splitValues returns the top-level JSON values of data.
func splitValues(data []byte) ([]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var out []json.RawMessage
	for {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
}

// decodeNumbers unmarshals raw keeping numbers as json.Number.
func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func asDataFrameLayout(data []byte) (jsonFrame, bool) {
	keys, err := objectKeys(data)
	if err != nil || len(keys) != 1 || keys[0] != "columns" {
		return jsonFrame{}, false
	}
	var frame jsonFrame
	if err := decodeNumbers(data, &frame); err != nil {
		return jsonFrame{}, false
	}
	for _, col := range frame.Columns {
		if col.Datatype == "" {
			return jsonFrame{}, false
		}
	}
	return frame, true
}

func (r *JSONReader) readDataFrameLayout(frame jsonFrame) (*dataframe.DataFrame, error) {
	results := make([]columnResult, len(frame.Columns))
	for i, col := range frame.Columns {
		dt, err := dtype.Parse(col.Datatype)
		if err != nil {
			results[i].err = dferrors.NewDecodeError("ReadJSON", err)
			continue
		}
		values := make([]any, len(col.Values))
		for j, v := range col.Values {
			values[j] = normalizeJSON(v)
		}
		results[i].col, results[i].err = series.FromValuesWithType(col.Name, values, dt, r.mem)
	}
	return collectColumns(results)
}

func (r *JSONReader) readColumns(data []byte) (*dataframe.DataFrame, error) {
	names, err := objectKeys(data)
	if err != nil {
		return nil, dferrors.NewDecodeError("ReadJSON", err)
	}
	var byName map[string]json.RawMessage
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil, dferrors.NewDecodeError("ReadJSON", err)
	}

	columns := make([][]any, len(names))
	for i, name := range names {
		if err := decodeNumbers(byName[name], &columns[i]); err != nil {
			// an object of scalars is a single row
			return r.readRecords([]json.RawMessage{data})
		}
	}
	results := make([]columnResult, len(names))
	for i, name := range names {
		results[i].col, results[i].err = r.column(name, columns[i])
	}
	return collectColumns(results)
}

func (r *JSONReader) readRecords(records []json.RawMessage) (*dataframe.DataFrame, error) {
	var names []string
	index := make(map[string]int)
	rows := make([]map[string]any, len(records))
	for i, raw := range records {
		keys, err := objectKeys(raw)
		if err != nil {
			return nil, dferrors.NewDecodeError("ReadJSON", fmt.Errorf("record %d: %w", i, err))
		}
		if err := decodeNumbers(raw, &rows[i]); err != nil {
			return nil, dferrors.NewDecodeError("ReadJSON", fmt.Errorf("record %d: %w", i, err))
		}
		for _, key := range keys {
			if _, ok := index[key]; !ok {
				index[key] = len(names)
				names = append(names, key)
			}
		}
	}
	if len(names) == 0 {
		return dataframe.Empty(), nil
	}

	results := make([]columnResult, len(names))
	for i, name := range names {
		values := make([]any, len(rows))
		for j, row := range rows {
			values[j] = row[name]
		}
		results[i].col, results[i].err = r.column(name, values)
	}
	return collectColumns(results)
}

// column builds a Series from decoded JSON values. Integer tokens make an
// Int64 column, or UInt64 when a value exceeds the Int64 range. Strings that
// all parse as dates or datetimes make a temporal column.
func (r *JSONReader) column(name string, raw []any) (*series.Series, error) {
	values := make([]any, len(raw))
	numeric, integral, negative, unsigned := true, true, false, false
	present := 0
	for i, v := range raw {
		values[i] = normalizeJSON(v)
		switch x := values[i].(type) {
		case nil:
			continue
		case int64:
			negative = negative || x < 0
		case uint64:
			unsigned = true
		case float64:
			integral = false
		default:
			numeric = false
		}
		present++
	}
	if present == 0 {
		return series.FromValues(name, values, r.mem)
	}
	if !numeric {
		if dt, ok := temporalType(values); ok {
			for i, v := range values {
				t, err := dtype.Coerce(v, dt, true)
				if err != nil {
					return nil, dferrors.NewDecodeError("ReadJSON", err)
				}
				values[i] = t
			}
			return series.FromValuesWithType(name, values, dt, r.mem)
		}
		return series.FromValues(name, values, r.mem)
	}
	switch {
	case !integral || (unsigned && negative):
		return series.FromValuesWithType(name, values, dtype.Float64, r.mem)
	case unsigned:
		return series.FromValuesWithType(name, values, dtype.UInt64, r.mem)
	default:
		return series.FromValuesWithType(name, values, dtype.Int64, r.mem)
	}
}

// temporalLayouts are the text forms written for temporal columns, in the
// order they are tried.
var temporalLayouts = []struct {
	layout string
	dt     dtype.DataType
}{
	{dtype.DateLayout, dtype.Date},
	{dtype.DatetimeLayoutMS, dtype.Datetime},
	{dtype.DatetimeLayoutUS, dtype.DatetimeUS},
}

// temporalType reports the temporal type whose layout parses every present
// value. Any non-string value rules all of them out.
func temporalType(values []any) (dtype.DataType, bool) {
	for _, candidate := range temporalLayouts {
		matched := true
		for _, v := range values {
			if v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return dtype.DataType{}, false
			}
			if _, err := time.Parse(candidate.layout, s); err != nil {
				matched = false
				break
			}
		}
		if matched {
			return candidate.dt, true
		}
	}
	return dtype.DataType{}, false
}

// normalizeJSON converts json.Number tokens into int64, uint64 or float64
// and nested objects into their JSON text.
func normalizeJSON(v any) any {
	switch x := v.(type) {
	case json.Number:
		s := x.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i
			}
			if u, err := strconv.ParseUint(s, 10, 64); err == nil {
				return u
			}
			if b, ok := new(big.Int).SetString(s, 10); ok {
				f, _ := new(big.Float).SetInt(b).Float64()
				return f
			}
		}
		f, _ := strconv.ParseFloat(s, 64)
		return f
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalizeJSON(item)
		}
		return out
	case map[string]any:
		text, _ := json.Marshal(x)
		return string(text)
	}
	return v
}

var (
	errUnterminatedString = errors.New("unterminated string")
	errNotObject          = errors.New("expected a JSON object")
)

// objectKeys returns the keys of the top-level JSON object in raw in
// document order.
func objectKeys(raw []byte) ([]string, error) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, errNotObject
	}
	var keys []string
	depth := 0
	expectKey := false
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; c {
		case '"':
			end := i + 1
			for end < len(raw) && raw[end] != '"' {
				if raw[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(raw) {
				return nil, errUnterminatedString
			}
			if depth == 1 && expectKey {
				var key string
				if err := json.Unmarshal(raw[i:end+1], &key); err != nil {
					return nil, err
				}
				keys = append(keys, key)
				expectKey = false
			}
			i = end
		case '{', '[':
			depth++
			expectKey = c == '{' && depth == 1
		case '}', ']':
			depth--
		case ',':
			expectKey = depth == 1
		}
	}
	return keys, nil
}

// Write encodes df in the configured orientation.
func (w *JSONWriter) Write(df *dataframe.DataFrame) error {
	cols := df.GetColumns()
	defer func() {
		for _, col := range cols {
			col.Release()
		}
	}()

	bw := bufio.NewWriter(w.writer)
	var err error
	switch {
	case w.options.Multiline:
		err = writeRows(bw, cols, df.Len(), "", "\n", "\n")
	case w.options.Orient == JSONRow || w.options.Orient == "":
		err = writeRows(bw, cols, df.Len(), "[", ",", "]")
	case w.options.Orient == JSONCol:
		err = writeColumns(bw, cols)
	case w.options.Orient == JSONDataFrame:
		err = writeDataFrameLayout(bw, cols)
	default:
		return dferrors.NewConfigError("WriteJSON", "unknown orientation %q", w.options.Orient)
	}
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	return bw.Flush()
}

// writeRows writes one object per row. In line mode the terminator
// follows every row; otherwise sep goes between rows and the array
// brackets around them.
func writeRows(w *bufio.Writer, cols []*series.Series, n int, open, sep, end string) error {
	lines := open == ""
	w.WriteString(open)
	var buf []byte
	for i := range n {
		if i > 0 && !lines {
			w.WriteString(sep)
		}
		buf = append(buf[:0], '{')
		for j, col := range cols {
			if j > 0 {
				buf = append(buf, ',')
			}
			buf = appendJSONString(buf, col.Name())
			buf = append(buf, ':')
			buf = appendJSONValue(buf, col.Value(i), col.DataType())
		}
		buf = append(buf, '}')
		if _, err := w.Write(buf); err != nil {
			return err
		}
		if lines {
			w.WriteString(sep)
		}
	}
	if !lines {
		_, err := w.WriteString(end)
		return err
	}
	return nil
}

func writeColumns(w *bufio.Writer, cols []*series.Series) error {
	buf := []byte{'{'}
	for j, col := range cols {
		if j > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, col.Name())
		buf = append(buf, ':')
		buf = appendJSONValues(buf, col)
	}
	buf = append(buf, '}')
	_, err := w.Write(buf)
	return err
}

func writeDataFrameLayout(w *bufio.Writer, cols []*series.Series) error {
	buf := []byte(`{"columns":[`)
	for j, col := range cols {
		if j > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, `{"name":`...)
		buf = appendJSONString(buf, col.Name())
		buf = append(buf, `,"datatype":`...)
		buf = appendJSONString(buf, col.DataType().String())
		buf = append(buf, `,"values":`...)
		buf = appendJSONValues(buf, col)
		buf = append(buf, '}')
	}
	buf = append(buf, "]}"...)
	_, err := w.Write(buf)
	return err
}

func appendJSONValues(buf []byte, col *series.Series) []byte {
	buf = append(buf, '[')
	for i := range col.Len() {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONValue(buf, col.Value(i), col.DataType())
	}
	return append(buf, ']')
}

func appendJSONString(buf []byte, s string) []byte {
	quoted, err := json.Marshal(s)
	if err != nil {
		return append(buf, `""`...)
	}
	return append(buf, quoted...)
}

// appendJSONValue renders a canonical value. Floats use the shortest
// round-tripping form; NaN and infinities have no JSON form and become null.
func appendJSONValue(buf []byte, v any, dt dtype.DataType) []byte {
	switch x := v.(type) {
	case nil:
		return append(buf, "null"...)
	case bool:
		return strconv.AppendBool(buf, x)
	case int8:
		return strconv.AppendInt(buf, int64(x), 10)
	case int16:
		return strconv.AppendInt(buf, int64(x), 10)
	case int32:
		return strconv.AppendInt(buf, int64(x), 10)
	case int64:
		return strconv.AppendInt(buf, x, 10)
	case uint8:
		return strconv.AppendUint(buf, uint64(x), 10)
	case uint16:
		return strconv.AppendUint(buf, uint64(x), 10)
	case uint32:
		return strconv.AppendUint(buf, uint64(x), 10)
	case uint64:
		return strconv.AppendUint(buf, x, 10)
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return append(buf, "null"...)
		}
		return append(buf, dtype.FormatFloat(float64(x), 32)...)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return append(buf, "null"...)
		}
		return append(buf, dtype.FormatFloat(x, 64)...)
	case string:
		return appendJSONString(buf, x)
	case time.Time:
		return appendJSONString(buf, dtype.FormatTemporal(x, dt))
	case []any:
		buf = append(buf, '[')
		for i, item := range x {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendJSONValue(buf, item, dt.Elem())
		}
		return append(buf, ']')
	}
	return appendJSONString(buf, dtype.FormatValue(v))
}
