package io_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dataframe"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/io"
	"github.com/paveg/tabula/internal/series"
	"github.com/paveg/tabula/internal/testutil"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func typed(t *testing.T, name string, dt dtype.DataType, values ...any) *series.Series {
	t.Helper()
	s, err := series.FromValuesWithType(name, values, dt, memory.NewGoAllocator())
	require.NoError(t, err)
	return s
}

func frame(t *testing.T, columns ...*series.Series) *dataframe.DataFrame {
	t.Helper()
	defer func() {
		for _, col := range columns {
			col.Release()
		}
	}()
	df, err := dataframe.New(columns...)
	require.NoError(t, err)
	t.Cleanup(df.Release)
	return df
}

// sampleFrame covers every scalar text form the writers produce: quoting,
// nulls, whole floats and dates.
func sampleFrame(t *testing.T) *dataframe.DataFrame {
	t.Helper()
	return frame(t,
		typed(t, "id", dtype.Int64, int64(1), int64(2), int64(3)),
		typed(t, "name", dtype.Utf8, "a", "b, c", nil),
		typed(t, "score", dtype.Float64, 1.5, nil, 3.0),
		typed(t, "ok", dtype.Bool, true, false, nil),
		typed(t, "day", dtype.Date, day(2024, 1, 2), day(2024, 2, 29), nil),
	)
}

func TestGoldenOutputs(t *testing.T) {
	df := sampleFrame(t)
	tsv := io.DefaultCSVOptions()
	tsv.Separator = '\t'

	tests := []struct {
		name   string
		encode func() (string, error)
	}{
		{"csv", func() (string, error) { return io.WriteCSVString(df, io.DefaultCSVOptions()) }},
		{"tsv", func() (string, error) { return io.WriteCSVString(df, tsv) }},
		{"json_row", func() (string, error) { return io.WriteJSONString(df, io.JSONOptions{Orient: io.JSONRow}) }},
		{"json_col", func() (string, error) { return io.WriteJSONString(df, io.JSONOptions{Orient: io.JSONCol}) }},
		{"json_dataframe", func() (string, error) {
			return io.WriteJSONString(df, io.JSONOptions{Orient: io.JSONDataFrame})
		}},
		{"ndjson", func() (string, error) { return io.WriteJSONString(df, io.JSONOptions{Multiline: true}) }},
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.encode()
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(out))
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want io.Format
	}{
		{"data.csv", io.FormatCSV},
		{"DATA.CSV", io.FormatCSV},
		{"data.tsv", io.FormatTSV},
		{"data.tab", io.FormatTSV},
		{"data.json", io.FormatJSON},
		{"data.ndjson", io.FormatNDJSON},
		{"data.jsonl", io.FormatNDJSON},
		{"dir/data.parquet", io.FormatParquet},
		{"data.pq", io.FormatParquet},
		{"data.arrow", io.FormatIPC},
		{"data.ipc", io.FormatIPC},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := io.FormatFromPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, path := range []string{"data.xlsx", "data", "archive.csv.gz"} {
		_, err := io.FormatFromPath(path)
		assert.ErrorIs(t, err, dferrors.ErrInvalidConfig, path)
	}
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	full := sampleFrame(t)

	tests := []struct {
		file string
		df   *dataframe.DataFrame
	}{
		{"out.csv", full},
		{"out.tsv", full},
		{"out.json", full},
		{"out.ndjson", full},
		{"out.parquet", full},
		{"out.arrow", full},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, io.WriteFile(path, tt.df))

			got, err := io.ReadFile(path, memory.NewGoAllocator())
			require.NoError(t, err)
			defer got.Release()

			testutil.AssertDataFrameEqual(t, tt.df, got)
		})
	}

	t.Run("unknown extension", func(t *testing.T) {
		err := io.WriteFile(filepath.Join(dir, "out.xml"), full)
		require.ErrorIs(t, err, dferrors.ErrInvalidConfig)
		_, statErr := os.Stat(filepath.Join(dir, "out.xml"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := io.ReadFile(filepath.Join(dir, "absent.csv"), nil)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestNewReaderWriterUnsupported(t *testing.T) {
	_, err := io.NewReader("xml", nil, nil)
	require.ErrorIs(t, err, dferrors.ErrInvalidConfig)
	_, err = io.NewWriter("xml", nil)
	assert.ErrorIs(t, err, dferrors.ErrInvalidConfig)
}

func posInf() float64 { return math.Inf(1) }

func negInf() float64 { return math.Inf(-1) }
