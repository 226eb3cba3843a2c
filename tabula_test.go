package tabula_test

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/tabula"
)

func mustFrame(t *testing.T, data map[string][]any, names ...string) *tabula.DataFrame {
	t.Helper()
	df, err := tabula.FromMap(names, data, memory.NewGoAllocator())
	require.NoError(t, err)
	t.Cleanup(df.Release)
	return df
}

func TestJoinOnSharedKey(t *testing.T) {
	left := mustFrame(t, map[string][]any{
		"foo": {1.0, 2.0, 3.0},
		"bar": {6.0, 7.0, 8.0},
		"ham": {"a", "b", "c"},
	}, "foo", "bar", "ham")
	right := mustFrame(t, map[string][]any{
		"apple": {"x", "y", "z"},
		"ham":   {"a", "b", "d"},
	}, "apple", "ham")

	joined, err := left.Join(right, tabula.JoinOptions{On: []string{"ham"}})
	require.NoError(t, err)
	defer joined.Release()

	assert.Equal(t, []string{"foo", "bar", "ham", "apple"}, joined.Columns())
	ham, ok := joined.Column("ham")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, ham.Values())
}

func TestFillNullZero(t *testing.T) {
	s, err := tabula.SeriesFromValues("a", []any{1.0, nil, 2.0, 3.0}, nil)
	require.NoError(t, err)
	defer s.Release()

	once, err := s.FillNull("zero")
	require.NoError(t, err)
	defer once.Release()
	twice, err := once.FillNull("zero")
	require.NoError(t, err)
	defer twice.Release()

	assert.Equal(t, []any{1.0, 0.0, 2.0, 3.0}, once.Values())
	assert.True(t, once.Equal(twice, true))
}

func TestSumSkipsText(t *testing.T) {
	df := mustFrame(t, map[string][]any{
		"foo": {1.0, 2.0, 3.0},
		"bar": {6.0, 7.0, 8.0},
		"ham": {"a", "b", "c"},
	}, "foo", "bar", "ham")

	sum := df.Sum()
	defer sum.Release()

	row, err := sum.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []any{6.0, 21.0, nil}, row)
}

func TestRoundTripThroughEveryFormat(t *testing.T) {
	df := mustFrame(t, map[string][]any{
		"id":    {int64(-1), int64(2), nil},
		"label": {"a", nil, "c"},
		"score": {0.5, 1.0, nil},
	}, "id", "label", "score")

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, tabula.WriteCSV(&buf, df, tabula.DefaultCSVOptions()))
		back, err := tabula.ReadCSV(&buf, tabula.DefaultCSVOptions(), nil)
		require.NoError(t, err)
		defer back.Release()
		assert.True(t, df.Equal(back, true), back.String())
	})

	for _, orient := range []tabula.JSONOrient{tabula.JSONRow, tabula.JSONCol, tabula.JSONDataFrame} {
		t.Run("json "+string(orient), func(t *testing.T) {
			opts := tabula.JSONOptions{Orient: orient}
			var buf bytes.Buffer
			require.NoError(t, tabula.WriteJSON(&buf, df, opts))
			back, err := tabula.ReadJSON(&buf, opts, nil)
			require.NoError(t, err)
			defer back.Release()
			assert.True(t, df.Equal(back, true), back.String())
		})
	}

	t.Run("parquet", func(t *testing.T) {
		var buf bytes.Buffer
		opts := tabula.ParquetOptions{Compression: "zstd", BatchSize: 2}
		require.NoError(t, tabula.WriteParquet(&buf, df, opts))
		back, err := tabula.ReadParquet(&buf, opts, nil)
		require.NoError(t, err)
		defer back.Release()
		assert.True(t, df.Equal(back, true))
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "frame.arrow")
		require.NoError(t, tabula.WriteFile(path, df))
		back, err := tabula.ReadFile(path, nil)
		require.NoError(t, err)
		defer back.Release()
		assert.True(t, df.Equal(back, true))
	})
}

func TestDropDuplicatesIsStable(t *testing.T) {
	df := mustFrame(t, map[string][]any{
		"k": {"b", "a", "b", "c", "a"},
		"v": {1.0, 2.0, 3.0, 4.0, 5.0},
	}, "k", "v")
	opts := tabula.DropDuplicatesOptions{Subset: []string{"k"}, MaintainOrder: true}

	first, err := df.DropDuplicates(opts)
	require.NoError(t, err)
	defer first.Release()
	var want bytes.Buffer
	require.NoError(t, tabula.WriteCSV(&want, first, tabula.DefaultCSVOptions()))
	assert.Equal(t, "k,v\nb,1.0\na,2.0\nc,4.0\n", want.String())

	for range 100 {
		again, err := df.DropDuplicates(opts)
		require.NoError(t, err)
		var got bytes.Buffer
		err = tabula.WriteCSV(&got, again, tabula.DefaultCSVOptions())
		again.Release()
		require.NoError(t, err)
		require.Equal(t, want.Bytes(), got.Bytes())
	}
}

func TestSetConfig(t *testing.T) {
	original := tabula.GetConfig()
	defer func() { require.NoError(t, tabula.SetConfig(original)) }()

	cfg := tabula.GetConfig()
	cfg.CSVSeparator = ";;"
	assert.ErrorIs(t, tabula.SetConfig(cfg), tabula.ErrInvalidConfig)

	cfg.CSVSeparator = ";"
	require.NoError(t, tabula.SetConfig(cfg))
	assert.Equal(t, ';', tabula.DefaultCSVOptions().Separator)
}

func ExampleNewDataFrame() {
	mem := memory.NewGoAllocator()
	ids := tabula.NewSeries("id", []int64{1, 2, 3}, mem)
	defer ids.Release()
	names := tabula.NewSeries("name", []string{"a", "b", "c"}, mem)
	defer names.Release()

	df, err := tabula.NewDataFrame(ids, names)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer df.Release()

	result, err := df.Lazy().
		Filter(func(df *tabula.DataFrame) (*tabula.Series, error) {
			id, err := df.GetColumn("id")
			if err != nil {
				return nil, err
			}
			defer id.Release()
			return id.Gt(int64(1))
		}).
		Select("name").
		Collect()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer result.Release()

	fmt.Println(result.Columns(), result.Rows())
	// Output: [name] [[b] [c]]
}
