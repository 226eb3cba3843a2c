//nolint:testpackage // requires internal access to unexported types and functions
package monitoring

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector(t *testing.T) {
	t.Run("disabled collector runs without recording", func(t *testing.T) {
		collector := NewMetricsCollector(false)

		callCount := 0
		err := collector.RecordOperation("Select", func() (int, error) {
			callCount++
			return 3, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, callCount)
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("nil collector runs without recording", func(t *testing.T) {
		var collector *MetricsCollector
		err := collector.RecordOperation("Select", func() (int, error) { return 0, nil })
		require.NoError(t, err)
	})

	t.Run("enabled collector records rows and failures", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		boom := errors.New("boom")

		require.NoError(t, collector.RecordOperation("Filter", func() (int, error) { return 10, nil }))
		err := collector.RecordOperation("Join", func() (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)

		metrics := collector.GetMetrics()
		require.Len(t, metrics, 2)
		assert.Equal(t, "Filter", metrics[0].Operation)
		assert.Equal(t, int64(10), metrics[0].RowsProcessed)
		assert.False(t, metrics[0].Failed)
		assert.True(t, metrics[1].Failed)
	})

	t.Run("clear", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		require.NoError(t, collector.RecordOperation("Head", func() (int, error) { return 1, nil }))
		collector.Clear()
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("concurrent recording", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = collector.RecordOperation("Sort", func() (int, error) { return 1, nil })
			}()
		}
		wg.Wait()
		assert.Len(t, collector.GetMetrics(), 20)
	})
}

func TestSummary(t *testing.T) {
	collector := NewMetricsCollector(true)
	assert.Equal(t, MetricsSummary{}, collector.Summary())

	for _, rows := range []int{2, 3} {
		require.NoError(t, collector.RecordOperation("Filter", func() (int, error) { return rows, nil }))
	}
	_ = collector.RecordOperation("Join", func() (int, error) { return 0, errors.New("bad keys") })

	summary := collector.Summary()
	assert.Equal(t, 3, summary.TotalOperations)
	assert.Equal(t, int64(5), summary.TotalRows)
	assert.Equal(t, 2, summary.Operations["Filter"].Count)
	assert.Equal(t, int64(5), summary.Operations["Filter"].TotalRows)
	assert.Equal(t, 1, summary.Operations["Join"].Failures)

	var buf bytes.Buffer
	n, err := summary.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.True(t, bytes.HasPrefix(lines[1], []byte("Filter")))
	assert.True(t, bytes.HasPrefix(lines[2], []byte("Join")))
}

func TestGlobalCollector(t *testing.T) {
	original := GetGlobalCollector()
	defer SetGlobalCollector(original)

	SetGlobalCollector(nil)
	require.NoError(t, RecordGlobalOperation("Head", func() (int, error) { return 1, nil }))
	assert.Equal(t, MetricsSummary{}, GetGlobalSummary())

	collector := EnableGlobalMonitoring()
	require.NoError(t, RecordGlobalOperation("Head", func() (int, error) { return 1, nil }))
	assert.Len(t, collector.GetMetrics(), 1)
	assert.Equal(t, 1, GetGlobalSummary().TotalOperations)
}
