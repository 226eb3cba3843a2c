// Package monitoring provides metrics collection for DataFrame operations.
package monitoring

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync"
	"time"
)

// OperationMetrics represents performance metrics for a single DataFrame operation.
type OperationMetrics struct {
	Operation     string        `json:"operation"`
	Duration      time.Duration `json:"duration"`
	RowsProcessed int64         `json:"rows_processed"`
	MemoryUsed    int64         `json:"memory_used"`
	Failed        bool          `json:"failed"`
}

// MetricsCollector collects and stores performance metrics for DataFrame operations.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]OperationMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// RecordOperation executes fn and records its duration, allocation and the
// number of rows it reports having produced.
func (mc *MetricsCollector) RecordOperation(operation string, fn func() (int, error)) error {
	if mc == nil || !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)
	start := time.Now()

	rows, err := fn()

	duration := time.Since(start)
	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	metrics := OperationMetrics{
		Operation:     operation,
		Duration:      duration,
		RowsProcessed: int64(rows),
		MemoryUsed:    int64(memAfter.TotalAlloc - memBefore.TotalAlloc), //nolint:gosec // allocation deltas fit in int64
		Failed:        err != nil,
	}

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, metrics)
	mc.mu.Unlock()

	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return slices.Clone(mc.metrics)
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// OperationStats aggregates every recorded run of one operation.
type OperationStats struct {
	Count         int           `json:"count"`
	Failures      int           `json:"failures"`
	TotalDuration time.Duration `json:"total_duration"`
	TotalRows     int64         `json:"total_rows"`
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalOperations int                       `json:"total_operations"`
	TotalDuration   time.Duration             `json:"total_duration"`
	TotalMemory     int64                     `json:"total_memory"`
	TotalRows       int64                     `json:"total_rows"`
	AverageDuration time.Duration             `json:"average_duration"`
	Operations      map[string]OperationStats `json:"operations"`
}

// Summary returns a summary of collected metrics.
func (mc *MetricsCollector) Summary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	summary := MetricsSummary{
		TotalOperations: len(mc.metrics),
		Operations:      make(map[string]OperationStats),
	}
	for _, m := range mc.metrics {
		summary.TotalDuration += m.Duration
		summary.TotalMemory += m.MemoryUsed
		summary.TotalRows += m.RowsProcessed

		stats := summary.Operations[m.Operation]
		stats.Count++
		stats.TotalDuration += m.Duration
		stats.TotalRows += m.RowsProcessed
		if m.Failed {
			stats.Failures++
		}
		summary.Operations[m.Operation] = stats
	}
	summary.AverageDuration = summary.TotalDuration / time.Duration(len(mc.metrics))
	return summary
}

// WriteTo renders the summary as a table, one operation per line, sorted by name.
func (s MetricsSummary) WriteTo(w io.Writer) (int64, error) {
	names := make([]string, 0, len(s.Operations))
	for name := range s.Operations {
		names = append(names, name)
	}
	slices.Sort(names)

	var total int64
	write := func(format string, args ...any) error {
		n, err := fmt.Fprintf(w, format, args...)
		total += int64(n)
		return err
	}
	if err := write("%-16s %6s %8s %12s\n", "operation", "count", "rows", "duration"); err != nil {
		return total, err
	}
	for _, name := range names {
		st := s.Operations[name]
		if err := write("%-16s %6d %8d %12s\n", name, st.Count, st.TotalRows, st.TotalDuration); err != nil {
			return total, err
		}
	}
	return total, nil
}

//nolint:gochecknoglobals // process-wide collector shared by the lazy engine and the CLI
var (
	globalCollector *MetricsCollector
	globalMutex     sync.RWMutex
)

// SetGlobalCollector sets the global metrics collector.
func SetGlobalCollector(collector *MetricsCollector) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalCollector = collector
}

// GetGlobalCollector returns the global metrics collector, or nil.
func GetGlobalCollector() *MetricsCollector {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return globalCollector
}

// RecordGlobalOperation records an operation using the global collector.
// Without a global collector the operation simply runs.
func RecordGlobalOperation(operation string, fn func() (int, error)) error {
	return GetGlobalCollector().RecordOperation(operation, fn)
}

// EnableGlobalMonitoring creates and sets a global metrics collector.
func EnableGlobalMonitoring() *MetricsCollector {
	collector := NewMetricsCollector(true)
	SetGlobalCollector(collector)
	return collector
}

// GetGlobalSummary returns a summary from the global collector.
func GetGlobalSummary() MetricsSummary {
	collector := GetGlobalCollector()
	if collector == nil {
		return MetricsSummary{}
	}
	return collector.Summary()
}
