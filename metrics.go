package idset

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordAdd is called by Manager.Add after each insertion attempt,
	// successful or not. The package-level Add/TryAdd do not call it.
	RecordAdd(duration time.Duration, changed bool, err error)

	// RecordRemove is called by Manager.Remove after each removal attempt.
	// The package-level Remove/TryRemove do not call it.
	RecordRemove(duration time.Duration, changed bool, err error)

	// RecordRebuild is called by Manager.Remove when a removal turns a Node
	// into a non-Node representation. Rebuilds on insertion are not
	// reported.
	RecordRebuild(count int, duration time.Duration, err error)

	// RecordMemory reports the EstimateMemoryConsumption result of a handle
	// built by Manager.Create.
	RecordMemory(bytes uint64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, bool, error)    {}
func (NoopMetricsCollector) RecordRemove(time.Duration, bool, error) {}
func (NoopMetricsCollector) RecordRebuild(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordMemory(uint64)                     {}

// BasicMetricsCollector provides simple in-memory metrics collection,
// useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount          atomic.Int64
	AddChanged        atomic.Int64
	AddErrors         atomic.Int64
	AddTotalNanos     atomic.Int64
	RemoveCount       atomic.Int64
	RemoveChanged     atomic.Int64
	RemoveErrors      atomic.Int64
	RemoveTotalNanos  atomic.Int64
	RebuildCount      atomic.Int64
	RebuildErrors     atomic.Int64
	RebuildTotalNanos atomic.Int64
	LastMemoryBytes atomic.Uint64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, changed bool, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if changed {
		b.AddChanged.Add(1)
	}
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(duration time.Duration, changed bool, err error) {
	b.RemoveCount.Add(1)
	b.RemoveTotalNanos.Add(duration.Nanoseconds())
	if changed {
		b.RemoveChanged.Add(1)
	}
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// RecordRebuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRebuild(count int, duration time.Duration, err error) {
	b.RebuildCount.Add(1)
	b.RebuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RebuildErrors.Add(1)
	}
}

// RecordMemory implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMemory(bytes uint64) {
	b.LastMemoryBytes.Store(bytes)
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount        int64
	AddChanged      int64
	AddErrors       int64
	AddAvgNanos     int64
	RemoveCount     int64
	RemoveChanged   int64
	RemoveErrors    int64
	RemoveAvgNanos  int64
	RebuildCount    int64
	RebuildErrors   int64
	LastMemoryBytes uint64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:        b.AddCount.Load(),
		AddChanged:      b.AddChanged.Load(),
		AddErrors:       b.AddErrors.Load(),
		AddAvgNanos:     avg(b.AddTotalNanos.Load(), b.AddCount.Load()),
		RemoveCount:     b.RemoveCount.Load(),
		RemoveChanged:   b.RemoveChanged.Load(),
		RemoveErrors:    b.RemoveErrors.Load(),
		RemoveAvgNanos:  avg(b.RemoveTotalNanos.Load(), b.RemoveCount.Load()),
		RebuildCount:    b.RebuildCount.Load(),
		RebuildErrors:   b.RebuildErrors.Load(),
		LastMemoryBytes: b.LastMemoryBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}
