package idset

import (
	"time"

	"github.com/outpost-systems/idset/internal/alloc"
)

// Manager bundles an Allocator with the ambient stack (logging, metrics)
// around the package's free-function API. It exists for callers who want
// every mutation instrumented consistently without threading a logger and
// collector through each call; the underlying Create/Add/Remove/Release
// functions remain usable directly by callers who don't.
type Manager struct {
	alloc   alloc.Allocator
	logger  *Logger
	metrics MetricsCollector
}

// NewManager builds a Manager over allocator, applying opts.
func NewManager(allocator alloc.Allocator, opts ...Option) *Manager {
	o := applyOptions(opts)
	return &Manager{alloc: allocator, logger: o.logger, metrics: o.metricsCollector}
}

// Allocator returns the underlying allocator, for callers that need to
// mix Manager-instrumented calls with direct package-level calls.
func (m *Manager) Allocator() alloc.Allocator {
	return m.alloc
}

// Create builds a handle containing ids, logging any allocation failure
// and reporting the resulting memory estimate to the metrics collector.
func (m *Manager) Create(ids []uint32) (Handle, error) {
	h, err := Create(m.alloc, ids)
	if err != nil {
		if err != ErrNotAscending {
			m.logger.LogAllocFailure("create", err)
		}
		return h, err
	}
	m.metrics.RecordMemory(EstimateMemoryConsumption(h))
	return h, nil
}

// Add inserts id into the set h denotes, recording duration and outcome.
func (m *Manager) Add(h Handle, id uint32) (Handle, error) {
	start := time.Now()
	result, changed, err := TryAdd(m.alloc, h, id)
	m.metrics.RecordAdd(time.Since(start), changed, err)
	if err != nil {
		m.logger.LogAllocFailure("add", err)
		return h, err
	}
	if !changed {
		return Acquire(h), nil
	}
	m.logger.LogTransition(h.Kind(), result.Kind(), int(Count(result)))
	return result, nil
}

// Remove removes id from the set h denotes, recording duration and outcome.
func (m *Manager) Remove(h Handle, id uint32) (Handle, error) {
	start := time.Now()
	result, changed, err := TryRemove(m.alloc, h, id)
	m.metrics.RecordRemove(time.Since(start), changed, err)
	if err != nil {
		m.logger.LogAllocFailure("remove", err)
		return h, err
	}
	if !changed {
		return Acquire(h), nil
	}
	if h.Kind() == KindNode && result.Kind() != KindNode {
		m.metrics.RecordRebuild(int(Count(result)), time.Since(start), nil)
	}
	m.logger.LogTransition(h.Kind(), result.Kind(), int(Count(result)))
	return result, nil
}

// Release releases h through the Manager's allocator.
func (m *Manager) Release(h Handle) {
	Release(m.alloc, h)
}
