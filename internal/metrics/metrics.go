package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or latency histogram.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginRateLimited
	MetricCredentialUpgraded
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshRevoked
	MetricSessionCreated
	MetricSessionRotated
	MetricLogout
	MetricRegisterSuccess
	MetricRegisterFailure
	MetricRoleChanged
	MetricAccessRejected
	MetricPermissionDenied
	MetricStorageFailure
	MetricLoginLatency
	MetricRefreshLatency
	MetricValidateLatency
	MetricIDCount
)

const (
	// BucketCount is the number of latency buckets, the last one being +Inf.
	BucketCount   = 8
	cacheLineSize = 64
)

// latencySlot maps histogram metric IDs to their slot in Metrics.histograms.
var latencySlot = map[MetricID]int{
	MetricLoginLatency:    0,
	MetricRefreshLatency:  1,
	MetricValidateLatency: 2,
}

type histogram struct {
	buckets [BucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config controls which parts of [Metrics] record.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds atomic counters and fixed-bucket latency histograms. All
// methods are nil-safe and allocation-free on the write path.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	histograms    [3]histogram
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// New returns a [Metrics]. When cfg.Enabled is false every call is a no-op.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d into histogram id. Non-histogram IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency {
		return
	}
	slot, ok := latencySlot[id]
	if !ok {
		return
	}
	atomic.AddUint64(&m.histograms[slot].buckets[bucketIndex(d)], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when latency is enabled, every
// histogram's non-cumulative buckets.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := Snapshot{
		Counters:   make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms: make(map[MetricID][]uint64, len(latencySlot)),
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		if _, isHist := latencySlot[id]; isHist {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for id, slot := range latencySlot {
			buckets := make([]uint64, BucketCount)
			for i := 0; i < BucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[slot].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}
	return s
}

// IsHistogram reports whether id names a latency histogram.
func IsHistogram(id MetricID) bool {
	_, ok := latencySlot[id]
	return ok
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
