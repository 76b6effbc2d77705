package authflow

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter. IDs are dense; exporters iterate
// the full range when building a snapshot.
type MetricID uint16

const (
	// MetricLoginSuccess counts credential logins that created a session.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts credential logins the backend rejected.
	MetricLoginFailure
	// MetricLoginVerificationRequired counts logins parked on an OTP challenge.
	MetricLoginVerificationRequired
	// MetricRegisterSuccess counts accepted registrations.
	MetricRegisterSuccess
	// MetricRegisterFailure counts rejected registrations.
	MetricRegisterFailure
	// MetricOTPVerifySuccess counts verification codes the backend accepted.
	MetricOTPVerifySuccess
	// MetricOTPVerifyFailure counts verification codes the backend rejected.
	MetricOTPVerifyFailure
	// MetricOTPRejectedLocal counts codes rejected locally before any request.
	MetricOTPRejectedLocal
	// MetricOTPResend counts resend requests that reached the backend.
	MetricOTPResend
	// MetricOTPResendBlocked counts resends refused by the cooldown.
	MetricOTPResendBlocked
	// MetricFederatedSuccess counts federated logins that created a session.
	MetricFederatedSuccess
	// MetricFederatedFailure counts federated exchanges the backend rejected.
	MetricFederatedFailure
	// MetricFederatedUnavailable counts federated attempts with no provider configured.
	MetricFederatedUnavailable
	// MetricRestoreSuccess counts startup restores that revived a session.
	MetricRestoreSuccess
	// MetricRestoreFailure counts startup restores that ended anonymous.
	MetricRestoreFailure
	// MetricSessionCreated counts sessions committed from any flow.
	MetricSessionCreated
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricProfileUpdateSuccess counts accepted profile updates.
	MetricProfileUpdateSuccess
	// MetricProfileUpdateFailure counts rejected profile updates.
	MetricProfileUpdateFailure
	// MetricPasswordChangeSuccess counts accepted password rotations.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeFailure counts rejected password rotations.
	MetricPasswordChangeFailure
	// MetricGateOpened counts auth gates opened for protected features.
	MetricGateOpened
	// MetricGateResolved counts gates resolved by a successful login.
	MetricGateResolved
	// MetricGateCancelled counts gates dismissed without authenticating.
	MetricGateCancelled
	// MetricGateBypassed counts gate requests satisfied by an existing session.
	MetricGateBypassed
	// MetricRestoreLatency is the restore duration histogram.
	MetricRestoreLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's counters. Counters are lock-free and padded to
// cache lines; a disabled Metrics is a no-op on every method.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms,
// the input format for the exporters under metrics/export.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics honoring cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the restore histogram is being recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a duration sample. Only MetricRestoreLatency has a
// histogram; other IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricRestoreLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current counter value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram. Safe to call concurrently
// with recording; each cell is read atomically.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRestoreLatency].buckets[i])
		}
		s.Histograms[MetricRestoreLatency] = buckets
	}

	return s
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
