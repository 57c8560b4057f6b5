package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// Histogram keeps the most recent latency samples in a ring buffer and
// derives percentiles from them. Count, total, min and max cover every sample.
type Histogram struct {
	mu          sync.RWMutex
	samples     []time.Duration
	capacity    int
	next        int
	count       int64
	total       time.Duration
	min         time.Duration
	max         time.Duration
	lastUpdated time.Time
}

// NewHistogram creates a histogram retaining up to sampleSize samples.
func NewHistogram(sampleSize int) *Histogram {
	if sampleSize <= 0 {
		sampleSize = 1000
	}
	return &Histogram{
		samples:  make([]time.Duration, sampleSize),
		capacity: sampleSize,
	}
}

// Add records a latency sample.
func (h *Histogram) Add(latency time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples[h.next] = latency
	h.next = (h.next + 1) % h.capacity
	h.count++
	h.total += latency

	if h.count == 1 || latency < h.min {
		h.min = latency
	}
	if latency > h.max {
		h.max = latency
	}
	h.lastUpdated = time.Now()
}

// GetLatencyMetrics returns aggregate latency statistics.
func (h *Histogram) GetLatencyMetrics() types.LatencyMetrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return types.LatencyMetrics{LastUpdated: h.lastUpdated}
	}

	retained := h.capacity
	if h.count < int64(h.capacity) {
		retained = int(h.count)
	}
	sorted := make([]time.Duration, retained)
	copy(sorted, h.samples[:retained])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return types.LatencyMetrics{
		TotalRequests:  h.count,
		TotalLatency:   h.total,
		AverageLatency: h.total / time.Duration(h.count),
		MinLatency:     h.min,
		MaxLatency:     h.max,
		P50Latency:     percentile(sorted, 50),
		P75Latency:     percentile(sorted, 75),
		P90Latency:     percentile(sorted, 90),
		P95Latency:     percentile(sorted, 95),
		P99Latency:     percentile(sorted, 99),
		LastUpdated:    h.lastUpdated,
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	fraction := rank - float64(lower)
	return sorted[lower] + time.Duration(fraction*float64(sorted[lower+1]-sorted[lower]))
}

// Reset clears all samples.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = make([]time.Duration, h.capacity)
	h.next = 0
	h.count = 0
	h.total = 0
	h.min = 0
	h.max = 0
	h.lastUpdated = time.Time{}
}
