package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// subscription implements types.MetricsSubscription
type subscription struct {
	id            string
	events        chan types.MetricEvent
	filter        types.MetricFilter
	overflowCount atomic.Int64
	collector     *DefaultMetricsCollector
	closed        atomic.Bool
	mu            sync.Mutex
}

// Events returns the channel for receiving metrics events
func (s *subscription) Events() <-chan types.MetricEvent {
	return s.events
}

// Unsubscribe closes the subscription and stops event delivery
func (s *subscription) Unsubscribe() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	if s.collector != nil {
		s.collector.mu.Lock()
		delete(s.collector.subscriptions, s.id)
		s.collector.mu.Unlock()
	}

	s.mu.Lock()
	close(s.events)
	s.mu.Unlock()
}

// ID returns the unique identifier for this subscription
func (s *subscription) ID() string {
	return s.id
}

// OverflowCount returns the number of events dropped due to buffer overflow
func (s *subscription) OverflowCount() int64 {
	return s.overflowCount.Load()
}

// publish delivers event without blocking; a full buffer drops it.
func (s *subscription) publish(event types.MetricEvent) {
	if !s.filter.Matches(event) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}

	select {
	case s.events <- event:
	default:
		s.overflowCount.Add(1)
	}
}

// shutdown closes the channel when the collector itself is closed.
func (s *subscription) shutdown() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	close(s.events)
	s.mu.Unlock()
}
