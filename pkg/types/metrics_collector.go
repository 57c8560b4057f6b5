package types

import (
	"context"
	"time"
)

// MetricsCollector collects and aggregates lookup metrics emitted by the race coordinator.
// It supports polling (snapshots), streaming (subscriptions) and synchronous callbacks (hooks).
//
// Thread-safety: all methods are safe for concurrent use by multiple goroutines.
type MetricsCollector interface {
	// GetSnapshot returns a point-in-time copy of all metrics. Aggregate counters describe
	// resolve calls; per-provider figures live in ProviderBreakdown.
	GetSnapshot() MetricsSnapshot

	// GetProviderMetrics returns metrics for a provider (or coordinator) by name,
	// or nil if nothing was recorded for it.
	GetProviderMetrics(providerName string) *ProviderMetricsSnapshot

	// GetProviderNames returns a sorted list of all tracked names.
	GetProviderNames() []string

	// Subscribe creates a subscription receiving every event. The subscriber must keep
	// reading; events are dropped (and counted) when the buffer is full.
	Subscribe(bufferSize int) MetricsSubscription

	// SubscribeFiltered is Subscribe restricted to events matching filter.
	SubscribeFiltered(bufferSize int, filter MetricFilter) MetricsSubscription

	// RegisterHook registers a synchronous callback. Hooks must be fast.
	RegisterHook(hook MetricsHook) HookID

	// UnregisterHook removes a previously registered hook.
	UnregisterHook(id HookID)

	// RecordEvent records a single event.
	RecordEvent(ctx context.Context, event MetricEvent) error

	// Reset clears all recorded data. Subscriptions and hooks are kept.
	Reset()

	// Close closes all subscriptions and rejects further events.
	Close() error
}

// MetricsSubscription is a stream of metric events.
type MetricsSubscription interface {
	// Events returns the channel events are delivered on. It is closed on Unsubscribe.
	Events() <-chan MetricEvent

	// Unsubscribe stops delivery and closes the channel. Safe to call more than once.
	Unsubscribe()

	// ID returns the unique subscription identifier.
	ID() string

	// OverflowCount returns the number of events dropped because the buffer was full.
	OverflowCount() int64
}

// MetricFilter selects events for filtered subscriptions and hooks.
// Empty fields match everything.
type MetricFilter struct {
	ProviderNames []string          `json:"provider_names,omitempty"`
	ProviderTypes []ProviderType    `json:"provider_types,omitempty"`
	EventTypes    []MetricEventType `json:"event_types,omitempty"`

	// MinLatency filters events with latency >= this threshold.
	MinLatency time.Duration `json:"min_latency,omitempty"`

	// ErrorTypes keeps only error events with one of these error types.
	ErrorTypes []string `json:"error_types,omitempty"`
}

// Matches returns true if the given event matches this filter's criteria.
func (f MetricFilter) Matches(event MetricEvent) bool {
	if len(f.ProviderNames) > 0 && !contains(f.ProviderNames, event.ProviderName) {
		return false
	}
	if len(f.ProviderTypes) > 0 && !contains(f.ProviderTypes, event.ProviderType) {
		return false
	}
	if len(f.EventTypes) > 0 && !contains(f.EventTypes, event.Type) {
		return false
	}
	if f.MinLatency > 0 && event.Latency < f.MinLatency {
		return false
	}
	if len(f.ErrorTypes) > 0 && event.ErrorType != "" && !contains(f.ErrorTypes, event.ErrorType) {
		return false
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// MetricsHook is a synchronous callback on metric events.
// OnEvent runs inline with a short deadline, so it should be fast.
type MetricsHook interface {
	OnEvent(ctx context.Context, event MetricEvent)

	// Name returns a human-readable name for this hook.
	Name() string

	// Filter returns an optional filter; nil receives all events.
	Filter() *MetricFilter
}

// HookID is a unique identifier for a registered hook.
type HookID string

// MetricEvent represents a single metrics event. Events are immutable after creation.
type MetricEvent struct {
	Type MetricEventType `json:"type"`

	ProviderName string       `json:"provider_name"`
	ProviderType ProviderType `json:"provider_type"`

	// RaceID correlates every event emitted by one resolve call.
	RaceID string `json:"race_id,omitempty"`

	Timestamp time.Time     `json:"timestamp"`
	Latency   time.Duration `json:"latency,omitempty"`

	// Error details (only for error events)
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	StatusCode   int    `json:"status_code,omitempty"`

	// Race context
	ToProvider       string                   `json:"to_provider,omitempty"`
	SwitchReason     string                   `json:"switch_reason,omitempty"`
	RaceParticipants []string                 `json:"race_participants,omitempty"`
	RaceLatencies    map[string]time.Duration `json:"race_latencies,omitempty"`
	RaceWinner       string                   `json:"race_winner,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// MetricEventType categorizes different types of metrics events.
type MetricEventType string

const (
	// MetricEventRequest indicates a lookup or a race was started
	MetricEventRequest MetricEventType = "request"

	// MetricEventSuccess indicates a provider answered with an address
	MetricEventSuccess MetricEventType = "success"

	// MetricEventError indicates a provider (or a whole race) failed
	MetricEventError MetricEventType = "error"

	// MetricEventTimeout indicates a provider failed with a timeout
	MetricEventTimeout MetricEventType = "timeout"

	// MetricEventProviderSwitch indicates the race selected a winning provider
	MetricEventProviderSwitch MetricEventType = "provider_switch"

	// MetricEventRaceComplete indicates a race finished with a winner
	MetricEventRaceComplete MetricEventType = "race_complete"
)

// String returns the string representation of the event type.
func (t MetricEventType) String() string {
	return string(t)
}

// IsError returns true if this event type represents an error condition.
func (t MetricEventType) IsError() bool {
	return t == MetricEventError || t == MetricEventTimeout
}
