package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lagoinha-go/lagoinha/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raceEvents(raceID, winner string, failed ...string) []types.MetricEvent {
	events := []types.MetricEvent{
		{Type: types.MetricEventRequest, ProviderName: "lagoinha", ProviderType: types.ProviderTypeRace, RaceID: raceID},
	}
	for _, name := range append([]string{winner}, failed...) {
		if name == "" {
			continue
		}
		events = append(events, types.MetricEvent{
			Type: types.MetricEventRequest, ProviderName: name, ProviderType: types.ProviderTypeMock, RaceID: raceID,
		})
	}
	for _, name := range failed {
		events = append(events, types.MetricEvent{
			Type:         types.MetricEventError,
			ProviderName: name,
			ProviderType: types.ProviderTypeMock,
			RaceID:       raceID,
			ErrorType:    string(types.ErrCodeNotFound),
			ErrorMessage: "cep not found",
			Latency:      5 * time.Millisecond,
		})
	}
	if winner != "" {
		events = append(events,
			types.MetricEvent{
				Type: types.MetricEventSuccess, ProviderName: winner, ProviderType: types.ProviderTypeMock,
				RaceID: raceID, Latency: 20 * time.Millisecond,
			},
			types.MetricEvent{
				Type: types.MetricEventRaceComplete, ProviderName: "lagoinha", ProviderType: types.ProviderTypeRace,
				RaceID: raceID, RaceWinner: winner, Latency: 20 * time.Millisecond,
			},
		)
	} else {
		events = append(events, types.MetricEvent{
			Type: types.MetricEventError, ProviderName: "lagoinha", ProviderType: types.ProviderTypeRace,
			RaceID: raceID, ErrorType: "race_all_failed", ErrorMessage: "all providers failed",
		})
	}
	return events
}

func record(t *testing.T, c *DefaultMetricsCollector, events []types.MetricEvent) {
	t.Helper()
	for _, e := range events {
		require.NoError(t, c.RecordEvent(context.Background(), e))
	}
}

func TestNewDefaultMetricsCollector(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	require.NotNil(t, collector)

	snapshot := collector.GetSnapshot()
	assert.Equal(t, int64(0), snapshot.TotalRequests)
	assert.Empty(t, snapshot.ProviderBreakdown)
	assert.Empty(t, collector.GetProviderNames())
	assert.Nil(t, collector.GetProviderMetrics("viacep"))
}

func TestRecordEvent_RaceAggregates(t *testing.T) {
	collector := NewDefaultMetricsCollector()

	record(t, collector, raceEvents("r1", "viacep", "cepla"))
	record(t, collector, raceEvents("r2", "", "viacep", "cepla"))

	snapshot := collector.GetSnapshot()
	assert.Equal(t, int64(2), snapshot.TotalRequests)
	assert.Equal(t, int64(1), snapshot.SuccessfulRequests)
	assert.Equal(t, int64(1), snapshot.FailedRequests)
	assert.Equal(t, 0.5, snapshot.SuccessRate)
	assert.Equal(t, int64(1), snapshot.Errors.ErrorsByType["race_all_failed"])
	assert.Equal(t, int64(1), snapshot.Latency.TotalRequests)

	assert.Equal(t, []string{"cepla", "lagoinha", "viacep"}, collector.GetProviderNames())
}

func TestRecordEvent_ProviderBreakdown(t *testing.T) {
	collector := NewDefaultMetricsCollector()

	record(t, collector, raceEvents("r1", "viacep", "cepla"))
	record(t, collector, raceEvents("r2", "viacep"))
	// cepla launched but cancelled after viacep won
	record(t, collector, []types.MetricEvent{
		{Type: types.MetricEventRequest, ProviderName: "cepla", ProviderType: types.ProviderTypeMock, RaceID: "r2"},
	})

	viacep := collector.GetProviderMetrics("viacep")
	require.NotNil(t, viacep)
	assert.Equal(t, types.ProviderTypeMock, viacep.ProviderType)
	assert.Equal(t, int64(2), viacep.TotalRequests)
	assert.Equal(t, int64(2), viacep.SuccessfulRequests)
	assert.Equal(t, int64(2), viacep.RaceWins)
	assert.Equal(t, 1.0, viacep.WinRate)
	assert.Equal(t, 20*time.Millisecond, viacep.Latency.AverageLatency)

	cepla := collector.GetProviderMetrics("cepla")
	require.NotNil(t, cepla)
	assert.Equal(t, int64(2), cepla.TotalRequests)
	assert.Equal(t, int64(1), cepla.FailedRequests)
	assert.Equal(t, int64(1), cepla.Cancelled)
	assert.Equal(t, int64(0), cepla.RaceWins)
	assert.Equal(t, int64(1), cepla.Errors.ErrorsByType["not_found"])
	assert.Equal(t, "cep not found", cepla.Errors.LastError)
}

func TestRecordEvent_ConsecutiveErrorsResetOnSuccess(t *testing.T) {
	collector := NewDefaultMetricsCollector()

	record(t, collector, raceEvents("r1", "", "viacep"))
	record(t, collector, raceEvents("r2", "", "viacep"))
	assert.Equal(t, int64(2), collector.GetProviderMetrics("viacep").Errors.ConsecutiveErrors)

	record(t, collector, raceEvents("r3", "viacep"))
	assert.Equal(t, int64(0), collector.GetProviderMetrics("viacep").Errors.ConsecutiveErrors)
	assert.Equal(t, int64(0), collector.GetSnapshot().Errors.ConsecutiveErrors)
}

func TestRecordEvent_CancelledContext(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := collector.RecordEvent(ctx, types.MetricEvent{Type: types.MetricEventRequest, ProviderName: "viacep"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, collector.GetProviderMetrics("viacep"))
}

func TestSubscribe(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	sub := collector.Subscribe(10)
	defer sub.Unsubscribe()

	record(t, collector, raceEvents("r1", "viacep"))

	var got []types.MetricEventType
	for i := 0; i < 4; i++ {
		select {
		case e := <-sub.Events():
			got = append(got, e.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	assert.Equal(t, []types.MetricEventType{
		types.MetricEventRequest,
		types.MetricEventRequest,
		types.MetricEventSuccess,
		types.MetricEventRaceComplete,
	}, got)
	assert.NotEmpty(t, sub.ID())
}

func TestSubscribeFiltered_Overflow(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	sub := collector.SubscribeFiltered(1, types.MetricFilter{
		EventTypes: []types.MetricEventType{types.MetricEventError},
	})
	defer sub.Unsubscribe()

	record(t, collector, raceEvents("r1", "", "viacep", "cepla"))

	// three error events (two providers + race), buffer of one
	assert.Equal(t, int64(2), sub.OverflowCount())
	e := <-sub.Events()
	assert.Equal(t, types.MetricEventError, e.Type)
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	sub := collector.Subscribe(1)
	sub.Unsubscribe()
	sub.Unsubscribe()

	_, ok := <-sub.Events()
	assert.False(t, ok)

	require.NoError(t, collector.RecordEvent(context.Background(), types.MetricEvent{Type: types.MetricEventRequest}))
}

type recordingHook struct {
	mu     sync.Mutex
	events []types.MetricEvent
	filter *types.MetricFilter
}

func (h *recordingHook) OnEvent(_ context.Context, event types.MetricEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recordingHook) Name() string                { return "recording" }
func (h *recordingHook) Filter() *types.MetricFilter { return h.filter }

func (h *recordingHook) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

type panickingHook struct{}

func (panickingHook) OnEvent(context.Context, types.MetricEvent) { panic("boom") }
func (panickingHook) Name() string                               { return "panicking" }
func (panickingHook) Filter() *types.MetricFilter                { return nil }

func TestHooks(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	all := &recordingHook{}
	wins := &recordingHook{filter: &types.MetricFilter{EventTypes: []types.MetricEventType{types.MetricEventRaceComplete}}}

	allID := collector.RegisterHook(all)
	collector.RegisterHook(wins)
	collector.RegisterHook(panickingHook{})

	record(t, collector, raceEvents("r1", "viacep"))
	assert.Equal(t, 4, all.count())
	assert.Equal(t, 1, wins.count())

	collector.UnregisterHook(allID)
	record(t, collector, raceEvents("r2", "viacep"))
	assert.Equal(t, 4, all.count())
	assert.Equal(t, 2, wins.count())
}

func TestReset(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	record(t, collector, raceEvents("r1", "viacep", "cepla"))

	collector.Reset()

	snapshot := collector.GetSnapshot()
	assert.Equal(t, int64(0), snapshot.TotalRequests)
	assert.Equal(t, int64(0), snapshot.Errors.TotalErrors)
	assert.Empty(t, snapshot.ProviderBreakdown)
	assert.True(t, snapshot.FirstRequestTime.IsZero())
}

func TestClose(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	sub := collector.Subscribe(1)

	require.NoError(t, collector.Close())
	require.NoError(t, collector.Close())

	_, ok := <-sub.Events()
	assert.False(t, ok)

	err := collector.RecordEvent(context.Background(), types.MetricEvent{Type: types.MetricEventRequest})
	assert.Error(t, err)

	late := collector.Subscribe(1)
	_, ok = <-late.Events()
	assert.False(t, ok)
}

func TestConcurrentRecording(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, e := range raceEvents("r", "viacep", "cepla") {
				_ = collector.RecordEvent(context.Background(), e)
			}
		}()
	}
	wg.Wait()

	snapshot := collector.GetSnapshot()
	assert.Equal(t, int64(20), snapshot.TotalRequests)
	assert.Equal(t, int64(20), collector.GetProviderMetrics("viacep").RaceWins)
	assert.Equal(t, int64(20), collector.GetProviderMetrics("cepla").FailedRequests)
}
