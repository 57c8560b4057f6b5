package metrics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// hookTimeout bounds how long a single hook may run per event.
const hookTimeout = 100 * time.Millisecond

// DefaultMetricsCollector is the default implementation of types.MetricsCollector.
//
// Aggregate counters follow resolve calls: request events from the coordinator start a
// race, race_complete marks it successful, and a coordinator error event marks it failed.
// Every event, including per-attempt ones, also feeds the breakdown for its provider.
type DefaultMetricsCollector struct {
	mu sync.RWMutex

	totalRequests      atomic.Int64
	successfulRequests atomic.Int64
	failedRequests     atomic.Int64

	providerMetrics  map[string]*providerMetrics
	latencyHistogram *Histogram
	errorMetrics     *errorMetrics

	subscriptions map[string]*subscription
	nextSubID     atomic.Int64

	hooks      map[types.HookID]*hookEntry
	nextHookID atomic.Int64

	firstRequestTime time.Time
	lastUpdated      time.Time
	closed           atomic.Bool
}

// providerMetrics holds per-provider aggregated metrics
type providerMetrics struct {
	mu sync.RWMutex

	providerName string
	providerType types.ProviderType

	totalRequests      atomic.Int64
	successfulRequests atomic.Int64
	failedRequests     atomic.Int64
	raceWins           atomic.Int64

	latencyHistogram *Histogram
	errorMetrics     *errorMetrics

	lastRequestTime time.Time
	lastUpdated     time.Time
}

type errorMetrics struct {
	mu                sync.RWMutex
	totalErrors       int64
	errorsByType      map[string]int64
	lastError         string
	lastErrorType     string
	lastErrorTime     time.Time
	consecutiveErrors int64
}

type hookEntry struct {
	id     types.HookID
	hook   types.MetricsHook
	filter *types.MetricFilter
}

// NewDefaultMetricsCollector creates an empty collector.
func NewDefaultMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		providerMetrics:  make(map[string]*providerMetrics),
		latencyHistogram: NewHistogram(1000),
		errorMetrics:     newErrorMetrics(),
		subscriptions:    make(map[string]*subscription),
		hooks:            make(map[types.HookID]*hookEntry),
	}
}

// GetSnapshot returns a complete snapshot of all metrics
func (c *DefaultMetricsCollector) GetSnapshot() types.MetricsSnapshot {
	c.mu.RLock()
	breakdown := make(map[string]*types.ProviderMetricsSnapshot, len(c.providerMetrics))
	for name, pm := range c.providerMetrics {
		breakdown[name] = pm.GetSnapshot()
	}
	firstRequest := c.firstRequestTime
	lastUpdated := c.lastUpdated
	c.mu.RUnlock()

	total := c.totalRequests.Load()
	successful := c.successfulRequests.Load()

	var uptime int64
	if !firstRequest.IsZero() {
		uptime = int64(time.Since(firstRequest).Seconds())
	}

	return types.MetricsSnapshot{
		TotalRequests:      total,
		SuccessfulRequests: successful,
		FailedRequests:     c.failedRequests.Load(),
		SuccessRate:        calculateRate(successful, total),
		Latency:            c.latencyHistogram.GetLatencyMetrics(),
		Errors:             c.errorMetrics.GetSnapshot(total),
		ProviderBreakdown:  breakdown,
		LastUpdated:        lastUpdated,
		FirstRequestTime:   firstRequest,
		Uptime:             uptime,
	}
}

// GetProviderMetrics returns metrics for a specific provider
func (c *DefaultMetricsCollector) GetProviderMetrics(providerName string) *types.ProviderMetricsSnapshot {
	c.mu.RLock()
	pm, ok := c.providerMetrics[providerName]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	return pm.GetSnapshot()
}

// GetProviderNames returns a sorted list of all provider names
func (c *DefaultMetricsCollector) GetProviderNames() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.providerMetrics))
	for name := range c.providerMetrics {
		names = append(names, name)
	}
	c.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Subscribe creates a new subscription for all events
func (c *DefaultMetricsCollector) Subscribe(bufferSize int) types.MetricsSubscription {
	return c.SubscribeFiltered(bufferSize, types.MetricFilter{})
}

// SubscribeFiltered creates a new subscription for events matching filter
func (c *DefaultMetricsCollector) SubscribeFiltered(bufferSize int, filter types.MetricFilter) types.MetricsSubscription {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	sub := &subscription{
		id:        fmt.Sprintf("sub-%d", c.nextSubID.Add(1)),
		events:    make(chan types.MetricEvent, bufferSize),
		filter:    filter,
		collector: c,
	}

	if c.closed.Load() {
		sub.shutdown()
		return sub
	}

	c.mu.Lock()
	c.subscriptions[sub.id] = sub
	c.mu.Unlock()

	return sub
}

// RegisterHook registers a synchronous callback
func (c *DefaultMetricsCollector) RegisterHook(hook types.MetricsHook) types.HookID {
	id := types.HookID(fmt.Sprintf("hook-%d", c.nextHookID.Add(1)))

	c.mu.Lock()
	c.hooks[id] = &hookEntry{id: id, hook: hook, filter: hook.Filter()}
	c.mu.Unlock()

	return id
}

// UnregisterHook removes a registered hook
func (c *DefaultMetricsCollector) UnregisterHook(id types.HookID) {
	c.mu.Lock()
	delete(c.hooks, id)
	c.mu.Unlock()
}

// RecordEvent records a single metrics event
func (c *DefaultMetricsCollector) RecordEvent(ctx context.Context, event types.MetricEvent) error {
	if c.closed.Load() {
		return fmt.Errorf("collector is closed")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.updateAggregateMetrics(event)
	c.updateProviderMetrics(event)
	c.publishToSubscriptions(event)
	c.callHooks(ctx, event)

	return nil
}

// Reset clears all metrics data
func (c *DefaultMetricsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests.Store(0)
	c.successfulRequests.Store(0)
	c.failedRequests.Store(0)

	c.providerMetrics = make(map[string]*providerMetrics)
	c.latencyHistogram.Reset()
	c.errorMetrics.reset()

	c.firstRequestTime = time.Time{}
	c.lastUpdated = time.Time{}
}

// Close shuts down the collector
func (c *DefaultMetricsCollector) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	subs := c.subscriptions
	c.subscriptions = make(map[string]*subscription)
	c.hooks = make(map[types.HookID]*hookEntry)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
	return nil
}

func (c *DefaultMetricsCollector) updateAggregateMetrics(event types.MetricEvent) {
	c.mu.Lock()
	if c.firstRequestTime.IsZero() {
		c.firstRequestTime = event.Timestamp
	}
	c.lastUpdated = time.Now()
	c.mu.Unlock()

	if event.ProviderType != types.ProviderTypeRace {
		return
	}

	switch event.Type {
	case types.MetricEventRequest:
		c.totalRequests.Add(1)
	case types.MetricEventRaceComplete:
		c.successfulRequests.Add(1)
		c.errorMetrics.RecordSuccess()
		if event.Latency > 0 {
			c.latencyHistogram.Add(event.Latency)
		}
	case types.MetricEventError, types.MetricEventTimeout:
		c.failedRequests.Add(1)
		c.errorMetrics.RecordError(event)
	}
}

func (c *DefaultMetricsCollector) updateProviderMetrics(event types.MetricEvent) {
	if event.ProviderName != "" {
		c.providerFor(event.ProviderName, event.ProviderType).RecordEvent(event)
	}

	// The winner is credited on its own breakdown entry.
	if event.Type == types.MetricEventRaceComplete && event.RaceWinner != "" {
		c.providerFor(event.RaceWinner, "").raceWins.Add(1)
	}
}

func (c *DefaultMetricsCollector) providerFor(name string, providerType types.ProviderType) *providerMetrics {
	c.mu.RLock()
	pm, ok := c.providerMetrics[name]
	c.mu.RUnlock()
	if ok {
		if providerType != "" {
			pm.setType(providerType)
		}
		return pm
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if pm, ok = c.providerMetrics[name]; !ok {
		pm = newProviderMetrics(name, providerType)
		c.providerMetrics[name] = pm
	}
	return pm
}

func (c *DefaultMetricsCollector) publishToSubscriptions(event types.MetricEvent) {
	c.mu.RLock()
	subs := make([]*subscription, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		subs = append(subs, sub)
	}
	c.mu.RUnlock()

	for _, sub := range subs {
		sub.publish(event)
	}
}

func (c *DefaultMetricsCollector) callHooks(ctx context.Context, event types.MetricEvent) {
	c.mu.RLock()
	hooks := make([]*hookEntry, 0, len(c.hooks))
	for _, h := range c.hooks {
		hooks = append(hooks, h)
	}
	c.mu.RUnlock()

	for _, entry := range hooks {
		if entry.filter != nil && !entry.filter.Matches(event) {
			continue
		}

		hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
		done := make(chan struct{})
		go func(h types.MetricsHook) {
			defer close(done)
			defer func() { _ = recover() }()
			h.OnEvent(hookCtx, event)
		}(entry.hook)

		select {
		case <-done:
		case <-hookCtx.Done():
		}
		cancel()
	}
}

func calculateRate(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

// providerMetrics methods

func newProviderMetrics(name string, providerType types.ProviderType) *providerMetrics {
	return &providerMetrics{
		providerName:     name,
		providerType:     providerType,
		latencyHistogram: NewHistogram(1000),
		errorMetrics:     newErrorMetrics(),
	}
}

func (pm *providerMetrics) setType(providerType types.ProviderType) {
	pm.mu.Lock()
	if pm.providerType == "" {
		pm.providerType = providerType
	}
	pm.mu.Unlock()
}

func (pm *providerMetrics) RecordEvent(event types.MetricEvent) {
	pm.mu.Lock()
	pm.lastUpdated = time.Now()
	if event.Type == types.MetricEventRequest {
		pm.lastRequestTime = event.Timestamp
	}
	pm.mu.Unlock()

	switch event.Type {
	case types.MetricEventRequest:
		pm.totalRequests.Add(1)
	case types.MetricEventSuccess, types.MetricEventRaceComplete:
		pm.successfulRequests.Add(1)
		pm.errorMetrics.RecordSuccess()
		if event.Latency > 0 {
			pm.latencyHistogram.Add(event.Latency)
		}
	case types.MetricEventError, types.MetricEventTimeout:
		pm.failedRequests.Add(1)
		pm.errorMetrics.RecordError(event)
	}
}

func (pm *providerMetrics) GetSnapshot() *types.ProviderMetricsSnapshot {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	total := pm.totalRequests.Load()
	successful := pm.successfulRequests.Load()
	failed := pm.failedRequests.Load()
	wins := pm.raceWins.Load()

	cancelled := total - successful - failed
	if cancelled < 0 {
		cancelled = 0
	}

	return &types.ProviderMetricsSnapshot{
		Provider:           pm.providerName,
		ProviderType:       pm.providerType,
		TotalRequests:      total,
		SuccessfulRequests: successful,
		FailedRequests:     failed,
		Cancelled:          cancelled,
		SuccessRate:        calculateRate(successful, total),
		RaceWins:           wins,
		WinRate:            calculateRate(wins, total),
		Latency:            pm.latencyHistogram.GetLatencyMetrics(),
		Errors:             pm.errorMetrics.GetSnapshot(total),
		LastRequestTime:    pm.lastRequestTime,
		LastUpdated:        pm.lastUpdated,
	}
}

// errorMetrics methods

func newErrorMetrics() *errorMetrics {
	return &errorMetrics{errorsByType: make(map[string]int64)}
}

func (em *errorMetrics) RecordError(event types.MetricEvent) {
	em.mu.Lock()
	defer em.mu.Unlock()

	errorType := event.ErrorType
	if errorType == "" {
		errorType = string(event.Type)
	}

	em.totalErrors++
	em.errorsByType[errorType]++
	em.lastError = event.ErrorMessage
	em.lastErrorType = errorType
	em.lastErrorTime = event.Timestamp
	em.consecutiveErrors++
}

func (em *errorMetrics) reset() {
	em.mu.Lock()
	defer em.mu.Unlock()

	em.totalErrors = 0
	em.errorsByType = make(map[string]int64)
	em.lastError = ""
	em.lastErrorType = ""
	em.lastErrorTime = time.Time{}
	em.consecutiveErrors = 0
}

func (em *errorMetrics) RecordSuccess() {
	em.mu.Lock()
	em.consecutiveErrors = 0
	em.mu.Unlock()
}

func (em *errorMetrics) GetSnapshot(totalRequests int64) types.ErrorMetrics {
	em.mu.RLock()
	defer em.mu.RUnlock()

	byType := make(map[string]int64, len(em.errorsByType))
	for k, v := range em.errorsByType {
		byType[k] = v
	}

	return types.ErrorMetrics{
		TotalErrors:       em.totalErrors,
		ErrorRate:         calculateRate(em.totalErrors, totalRequests),
		ErrorsByType:      byType,
		LastError:         em.lastError,
		LastErrorType:     em.lastErrorType,
		LastErrorTime:     em.lastErrorTime,
		ConsecutiveErrors: em.consecutiveErrors,
	}
}
