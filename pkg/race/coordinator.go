package race

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// DefaultName identifies the coordinator in logs and metric events.
const DefaultName = "lagoinha"

// Coordinator races a fixed list of providers. It holds no per-call state, so a single
// Coordinator may serve concurrent Resolve calls.
type Coordinator struct {
	name             string
	providers        []types.Provider
	logger           zerolog.Logger
	metricsCollector types.MetricsCollector
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithName sets the name used for the coordinator's own log lines and metric events.
func WithName(name string) Option {
	return func(c *Coordinator) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetricsCollector makes the coordinator emit a metric event for every race and
// every provider attempt.
func WithMetricsCollector(collector types.MetricsCollector) Option {
	return func(c *Coordinator) {
		c.metricsCollector = collector
	}
}

type attempt struct {
	index    int
	provider types.Provider
	address  types.Address
	err      *types.ProviderError
	latency  time.Duration
}

// New creates a coordinator over providers. The slice is copied; later changes by the
// caller do not affect the coordinator.
func New(providers []types.Provider, opts ...Option) (*Coordinator, error) {
	if len(providers) == 0 {
		return nil, ErrEmptyProviderList
	}
	for i, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("race: provider at index %d is nil", i)
		}
	}

	c := &Coordinator{
		name:      DefaultName,
		providers: append([]types.Provider(nil), providers...),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Resolve races providers for a single lookup without keeping a Coordinator around.
func Resolve(ctx context.Context, postalCode string, providers []types.Provider, opts ...Option) (*Result, error) {
	c, err := New(providers, opts...)
	if err != nil {
		return nil, err
	}
	return c.Resolve(ctx, postalCode)
}

// ResolveWithTimeout bounds a single Resolve call by d. Providers still running when
// the deadline passes report a timeout.
func ResolveWithTimeout(ctx context.Context, c *Coordinator, postalCode string, d time.Duration) (*Result, error) {
	if d <= 0 {
		return c.Resolve(ctx, postalCode)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return c.Resolve(ctx, postalCode)
}

func (c *Coordinator) Name() string { return c.name }

// Providers returns a copy of the registered providers, in registration order.
func (c *Coordinator) Providers() []types.Provider {
	return append([]types.Provider(nil), c.providers...)
}

// Resolve starts one attempt per provider and returns the first address produced.
//
// The postal code is handed to every provider as given. If all providers fail, the
// error is an *AllFailedError. If ctx ends first, the context error is returned
// wrapped with the race id.
func (c *Coordinator) Resolve(ctx context.Context, postalCode string) (*Result, error) {
	raceID := uuid.NewString()
	start := time.Now()
	logger := c.logger.With().
		Str("race_id", raceID).
		Str("race", c.name).
		Str("postal_code", postalCode).
		Logger()

	// Metric events outlive a cancelled caller context.
	metricsCtx := context.WithoutCancel(ctx)

	participants := make([]string, len(c.providers))
	for i, p := range c.providers {
		participants[i] = p.Name()
	}

	c.recordEvent(metricsCtx, types.MetricEvent{
		Type:             types.MetricEventRequest,
		ProviderName:     c.name,
		ProviderType:     types.ProviderTypeRace,
		RaceID:           raceID,
		RaceParticipants: participants,
	})

	// Cancelled as soon as a winner is known so the losers can stop early.
	raceCtx, cancelRace := context.WithCancel(ctx)
	defer cancelRace()

	// Buffered so that attempts finishing after Resolve returns never block.
	results := make(chan *attempt, len(c.providers))

	for i, p := range c.providers {
		c.recordEvent(metricsCtx, types.MetricEvent{
			Type:         types.MetricEventRequest,
			ProviderName: p.Name(),
			ProviderType: p.Type(),
			RaceID:       raceID,
		})
		go runAttempt(raceCtx, i, p, postalCode, results)
	}
	logger.Debug().Strs("providers", participants).Msg("race started")

	failures := make([]*types.ProviderError, len(c.providers))
	latencies := make(map[string]time.Duration, len(c.providers))

	for pending := len(c.providers); pending > 0; pending-- {
		select {
		case result := <-results:
			name := result.provider.Name()
			latencies[name] = result.latency

			if result.err == nil {
				cancelRace()
				c.recordWin(metricsCtx, raceID, result, participants, latencies, time.Since(start))
				logger.Info().
					Str("provider", name).
					Dur("latency", result.latency).
					Msg("race won")
				return &Result{
					Address:  result.address,
					Provider: name,
					Latency:  result.latency,
					RaceID:   raceID,
				}, nil
			}

			failures[result.index] = result.err
			c.recordFailure(metricsCtx, raceID, result)
			logger.Debug().
				Str("provider", name).
				Str("code", string(result.err.Code)).
				Dur("latency", result.latency).
				Err(result.err).
				Msg("provider failed")

			// Failures caused by the caller giving up are not provider verdicts.
			if ctx.Err() != nil {
				return nil, c.abandon(metricsCtx, logger, raceID, ctx.Err(), participants, latencies, start)
			}

		case <-ctx.Done():
			cancelRace()
			return nil, c.abandon(metricsCtx, logger, raceID, ctx.Err(), participants, latencies, start)
		}
	}

	c.recordEvent(metricsCtx, types.MetricEvent{
		Type:             types.MetricEventError,
		ProviderName:     c.name,
		ProviderType:     types.ProviderTypeRace,
		RaceID:           raceID,
		Latency:          time.Since(start),
		ErrorType:        "race_all_failed",
		ErrorMessage:     "all providers failed",
		RaceParticipants: participants,
		RaceLatencies:    latencies,
	})

	allFailed := &AllFailedError{RaceID: raceID, Errors: failures}
	logger.Warn().
		Err(allFailed).
		Dur("latency", time.Since(start)).
		Msg("all providers failed")
	return nil, allFailed
}

func (c *Coordinator) abandon(ctx context.Context, logger zerolog.Logger, raceID string, cause error, participants []string, latencies map[string]time.Duration, start time.Time) error {
	c.recordAbort(ctx, raceID, cause, participants, latencies)
	logger.Warn().
		Err(cause).
		Dur("latency", time.Since(start)).
		Msg("race abandoned")
	return fmt.Errorf("race %s: %w", raceID, cause)
}

// runAttempt performs one provider lookup and always sends exactly one result.
func runAttempt(ctx context.Context, index int, p types.Provider, postalCode string, results chan<- *attempt) {
	start := time.Now()
	name := p.Name()

	defer func() {
		if r := recover(); r != nil {
			results <- &attempt{
				index:    index,
				provider: p,
				err:      types.NewUnavailableError(name, fmt.Sprintf("provider panicked: %v", r)),
				latency:  time.Since(start),
			}
		}
	}()

	address, err := p.Lookup(ctx, postalCode)
	results <- &attempt{
		index:    index,
		provider: p,
		address:  address,
		err:      normalizeFailure(name, address, err),
		latency:  time.Since(start),
	}
}

// normalizeFailure maps whatever a provider returned onto a *types.ProviderError
// attributed to that provider, or nil when the attempt produced a usable address.
func normalizeFailure(provider string, address types.Address, err error) *types.ProviderError {
	if err == nil {
		if address.IsZero() {
			return types.NewMalformedResponseError(provider, "provider returned an empty address")
		}
		return nil
	}

	var pe *types.ProviderError
	if errors.As(err, &pe) && pe != nil {
		if pe.Provider == provider {
			return pe
		}
		attributed := *pe
		attributed.Provider = provider
		return &attributed
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewTimeoutError(provider, "lookup deadline exceeded").WithOriginalErr(err)
	case errors.Is(err, context.Canceled):
		return types.NewNetworkError(provider, "lookup cancelled").WithOriginalErr(err)
	default:
		return types.NewUnavailableError(provider, err.Error()).WithOriginalErr(err)
	}
}

func (c *Coordinator) recordWin(ctx context.Context, raceID string, winner *attempt, participants []string, latencies map[string]time.Duration, raceLatency time.Duration) {
	if c.metricsCollector == nil {
		return
	}
	name := winner.provider.Name()

	c.recordEvent(ctx, types.MetricEvent{
		Type:         types.MetricEventSuccess,
		ProviderName: name,
		ProviderType: winner.provider.Type(),
		RaceID:       raceID,
		Latency:      winner.latency,
	})
	c.recordEvent(ctx, types.MetricEvent{
		Type:             types.MetricEventRaceComplete,
		ProviderName:     c.name,
		ProviderType:     types.ProviderTypeRace,
		RaceID:           raceID,
		Latency:          raceLatency,
		RaceParticipants: participants,
		RaceLatencies:    copyLatencies(latencies),
		RaceWinner:       name,
	})
	c.recordEvent(ctx, types.MetricEvent{
		Type:         types.MetricEventProviderSwitch,
		ProviderName: c.name,
		ProviderType: types.ProviderTypeRace,
		RaceID:       raceID,
		Latency:      winner.latency,
		ToProvider:   name,
		SwitchReason: "race_winner",
	})
}

func (c *Coordinator) recordFailure(ctx context.Context, raceID string, failed *attempt) {
	eventType := types.MetricEventError
	if failed.err.Code == types.ErrCodeTimeout {
		eventType = types.MetricEventTimeout
	}
	c.recordEvent(ctx, types.MetricEvent{
		Type:         eventType,
		ProviderName: failed.provider.Name(),
		ProviderType: failed.provider.Type(),
		RaceID:       raceID,
		Latency:      failed.latency,
		ErrorType:    string(failed.err.Code),
		ErrorMessage: failed.err.Message,
		StatusCode:   failed.err.StatusCode,
	})
}

func (c *Coordinator) recordAbort(ctx context.Context, raceID string, cause error, participants []string, latencies map[string]time.Duration) {
	eventType, errorType := types.MetricEventError, "race_cancelled"
	if errors.Is(cause, context.DeadlineExceeded) {
		eventType, errorType = types.MetricEventTimeout, "race_deadline_exceeded"
	}
	c.recordEvent(ctx, types.MetricEvent{
		Type:             eventType,
		ProviderName:     c.name,
		ProviderType:     types.ProviderTypeRace,
		RaceID:           raceID,
		ErrorType:        errorType,
		ErrorMessage:     cause.Error(),
		RaceParticipants: participants,
		RaceLatencies:    copyLatencies(latencies),
	})
}

func (c *Coordinator) recordEvent(ctx context.Context, event types.MetricEvent) {
	if c.metricsCollector == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := c.metricsCollector.RecordEvent(ctx, event); err != nil {
		c.logger.Debug().Err(err).Str("event", string(event.Type)).Msg("metric event dropped")
	}
}

func copyLatencies(in map[string]time.Duration) map[string]time.Duration {
	out := make(map[string]time.Duration, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
