// Package mock provides a deterministic, network-free lookup provider for exercising
// races in tests and examples. Behavior (delay, address, error, panic) is configured up
// front and every call is tracked, including whether the call observed cancellation.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// Provider is a configurable types.Provider.
type Provider struct {
	mu sync.RWMutex

	name       string
	delay      time.Duration
	address    types.Address
	err        error
	panicValue interface{}

	lookupCalled   int
	cancelled      int
	completed      int
	lastPostalCode string

	done chan struct{}
}

// New creates a mock provider that answers immediately with an empty address.
// Configure it with the With* methods before use.
func New(name string) *Provider {
	return &Provider{
		name: name,
		done: make(chan struct{}, 64),
	}
}

// Succeeding returns a provider that answers with addr after delay.
func Succeeding(name string, delay time.Duration, addr types.Address) *Provider {
	return New(name).WithDelay(delay).WithAddress(addr)
}

// Failing returns a provider that fails with the given code after delay.
func Failing(name string, delay time.Duration, code types.ErrorCode, message string) *Provider {
	return New(name).WithDelay(delay).WithError(types.NewProviderError(name, code, message))
}

// WithDelay sets how long Lookup waits before answering.
func (p *Provider) WithDelay(d time.Duration) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
	return p
}

// WithAddress sets the address returned on success and clears any configured error.
func (p *Provider) WithAddress(addr types.Address) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.address = addr
	p.err = nil
	return p
}

// WithError makes Lookup fail with err after the delay.
func (p *Provider) WithError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

// WithPanic makes Lookup panic with v instead of answering.
func (p *Provider) WithPanic(v interface{}) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panicValue = v
	return p
}

func (p *Provider) Name() string             { return p.name }
func (p *Provider) Type() types.ProviderType { return types.ProviderTypeMock }

// Lookup waits for the configured delay, then answers. If ctx ends first the call
// is counted as cancelled and returns a network error wrapping ctx.Err().
func (p *Provider) Lookup(ctx context.Context, postalCode string) (types.Address, error) {
	p.mu.Lock()
	p.lookupCalled++
	p.lastPostalCode = postalCode
	delay, addr, err, panicValue := p.delay, p.address, p.err, p.panicValue
	p.mu.Unlock()

	defer p.signalDone()

	if panicValue != nil {
		panic(panicValue)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		p.mu.Lock()
		p.cancelled++
		p.mu.Unlock()
		return types.Address{}, types.NewNetworkError(p.name, "lookup cancelled").WithOriginalErr(ctx.Err())
	}

	p.mu.Lock()
	p.completed++
	p.mu.Unlock()

	if err != nil {
		return types.Address{}, err
	}
	return addr, nil
}

// Done receives one value each time a Lookup call returns (or panics).
func (p *Provider) Done() <-chan struct{} {
	return p.done
}

func (p *Provider) signalDone() {
	select {
	case p.done <- struct{}{}:
	default:
	}
}

// LookupCallCount returns the number of times Lookup was called
func (p *Provider) LookupCallCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lookupCalled
}

// CancelledCount returns the number of calls that observed cancellation
func (p *Provider) CancelledCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cancelled
}

// CompletedCount returns the number of calls that ran to completion
func (p *Provider) CompletedCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.completed
}

// LastPostalCode returns the postal code passed to the most recent call
func (p *Provider) LastPostalCode() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPostalCode
}

// Reset clears call tracking; configuration is kept.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookupCalled = 0
	p.cancelled = 0
	p.completed = 0
	p.lastPostalCode = ""
	for {
		select {
		case <-p.done:
		default:
			return
		}
	}
}
