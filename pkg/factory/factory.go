package factory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lagoinha-go/lagoinha/pkg/race"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// ProviderConstructor builds a provider from its configuration reference.
type ProviderConstructor func(ref race.ProviderReference) types.Provider

// DefaultProviderFactory is the default factory implementation
type DefaultProviderFactory struct {
	providers        map[types.ProviderType]ProviderConstructor
	mutex            sync.RWMutex
	metricsCollector types.MetricsCollector
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() *DefaultProviderFactory {
	return &DefaultProviderFactory{
		providers: make(map[types.ProviderType]ProviderConstructor),
	}
}

// SetMetricsCollector sets the metrics collector handed to every coordinator built by
// this factory.
func (f *DefaultProviderFactory) SetMetricsCollector(collector types.MetricsCollector) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.metricsCollector = collector
}

// RegisterProvider registers a new provider type
func (f *DefaultProviderFactory) RegisterProvider(providerType types.ProviderType, constructor ProviderConstructor) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.providers[providerType] = constructor
}

// CreateProvider creates a provider instance
func (f *DefaultProviderFactory) CreateProvider(ref race.ProviderReference) (types.Provider, error) {
	if ref.Type == "" {
		return nil, fmt.Errorf("provider type is required")
	}

	f.mutex.RLock()
	constructor, exists := f.providers[ref.Type]
	f.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("provider type %s not registered", ref.Type)
	}

	provider := constructor(ref)
	if provider == nil {
		return nil, fmt.Errorf("provider type %s: constructor returned nil", ref.Type)
	}
	return provider, nil
}

// BuildProviders creates one provider per reference, preserving order.
func (f *DefaultProviderFactory) BuildProviders(refs []race.ProviderReference) ([]types.Provider, error) {
	providers := make([]types.Provider, 0, len(refs))
	for i, ref := range refs {
		p, err := f.CreateProvider(ref)
		if err != nil {
			return nil, fmt.Errorf("providers[%d]: %w", i, err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// NewCoordinator validates cfg and builds a coordinator racing its providers. Options
// passed by the caller are applied after the ones derived from cfg.
func (f *DefaultProviderFactory) NewCoordinator(cfg *race.Config, opts ...race.Option) (*race.Coordinator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	providers, err := f.BuildProviders(cfg.Providers)
	if err != nil {
		return nil, err
	}

	f.mutex.RLock()
	collector := f.metricsCollector
	f.mutex.RUnlock()

	base := []race.Option{race.WithName(cfg.Name)}
	if collector != nil {
		base = append(base, race.WithMetricsCollector(collector))
	}
	return race.New(providers, append(base, opts...)...)
}

// GetSupportedProviders returns all supported provider types, sorted
func (f *DefaultProviderFactory) GetSupportedProviders() []types.ProviderType {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	providerTypes := make([]types.ProviderType, 0, len(f.providers))
	for providerType := range f.providers {
		providerTypes = append(providerTypes, providerType)
	}
	sort.Slice(providerTypes, func(i, j int) bool { return providerTypes[i] < providerTypes[j] })

	return providerTypes
}
