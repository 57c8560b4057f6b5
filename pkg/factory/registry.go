package factory

import (
	"context"

	"github.com/lagoinha-go/lagoinha/pkg/providers/cepla"
	"github.com/lagoinha-go/lagoinha/pkg/providers/common"
	"github.com/lagoinha-go/lagoinha/pkg/providers/correios"
	"github.com/lagoinha-go/lagoinha/pkg/providers/viacep"
	"github.com/lagoinha-go/lagoinha/pkg/race"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// RegisterDefaultProviders registers the public lookup services with the factory
func RegisterDefaultProviders(factory *DefaultProviderFactory) {
	factory.RegisterProvider(types.ProviderTypeViaCEP, func(ref race.ProviderReference) types.Provider {
		return viacep.New(providerConfig(ref))
	})
	factory.RegisterProvider(types.ProviderTypeCepla, func(ref race.ProviderReference) types.Provider {
		return cepla.New(providerConfig(ref))
	})
	factory.RegisterProvider(types.ProviderTypeCorreios, func(ref race.ProviderReference) types.Provider {
		return correios.New(providerConfig(ref))
	})
}

func providerConfig(ref race.ProviderReference) common.ProviderConfig {
	return common.ProviderConfig{
		Name:      ref.DisplayName(),
		BaseURL:   ref.BaseURL,
		Timeout:   ref.Timeout(),
		Token:     ref.Token,
		UserAgent: ref.UserAgent,
	}
}

// DefaultProviders returns ViaCEP, CepLá and Correios with default settings, in that order.
func DefaultProviders() []types.Provider {
	factory := NewProviderFactory()
	RegisterDefaultProviders(factory)

	// The default references are always registered, so this cannot fail.
	providers, _ := factory.BuildProviders(race.DefaultConfig().Providers)
	return providers
}

// GetAddress races the default providers for postalCode, bounded by the default
// configuration's timeout.
func GetAddress(ctx context.Context, postalCode string) (types.Address, error) {
	cfg := race.DefaultConfig()
	c, err := race.New(DefaultProviders(), race.WithName(cfg.Name))
	if err != nil {
		return types.Address{}, err
	}

	res, err := race.ResolveWithTimeout(ctx, c, postalCode, cfg.Timeout())
	if err != nil {
		return types.Address{}, err
	}
	return res.Address, nil
}
