package types

import "context"

// ProviderType identifies the kind of lookup source behind a provider.
type ProviderType string

const (
	ProviderTypeViaCEP   ProviderType = "viacep"
	ProviderTypeCepla    ProviderType = "cepla"
	ProviderTypeCorreios ProviderType = "correios"
	ProviderTypeMock     ProviderType = "mock"

	// ProviderTypeRace is reported by the race coordinator in metric events.
	ProviderTypeRace ProviderType = "race"
)

// Provider is the single capability the race coordinator needs from a lookup source.
//
// Lookup may block on network I/O and must return promptly once ctx is cancelled.
// Failures are reported as *ProviderError; implementations must not panic and must not
// share mutable state with other providers.
type Provider interface {
	// Name returns the provider identifier used in results and aggregated errors.
	Name() string
	Type() ProviderType
	Lookup(ctx context.Context, postalCode string) (Address, error)
}
