package factory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoinha-go/lagoinha/pkg/race"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// TestRegisterDefaultProviders tests that the public services are registered
func TestRegisterDefaultProviders(t *testing.T) {
	factory := NewProviderFactory()
	RegisterDefaultProviders(factory)

	assert.Equal(t, []types.ProviderType{
		types.ProviderTypeCepla,
		types.ProviderTypeCorreios,
		types.ProviderTypeViaCEP,
	}, factory.GetSupportedProviders())
}

func TestRegisterDefaultProviders_ProviderCreation(t *testing.T) {
	factory := NewProviderFactory()
	RegisterDefaultProviders(factory)

	for _, providerType := range factory.GetSupportedProviders() {
		t.Run(string(providerType), func(t *testing.T) {
			p, err := factory.CreateProvider(race.ProviderReference{Type: providerType})
			require.NoError(t, err)
			assert.Equal(t, providerType, p.Type())
			assert.Equal(t, string(providerType), p.Name())
		})
	}
}

func TestDefaultProviders(t *testing.T) {
	providers := DefaultProviders()
	require.Len(t, providers, 3)
	assert.Equal(t, "viacep", providers[0].Name())
	assert.Equal(t, "cepla", providers[1].Name())
	assert.Equal(t, "correios", providers[2].Name())
}

// TestDefaultProviders_RaceAgainstLocalServers points every default provider type at a
// local server and checks the whole path from reference to aggregated result.
func TestDefaultProviders_RaceAgainstLocalServers(t *testing.T) {
	viacepServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"erro": true}`))
	}))
	defer viacepServer.Close()

	ceplaServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cep":"70150903","uf":"DF","cidade":"Brasília","bairro":"Zona Cívico-Administrativa","logradouro":"SPP"}`))
	}))
	defer ceplaServer.Close()

	correiosServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer correiosServer.Close()

	factory := NewProviderFactory()
	RegisterDefaultProviders(factory)

	cfg := &race.Config{Providers: []race.ProviderReference{
		{Type: types.ProviderTypeViaCEP, BaseURL: viacepServer.URL},
		{Type: types.ProviderTypeCepla, BaseURL: ceplaServer.URL},
		{Type: types.ProviderTypeCorreios, BaseURL: correiosServer.URL},
	}}
	c, err := factory.NewCoordinator(cfg)
	require.NoError(t, err)

	res, err := c.Resolve(context.Background(), "70150-903")
	require.NoError(t, err)
	assert.Equal(t, "cepla", res.Provider)
	assert.Equal(t, "Brasília", res.Address.City)
	assert.Equal(t, "70150-903", res.Address.PostalCode)

	// Without CepLá every provider fails, each in its own way.
	cfg.Providers = []race.ProviderReference{cfg.Providers[0], cfg.Providers[2]}
	c, err = factory.NewCoordinator(cfg)
	require.NoError(t, err)

	_, err = c.Resolve(context.Background(), "70150-903")
	var allFailed *race.AllFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Equal(t, []types.ErrorCode{types.ErrCodeNotFound, types.ErrCodeProviderUnavailable}, allFailed.Codes())
	assert.Equal(t, "viacep", allFailed.Errors[0].Provider)
	assert.Equal(t, "correios", allFailed.Errors[1].Provider)
}
