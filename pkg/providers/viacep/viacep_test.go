package viacep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoinha-go/lagoinha/pkg/providers/common"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

const alvorada = `{
  "cep": "70150-903",
  "logradouro": "SPP",
  "complemento": "",
  "bairro": "Zona Cívico-Administrativa",
  "localidade": "Brasília",
  "uf": "DF",
  "ibge": "5300108",
  "gia": "",
  "ddd": "61",
  "siafi": "9701"
}`

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/70150903/json/", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func lookupCode(t *testing.T, err error) types.ErrorCode {
	t.Helper()
	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "viacep", pe.Provider)
	return pe.Code
}

func TestLookup_Success(t *testing.T) {
	server := newServer(t, http.StatusOK, alvorada)
	p := New(common.ProviderConfig{BaseURL: server.URL + "/"})

	got, err := p.Lookup(context.Background(), "70150-903")
	require.NoError(t, err)

	want := types.Address{
		PostalCode:   "70150-903",
		Street:       "SPP",
		Neighborhood: "Zona Cívico-Administrativa",
		City:         "Brasília",
		State:        "DF",
		IBGECode:     "5300108",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("address mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "viacep", p.Name())
	assert.Equal(t, types.ProviderTypeViaCEP, p.Type())
	assert.Equal(t, int64(1), p.Metrics().TotalRequests)
}

func TestLookup_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   types.ErrorCode
	}{
		{"erro flag", http.StatusOK, `{"erro": true}`, types.ErrCodeNotFound},
		{"erro flag as string", http.StatusOK, `{"erro": "true"}`, types.ErrCodeNotFound},
		{"bad request", http.StatusBadRequest, `<h1>Erro 400</h1>`, types.ErrCodeNotFound},
		{"server error", http.StatusInternalServerError, ``, types.ErrCodeProviderUnavailable},
		{"not json", http.StatusOK, `<html>`, types.ErrCodeMalformedResponse},
		{"missing fields", http.StatusOK, `{"cep": "70150-903"}`, types.ErrCodeMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newServer(t, tt.status, tt.body)
			p := New(common.ProviderConfig{BaseURL: server.URL})

			got, err := p.Lookup(context.Background(), "70150903")
			assert.True(t, got.IsZero())
			assert.Equal(t, tt.want, lookupCode(t, err))
		})
	}
}

func TestLookup_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := New(common.ProviderConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	_, err := p.Lookup(context.Background(), "70150903")
	assert.Equal(t, types.ErrCodeTimeout, lookupCode(t, err))
}

func TestLookup_Cancelled(t *testing.T) {
	server := newServer(t, http.StatusOK, alvorada)
	p := New(common.ProviderConfig{BaseURL: server.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Lookup(ctx, "70150903")
	assert.Equal(t, types.ErrCodeNetwork, lookupCode(t, err))
}

func TestLookup_CustomName(t *testing.T) {
	server := newServer(t, http.StatusOK, `{"erro": true}`)
	p := New(common.ProviderConfig{Name: "viacep-mirror", BaseURL: server.URL})

	_, err := p.Lookup(context.Background(), "70150903")
	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "viacep-mirror", pe.Provider)
}

func TestFlexBool(t *testing.T) {
	var b flexBool
	require.NoError(t, b.UnmarshalJSON([]byte(`false`)))
	assert.False(t, bool(b))
	require.NoError(t, b.UnmarshalJSON([]byte(`null`)))
	assert.False(t, bool(b))
	assert.Error(t, b.UnmarshalJSON([]byte(`"maybe"`)))
}
