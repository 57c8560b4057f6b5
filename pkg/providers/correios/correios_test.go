package correios

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoinha-go/lagoinha/pkg/providers/common"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

const found = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:consultaCEPResponse xmlns:ns2="http://cliente.bean.master.sigep.bsb.correios.com.br/">
      <return>
        <bairro>Zona Cívico-Administrativa</bairro>
        <cep>70150903</cep>
        <cidade>Brasília</cidade>
        <complemento2></complemento2>
        <end>SPP</end>
        <uf>DF</uf>
      </return>
    </ns2:consultaCEPResponse>
  </soap:Body>
</soap:Envelope>`

const notFound = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>CEP NAO ENCONTRADO</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

const serverFault = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>Erro interno</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

const emptyResponse = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:consultaCEPResponse xmlns:ns2="http://cliente.bean.master.sigep.bsb.correios.com.br/"/>
  </soap:Body>
</soap:Envelope>`

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, contentType, r.Header.Get("Content-Type"))
		payload, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(payload), "<cep>70150903</cep>")
		assert.Contains(t, string(payload), "<cli:consultaCEP>")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLookup_Success(t *testing.T) {
	server := newServer(t, http.StatusOK, found)
	p := New(common.ProviderConfig{BaseURL: server.URL})

	got, err := p.Lookup(context.Background(), "70150-903")
	require.NoError(t, err)

	want := types.Address{
		PostalCode:   "70150-903",
		Street:       "SPP",
		Neighborhood: "Zona Cívico-Administrativa",
		City:         "Brasília",
		State:        "DF",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("address mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "correios", p.Name())
	assert.Equal(t, types.ProviderTypeCorreios, p.Type())
}

func TestLookup_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   types.ErrorCode
	}{
		{"not found fault", http.StatusInternalServerError, notFound, types.ErrCodeNotFound},
		{"server fault", http.StatusInternalServerError, serverFault, types.ErrCodeProviderUnavailable},
		{"empty return", http.StatusOK, emptyResponse, types.ErrCodeNotFound},
		{"gateway html", http.StatusBadGateway, "<html><body>bad gateway", types.ErrCodeProviderUnavailable},
		{"garbage", http.StatusOK, "not xml at all <", types.ErrCodeMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newServer(t, tt.status, tt.body)
			p := New(common.ProviderConfig{BaseURL: server.URL})

			_, err := p.Lookup(context.Background(), "70150903")
			var pe *types.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.want, pe.Code)
			assert.Equal(t, "correios", pe.Provider)
		})
	}
}

func TestFaultError(t *testing.T) {
	pe := faultError("correios", &fault{Code: "soap:Server", String: " CEP INVÁLIDO "}, 500)
	assert.Equal(t, types.ErrCodeNotFound, pe.Code)
	assert.Equal(t, "CEP INVÁLIDO", pe.Message)
	assert.Equal(t, 500, pe.StatusCode)

	pe = faultError("correios", &fault{Code: "soap:Client"}, 500)
	assert.Equal(t, types.ErrCodeProviderUnavailable, pe.Code)
	assert.Equal(t, "soap fault soap:Client", pe.Message)
}
