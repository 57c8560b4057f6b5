// Package cepla looks up postal codes in the CepLá service (http://cep.la).
//
// CepLá answers with JSON only when asked through the Accept header, and with an empty
// body or an empty array when the postal code is unknown.
package cepla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	lhttp "github.com/lagoinha-go/lagoinha/pkg/http"
	"github.com/lagoinha-go/lagoinha/pkg/providers/common"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// DefaultBaseURL is the public CepLá endpoint.
const DefaultBaseURL = "http://cep.la"

// Provider queries CepLá.
type Provider struct {
	name    string
	baseURL string
	client  *lhttp.HTTPClient
}

type response struct {
	CEP        string `json:"cep"`
	UF         string `json:"uf"`
	Cidade     string `json:"cidade"`
	Bairro     string `json:"bairro"`
	Logradouro string `json:"logradouro"`
	Aux        string `json:"aux"`
}

var acceptJSON = map[string]string{"Accept": "application/json"}

// New creates a CepLá provider.
func New(cfg common.ProviderConfig) *Provider {
	return &Provider{
		name:    cfg.NameOr(string(types.ProviderTypeCepla)),
		baseURL: cfg.BaseURLOr(DefaultBaseURL),
		client:  cfg.NewClient(types.ProviderTypeCepla),
	}
}

func (p *Provider) Name() string             { return p.name }
func (p *Provider) Type() types.ProviderType { return types.ProviderTypeCepla }

// Lookup calls GET {base}/{digits}.
func (p *Provider) Lookup(ctx context.Context, postalCode string) (types.Address, error) {
	url := fmt.Sprintf("%s/%s", p.baseURL, common.Digits(postalCode))

	resp, err := p.client.Get(ctx, url, acceptJSON)
	if err != nil {
		return types.Address{}, common.TransportError(p.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.Address{}, common.StatusError(p.name, resp.StatusCode, resp.Body)
	}

	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("[]")) {
		return types.Address{}, types.NewNotFoundError(p.name, "cep not found")
	}

	var body response
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return types.Address{}, common.MalformedError(p.name, err, resp.Body)
	}

	address := common.NormalizeAddress(types.Address{
		PostalCode:   body.CEP,
		Street:       body.Logradouro,
		Complement:   body.Aux,
		Neighborhood: body.Bairro,
		City:         body.Cidade,
		State:        body.UF,
	})
	if !common.Complete(address) {
		return types.Address{}, common.IncompleteError(p.name, address)
	}
	return address, nil
}

// Metrics returns the HTTP client counters for this provider.
func (p *Provider) Metrics() lhttp.ClientMetrics {
	return p.client.GetMetrics()
}
