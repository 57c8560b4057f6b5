// Package viacep looks up postal codes in the ViaCEP public JSON API.
package viacep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	lhttp "github.com/lagoinha-go/lagoinha/pkg/http"
	"github.com/lagoinha-go/lagoinha/pkg/providers/common"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// DefaultBaseURL is the public ViaCEP endpoint.
const DefaultBaseURL = "https://viacep.com.br"

// Provider queries ViaCEP.
type Provider struct {
	name    string
	baseURL string
	client  *lhttp.HTTPClient
}

type response struct {
	CEP         string   `json:"cep"`
	Logradouro  string   `json:"logradouro"`
	Complemento string   `json:"complemento"`
	Bairro      string   `json:"bairro"`
	Localidade  string   `json:"localidade"`
	UF          string   `json:"uf"`
	IBGE        string   `json:"ibge"`
	Erro        flexBool `json:"erro"`
}

// flexBool accepts both true and "true"; ViaCEP has returned either over time.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(string(data))
	if err != nil {
		return fmt.Errorf("invalid erro flag %q: %w", data, err)
	}
	*b = flexBool(v)
	return nil
}

// New creates a ViaCEP provider.
func New(cfg common.ProviderConfig) *Provider {
	return &Provider{
		name:    cfg.NameOr(string(types.ProviderTypeViaCEP)),
		baseURL: cfg.BaseURLOr(DefaultBaseURL),
		client:  cfg.NewClient(types.ProviderTypeViaCEP),
	}
}

func (p *Provider) Name() string             { return p.name }
func (p *Provider) Type() types.ProviderType { return types.ProviderTypeViaCEP }

// Lookup calls GET {base}/ws/{digits}/json/.
func (p *Provider) Lookup(ctx context.Context, postalCode string) (types.Address, error) {
	url := fmt.Sprintf("%s/ws/%s/json/", p.baseURL, common.Digits(postalCode))

	resp, err := p.client.Get(ctx, url, nil)
	if err != nil {
		return types.Address{}, common.TransportError(p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.Address{}, common.StatusError(p.name, resp.StatusCode, resp.Body)
	}

	var body response
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return types.Address{}, common.MalformedError(p.name, err, resp.Body)
	}
	if body.Erro {
		return types.Address{}, types.NewNotFoundError(p.name, "cep not found")
	}

	address := common.NormalizeAddress(types.Address{
		PostalCode:   body.CEP,
		Street:       body.Logradouro,
		Complement:   body.Complemento,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		State:        body.UF,
		IBGECode:     body.IBGE,
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
