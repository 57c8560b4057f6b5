// Package correios looks up postal codes through the Correios SIGEP web service
// (consultaCEP SOAP operation).
package correios

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	lhttp "github.com/lagoinha-go/lagoinha/pkg/http"
	"github.com/lagoinha-go/lagoinha/pkg/providers/common"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// DefaultBaseURL is the public SIGEP AtendeCliente endpoint.
const DefaultBaseURL = "https://apps.correios.com.br/SigepMasterJPA/AtendeClienteService/AtendeCliente"

const contentType = "text/xml; charset=utf-8"

const requestTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:cli="http://cliente.bean.master.sigep.bsb.correios.com.br/">
  <soapenv:Header/>
  <soapenv:Body>
    <cli:consultaCEP>
      <cep>%s</cep>
    </cli:consultaCEP>
  </soapenv:Body>
</soapenv:Envelope>`

// Provider queries the Correios SOAP service.
type Provider struct {
	name    string
	baseURL string
	client  *lhttp.HTTPClient
}

type envelope struct {
	Body struct {
		Response *struct {
			Return *result `xml:"return"`
		} `xml:"consultaCEPResponse"`
		Fault *fault `xml:"Fault"`
	} `xml:"Body"`
}

type result struct {
	Bairro       string `xml:"bairro"`
	CEP          string `xml:"cep"`
	Cidade       string `xml:"cidade"`
	Complemento2 string `xml:"complemento2"`
	End          string `xml:"end"`
	UF           string `xml:"uf"`
}

type fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

// New creates a Correios provider.
func New(cfg common.ProviderConfig) *Provider {
	return &Provider{
		name:    cfg.NameOr(string(types.ProviderTypeCorreios)),
		baseURL: cfg.BaseURLOr(DefaultBaseURL),
		client:  cfg.NewClient(types.ProviderTypeCorreios),
	}
}

func (p *Provider) Name() string             { return p.name }
func (p *Provider) Type() types.ProviderType { return types.ProviderTypeCorreios }

// Lookup posts a consultaCEP envelope. SOAP faults arrive with status 500, so the body
// is decoded before the status is looked at.
func (p *Provider) Lookup(ctx context.Context, postalCode string) (types.Address, error) {
	payload := fmt.Sprintf(requestTemplate, common.Digits(postalCode))

	resp, err := p.client.Post(ctx, p.baseURL, contentType, []byte(payload), nil)
	if err != nil {
		return types.Address{}, common.TransportError(p.name, err)
	}

	var env envelope
	if err := xml.Unmarshal(resp.Body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return types.Address{}, common.StatusError(p.name, resp.StatusCode, resp.Body)
		}
		return types.Address{}, common.MalformedError(p.name, err, resp.Body)
	}

	if f := env.Body.Fault; f != nil {
		return types.Address{}, faultError(p.name, f, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return types.Address{}, common.StatusError(p.name, resp.StatusCode, resp.Body)
	}
	if env.Body.Response == nil || env.Body.Response.Return == nil {
		return types.Address{}, types.NewNotFoundError(p.name, "cep not found")
	}

	r := env.Body.Response.Return
	address := common.NormalizeAddress(types.Address{
		PostalCode:   r.CEP,
		Street:       r.End,
		Complement:   r.Complemento2,
		Neighborhood: r.Bairro,
		City:         r.Cidade,
		State:        r.UF,
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

func faultError(provider string, f *fault, statusCode int) *types.ProviderError {
	message := strings.TrimSpace(f.String)
	upper := strings.ToUpper(message)
	if strings.Contains(upper, "CEP NAO ENCONTRADO") || strings.Contains(upper, "CEP INVÁLIDO") || strings.Contains(upper, "CEP INVALIDO") {
		return types.NewNotFoundError(provider, message).WithStatusCode(statusCode)
	}
	if message == "" {
		message = "soap fault " + strings.TrimSpace(f.Code)
	}
	return types.NewUnavailableError(provider, message).WithStatusCode(statusCode)
}
