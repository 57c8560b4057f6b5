package common

import (
	"net/http"
	"strings"
	"time"

	lhttp "github.com/lagoinha-go/lagoinha/pkg/http"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// ProviderConfig is the configuration every HTTP lookup provider accepts.
type ProviderConfig struct {
	// Name overrides the provider id reported in results and errors.
	Name string
	// BaseURL overrides the public endpoint, mainly for tests and mirrors.
	BaseURL   string
	Timeout   time.Duration
	Token     string
	UserAgent string
	// Transport overrides the HTTP round tripper.
	Transport http.RoundTripper
}

// NameOr returns the configured name or fallback.
func (c ProviderConfig) NameOr(fallback string) string {
	if c.Name != "" {
		return c.Name
	}
	return fallback
}

// BaseURLOr returns the configured base URL without a trailing slash, or fallback.
func (c ProviderConfig) BaseURLOr(fallback string) string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return fallback
}

// NewClient builds the HTTP client for a provider type, layering the configured
// overrides on top of that type's defaults.
func (c ProviderConfig) NewClient(providerType types.ProviderType) *lhttp.HTTPClient {
	defaults := (&lhttp.DefaultConfigProvider{}).GetHTTPConfig(providerType)

	builder := lhttp.NewHTTPClientBuilder().
		WithHeaders(defaults.Headers).
		WithTimeout(defaults.Timeout).
		WithUserAgent(c.UserAgent).
		WithToken(c.Token).
		WithTransport(c.Transport)
	if c.Timeout > 0 {
		builder = builder.WithTimeout(c.Timeout)
	}
	return builder.Build()
}
