package http

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// CommonHTTPHeaders returns the headers sent to JSON lookup services
func CommonHTTPHeaders() map[string]string {
	return map[string]string{
		"Accept":     "application/json",
		"User-Agent": DefaultUserAgent,
	}
}

// SOAPHeaders returns the headers sent to SOAP lookup services
func SOAPHeaders() map[string]string {
	return map[string]string{
		"Accept":     "text/xml",
		"User-Agent": DefaultUserAgent,
	}
}

// DefaultConfigProvider provides HTTP configuration for the known lookup services
type DefaultConfigProvider struct{}

// GetHTTPConfig returns HTTP configuration for different provider types
func (d *DefaultConfigProvider) GetHTTPConfig(providerType types.ProviderType) HTTPClientConfig {
	baseConfig := HTTPClientConfig{
		Timeout: DefaultTimeout,
		Headers: CommonHTTPHeaders(),
	}

	// Provider-specific adjustments
	switch providerType {
	case types.ProviderTypeCorreios:
		baseConfig.Headers = SOAPHeaders()
		baseConfig.Timeout = 15 * time.Second // SIGEP is the slowest of the three
	case types.ProviderTypeCepla:
		baseConfig.Timeout = 5 * time.Second
	}

	return baseConfig
}

// DefaultClient creates an HTTP client with sensible defaults for a provider type
func DefaultClient(providerType types.ProviderType) *HTTPClient {
	provider := &DefaultConfigProvider{}
	config := provider.GetHTTPConfig(providerType)
	return NewHTTPClient(config)
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// TruncateBody shortens body for inclusion in error messages.
func TruncateBody(body []byte, limit int) string {
	if limit <= 0 || len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
