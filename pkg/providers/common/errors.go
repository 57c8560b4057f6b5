// Package common provides the plumbing shared by the lookup providers: mapping transport,
// status and parse failures onto the types.ProviderError taxonomy, and normalizing the
// strings providers return.
package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	lhttp "github.com/lagoinha-go/lagoinha/pkg/http"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// maxBodyInError bounds how much of a response body is quoted in an error message.
const maxBodyInError = 256

// TransportError maps a failed round trip onto the taxonomy. Deadlines and network
// timeouts become timeout; cancellation and anything else become network.
func TransportError(provider string, err error) *types.ProviderError {
	switch {
	case lhttp.IsTimeout(err):
		return types.NewTimeoutError(provider, "request timed out").WithOriginalErr(err)
	case errors.Is(err, context.Canceled):
		return types.NewNetworkError(provider, "request cancelled").WithOriginalErr(err)
	default:
		return types.NewNetworkError(provider, err.Error()).WithOriginalErr(err)
	}
}

// StatusError maps a non-success HTTP status onto the taxonomy.
func StatusError(provider string, statusCode int, body []byte) *types.ProviderError {
	code := types.ClassifyHTTPStatus(statusCode)

	message := http.StatusText(statusCode)
	if message == "" {
		message = fmt.Sprintf("unexpected status %d", statusCode)
	}
	if snippet := strings.TrimSpace(lhttp.TruncateBody(body, maxBodyInError)); snippet != "" {
		message = fmt.Sprintf("%s: %s", message, snippet)
	}

	return types.NewProviderError(provider, code, message).WithStatusCode(statusCode)
}

// MalformedError reports a body that could not be decoded. The start of the body is kept
// in the message for diagnosis.
func MalformedError(provider string, err error, body []byte) *types.ProviderError {
	message := "failed to parse response"
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	if len(body) > 0 {
		message = fmt.Sprintf("%s (body: %q)", message, lhttp.TruncateBody(body, maxBodyInError))
	}
	return types.NewMalformedResponseError(provider, message).WithOriginalErr(err)
}

// IncompleteError reports an address missing one of the fields every result must carry.
func IncompleteError(provider string, address types.Address) *types.ProviderError {
	var missing []string
	if address.PostalCode == "" {
		missing = append(missing, "cep")
	}
	if address.City == "" {
		missing = append(missing, "city")
	}
	if address.State == "" {
		missing = append(missing, "state")
	}
	return types.NewMalformedResponseError(provider, "response missing "+strings.Join(missing, ", "))
}

// Complete reports whether address carries the postal code, city and state.
func Complete(address types.Address) bool {
	return address.PostalCode != "" && address.City != "" && address.State != ""
}
