package race

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// ErrEmptyProviderList is returned when a race is requested without providers.
var ErrEmptyProviderList = errors.New("race: empty provider list")

// Result is the outcome of a race that produced an address.
type Result struct {
	Address types.Address `json:"address"`
	// Provider is the name of the winning provider.
	Provider string `json:"provider"`
	// Latency is how long the winning attempt took.
	Latency time.Duration `json:"latency"`
	RaceID  string        `json:"race_id"`
}

// AllFailedError is returned when every provider in a race failed.
// Errors holds exactly one entry per provider, in registration order.
type AllFailedError struct {
	RaceID string
	Errors []*types.ProviderError
}

func (e *AllFailedError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, pe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s@%s", pe.Code, pe.Provider))
	}
	return fmt.Sprintf("all %d providers failed: [%s]", len(e.Errors), strings.Join(parts, ", "))
}

// Unwrap exposes the individual provider errors to errors.Is and errors.As.
func (e *AllFailedError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		errs[i] = pe
	}
	return errs
}

// Codes returns the error code of each provider, in registration order.
func (e *AllFailedError) Codes() []types.ErrorCode {
	codes := make([]types.ErrorCode, len(e.Errors))
	for i, pe := range e.Errors {
		codes[i] = pe.Code
	}
	return codes
}

// ErrorFor returns the failure reported by the named provider, or nil.
func (e *AllFailedError) ErrorFor(provider string) *types.ProviderError {
	for _, pe := range e.Errors {
		if pe.Provider == provider {
			return pe
		}
	}
	return nil
}
