package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lagoinha-go/lagoinha/pkg/race"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

func newLookupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <cep>",
		Short: "Resolve a postal code to an address",
		Long: `Race every configured provider for the postal code and print the first address
returned. When every provider fails, one line per provider is printed and the
command exits non-zero.`,
		Example: `  lagoinha lookup 01310-200
  lagoinha lookup 01310200 --providers viacep,cepla --timeout 2s --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(a, cmd, "timeout", "providers", "output"); err != nil {
				return err
			}
			return a.runLookup(cmd, args[0])
		},
	}

	cmd.Flags().Duration("timeout", 0, "Overall lookup bound (default from config)")
	cmd.Flags().StringSlice("providers", nil, "Race only these providers, by name or type")
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json")
	return cmd
}

func (a *app) runLookup(cmd *cobra.Command, postalCode string) error {
	output := a.v.GetString("output")
	if output != "text" && output != "json" {
		return fmt.Errorf("invalid output format %q (want text or json)", output)
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	c, err := a.factory.NewCoordinator(cfg, race.WithLogger(a.logger.WithComponent("race").Zerolog()))
	if err != nil {
		return err
	}

	res, err := race.ResolveWithTimeout(cmd.Context(), c, postalCode, a.timeout(cfg))
	if err != nil {
		var allFailed *race.AllFailedError
		if errors.As(err, &allFailed) {
			if output == "json" {
				if werr := writeJSON(a.out, failureOutput(allFailed)); werr != nil {
					return werr
				}
			} else {
				for _, pe := range allFailed.Errors {
					fmt.Fprintf(a.out, "%s: %s %s\n", pe.Provider, pe.Code, pe.Message)
				}
			}
		}
		return err
	}

	if output == "json" {
		return writeJSON(a.out, successOutput(res))
	}
	fmt.Fprintf(a.out, "%s\n", res.Address)
	fmt.Fprintf(a.out, "provider: %s (%s)\n", res.Provider, res.Latency.Round(time.Millisecond))
	return nil
}

type lookupSuccess struct {
	Address   types.Address `json:"address"`
	Provider  string        `json:"provider"`
	LatencyMS int64         `json:"latency_ms"`
	RaceID    string        `json:"race_id"`
}

type lookupFailure struct {
	RaceID string         `json:"race_id"`
	Errors []failureEntry `json:"errors"`
}

type failureEntry struct {
	Provider   string          `json:"provider"`
	Code       types.ErrorCode `json:"code"`
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code,omitempty"`
}

func successOutput(res *race.Result) lookupSuccess {
	return lookupSuccess{
		Address:   res.Address,
		Provider:  res.Provider,
		LatencyMS: res.Latency.Milliseconds(),
		RaceID:    res.RaceID,
	}
}

func failureOutput(err *race.AllFailedError) lookupFailure {
	out := lookupFailure{RaceID: err.RaceID, Errors: make([]failureEntry, 0, len(err.Errors))}
	for _, pe := range err.Errors {
		out.Errors = append(out.Errors, failureEntry{
			Provider:   pe.Provider,
			Code:       pe.Code,
			Message:    pe.Message,
			StatusCode: pe.StatusCode,
		})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
