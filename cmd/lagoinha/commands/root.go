// Package commands implements the lagoinha CLI commands using cobra.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lagoinha-go/lagoinha/internal/logging"
	"github.com/lagoinha-go/lagoinha/pkg/factory"
	"github.com/lagoinha-go/lagoinha/pkg/race"
	"github.com/lagoinha-go/lagoinha/pkg/types"
)

var (
	// Version is set at build time
	Version = "0.1.0"
)

// app carries what every command needs once flags are parsed.
type app struct {
	v       *viper.Viper
	factory *factory.DefaultProviderFactory
	logger  *logging.Logger
	out     io.Writer
}

// Execute runs the root command
func Execute() error {
	f := factory.NewProviderFactory()
	factory.RegisterDefaultProviders(f)
	return newRootCmd(f, os.Stdout, os.Stderr).ExecuteContext(context.Background())
}

func newRootCmd(f *factory.DefaultProviderFactory, out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:       viper.New(),
		factory: f,
		logger:  logging.Nop(),
		out:     out,
	}
	a.v.SetEnvPrefix("LAGOINHA")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "lagoinha",
		Short: "Resolve Brazilian postal codes (CEP) by racing lookup services",
		Long: `Lagoinha queries ViaCEP, CepLá and Correios at the same time and prints the
first address returned. When every service fails, each failure is listed.

Settings can come from flags, a YAML config file or LAGOINHA_* environment variables.`,
		Version:       Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logging.Config{
				Level:  a.v.GetString("log-level"),
				Format: a.v.GetString("log-format"),
				Output: errOut,
			})
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	defaults := logging.DefaultConfig()
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML race configuration")
	rootCmd.PersistentFlags().String("log-level", defaults.Level, "Log level: debug, info, warn, error, off")
	rootCmd.PersistentFlags().String("log-format", defaults.Format, "Log format: text, json")
	_ = a.v.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newLookupCmd(a),
		newProvidersCmd(a),
		newBenchCmd(a),
	)
	return rootCmd
}

// loadConfig reads the configured file, or falls back to the defaults, then narrows
// the provider list to the names given with --providers.
func (a *app) loadConfig() (*race.Config, error) {
	cfg := race.DefaultConfig()
	if path := a.v.GetString("config"); path != "" {
		loaded, err := race.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	selected := splitList(a.v.GetStringSlice("providers"))
	if len(selected) == 0 {
		return cfg, nil
	}

	byName := make(map[string]race.ProviderReference, len(cfg.Providers))
	for _, ref := range cfg.Providers {
		byName[ref.DisplayName()] = ref
	}

	refs := make([]race.ProviderReference, 0, len(selected))
	for _, name := range selected {
		ref, ok := byName[name]
		if !ok {
			// Allow any registered type even when the config does not list it.
			ref = race.ProviderReference{Type: types.ProviderType(name)}
		}
		refs = append(refs, ref)
	}
	cfg.Providers = refs
	return cfg, nil
}

// timeout returns --timeout when set, else the configured bound.
func (a *app) timeout(cfg *race.Config) time.Duration {
	if t := a.v.GetDuration("timeout"); t > 0 {
		return t
	}
	return cfg.Timeout()
}

func bindFlags(a *app, cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if err := a.v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
