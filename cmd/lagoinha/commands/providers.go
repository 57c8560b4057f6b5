package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List registered provider types and the configured race order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, "Registered types:")
			for _, t := range a.factory.GetSupportedProviders() {
				fmt.Fprintf(a.out, "  %s\n", t)
			}

			fmt.Fprintf(a.out, "\nRace %q (timeout %s):\n", cfg.Name, cfg.Timeout())
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			for i, ref := range cfg.Providers {
				baseURL := ref.BaseURL
				if baseURL == "" {
					baseURL = "(default)"
				}
				fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", i+1, ref.DisplayName(), ref.Type, baseURL)
			}
			return w.Flush()
		},
	}
}
