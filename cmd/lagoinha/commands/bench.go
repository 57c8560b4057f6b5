package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lagoinha-go/lagoinha/pkg/metrics"
	"github.com/lagoinha-go/lagoinha/pkg/race"
)

func newBenchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench <cep>",
		Short: "Run repeated lookups and report per-provider wins and latency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(a, cmd, "timeout", "providers", "runs"); err != nil {
				return err
			}
			return a.runBench(cmd, args[0])
		},
	}

	cmd.Flags().Duration("timeout", 0, "Bound for each lookup (default from config)")
	cmd.Flags().StringSlice("providers", nil, "Race only these providers, by name or type")
	cmd.Flags().IntP("runs", "n", 5, "Number of lookups to run")
	return cmd
}

func (a *app) runBench(cmd *cobra.Command, postalCode string) error {
	runs := a.v.GetInt("runs")
	if runs < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", runs)
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	collector := metrics.NewDefaultMetricsCollector()
	defer collector.Close()

	c, err := a.factory.NewCoordinator(cfg,
		race.WithLogger(a.logger.WithComponent("race").Zerolog()),
		race.WithMetricsCollector(collector),
	)
	if err != nil {
		return err
	}

	timeout := a.timeout(cfg)
	failures := 0
	for i := 0; i < runs; i++ {
		if _, err := race.ResolveWithTimeout(cmd.Context(), c, postalCode, timeout); err != nil {
			if ctxErr := cmd.Context().Err(); ctxErr != nil {
				return ctxErr
			}
			failures++
			a.logger.Err(err).Int("run", i+1).Msg("lookup failed")
		}
	}

	snapshot := collector.GetSnapshot()
	fmt.Fprintf(a.out, "runs: %d  succeeded: %d  failed: %d  p50: %s  p95: %s\n\n",
		runs, runs-failures, failures,
		round(snapshot.Latency.P50Latency), round(snapshot.Latency.P95Latency))

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tWINS\tSUCCEEDED\tFAILED\tCANCELLED\tP50\tP95")
	for _, ref := range cfg.Providers {
		pm := collector.GetProviderMetrics(ref.DisplayName())
		if pm == nil {
			fmt.Fprintf(w, "%s\t0\t0\t0\t0\t-\t-\n", ref.DisplayName())
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			pm.Provider, pm.RaceWins, pm.SuccessfulRequests, pm.FailedRequests, pm.Cancelled,
			round(pm.Latency.P50Latency), round(pm.Latency.P95Latency))
	}
	return w.Flush()
}

func round(d time.Duration) time.Duration {
	return d.Round(100 * time.Microsecond)
}
