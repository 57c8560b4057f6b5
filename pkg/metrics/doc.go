// Package metrics provides the default in-memory MetricsCollector used to observe
// postal code races: per-provider attempt outcomes, race wins, latency percentiles,
// and event delivery through subscriptions and hooks.
package metrics
