// Package types defines the shared data model for postal code lookups: the normalized
// Address, the Provider capability every lookup source implements, the ProviderError
// failure taxonomy, and the metrics structures exchanged between the race coordinator
// and its collectors.
package types
