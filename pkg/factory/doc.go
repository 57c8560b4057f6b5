// Package factory builds lookup providers and race coordinators from configuration.
// Provider types are registered against constructors; RegisterDefaultProviders wires the
// three public services, and GetAddress races them with the defaults in one call.
package factory
