// Package types defines the core interfaces and data structures for the Address Provider Kit.
// It includes the address model, provider capability interfaces, registration records,
// provider errors and the metrics contracts used across all packages.
package types
