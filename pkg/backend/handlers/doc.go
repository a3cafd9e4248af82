// Package handlers provides HTTP request handlers for the address kit backend: address
// normalization endpoints, health checks, provider listing, metrics and the feature gate,
// along with utilities for standardized JSON response formatting.
package handlers
