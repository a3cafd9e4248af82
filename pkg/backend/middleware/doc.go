// Package middleware provides HTTP middleware components for the backend server:
// API key authentication, CORS, request logging, request ID tracking and panic recovery.
// Errors are written in the backendtypes.APIResponse envelope.
package middleware
