// Package backendtypes defines types for backend server configuration and API communication.
//
// It separates the wire and configuration types from the server implementation so that
// clients can share them without importing the backend.
//
// # Configuration Types
//
//   - BackendConfig: server, auth, logging and CORS settings
//   - SuggestionsConfig: default and maximum suggestion counts
//
// # Response Types
//
// Every endpoint answers with an APIResponse envelope:
//
//	{"success": true, "data": ..., "request_id": "...", "timestamp": "..."}
//	{"success": false, "error": {"code": "INVALID_REQUEST", "message": "..."}, ...}
package backendtypes
