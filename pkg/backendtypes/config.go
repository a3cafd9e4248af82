package backendtypes

import "time"

// BackendConfig defines the configuration for the backend server
type BackendConfig struct {
	Server      ServerConfig      `yaml:"server" json:"server"`
	Auth        AuthConfig        `yaml:"auth" json:"auth"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	CORS        CORSConfig        `yaml:"cors" json:"cors"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" json:"rate_limit"`
	Suggestions SuggestionsConfig `yaml:"suggestions" json:"suggestions"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	Version         string        `yaml:"version" json:"version"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

type AuthConfig struct {
	Enabled     bool     `yaml:"enabled" json:"enabled"`
	APIPassword string   `yaml:"api_password" json:"-"`
	APIKeyEnv   string   `yaml:"api_key_env" json:"api_key_env,omitempty"`
	PublicPaths []string `yaml:"public_paths" json:"public_paths,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level" json:"level"` // debug, info, warn, error
	Color bool   `yaml:"color" json:"color"`
}

type CORSConfig struct {
	Enabled          bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins" json:"allowed_origins,omitempty"`
	AllowedMethods   []string `yaml:"allowed_methods" json:"allowed_methods,omitempty"`
	AllowedHeaders   []string `yaml:"allowed_headers" json:"allowed_headers,omitempty"`
	AllowCredentials bool     `yaml:"allow_credentials" json:"allow_credentials"`
}

// Suggestion count limits applied when the configuration leaves them unset
const (
	DefaultSuggestionCount = 10
	MaxSuggestionCount     = 20
)

// SuggestionsConfig bounds the number of suggestions HTTP and CLI callers may request.
// The dispatcher itself passes counts through unchanged.
type SuggestionsConfig struct {
	DefaultCount int `yaml:"default_count" json:"default_count"`
	MaxCount     int `yaml:"max_count" json:"max_count"`
}

// Normalize replaces a non-positive count with the default and caps it at the maximum.
// Unset limits fall back to DefaultSuggestionCount and MaxSuggestionCount.
func (c SuggestionsConfig) Normalize(count int) int {
	def, limit := c.DefaultCount, c.MaxCount
	if limit <= 0 {
		limit = MaxSuggestionCount
	}
	if def <= 0 {
		def = DefaultSuggestionCount
	}
	if count <= 0 {
		count = def
	}
	return min(count, limit)
}

// RateLimitConfig throttles each client of the server. Clients are told apart by
// API key when one is sent, otherwise by remote address.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}
