package flexdb

import "os"

// Environment variables read by ConfigFromEnv.
const (
	EnvAPIKey   = "FLEXDB_API_KEY"
	EnvEndpoint = "FLEXDB_ENDPOINT"
)

// ConfigFromEnv builds a Config from FLEXDB_API_KEY and FLEXDB_ENDPOINT.
// Unset variables leave the field empty, so New applies its defaults.
func ConfigFromEnv() Config {
	return Config{
		APIKey:   os.Getenv(EnvAPIKey),
		Endpoint: os.Getenv(EnvEndpoint),
	}
}

// NewFromEnv initializes a Client from the environment.
func NewFromEnv(opts ...Option) (*Client, error) {
	return New(ConfigFromEnv(), opts...)
}
