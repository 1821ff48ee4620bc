// Package config loads settings for the flexdb CLI and the development server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/flexdb/flexdb-go/pkg/flexdb"
)

const (
	EnvConfigPath = "FLEXDB_CONFIG"
	EnvAPIKey     = flexdb.EnvAPIKey
	EnvEndpoint   = flexdb.EnvEndpoint
)

// Output formats understood by the CLI.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// CLI is the flexdb command line configuration.
type CLI struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
	Output   string `yaml:"output"`
}

// DefaultCLIPath returns $FLEXDB_CONFIG, or ~/.config/flexdb/config.yaml.
func DefaultCLIPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "flexdb", "config.yaml"), nil
}

// LoadCLI reads the YAML file at path, if it exists, and applies environment overrides.
func LoadCLI(fs afero.Fs, path string) (CLI, error) {
	var cfg CLI
	if path != "" {
		data, err := afero.ReadFile(fs, path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return CLI{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return CLI{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if v, ok := os.LookupEnv(EnvAPIKey); ok {
		cfg.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvEndpoint); ok {
		cfg.Endpoint = v
	}
	if cfg.Output == "" {
		cfg.Output = OutputJSON
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func (c CLI) Save(fs afero.Fs, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o600)
}

func (c CLI) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Output, validation.In(OutputJSON, OutputYAML)),
	)
}

// Client returns the SDK configuration.
func (c CLI) Client() flexdb.Config {
	return flexdb.Config{APIKey: c.APIKey, Endpoint: c.Endpoint}
}

const (
	EnvDevdAddr       = "FLEXDB_DEVD_ADDR"
	EnvDevdDataDir    = "FLEXDB_DEVD_DATA_DIR"
	EnvDevdAPIKeys    = "FLEXDB_DEVD_API_KEYS"
	EnvDevdBasePath   = "FLEXDB_DEVD_BASE_PATH"
	EnvDevdDisableTLS = "FLEXDB_DEVD_DISABLE_TLS"
	EnvDevdLogLevel   = "FLEXDB_DEVD_LOG_LEVEL"
)

// Devd is the development server configuration.
type Devd struct {
	Addr string
	// DataDir enables on-disk snapshots; empty keeps everything in memory.
	DataDir    string
	APIKeys    map[string]string
	BasePath   string
	DisableTLS bool
	LogLevel   string
}

// LoadDevd reads the development server configuration from the environment.
func LoadDevd() (Devd, error) {
	cfg := Devd{
		Addr:     envOr(EnvDevdAddr, ":8000"),
		DataDir:  os.Getenv(EnvDevdDataDir),
		BasePath: os.Getenv(EnvDevdBasePath),
		LogLevel: envOr(EnvDevdLogLevel, "info"),
	}

	var result *multierror.Error

	keys, err := ParseAPIKeys(os.Getenv(EnvDevdAPIKeys))
	if err != nil {
		result = multierror.Append(result, err)
	}
	cfg.APIKeys = keys

	if v := os.Getenv(EnvDevdDisableTLS); v != "" {
		disable, err := strconv.ParseBool(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", EnvDevdDisableTLS, err))
		}
		cfg.DisableTLS = disable
	}

	if err := cfg.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	return cfg, result.ErrorOrNil()
}

func (d Devd) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Addr, validation.Required),
		validation.Field(&d.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
	)
}

// ParseAPIKeys parses "key=account,key2=account2".
func ParseAPIKeys(s string) (map[string]string, error) {
	keys := make(map[string]string)
	var result *multierror.Error
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, account, ok := strings.Cut(pair, "=")
		key, account = strings.TrimSpace(key), strings.TrimSpace(account)
		if !ok || key == "" || account == "" {
			result = multierror.Append(result, fmt.Errorf("api key entry %q: want key=account", pair))
			continue
		}
		keys[key] = account
	}
	return keys, result.ErrorOrNil()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
