package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Environment profile names.
const (
	EnvStaging    = "staging"
	EnvProduction = "production"
)

// Storage backend names.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "PULSE"

// profiles holds the built-in defaults of each environment.
var profiles = map[string]map[string]any{
	EnvStaging: {
		"server.http_port":  3000,
		"server.https_port": 3001,
		"server.log_level":  "debug",
		"auth.hash_secret":  "staging-secret",
	},
	EnvProduction: {
		"server.http_port":  5000,
		"server.https_port": 5001,
		"server.log_level":  "info",
		"auth.hash_secret":  "",
	},
}

// common holds defaults shared by every profile.
var common = map[string]any{
	"server.read_timeout":          15 * time.Second,
	"server.write_timeout":         15 * time.Second,
	"server.shutdown_timeout":      10 * time.Second,
	"server.tls_cert_file":         "",
	"server.tls_key_file":          "",
	"storage.backend":              BackendFile,
	"storage.dir":                  ".data",
	"storage.op_timeout":           5 * time.Second,
	"storage.database_url":         "",
	"auth.hash_algorithm":          "hmac-sha256",
	"auth.session_ttl":             24 * time.Hour,
	"auth.login_rate_per_minute":   30,
	"auth.login_burst":             10,
	"checks.max_per_account":       5,
	"checks.block_private_targets": false,
}

// ResolveEnvironment maps a requested environment name to a known profile.
// An empty name falls back to PULSE_ENV; unknown names select staging.
func ResolveEnvironment(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(os.Getenv(EnvPrefix + "_ENV")))
	}
	if _, ok := profiles[name]; ok {
		return name
	}
	return EnvStaging
}

// Load configuration for the named environment from its built-in profile and
// environment variables. Environment variables take precedence.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(envName string) (*Config, error) {
	return LoadFile(envName, "")
}

// LoadFile is Load with an optional config file (YAML, JSON or TOML) layered
// between the profile and the environment variables.
func LoadFile(envName, path string) (*Config, error) {
	env := ResolveEnvironment(envName)

	v := viper.New()
	for key, value := range common {
		v.SetDefault(key, value)
	}
	for key, value := range profiles[env] {
		v.SetDefault(key, value)
	}
	v.SetDefault("environment", env)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// The profile name wins over file and environment overrides.
	cfg.Environment = env

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
