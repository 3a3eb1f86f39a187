package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Environment string        `mapstructure:"environment" validate:"required,oneof=staging production"`
	Server      ServerConfig  `mapstructure:"server"`
	Storage     StorageConfig `mapstructure:"storage"`
	Auth        AuthConfig    `mapstructure:"auth"`
	Checks      ChecksConfig  `mapstructure:"checks"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port" validate:"required,gt=0,lt=65536"`
	HTTPSPort       int           `mapstructure:"https_port" validate:"omitempty,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	// The HTTPS listener starts only when both files are set.
	TLSCertFile string `mapstructure:"tls_cert_file" validate:"required_with=TLSKeyFile"`
	TLSKeyFile  string `mapstructure:"tls_key_file" validate:"required_with=TLSCertFile"`
}

// TLSEnabled reports whether a certificate and key are configured.
func (c ServerConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// StorageConfig selects and configures the record store backend.
type StorageConfig struct {
	Backend     string        `mapstructure:"backend" validate:"required,oneof=file postgres"`
	Dir         string        `mapstructure:"dir" validate:"required_if=Backend file"`
	OpTimeout   time.Duration `mapstructure:"op_timeout" validate:"gt=0"`
	DatabaseURL string        `mapstructure:"database_url" validate:"required_if=Backend postgres"`
}

// AuthConfig contains credential and session settings.
type AuthConfig struct {
	HashSecret    string        `mapstructure:"hash_secret" validate:"required"`
	HashAlgorithm string        `mapstructure:"hash_algorithm" validate:"required,oneof=hmac-sha256 argon2id bcrypt"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
	// Zero disables login rate limiting.
	LoginRatePerMinute int `mapstructure:"login_rate_per_minute" validate:"gte=0"`
	LoginBurst         int `mapstructure:"login_burst" validate:"gte=0"`
}

// ChecksConfig contains check definition limits.
type ChecksConfig struct {
	MaxPerAccount       int  `mapstructure:"max_per_account" validate:"required,gt=0"`
	BlockPrivateTargets bool `mapstructure:"block_private_targets"`
}
