package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets up environment variables for testing
func setupEnv(t *testing.T, envVars map[string]string) func() {
	// Save current environment values
	originalValues := make(map[string]string)
	for name := range envVars {
		originalValues[name] = os.Getenv(name)
	}

	for name, value := range envVars {
		err := os.Setenv(name, value)
		require.NoError(t, err, "Failed to set environment variable %s", name)
	}

	return func() {
		for name, value := range originalValues {
			if value == "" {
				os.Unsetenv(name)
			} else {
				os.Setenv(name, value)
			}
		}
	}
}

// TestLoadStagingDefaults verifies the staging profile when no overrides are set.
func TestLoadStagingDefaults(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"PULSE_ENV":                    "",
		"PULSE_SERVER_HTTP_PORT":       "",
		"PULSE_SERVER_LOG_LEVEL":       "",
		"PULSE_CHECKS_MAX_PER_ACCOUNT": "",
	})
	defer cleanup()

	cfg, err := Load("")

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg)
	assert.Equal(t, EnvStaging, cfg.Environment)
	assert.Equal(t, 3000, cfg.Server.HTTPPort)
	assert.Equal(t, 3001, cfg.Server.HTTPSPort)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, ".data", cfg.Storage.Dir)
	assert.Equal(t, 5*time.Second, cfg.Storage.OpTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 5, cfg.Checks.MaxPerAccount)
	assert.False(t, cfg.Server.TLSEnabled())
}

func TestLoadProductionProfile(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"PULSE_AUTH_HASH_SECRET": "production-secret",
		"PULSE_SERVER_HTTP_PORT": "",
	})
	defer cleanup()

	cfg, err := Load("Production")

	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, 5000, cfg.Server.HTTPPort)
	assert.Equal(t, 5001, cfg.Server.HTTPSPort)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "production-secret", cfg.Auth.HashSecret)
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"PULSE_AUTH_HASH_SECRET": "",
	})
	defer cleanup()

	_, err := Load(EnvProduction)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HashSecret")
}

func TestResolveEnvironment(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{"PULSE_ENV": ""})
	defer cleanup()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty falls back to staging", "", EnvStaging},
		{"staging", "staging", EnvStaging},
		{"production mixed case", " PRODUCTION ", EnvProduction},
		{"unknown selects staging", "qa", EnvStaging},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveEnvironment(tt.in))
		})
	}
}

func TestResolveEnvironmentFromEnv(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{"PULSE_ENV": "production"})
	defer cleanup()

	assert.Equal(t, EnvProduction, ResolveEnvironment(""))
	assert.Equal(t, EnvStaging, ResolveEnvironment("staging"), "explicit name wins")
}

// TestLoadFromEnv verifies that environment variables override the profile.
func TestLoadFromEnv(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"PULSE_SERVER_HTTP_PORT":             "9090",
		"PULSE_SERVER_LOG_LEVEL":             "warn",
		"PULSE_STORAGE_DIR":                  "/var/lib/pulse",
		"PULSE_STORAGE_OP_TIMEOUT":           "2s",
		"PULSE_AUTH_HASH_ALGORITHM":          "argon2id",
		"PULSE_AUTH_SESSION_TTL":             "1h",
		"PULSE_CHECKS_MAX_PER_ACCOUNT":       "10",
		"PULSE_CHECKS_BLOCK_PRIVATE_TARGETS": "true",
	})
	defer cleanup()

	cfg, err := Load(EnvStaging)

	require.NoError(t, err, "Load() should not return an error with valid environment variables")
	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, "/var/lib/pulse", cfg.Storage.Dir)
	assert.Equal(t, 2*time.Second, cfg.Storage.OpTimeout)
	assert.Equal(t, "argon2id", cfg.Auth.HashAlgorithm)
	assert.Equal(t, time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 10, cfg.Checks.MaxPerAccount)
	assert.True(t, cfg.Checks.BlockPrivateTargets)
}

func TestLoadFileLayersBeneathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.yaml")
	contents := []byte(`
server:
  http_port: 7000
  log_level: error
storage:
  dir: /srv/pulse
checks:
  max_per_account: 3
`)
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cleanup := setupEnv(t, map[string]string{
		"PULSE_SERVER_HTTP_PORT":       "",
		"PULSE_SERVER_LOG_LEVEL":       "",
		"PULSE_STORAGE_DIR":            "",
		"PULSE_CHECKS_MAX_PER_ACCOUNT": "4",
	})
	defer cleanup()

	cfg, err := LoadFile(EnvStaging, path)

	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.HTTPPort)
	assert.Equal(t, "error", cfg.Server.LogLevel)
	assert.Equal(t, "/srv/pulse", cfg.Storage.Dir)
	assert.Equal(t, 4, cfg.Checks.MaxPerAccount, "environment overrides the file")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(EnvStaging, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

// TestLoadValidationErrors verifies that invalid values are rejected.
func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		field   string
	}{
		{
			name:    "invalid log level",
			envVars: map[string]string{"PULSE_SERVER_LOG_LEVEL": "verbose"},
			field:   "LogLevel",
		},
		{
			name:    "port out of range",
			envVars: map[string]string{"PULSE_SERVER_HTTP_PORT": "70000"},
			field:   "HTTPPort",
		},
		{
			name:    "unknown backend",
			envVars: map[string]string{"PULSE_STORAGE_BACKEND": "s3"},
			field:   "Backend",
		},
		{
			name:    "postgres without url",
			envVars: map[string]string{"PULSE_STORAGE_BACKEND": "postgres", "PULSE_STORAGE_DATABASE_URL": ""},
			field:   "DatabaseURL",
		},
		{
			name:    "unknown hash algorithm",
			envVars: map[string]string{"PULSE_AUTH_HASH_ALGORITHM": "md5"},
			field:   "HashAlgorithm",
		},
		{
			name:    "cert without key",
			envVars: map[string]string{"PULSE_SERVER_TLS_CERT_FILE": "cert.pem", "PULSE_SERVER_TLS_KEY_FILE": ""},
			field:   "TLSKeyFile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupEnv(t, tt.envVars)
			defer cleanup()

			_, err := Load(EnvStaging)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
