package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, COURTSIDE_CONFIG env, ./config.yaml, /etc/courtside/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery
// order: explicit path, COURTSIDE_CONFIG env var, ./config.yaml,
// /etc/courtside/config.yaml. Returns empty if none is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("COURTSIDE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/courtside/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps COURTSIDE_* environment variables to config
// fields, overriding file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COURTSIDE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("COURTSIDE_MODEL_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	if v := os.Getenv("COURTSIDE_MODEL_NAME"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("COURTSIDE_MODEL_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("COURTSIDE_CACHE"); v != "" {
		cfg.Cache.Type = v
	}
	if v := os.Getenv("COURTSIDE_REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("COURTSIDE_STATE"); v != "" {
		cfg.State.Type = v
	}
	if v := os.Getenv("COURTSIDE_POSTGRES_DSN"); v != "" {
		cfg.State.Postgres.DSN = v
	}
	if v := os.Getenv("COURTSIDE_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("COURTSIDE_MAX_TOOL_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Orchestrator.MaxToolRounds = n
		}
	}
	if v := os.Getenv("COURTSIDE_TURN_BUDGET"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Orchestrator.TurnBudget = d
		}
	}

	// COURTSIDE_BACKENDS: JSON array of backend configs.
	if v := os.Getenv("COURTSIDE_BACKENDS"); v != "" {
		var backends []BackendConfig
		if err := json.Unmarshal([]byte(v), &backends); err == nil && len(backends) > 0 {
			cfg.Backends = backends
		}
	}

	// COURTSIDE_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("COURTSIDE_API_KEYS"); v != "" {
		var keys []APIKeyConfig
		if err := json.Unmarshal([]byte(v), &keys); err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}
}

// resolveFileReferences reads _file fields and populates the
// corresponding value fields. The file wins only when the value field
// is empty; its content is whitespace-trimmed.
func resolveFileReferences(cfg *Config) error {
	if cfg.Model.APIKeyFile != "" && cfg.Model.APIKey == "" {
		val, err := readSecretFile(cfg.Model.APIKeyFile)
		if err != nil {
			return fmt.Errorf("model.api_key_file: %w", err)
		}
		cfg.Model.APIKey = val
	}

	if cfg.Cache.Redis.PasswordFile != "" && cfg.Cache.Redis.Password == "" {
		val, err := readSecretFile(cfg.Cache.Redis.PasswordFile)
		if err != nil {
			return fmt.Errorf("cache.redis.password_file: %w", err)
		}
		cfg.Cache.Redis.Password = val
	}

	if cfg.State.Postgres.DSNFile != "" && cfg.State.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.State.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("state.postgres.dsn_file: %w", err)
		}
		cfg.State.Postgres.DSN = val
	}

	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	if cfg.Auth.JWT.SecretFile != "" && cfg.Auth.JWT.Secret == "" {
		val, err := readSecretFile(cfg.Auth.JWT.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.jwt.secret_file: %w", err)
		}
		cfg.Auth.JWT.Secret = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding
// whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
