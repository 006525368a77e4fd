// Package config provides unified configuration for the courtside
// server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (COURTSIDE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the courtside server.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Model        ModelConfig        `yaml:"model"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Cache        CacheConfig        `yaml:"cache"`
	State        StateConfig        `yaml:"state"`
	Backends     []BackendConfig    `yaml:"backends"`
	Registry     RegistryConfig     `yaml:"registry"`
	Prompt       PromptConfig       `yaml:"prompt"`
	Auth         AuthConfig         `yaml:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`             // default: ":8080"
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MiB
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
}

// ModelConfig holds model endpoint settings.
type ModelConfig struct {
	BaseURL    string        `yaml:"base_url"` // required
	APIKey     string        `yaml:"api_key"`
	APIKeyFile string        `yaml:"api_key_file"` // _file variant for api_key
	Name       string        `yaml:"name"`         // model name sent upstream
	Timeout    time.Duration `yaml:"timeout"`      // default: 120s
}

// OrchestratorConfig bounds turn processing.
type OrchestratorConfig struct {
	MaxToolRounds   int           `yaml:"max_tool_rounds"`  // default: 6
	TurnBudget      time.Duration `yaml:"turn_budget"`      // default: 90s
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"` // per-attempt, default: 5s
	RetryBackoff    time.Duration `yaml:"retry_backoff"`    // default: 250ms
	MaxInstructions int           `yaml:"max_instructions"` // chars, default: 8000
}

// CacheConfig holds tool-result cache settings.
type CacheConfig struct {
	Type    string      `yaml:"type"`     // "memory" or "redis", default: "memory"
	MaxSize int         `yaml:"max_size"` // for memory cache, default: 10000
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // _file variant for password
	DB           int    `yaml:"db"`
}

// StateConfig holds conversation state tracker settings.
type StateConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"` // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

// BackendConfig describes a single tool backend.
type BackendConfig struct {
	Name      string `yaml:"name"`      // must match registry backend names
	Type      string `yaml:"type"`      // "http" or "mcp", default: "http"
	URL       string `yaml:"url"`       // required
	Transport string `yaml:"transport"` // mcp only: "sse" or "streamable-http"
}

// RegistryConfig selects the tool registry source.
type RegistryConfig struct {
	Path string `yaml:"path"` // YAML registry file; empty uses the built-in set
}

// PromptConfig holds instruction assembly settings.
type PromptConfig struct {
	LayersPath string        `yaml:"layers_path"` // YAML layer file; empty uses the built-in layers
	PrefsURL   string        `yaml:"prefs_url"`   // preference service; empty disables per-user prefs
	PrefsTTL   time.Duration `yaml:"prefs_ttl"`   // lookup timeout, default: 2s
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type       string         `yaml:"type"`     // "none", "apikey", "jwt", default: "none"
	APIKeys    []APIKeyConfig `yaml:"api_keys"` // entries for type=apikey
	JWT        JWTConfig      `yaml:"jwt"`
	DefaultRPM int            `yaml:"default_rpm"` // rate limit, 0 disables
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string `yaml:"key"`
	KeyFile     string `yaml:"key_file"` // _file variant for key
	Subject     string `yaml:"subject"`
	ServiceTier string `yaml:"service_tier"`
}

// JWTConfig holds HMAC JWT settings.
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodySize:     1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Model: ModelConfig{
			Timeout: 120 * time.Second,
		},
		Orchestrator: OrchestratorConfig{
			MaxToolRounds:   6,
			TurnBudget:      90 * time.Second,
			DispatchTimeout: 5 * time.Second,
			RetryBackoff:    250 * time.Millisecond,
			MaxInstructions: 8000,
		},
		Cache: CacheConfig{
			Type:    "memory",
			MaxSize: 10000,
		},
		State: StateConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Prompt: PromptConfig{
			PrefsTTL: 2 * time.Second,
		},
		Auth: AuthConfig{
			Type: "none",
		},
	}
}
