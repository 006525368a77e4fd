package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid
// values. Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Model.BaseURL == "" {
		errs = append(errs, fmt.Errorf("model.base_url is required"))
	}

	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}

	switch c.Cache.Type {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.type must be \"memory\" or \"redis\", got %q", c.Cache.Type))
	}
	if c.Cache.Type == "redis" && c.Cache.Redis.Addr == "" {
		errs = append(errs, fmt.Errorf("cache.redis.addr is required when cache.type is \"redis\""))
	}

	switch c.State.Type {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("state.type must be \"memory\" or \"postgres\", got %q", c.State.Type))
	}
	if c.State.Type == "postgres" && c.State.Postgres.DSN == "" && c.State.Postgres.DSNFile == "" {
		errs = append(errs, fmt.Errorf("state.postgres.dsn or state.postgres.dsn_file is required when state.type is \"postgres\""))
	}

	for i, b := range c.Backends {
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("backends[%d].name is required", i))
		}
		if b.URL == "" {
			errs = append(errs, fmt.Errorf("backends[%d].url is required", i))
		}
		switch b.Type {
		case "", "http", "mcp":
		default:
			errs = append(errs, fmt.Errorf("backends[%d].type must be \"http\" or \"mcp\", got %q", i, b.Type))
		}
	}

	switch c.Auth.Type {
	case "none", "apikey", "jwt":
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}
	if c.Auth.Type == "jwt" && c.Auth.JWT.Secret == "" && c.Auth.JWT.SecretFile == "" {
		errs = append(errs, fmt.Errorf("auth.jwt.secret or auth.jwt.secret_file is required when auth.type is \"jwt\""))
	}

	if c.Orchestrator.MaxToolRounds < 0 {
		errs = append(errs, fmt.Errorf("orchestrator.max_tool_rounds must be >= 0, got %d", c.Orchestrator.MaxToolRounds))
	}

	return errors.Join(errs...)
}
