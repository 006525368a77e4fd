package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/courtside/courtside/pkg/auth"
	"github.com/courtside/courtside/pkg/auth/apikey"
	authjwt "github.com/courtside/courtside/pkg/auth/jwt"
	"github.com/courtside/courtside/pkg/backend"
	"github.com/courtside/courtside/pkg/cache"
	cachememory "github.com/courtside/courtside/pkg/cache/memory"
	cacheredis "github.com/courtside/courtside/pkg/cache/redis"
	"github.com/courtside/courtside/pkg/config"
	"github.com/courtside/courtside/pkg/model"
	"github.com/courtside/courtside/pkg/orchestrator"
	"github.com/courtside/courtside/pkg/prefs"
	"github.com/courtside/courtside/pkg/prompt"
	"github.com/courtside/courtside/pkg/registry"
	"github.com/courtside/courtside/pkg/state"
	statememory "github.com/courtside/courtside/pkg/state/memory"
	statepostgres "github.com/courtside/courtside/pkg/state/postgres"
	"github.com/courtside/courtside/pkg/transport"
	transporthttp "github.com/courtside/courtside/pkg/transport/http"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the turn API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(logLevel)

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default: discovery)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	return cmd
}

func newCheckConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the configuration, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(configPath); err != nil {
				return err
			}
			fmt.Println("configuration OK")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default: discovery)")
	return cmd
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func serve(ctx context.Context, cfg *config.Config) error {
	probes := map[string]transport.HealthChecker{}

	// Tool-result cache.
	cacheStore, err := buildCache(cfg, probes)
	if err != nil {
		return err
	}
	defer cacheStore.Close()

	// Conversation state tracker.
	tracker, err := buildTracker(ctx, cfg, probes)
	if err != nil {
		return err
	}
	defer tracker.Close()

	// Tool registry.
	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	slog.Info("tool registry loaded", "domains", reg.Domains())

	// Backends and dispatcher.
	backends, err := buildBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, be := range backends {
			be.Close()
		}
	}()

	dispatcher := backend.NewDispatcher(reg, backends, cacheStore, cache.DefaultTTLPolicy(),
		backend.WithAttemptTimeout(cfg.Orchestrator.DispatchTimeout),
		backend.WithRetryBackoff(cfg.Orchestrator.RetryBackoff),
	)

	// Instruction assembly.
	layers, err := buildLayers(cfg)
	if err != nil {
		return err
	}
	var prefStore prefs.Store = prefs.Static{}
	if cfg.Prompt.PrefsURL != "" {
		prefStore = prefs.Resilient(prefs.NewHTTPStore(cfg.Prompt.PrefsURL, cfg.Prompt.PrefsTTL))
	}
	assembler := prompt.New(layers, prefStore, cacheStore,
		prompt.WithMaxChars(cfg.Orchestrator.MaxInstructions))

	// Model client.
	mc := model.NewChatClient(cfg.Model.BaseURL, cfg.Model.APIKey, cfg.Model.Name, cfg.Model.Timeout)
	defer mc.Close()

	orch := orchestrator.New(assembler, reg, dispatcher, mc, tracker, orchestrator.Config{
		MaxToolRounds: cfg.Orchestrator.MaxToolRounds,
		TurnBudget:    cfg.Orchestrator.TurnBudget,
	})

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(cfg.Server.Addr),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	}
	if mw := buildAuthMiddleware(cfg); mw != nil {
		opts = append(opts, transporthttp.WithHTTPMiddleware(mw))
	}

	srv := transporthttp.NewServer(orch, tracker, probes, opts...)

	slog.Info("courtside starting",
		"addr", cfg.Server.Addr,
		"model", cfg.Model.Name,
		"cache", cfg.Cache.Type,
		"state", cfg.State.Type,
		"backends", len(backends),
	)
	return srv.ListenAndServe()
}

func buildCache(cfg *config.Config, probes map[string]transport.HealthChecker) (cache.Store, error) {
	switch cfg.Cache.Type {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		store := cacheredis.New(client)
		probes["cache"] = store
		return store, nil
	default:
		return cachememory.New(cfg.Cache.MaxSize), nil
	}
}

func buildTracker(ctx context.Context, cfg *config.Config, probes map[string]transport.HealthChecker) (state.Tracker, error) {
	switch cfg.State.Type {
	case "postgres":
		tracker, err := statepostgres.New(ctx, statepostgres.Config{
			DSN:            cfg.State.Postgres.DSN,
			MaxConns:       cfg.State.Postgres.MaxConns,
			MigrateOnStart: cfg.State.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting state tracker: %w", err)
		}
		probes["state"] = tracker
		return tracker, nil
	default:
		return statememory.New(), nil
	}
}

func buildRegistry(cfg *config.Config) (*registry.Registry, error) {
	if cfg.Registry.Path == "" {
		return registry.Builtin(), nil
	}
	reg, err := registry.LoadFile(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("loading tool registry: %w", err)
	}
	return reg, nil
}

func buildLayers(cfg *config.Config) (prompt.Layers, error) {
	if cfg.Prompt.LayersPath == "" {
		return prompt.BuiltinLayers(), nil
	}
	layers, err := prompt.LoadLayers(cfg.Prompt.LayersPath)
	if err != nil {
		return prompt.Layers{}, fmt.Errorf("loading instruction layers: %w", err)
	}
	return layers, nil
}

func buildBackends(ctx context.Context, cfg *config.Config) (map[string]backend.Backend, error) {
	backends := make(map[string]backend.Backend, len(cfg.Backends))
	for _, bc := range cfg.Backends {
		switch bc.Type {
		case "mcp":
			be := backend.NewMCPBackend(backend.MCPConfig{
				Name:      bc.Name,
				URL:       bc.URL,
				Transport: bc.Transport,
			})
			connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err := be.Connect(connectCtx)
			cancel()
			if err != nil {
				return nil, fmt.Errorf("connecting MCP backend %q: %w", bc.Name, err)
			}
			backends[bc.Name] = be
		default:
			backends[bc.Name] = backend.NewHTTPBackend(bc.Name, bc.URL)
		}
		slog.Info("backend configured", "name", bc.Name, "type", bc.Type)
	}
	return backends, nil
}

// buildAuthMiddleware returns the HTTP auth middleware, or nil when
// auth is disabled.
func buildAuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	if cfg.Auth.Type == "" || cfg.Auth.Type == "none" {
		return nil
	}

	chain := &auth.Chain{DefaultDecision: auth.No}

	switch cfg.Auth.Type {
	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.Auth.APIKeys))
		for _, k := range cfg.Auth.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key: k.Key,
				Identity: auth.Identity{
					Subject:     k.Subject,
					ServiceTier: k.ServiceTier,
				},
			})
		}
		chain.Authenticators = []auth.Authenticator{apikey.New(entries)}
	case "jwt":
		chain.Authenticators = []auth.Authenticator{authjwt.New(authjwt.Config{
			Secret:   []byte(cfg.Auth.JWT.Secret),
			Issuer:   cfg.Auth.JWT.Issuer,
			Audience: cfg.Auth.JWT.Audience,
		})}
	}

	var limiter auth.RateLimiter
	if cfg.Auth.DefaultRPM > 0 {
		limiter = auth.NewInProcessLimiter(nil, cfg.Auth.DefaultRPM)
	}

	return auth.Middleware(chain, limiter, auth.DefaultBypassEndpoints)
}
