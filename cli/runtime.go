package cli

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/petal-labs/dumpling-mcp/config"
	"github.com/petal-labs/dumpling-mcp/dumpling"
	"github.com/petal-labs/dumpling-mcp/logging"
	dumplingotel "github.com/petal-labs/dumpling-mcp/otel"
	"github.com/petal-labs/dumpling-mcp/tool"
)

// Version is reported to MCP clients and in the upstream User-Agent.
// Set via ldflags at build time.
var Version = "dev"

// runtime bundles everything a command needs to invoke tools.
type runtime struct {
	cfg        config.Config
	logger     logr.Logger
	dispatcher *tool.Dispatcher

	syncLog  func()
	provider *dumplingotel.Provider
}

// loadConfig resolves and loads the configuration named by --config, falling
// back to discovery.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	explicitPath, _ := cmd.Flags().GetString("config")
	path, _, err := config.DiscoverPath(explicitPath)
	if err != nil {
		return config.Config{}, exitError(exitConfig, "%v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, exitError(exitConfig, "%v", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newRuntime loads configuration and wires logging, telemetry, the upstream
// client and the tool dispatcher. Callers must Close the runtime.
func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, syncLog, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, exitError(exitConfig, "%v", err)
	}
	rt := &runtime{cfg: cfg, logger: logger, syncLog: syncLog}
	logger.V(1).Info("configuration loaded", "config", cfg.String())

	provider, err := dumplingotel.NewProvider(cmd.Context(), dumplingotel.TracingConfig{
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
	})
	if err != nil {
		rt.Close()
		return nil, exitError(exitConfig, "initializing telemetry: %v", err)
	}
	rt.provider = provider

	observer, err := dumplingotel.NewToolObserver(
		provider.Meter(),
		provider.Tracer(),
	)
	if err != nil {
		rt.Close()
		return nil, exitError(exitRuntime, "initializing tool metrics: %v", err)
	}

	client, err := dumpling.NewClient(dumpling.ClientConfig{
		BaseURL:   cfg.API.BaseURL,
		APIKey:    cfg.API.Key,
		Timeout:   cfg.API.Timeout,
		UserAgent: "dumpling-mcp/" + Version,
	})
	if err != nil {
		rt.Close()
		return nil, exitError(exitConfig, "%v", err)
	}
	if !client.HasCredential() {
		logger.Info("no API key configured; every tool call will fail with MISSING_CREDENTIAL", "env", config.EnvAPIKey)
	}

	registry := tool.NewRegistry()
	if err := dumpling.Register(registry, client, cfg.Tools.Disabled); err != nil {
		rt.Close()
		return nil, exitError(exitConfig, "%v", err)
	}
	rt.dispatcher = tool.NewDispatcher(registry,
		tool.WithLogger(logger.WithName("dispatcher")),
		tool.WithObserver(observer),
	)
	return rt, nil
}

// Close flushes telemetry and logs.
func (r *runtime) Close() {
	if r.provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.provider.Shutdown(ctx); err != nil {
			r.logger.Error(err, "telemetry shutdown failed")
		}
	}
	if r.syncLog != nil {
		r.syncLog()
	}
}
