// Package config loads dumpling-mcp settings from YAML and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/dumpling-mcp/dumpling"
)

const (
	projectConfigName = "dumpling-mcp.yaml"
	homeConfigDir     = ".dumpling-mcp"
	homeConfigName    = "config.yaml"

	// DefaultBaseURL is the upstream API origin used when none is configured.
	DefaultBaseURL = dumpling.DefaultBaseURL
	// DefaultHTTPAddr is the listen address of the http transport.
	DefaultHTTPAddr = "127.0.0.1:8080"
	// DefaultServiceName is the OpenTelemetry service.name resource attribute.
	DefaultServiceName = "dumpling-mcp"

	// TransportStdio serves MCP on stdin/stdout.
	TransportStdio = "stdio"
	// TransportHTTP serves MCP as streamable HTTP.
	TransportHTTP = "http"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvAPIKey       = dumpling.EnvAPIKey
	EnvBaseURL      = "DUMPLING_BASE_URL"
	EnvLogLevel     = "DUMPLING_LOG_LEVEL"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

var (
	logLevels = []string{"debug", "info", "warn", "error"}

	// envReference matches ${NAME}; a bare $NAME is left as written.
	envReference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// Config is the full runtime configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Tools     ToolsConfig     `yaml:"tools"`
}

// APIConfig describes the upstream Dumpling AI API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// Key is only ever read from the environment.
	Key string `yaml:"-"`
}

// ServerConfig selects how MCP clients reach the server.
type ServerConfig struct {
	Transport string `yaml:"transport"`
	HTTPAddr  string `yaml:"http_addr"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"service_name"`
}

// ToolsConfig narrows the published catalog.
type ToolsConfig struct {
	Disabled []string `yaml:"disabled"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		API:       APIConfig{BaseURL: DefaultBaseURL},
		Server:    ServerConfig{Transport: TransportStdio, HTTPAddr: DefaultHTTPAddr},
		Log:       LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{ServiceName: DefaultServiceName},
	}
}

// Load builds the configuration from defaults, the file at path (if any) and
// the process environment, then validates it.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is a testable variant of Load.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if clean := strings.TrimSpace(path); clean != "" {
		// #nosec G304 -- path resolved from explicit local config discovery.
		data, err := os.ReadFile(clean)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %q: %w", clean, err)
		}
		if err := decode(data, &cfg, lookup); err != nil {
			return Config{}, fmt.Errorf("parsing config %q: %w", clean, err)
		}
	}
	cfg.ApplyEnv(lookup)
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config, lookup func(string) (string, bool)) error {
	decoder := yaml.NewDecoder(bytes.NewReader(expandEnv(data, lookup)))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// expandEnv substitutes ${NAME} references. Unset variables expand to "".
func expandEnv(data []byte, lookup func(string) (string, bool)) []byte {
	return envReference.ReplaceAllFunc(data, func(ref []byte) []byte {
		if lookup == nil {
			return nil
		}
		name := string(envReference.FindSubmatch(ref)[1])
		value, _ := lookup(name)
		return []byte(value)
	})
}

// ApplyEnv overlays environment variables onto cfg. Empty values are ignored
// except for the API key, which is always taken from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	if key, ok := lookup(EnvAPIKey); ok {
		c.API.Key = strings.TrimSpace(key)
	}
	if v, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(v) != "" {
		c.API.BaseURL = v
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvOTLPEndpoint); ok && strings.TrimSpace(v) != "" {
		c.Telemetry.OTLPEndpoint = v
	}
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	c.Server.Transport = strings.ToLower(strings.TrimSpace(c.Server.Transport))
	if c.Server.Transport == "" {
		c.Server.Transport = TransportStdio
	}
	c.Server.HTTPAddr = strings.TrimSpace(c.Server.HTTPAddr)
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Telemetry.OTLPEndpoint = strings.TrimSpace(c.Telemetry.OTLPEndpoint)
	c.Telemetry.ServiceName = strings.TrimSpace(c.Telemetry.ServiceName)
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
	disabled := make([]string, 0, len(c.Tools.Disabled))
	for _, name := range c.Tools.Disabled {
		disabled = append(disabled, strings.TrimSpace(name))
	}
	c.Tools.Disabled = disabled
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("config: api.base_url %q must be an absolute http or https URL", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("config: api.timeout must not be negative, got %s", c.API.Timeout)
	}
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("config: server.transport %q must be %s or %s", c.Server.Transport, TransportStdio, TransportHTTP)
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("config: log.level %q must be one of %s", c.Log.Level, strings.Join(logLevels, ", "))
	}
	for _, name := range c.Tools.Disabled {
		if name == "" {
			return errors.New("config: tools.disabled contains an empty name")
		}
	}
	return nil
}

// HasAPIKey reports whether a credential was found in the environment.
func (c Config) HasAPIKey() bool {
	return c.API.Key != ""
}

// String renders the configuration with the API key redacted.
func (c Config) String() string {
	key := "unset"
	if c.HasAPIKey() {
		key = "[redacted]"
	}
	return fmt.Sprintf(
		"api.base_url=%s api.timeout=%s api.key=%s server.transport=%s server.http_addr=%s log.level=%s telemetry.otlp_endpoint=%q tools.disabled=%v",
		c.API.BaseURL, c.API.Timeout, key, c.Server.Transport, c.Server.HTTPAddr, c.Log.Level, c.Telemetry.OTLPEndpoint, c.Tools.Disabled,
	)
}

// DiscoverPath resolves the config file location with first-match semantics.
func DiscoverPath(explicitPath string) (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("resolve working directory: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve user home: %w", err)
	}
	return DiscoverPathFrom(explicitPath, cwd, homeDir)
}

// DiscoverPathFrom is a testable variant of DiscoverPath.
func DiscoverPathFrom(explicitPath, cwd, homeDir string) (string, bool, error) {
	candidates := make([]string, 0, 2)
	if clean := strings.TrimSpace(explicitPath); clean != "" {
		candidates = append(candidates, filepath.Clean(clean))
	} else {
		candidates = append(candidates, filepath.Join(cwd, projectConfigName))
		candidates = append(candidates, filepath.Join(homeDir, homeConfigDir, homeConfigName))
	}

	for i, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			// An explicit path that does not exist is an error.
			if i == 0 && strings.TrimSpace(explicitPath) != "" {
				return "", false, fmt.Errorf("config file %q not found", candidate)
			}
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("checking config path %q: %w", candidate, err)
		}
	}
	return "", false, nil
}
