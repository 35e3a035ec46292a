// Package config loads and hot-reloads the gateway's TOML
// configuration (spec.md §6), following the nested-section layout
// named there: graph, csrf, health, telemetry.tracing.exporters,
// gateway.rate_limit, subgraphs.<name>.rate_limit, complexity_control,
// extensions.<name>.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/samsarahq/go/oops"
)

// Config is the whole recognized document. Every section is optional
// in the TOML source; zero values are sensible defaults (introspection
// off, CSRF off, health endpoint off, no rate limiting).
type Config struct {
	Graph              GraphConfig                 `toml:"graph"`
	CSRF               CSRFConfig                  `toml:"csrf"`
	Health             HealthConfig                `toml:"health"`
	Telemetry          TelemetryConfig             `toml:"telemetry"`
	Gateway            GatewayConfig               `toml:"gateway"`
	Subgraphs          map[string]SubgraphConfig   `toml:"subgraphs"`
	ComplexityControl  ComplexityConfig            `toml:"complexity_control"`
	Extensions         map[string]ExtensionConfig  `toml:"extensions"`
}

type GraphConfig struct {
	Introspection bool   `toml:"introspection"`
	Path          string `toml:"path"`
}

type CSRFConfig struct {
	Enabled bool `toml:"enabled"`
}

type HealthConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Listen  string `toml:"listen"`
}

type TelemetryConfig struct {
	Tracing TracingConfig `toml:"tracing"`
}

type TracingConfig struct {
	Exporters ExportersConfig `toml:"exporters"`
}

type ExportersConfig struct {
	Stdout *StdoutExporterConfig `toml:"stdout"`
	OTLP   *OTLPExporterConfig   `toml:"otlp"`
}

type StdoutExporterConfig struct {
	Enabled bool `toml:"enabled"`
}

type OTLPExporterConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Insecure bool   `toml:"insecure"`
}

type GatewayConfig struct {
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type SubgraphConfig struct {
	URL       string          `toml:"url"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type RateLimitConfig struct {
	Limit    int           `toml:"limit"`
	Duration time.Duration `toml:"duration"`
	// Storage selects the backing store: "memory" (default) or
	// "redis", per spec.md §6.
	Storage string `toml:"storage"`
	Redis   RedisConfig `toml:"redis"`
}

type RedisConfig struct {
	Address string `toml:"address"`
}

type ComplexityConfig struct {
	// Mode is "measure" (compute and report only) or "enforce" (reject
	// over-budget operations), per spec.md §4.2/§6.
	Mode  string `toml:"mode"`
	Limit int64  `toml:"limit"`
}

type ExtensionConfig struct {
	Path                 string            `toml:"path"`
	MaxPoolSize          int               `toml:"max_pool_size"`
	Stdout               string            `toml:"stdout"`
	Stderr               string            `toml:"stderr"`
	Networking           bool              `toml:"networking"`
	EnvironmentVariables map[string]string `toml:"environment_variables"`
	TimeoutMillis        int64             `toml:"timeout_ms"`
}

// Load decodes path into a Config, the way a CLI entrypoint would
// bootstrap before watching it for changes (see Watcher).
func Load(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, oops.Wrapf(err, "decoding config %s", path)
	}
	return &c, nil
}
