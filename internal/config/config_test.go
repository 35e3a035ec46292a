package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[graph]
introspection = true
path = "/graphql"

[csrf]
enabled = true

[health]
enabled = true
path = "/health"
listen = ":8081"

[telemetry.tracing.exporters.stdout]
enabled = true

[telemetry.tracing.exporters.otlp]
enabled = true
endpoint = "collector:4317"

[gateway.rate_limit]
limit = 1000
duration = "1s"
storage = "memory"

[subgraphs.users.rate_limit]
limit = 100
duration = "1s"
storage = "redis"

[subgraphs.users.rate_limit.redis]
address = "localhost:6379"

[complexity_control]
mode = "enforce"
limit = 10000

[extensions.acme]
path = "/extensions/acme"
max_pool_size = 4
networking = false
timeout_ms = 250

[extensions.acme.environment_variables]
FOO = "bar"
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "gateway.toml")
	require.NoError(t, os.WriteFile(p, []byte(sampleTOML), 0o644))
	return p
}

func TestLoadParsesAllRecognizedSections(t *testing.T) {
	path := writeSample(t)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.True(t, cfg.Graph.Introspection)
	require.Equal(t, "/graphql", cfg.Graph.Path)
	require.True(t, cfg.CSRF.Enabled)
	require.True(t, cfg.Health.Enabled)
	require.Equal(t, ":8081", cfg.Health.Listen)

	require.NotNil(t, cfg.Telemetry.Tracing.Exporters.Stdout)
	require.True(t, cfg.Telemetry.Tracing.Exporters.Stdout.Enabled)
	require.NotNil(t, cfg.Telemetry.Tracing.Exporters.OTLP)
	require.Equal(t, "collector:4317", cfg.Telemetry.Tracing.Exporters.OTLP.Endpoint)

	require.Equal(t, 1000, cfg.Gateway.RateLimit.Limit)
	require.Equal(t, time.Second, cfg.Gateway.RateLimit.Duration)

	sub, ok := cfg.Subgraphs["users"]
	require.True(t, ok)
	require.Equal(t, 100, sub.RateLimit.Limit)
	require.Equal(t, "redis", sub.RateLimit.Storage)
	require.Equal(t, "localhost:6379", sub.RateLimit.Redis.Address)

	require.Equal(t, "enforce", cfg.ComplexityControl.Mode)
	require.EqualValues(t, 10000, cfg.ComplexityControl.Limit)

	ext, ok := cfg.Extensions["acme"]
	require.True(t, ok)
	require.Equal(t, 4, ext.MaxPoolSize)
	require.Equal(t, "bar", ext.EnvironmentVariables["FOO"])
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeSample(t)

	changed := make(chan *Config, 1)
	w, cfg, err := NewWatcher(path, func(c *Config) {
		changed <- c
	})
	require.NoError(t, err)
	defer w.Close()
	require.True(t, cfg.CSRF.Enabled)

	updated := strings.Replace(sampleTOML, "[csrf]\nenabled = true", "[csrf]\nenabled = false", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case c := <-changed:
		require.False(t, c.CSRF.Enabled)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
