package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 30*time.Second, c.Poller.Interval)
	assert.Equal(t, 300*time.Millisecond, c.Threshold.Debounce)
	assert.Equal(t, 0.41, c.Threshold.Default)
	assert.Equal(t, 0.3, c.Threshold.Min)
	assert.Equal(t, 0.7, c.Threshold.Max)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	assert.Equal(t, 50.0, c.Kafka.MaxRPS)
	assert.Equal(t, 30*time.Second, c.WebSocket.PingPeriod)
	assert.Equal(t, 60*time.Second, c.WebSocket.PongTimeout)
	assert.NoError(t, c.Validate())
}

func TestShippedConfigParses(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "frauddash.logs", c.Log.CollectorTopic)
	assert.Equal(t, 64, c.WebSocket.SendBuffer)
	assert.False(t, c.Kafka.Enabled)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: test
scoring:
  base_url: https://scoring.internal/
  timeout: 2s
poller:
  interval: 5s
`))
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, "https://scoring.internal", c.TrimmedBaseURL())
	assert.Equal(t, 2*time.Second, c.Scoring.Timeout)
	assert.Equal(t, 5*time.Second, c.Poller.Interval)
	assert.Equal(t, 0.01, c.Threshold.Step)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"missing base url", func(c *Config) { c.Scoring.BaseURL = "" }, "scoring.base_url is required"},
		{"non http base url", func(c *Config) { c.Scoring.BaseURL = "ftp://x" }, "http(s)"},
		{"inverted bounds", func(c *Config) { c.Threshold.Min = 0.8 }, "must be below"},
		{"default outside", func(c *Config) { c.Threshold.Default = 0.9 }, "outside"},
		{"zero interval", func(c *Config) { c.Poller.Interval = 0 }, "poller.interval"},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }, "kafka.brokers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Default()
			require.NoError(t, err)
			tt.mutate(c)
			err = c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: staging\n"), 0o644))

	t.Setenv("SCORING_BASE_URL", "http://scoring:9000")
	t.Setenv("METRICS_POLL_INTERVAL", "10s")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", c.Environment)
	assert.Equal(t, "http://scoring:9000", c.Scoring.BaseURL)
	assert.Equal(t, 10*time.Second, c.Poller.Interval)
	assert.True(t, c.Cache.Redis.Enabled)
	assert.Equal(t, "redis", c.Cache.Redis.Host)
	assert.Equal(t, 6380, c.Cache.Redis.Port)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestLoadWithEnvMissingFile(t *testing.T) {
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "development", c.Environment)
}
