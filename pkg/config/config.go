package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		AllowOrigins    []string      `yaml:"allow_origins"`
		RateLimit       struct {
			RPS   float64 `yaml:"rps" default:"5"`
			Burst int     `yaml:"burst" default:"10"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"1s"`
	} `yaml:"metrics"`
	Log struct {
		Level          string        `yaml:"level" default:"info"`
		Format         string        `yaml:"format" default:"console"`
		Output         string        `yaml:"output" default:"stdout"`
		CollectorTopic string        `yaml:"collector_topic" default:"frauddash.logs"`
		FlushInterval  time.Duration `yaml:"flush_interval" default:"30s"`
		FlushCount     int           `yaml:"flush_count" default:"100"`
	} `yaml:"log"`
	Scoring struct {
		BaseURL  string        `yaml:"base_url" default:"http://127.0.0.1:8000"`
		Timeout  time.Duration `yaml:"timeout" default:"10s"`
		MaxRPS   float64       `yaml:"max_rps" default:"20"`
		MaxBurst int           `yaml:"max_burst" default:"5"`
	} `yaml:"scoring"`
	WebSocket struct {
		PingPeriod  time.Duration `yaml:"ping_period" default:"30s"`
		PongTimeout time.Duration `yaml:"pong_timeout" default:"60s"`
		SendBuffer  int           `yaml:"send_buffer" default:"64"`
	} `yaml:"websocket"`
	Poller struct {
		Interval time.Duration `yaml:"interval" default:"30s"`
	} `yaml:"poller"`
	Threshold struct {
		Min      float64       `yaml:"min" default:"0.3"`
		Max      float64       `yaml:"max" default:"0.7"`
		Step     float64       `yaml:"step" default:"0.01"`
		Default  float64       `yaml:"default" default:"0.41"`
		Debounce time.Duration `yaml:"debounce" default:"300ms"`
	} `yaml:"threshold"`
	Cache struct {
		MemorySize   int           `yaml:"memory_size" default:"512"`
		ThresholdTTL time.Duration `yaml:"threshold_ttl" default:"1m"`
		Redis        struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"frauddash"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"frauddash.events"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"200ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Buffer int     `yaml:"buffer" default:"256"`
		MaxRPS float64 `yaml:"max_rps" default:"50"`
	} `yaml:"kafka"`
}

// Default returns a configuration with every default applied and nothing read from disk.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error: defaults plus environment are enough to run.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		c, err = Load(path)
	} else {
		c, err = Default()
	}
	if err != nil {
		return nil, err
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SCORING_BASE_URL"); v != "" {
		c.Scoring.BaseURL = v
	}
	if v := os.Getenv("METRICS_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("METRICS_POLL_INTERVAL: %w", err)
		}
		c.Poller.Interval = d
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Host = host
		if ok {
			var p int
			if _, err := fmt.Sscanf(port, "%d", &p); err != nil {
				return fmt.Errorf("REDIS_ADDR port: %w", err)
			}
			c.Cache.Redis.Port = p
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Scoring.BaseURL == "" {
		return fmt.Errorf("scoring.base_url is required")
	}
	if !strings.HasPrefix(c.Scoring.BaseURL, "http://") && !strings.HasPrefix(c.Scoring.BaseURL, "https://") {
		return fmt.Errorf("scoring.base_url must be an http(s) URL, got '%s'", c.Scoring.BaseURL)
	}
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poller.interval must be positive")
	}
	if c.Threshold.Min >= c.Threshold.Max {
		return fmt.Errorf("threshold.min (%v) must be below threshold.max (%v)", c.Threshold.Min, c.Threshold.Max)
	}
	if c.Threshold.Default < c.Threshold.Min || c.Threshold.Default > c.Threshold.Max {
		return fmt.Errorf("threshold.default %v outside [%v, %v]", c.Threshold.Default, c.Threshold.Min, c.Threshold.Max)
	}
	if c.Threshold.Step <= 0 {
		return fmt.Errorf("threshold.step must be positive")
	}
	if c.Threshold.Debounce < 0 {
		return fmt.Errorf("threshold.debounce cannot be negative")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// TrimmedBaseURL returns the scoring base URL without a trailing slash.
func (c *Config) TrimmedBaseURL() string {
	return strings.TrimRight(c.Scoring.BaseURL, "/")
}
