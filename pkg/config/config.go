package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Models struct {
		Dir        string `yaml:"dir"`
		ScorerTier string `yaml:"scorer_tier"` // ml, light, rules, minimal
	} `yaml:"models"`
	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		AsyncInsert  bool          `yaml:"async_insert"`
		WaitForAsync bool          `yaml:"wait_for_async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		EventTopic   string   `yaml:"event_topic"`
		SampleTopic  string   `yaml:"sample_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Hub struct {
		SendBuffer       int           `yaml:"send_buffer"`
		HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout"`
		ConnectionLog    int           `yaml:"connection_log"`
	} `yaml:"hub"`
	Simulator struct {
		Enabled     bool          `yaml:"enabled"`
		Ponds       []string      `yaml:"ponds"`
		IntervalMin time.Duration `yaml:"interval_min"`
		IntervalMax time.Duration `yaml:"interval_max"`
		Mode        string        `yaml:"mode"` // normal, stress, danger
	} `yaml:"simulator"`
	Ingest struct {
		MaxPerSecond int `yaml:"max_per_second"`
		BufferSize   int `yaml:"buffer_size"`
	} `yaml:"ingest"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("MODELS_DIR"); v != "" {
		c.Models.Dir = v
	}
	if v := os.Getenv("SCORER_TIER"); v != "" {
		c.Models.ScorerTier = v
	}
	if v := os.Getenv("SIM_PONDS"); v != "" {
		c.Simulator.Ponds = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks if the configuration is valid and fills defaults.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Models.ScorerTier {
	case "ml", "light", "rules", "minimal":
	case "":
		c.Models.ScorerTier = "rules"
	default:
		return fmt.Errorf("models.scorer_tier must be one of ml, light, rules, minimal, got '%s'", c.Models.ScorerTier)
	}
	switch c.Simulator.Mode {
	case "normal", "stress", "danger":
	case "":
		c.Simulator.Mode = "normal"
	default:
		return fmt.Errorf("simulator.mode must be one of normal, stress, danger, got '%s'", c.Simulator.Mode)
	}
	if c.Simulator.Enabled && len(c.Simulator.Ponds) == 0 {
		return fmt.Errorf("simulator.ponds cannot be empty when the simulator is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Hub.HeartbeatTimeout <= 0 {
		c.Hub.HeartbeatTimeout = 60 * time.Second
	}
	if c.Hub.SendBuffer <= 0 {
		c.Hub.SendBuffer = 64
	}
	if c.Hub.ConnectionLog <= 0 {
		c.Hub.ConnectionLog = 50
	}
	return nil
}
