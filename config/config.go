package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SessionBackendFile     = "file"
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

type Config struct {
	API         APIConfig         `yaml:"api"`
	Session     SessionConfig     `yaml:"session"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Log         LogConfig         `yaml:"log"`
	Worker      WorkerConfig      `yaml:"worker"`
	FakeAirport FakeAirportConfig `yaml:"fake_airport"`
}

type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type SessionConfig struct {
	Backend   string `yaml:"backend"`
	FilePath  string `yaml:"file_path"`
	Namespace string `yaml:"namespace"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ActivityTopic string   `yaml:"activity_topic"`
	GroupID       string   `yaml:"group_id"`
}

// Enabled reports whether booking activity events should be published.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.ActivityTopic != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WorkerConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
}

type FakeAirportConfig struct {
	Address   string `yaml:"address"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault behaves like LoadConfig but falls back to Default when the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadConfig(path)
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8080"
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 30
	}
	if c.Session.Backend == "" {
		c.Session.Backend = SessionBackendFile
	}
	if c.Session.FilePath == "" {
		c.Session.FilePath = "session.yaml"
	}
	if c.Session.Namespace == "" {
		c.Session.Namespace = "texas_airport_prefs"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "airbooking-client-notifier"
	}
	if c.FakeAirport.Address == "" {
		c.FakeAirport.Address = ":8080"
	}
	if c.FakeAirport.JWTSecret == "" {
		c.FakeAirport.JWTSecret = "dev-secret"
	}
}

func (c *Config) Validate() error {
	switch c.Session.Backend {
	case SessionBackendFile, SessionBackendMemory, SessionBackendRedis, SessionBackendPostgres:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.Backend == SessionBackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("session backend redis requires redis.addr")
	}
	return nil
}
