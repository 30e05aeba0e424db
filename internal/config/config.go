// Package config loads application configuration from a YAML file with
// environment overrides. A .env file, when present, is folded into the
// environment before overrides apply.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the platform.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	SES      SESConfig      `yaml:"ses"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Churn    ChurnConfig    `yaml:"churn"`
	Sequence SequenceConfig `yaml:"sequence"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SESConfig holds AWS SES v2 delivery credentials and identity.
type SESConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	ReplyTo   string `yaml:"reply_to"`
}

// ScoringConfig tunes the agent recommendation engine.
type ScoringConfig struct {
	ConversionCeiling float64 `yaml:"conversion_ceiling"`
	ROICeiling        float64 `yaml:"roi_ceiling"`
	OpenRateCeiling   float64 `yaml:"open_rate_ceiling"`
	VolumeCeiling     float64 `yaml:"volume_ceiling"`
	SendCapacity      int     `yaml:"send_capacity"`
}

// ChurnConfig tunes engagement snapshot aggregation.
type ChurnConfig struct {
	WindowDays int `yaml:"window_days"`
}

// SequenceConfig tunes the enrollment scheduler.
type SequenceConfig struct {
	TickIntervalSeconds int `yaml:"tick_interval_seconds"`
	BatchSize           int `yaml:"batch_size"`
	InterSendDelayMs    int `yaml:"inter_send_delay_ms"`
	// StallAfterDays flags enrollments that have sat on the same step too
	// long. Zero disables the check.
	StallAfterDays int `yaml:"stall_after_days"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Load reads the YAML file at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads the YAML file, folds in .env, and applies environment
// overrides on top. Missing config file is not an error; the environment
// alone can configure the platform.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("SES_FROM_EMAIL"); v != "" {
		cfg.SES.FromEmail = v
	}
	if v := os.Getenv("SES_FROM_NAME"); v != "" {
		cfg.SES.FromName = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.SES.Region == "" {
		c.SES.Region = "us-east-1"
	}
	if c.Scoring.ConversionCeiling == 0 {
		c.Scoring.ConversionCeiling = 20
	}
	if c.Scoring.ROICeiling == 0 {
		c.Scoring.ROICeiling = 1000
	}
	if c.Scoring.OpenRateCeiling == 0 {
		c.Scoring.OpenRateCeiling = 50
	}
	if c.Scoring.VolumeCeiling == 0 {
		c.Scoring.VolumeCeiling = 1000
	}
	if c.Scoring.SendCapacity == 0 {
		c.Scoring.SendCapacity = 2000
	}
	if c.Churn.WindowDays == 0 {
		c.Churn.WindowDays = 30
	}
	if c.Sequence.TickIntervalSeconds == 0 {
		c.Sequence.TickIntervalSeconds = 60
	}
	if c.Sequence.BatchSize == 0 {
		c.Sequence.BatchSize = 50
	}
	if c.Sequence.InterSendDelayMs == 0 {
		c.Sequence.InterSendDelayMs = 2000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// RedactPII reports whether PII redaction is enabled; on unless explicitly
// disabled.
func (c *Config) RedactPII() bool {
	return c.Logging.RedactPII == nil || *c.Logging.RedactPII
}
