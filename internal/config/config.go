package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flashmart/order-service/pkg/mongodb"
	"github.com/flashmart/order-service/pkg/tracing"
)

// Config holds the full service configuration. Values load from an
// optional YAML file and individual environment variables override it.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	MongoDB MongoDBConfig `yaml:"mongodb"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Tracing TracingConfig `yaml:"tracing"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type MongoDBConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	MaxPoolSize    uint64        `yaml:"maxPoolSize"`
	MinPoolSize    uint64        `yaml:"minPoolSize"`
	ReplicaSet     string        `yaml:"replicaSet"`
}

type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	ClientID     string        `yaml:"clientId"`
	BatchSize    int           `yaml:"batchSize"`
	BatchTimeout time.Duration `yaml:"batchTimeout"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	SampleRate   float64 `yaml:"sampleRate"`
	Environment  string  `yaml:"environment"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the baseline configuration for local development
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "flashmart_orders",
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: KafkaConfig{
			Enabled:      true,
			Brokers:      []string{"localhost:9092"},
			Topic:        "flashmart.order-events",
			ClientID:     "order-service",
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			Environment:  "development",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configuration from the file at path (if path is non-empty
// and the file exists) and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.MongoDB.URI, "MONGODB_URI")
	setString(&c.MongoDB.Database, "MONGODB_DATABASE")
	setString(&c.MongoDB.ReplicaSet, "MONGODB_REPLICA_SET")
	setString(&c.Kafka.Topic, "KAFKA_TOPIC")
	setString(&c.Kafka.ClientID, "KAFKA_CLIENT_ID")
	setString(&c.Tracing.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = []string{v}
	}
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Kafka.Enabled = enabled
		}
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Tracing.Enabled = enabled
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.MongoDB.URI == "" {
		return fmt.Errorf("mongodb uri is required")
	}
	if c.MongoDB.Database == "" {
		return fmt.Errorf("mongodb database is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}
	return nil
}

// TracingProviderConfig converts to the config used by the tracer provider
func (c *Config) TracingProviderConfig(serviceName string) *tracing.Config {
	cfg := tracing.DefaultConfig(serviceName)
	cfg.Enabled = c.Tracing.Enabled
	cfg.OTLPEndpoint = c.Tracing.OTLPEndpoint
	cfg.SampleRate = c.Tracing.SampleRate
	cfg.Environment = c.Tracing.Environment
	return cfg
}

// MongoClientConfig converts to the connection config used by the client
func (c *Config) MongoClientConfig() *mongodb.Config {
	return &mongodb.Config{
		URI:            c.MongoDB.URI,
		Database:       c.MongoDB.Database,
		ConnectTimeout: c.MongoDB.ConnectTimeout,
		MaxPoolSize:    c.MongoDB.MaxPoolSize,
		MinPoolSize:    c.MongoDB.MinPoolSize,
		ReplicaSet:     c.MongoDB.ReplicaSet,
	}
}
