package config

import (
	"errors"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Values come from the
// environment (with .env support for local development); an optional YAML
// file named by ENERGYGUARD_CONFIG is applied on top.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080" yaml:"http_addr"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" yaml:"log_level"`
	PostgresDSN string `env:"POSTGRES_DSN" yaml:"postgres_dsn"`
	RedisAddr   string `env:"REDIS_ADDR" yaml:"redis_addr"`
	JWTSecret   string `env:"JWT_SECRET" yaml:"jwt_secret"`

	// IngestSecret signs telemetry producer requests; IngestMaxSkew bounds
	// the accepted clock drift on their timestamps.
	IngestSecret  string        `env:"INGEST_SECRET" yaml:"ingest_secret"`
	IngestMaxSkew time.Duration `env:"INGEST_MAX_SKEW" envDefault:"5m" yaml:"ingest_max_skew"`

	// AlertWebhookURL, when set, receives push notifications for alerts
	// opened by rules that enable push delivery.
	AlertWebhookURL string `env:"ALERT_WEBHOOK_URL" yaml:"alert_webhook_url"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," yaml:"kafka_brokers"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"factory.telemetry" yaml:"kafka_topic"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"energyguard" yaml:"kafka_group_id"`

	BroadcastInterval time.Duration `env:"BROADCAST_INTERVAL" envDefault:"10s" yaml:"broadcast_interval"`
	SubscriberTimeout time.Duration `env:"SUBSCRIBER_TIMEOUT" envDefault:"30s" yaml:"subscriber_timeout"`
	MaxSubscribers    int           `env:"MAX_SUBSCRIBERS" envDefault:"100" yaml:"max_subscribers"`
	FullSyncThreshold float64       `env:"FULL_SYNC_THRESHOLD" envDefault:"0.7" yaml:"full_sync_threshold"`
	SnapshotCacheTTL  time.Duration `env:"SNAPSHOT_CACHE_TTL" envDefault:"10s" yaml:"snapshot_cache_ttl"`

	// StreamConnRate limits new SSE connections per second; StreamConnBurst
	// is the accepted burst on top of it.
	StreamConnRate  float64 `env:"STREAM_CONN_RATE" envDefault:"5" yaml:"stream_conn_rate"`
	StreamConnBurst int     `env:"STREAM_CONN_BURST" envDefault:"10" yaml:"stream_conn_burst"`

	SeedEngines bool `env:"SEED_ENGINES" envDefault:"false" yaml:"seed_engines"`
}

// Load reads configuration from the environment and the optional YAML file.
func Load() (*Config, error) {
	// .env is for local development only; a missing file is fine.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if path := os.Getenv("ENERGYGUARD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.PostgresDSN == "" {
		return errors.New("config: POSTGRES_DSN required")
	}
	if c.BroadcastInterval <= 0 {
		return errors.New("config: broadcast interval must be positive")
	}
	if c.SubscriberTimeout <= 0 {
		return errors.New("config: subscriber timeout must be positive")
	}
	if c.MaxSubscribers <= 0 {
		return errors.New("config: max subscribers must be positive")
	}
	if c.FullSyncThreshold <= 0 || c.FullSyncThreshold > 1 {
		return errors.New("config: full sync threshold must be in (0,1]")
	}
	return nil
}
