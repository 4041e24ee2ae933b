package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type LogCfg struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

type AuthCfg struct {
	Token     string `mapstructure:"token"`
	TokenPath string `mapstructure:"token_path"`
}

type TransportCfg struct {
	Kind string `mapstructure:"kind"` // "ws" or "kafka"

	WSURL string `mapstructure:"ws_url"`

	KafkaBrokers  []string `mapstructure:"kafka_brokers"`
	KafkaTopicIn  string   `mapstructure:"kafka_topic_in"`
	KafkaTopicOut string   `mapstructure:"kafka_topic_out"`
	KafkaGroupID  string   `mapstructure:"kafka_group_id"`
}

type EngineCfg struct {
	DedupCap             int  `mapstructure:"dedup_cap"`
	HeartbeatSeconds     int  `mapstructure:"heartbeat_seconds"`
	ReadReceipts         bool `mapstructure:"read_receipts"`
	PlainBeforeSeconds   int  `mapstructure:"plain_before_seconds"`
	PlainAfterSeconds    int  `mapstructure:"plain_after_seconds"`
	EncryptBeforeSeconds int  `mapstructure:"encrypt_before_seconds"`
	EncryptAfterSeconds  int  `mapstructure:"encrypt_after_seconds"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type SnapshotCfg struct {
	Path         string `mapstructure:"path"`
	FlushSeconds int    `mapstructure:"flush_seconds"`
}

type MongoCfg struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type APICfg struct {
	Addr string `mapstructure:"addr"`
}

type Config struct {
	Log       LogCfg       `mapstructure:"log"`
	Auth      AuthCfg      `mapstructure:"auth"`
	Transport TransportCfg `mapstructure:"transport"`
	Engine    EngineCfg    `mapstructure:"engine"`
	Redis     RedisCfg     `mapstructure:"redis"`
	Snapshot  SnapshotCfg  `mapstructure:"snapshot"`
	Mongo     MongoCfg     `mapstructure:"mongo"`
	API       APICfg       `mapstructure:"api"`

	// Derived
	Heartbeat     time.Duration
	SnapshotFlush time.Duration
	PlainBefore   time.Duration
	PlainAfter    time.Duration
	EncryptBefore time.Duration
	EncryptAfter  time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills zero fields and computes derived durations. The
// reconciliation windows default to the wider encrypted bounds because
// encrypted round-trips include a key exchange.
func ApplyDefaults(cfg *Config) {
	if cfg.Transport.Kind == "" {
		cfg.Transport.Kind = "ws"
	}
	if cfg.Transport.KafkaGroupID == "" {
		cfg.Transport.KafkaGroupID = "meetzy-sync"
	}
	if cfg.Engine.DedupCap == 0 {
		cfg.Engine.DedupCap = 1000
	}
	if cfg.Engine.HeartbeatSeconds == 0 {
		cfg.Engine.HeartbeatSeconds = 30
	}
	if cfg.Engine.PlainBeforeSeconds == 0 {
		cfg.Engine.PlainBeforeSeconds = 120
	}
	if cfg.Engine.PlainAfterSeconds == 0 {
		cfg.Engine.PlainAfterSeconds = 15
	}
	if cfg.Engine.EncryptBeforeSeconds == 0 {
		cfg.Engine.EncryptBeforeSeconds = 300
	}
	if cfg.Engine.EncryptAfterSeconds == 0 {
		cfg.Engine.EncryptAfterSeconds = 30
	}
	if cfg.Snapshot.FlushSeconds == 0 {
		cfg.Snapshot.FlushSeconds = 60
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "meetzy"
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = "127.0.0.1:8099"
	}

	cfg.Heartbeat = time.Duration(cfg.Engine.HeartbeatSeconds) * time.Second
	cfg.SnapshotFlush = time.Duration(cfg.Snapshot.FlushSeconds) * time.Second
	cfg.PlainBefore = time.Duration(cfg.Engine.PlainBeforeSeconds) * time.Second
	cfg.PlainAfter = time.Duration(cfg.Engine.PlainAfterSeconds) * time.Second
	cfg.EncryptBefore = time.Duration(cfg.Engine.EncryptBeforeSeconds) * time.Second
	cfg.EncryptAfter = time.Duration(cfg.Engine.EncryptAfterSeconds) * time.Second
}
