// Package config loads the gateway settings from setting.toml.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// RedisConfig points the journal at its store.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// Addr returns the host:port go-redis expects.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// RepeaterConfig enables the repeater plugin for the listed groups.
type RepeaterConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Groups  []int64 `mapstructure:"groups"`
}

// PluginsConfig holds per-plugin settings.
type PluginsConfig struct {
	Repeater RepeaterConfig `mapstructure:"repeater"`
}

// Settings is the root of setting.toml.
type Settings struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	AuthToken        string `mapstructure:"auth_token"`
	MediaDir         string `mapstructure:"media_dir"`
	Proxy            string `mapstructure:"proxy"`
	APITimeout       int    `mapstructure:"api_timeout"`
	JournalConsumers int    `mapstructure:"journal_consumers"`
	JournalQueueSize int    `mapstructure:"journal_queue_size"`
	DebugFrames      bool   `mapstructure:"debug_frames"`

	Log     LogConfig     `mapstructure:"log"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Plugins PluginsConfig `mapstructure:"plugins"`
}

// Load reads settings from CONFIG_PATH or ./setting.toml.
func Load() (*Settings, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "setting.toml"
	}
	return LoadFile(cfgPath)
}

// LoadFile reads settings from the given path.
func LoadFile(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 6055)
	v.SetDefault("media_dir", "media")
	v.SetDefault("api_timeout", 20)
	v.SetDefault("journal_consumers", 1)
	v.SetDefault("journal_queue_size", 256)
	v.SetDefault("debug_frames", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings the gateway cannot run with.
func (s *Settings) Validate() error {
	if s.AuthToken == "" {
		return fmt.Errorf("config: auth_token is required")
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", s.Port)
	}
	if s.APITimeout <= 0 {
		return fmt.Errorf("config: api_timeout must be positive, got %d", s.APITimeout)
	}
	if s.JournalConsumers < 1 {
		return fmt.Errorf("config: journal_consumers must be at least 1, got %d", s.JournalConsumers)
	}
	if s.JournalQueueSize < 1 {
		return fmt.Errorf("config: journal_queue_size must be at least 1, got %d", s.JournalQueueSize)
	}
	if s.MediaDir == "" {
		return fmt.Errorf("config: media_dir is required")
	}
	return nil
}

// ListenAddr returns the host:port the HTTP server binds.
func (s *Settings) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CallTimeout returns the default action timeout.
func (s *Settings) CallTimeout() time.Duration {
	return time.Duration(s.APITimeout) * time.Second
}
