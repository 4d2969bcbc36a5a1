package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/matst80/rdf-finder/pkg/common"
	"github.com/spf13/viper"
)

const EnvPrefix = "FINDER"

type Config struct {
	Backend   BackendConfig    `mapstructure:"backend"`
	Server    ServerConfig     `mapstructure:"server"`
	Logger    LoggerConfig     `mapstructure:"logger"`
	Redis     RedisConfig      `mapstructure:"redis"`
	Rabbit    RabbitConfig     `mapstructure:"rabbit"`
	Taxonomy  TaxonomyConfig   `mapstructure:"taxonomy"`
	Session   SessionConfig    `mapstructure:"session"`
	Providers []ProviderConfig `mapstructure:"providers" validate:"dive"`
}

// ProviderConfig names the source of relations carrying Context.
type ProviderConfig struct {
	Context string `mapstructure:"context" validate:"required"`
	Name    string `mapstructure:"name" validate:"required"`
}

type BackendConfig struct {
	URL     string        `mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type ServerConfig struct {
	Listen   string               `mapstructure:"listen" validate:"required"`
	Timeouts common.TimeoutConfig `mapstructure:"timeouts"`
	Wait     time.Duration        `mapstructure:"wait"`
}

type LoggerConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format      string `mapstructure:"format" validate:"oneof=json console"`
	ServiceName string `mapstructure:"service_name"`
	AddSource   bool   `mapstructure:"add_source"`
}

// RedisConfig enables the statistics cache when URL is set.
type RedisConfig struct {
	URL      string        `mapstructure:"url"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RabbitConfig enables search tracking and cache invalidation when URL is set.
type RabbitConfig struct {
	URL     string `mapstructure:"url" validate:"omitempty,url"`
	Context string `mapstructure:"context"`
}

type TaxonomyConfig struct {
	RootMode     string `mapstructure:"root_mode" validate:"oneof=rootList singleRoot"`
	RootSentinel string `mapstructure:"root_sentinel"`
}

type SessionConfig struct {
	TTL          time.Duration `mapstructure:"ttl" validate:"gt=0"`
	PoolSize     int           `mapstructure:"pool_size" validate:"gte=0"`
	HistoryLimit int           `mapstructure:"history_limit" validate:"gte=1"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", "http://localhost:8080/glimmer/ajax/")
	v.SetDefault("backend.timeout", "30s")

	v.SetDefault("server.listen", ":8081")
	v.SetDefault("server.wait", "10s")
	v.SetDefault("server.timeouts.read_header", "5s")
	v.SetDefault("server.timeouts.read", "15s")
	v.SetDefault("server.timeouts.write", "30s")
	v.SetDefault("server.timeouts.idle", "60s")
	v.SetDefault("server.timeouts.shutdown", "15s")
	v.SetDefault("server.timeouts.hook", "5s")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "finder")
	v.SetDefault("logger.add_source", false)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "5m")

	v.SetDefault("rabbit.url", "")
	v.SetDefault("rabbit.context", "finder")

	v.SetDefault("taxonomy.root_mode", "rootList")
	v.SetDefault("taxonomy.root_sentinel", "http://www.w3.org/2002/07/owl#Thing")

	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.pool_size", 0)
	v.SetDefault("session.history_limit", 100)
}

// Load reads defaults, the optional config file and the environment into v
// and returns the validated configuration. Without cfgFile a config.yaml in
// the working directory is used when present.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// the plain names are shared with the indexing services
	_ = v.BindEnv("redis.url", "FINDER_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("redis.password", "FINDER_REDIS_PASSWORD", "REDIS_PASSWORD")
	_ = v.BindEnv("rabbit.url", "FINDER_RABBIT_URL", "RABBIT_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Server.Timeouts = common.LoadTimeoutConfig(cfg.Server.Timeouts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ProviderNames() map[string]string {
	ret := make(map[string]string, len(c.Providers))
	for _, p := range c.Providers {
		ret[p.Context] = p.Name
	}
	return ret
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s: rule '%s' (value: '%v')", e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
