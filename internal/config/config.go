// Package config provides configuration loading for conncache binaries.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Environment variable prefix; CONNCACHE_POOL_CAPACITY overrides
// pool_capacity and so on.
const envPrefix = "CONNCACHE"

// Config holds the operator-facing settings of a connection cache.
type Config struct {
	// Name identifies the cache in logs and metrics.
	Name string `mapstructure:"name" validate:"required"`

	// PoolCapacity is the fixed per-destination connection cap.
	PoolCapacity int `mapstructure:"pool_capacity" validate:"gte=1,lte=1024"`

	// MaxPools bounds the number of simultaneously cached destinations.
	MaxPools int `mapstructure:"max_pools" validate:"gte=1"`

	// SendTimeout bounds a blocking send end to end.
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"gt=0"`

	// Spiffe configures the optional Workload API identity source.
	Spiffe SpiffeConfig `mapstructure:"spiffe"`
}

// SpiffeConfig selects the SPIFFE identity source. When disabled the cache
// self-signs its identity from a keypair.
type SpiffeConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SocketPath string `mapstructure:"socket_path" validate:"required_if=Enabled true"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Name:         "conncache",
		PoolCapacity: 4,
		MaxPools:     1024,
		SendTimeout:  10 * time.Second,
	}
}

// Load reads configuration from the optional YAML file at path, applies
// CONNCACHE_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("name", defaults.Name)
	v.SetDefault("pool_capacity", defaults.PoolCapacity)
	v.SetDefault("max_pools", defaults.MaxPools)
	v.SetDefault("send_timeout", defaults.SendTimeout)
	v.SetDefault("spiffe.enabled", false)
	v.SetDefault("spiffe.socket_path", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}
