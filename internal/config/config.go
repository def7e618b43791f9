// Package config loads process configuration once at startup via viper,
// with defaults overridable by ORDERBOOK_-prefixed environment variables
// and an optional YAML file. There is no durability path to configure —
// the book carries no on-disk state.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is everything cmd/server needs to wire the system together.
type Config struct {
	HTTPAddr string

	MulticastGroup string
	MulticastPort  int
	MulticastTTL   int

	ExpirationPollInterval time.Duration
}

// Load reads defaults, an optional config file named configPath (if
// non-empty), and ORDERBOOK_-prefixed environment overrides, in that
// order of increasing precedence.
func Load(configPath string) (Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("multicast_group", "239.255.10.10")
	v.SetDefault("multicast_port", 8888)
	v.SetDefault("multicast_ttl", 5)
	v.SetDefault("expiration_poll_interval", "5ms")

	v.SetEnvPrefix("ORDERBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	poll, err := time.ParseDuration(v.GetString("expiration_poll_interval"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		HTTPAddr:               v.GetString("http_addr"),
		MulticastGroup:         v.GetString("multicast_group"),
		MulticastPort:          v.GetInt("multicast_port"),
		MulticastTTL:           v.GetInt("multicast_ttl"),
		ExpirationPollInterval: poll,
	}, nil
}
