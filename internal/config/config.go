// Package config loads v2dump and v2serve settings from an optional YAML file and V2SCRAPE_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "V2SCRAPE"

type Config struct {
	// BaseURL resolves relative targets such as "/t/1001".
	BaseURL   string
	UserAgent string
	Viewer    string
	PageSize  int
	Timeout   time.Duration
	LogLevel  string
	Redis     RedisConfig
	Chrome    ChromeConfig
}

// RedisConfig enables the shared moderation store when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type ChromeConfig struct {
	WaitSelector string
	NetworkIdle  time.Duration
}

// DefaultConfig returns the settings used when no file or environment overrides them.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://www.v2ex.com",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		Timeout:   20 * time.Second,
		LogLevel:  "info",
		Redis: RedisConfig{
			Prefix: "v2scrape:moderation",
			TTL:    24 * time.Hour,
		},
		Chrome: ChromeConfig{
			WaitSelector: "#Wrapper",
			NetworkIdle:  500 * time.Millisecond,
		},
	}
}

// Load reads v2scrape.yaml from dir (or the working directory) and applies environment
// overrides such as V2SCRAPE_REDIS_ADDR. A missing file is not an error.
func Load(dir string) (Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("v2scrape")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("viewer", d.Viewer)
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("chrome.wait_selector", d.Chrome.WaitSelector)
	v.SetDefault("chrome.network_idle", d.Chrome.NetworkIdle)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		BaseURL:   strings.TrimRight(strings.TrimSpace(v.GetString("base_url")), "/"),
		UserAgent: v.GetString("user_agent"),
		Viewer:    strings.TrimSpace(v.GetString("viewer")),
		PageSize:  v.GetInt("page_size"),
		Timeout:   v.GetDuration("timeout"),
		LogLevel:  strings.ToLower(v.GetString("log_level")),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("redis.addr")),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Prefix:   v.GetString("redis.prefix"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		Chrome: ChromeConfig{
			WaitSelector: strings.TrimSpace(v.GetString("chrome.wait_selector")),
			NetworkIdle:  v.GetDuration("chrome.network_idle"),
		},
	}
}
