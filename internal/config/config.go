package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultAPIBase is the recommendation service address used when nothing
// else is configured. Release builds may override it with
// -ldflags "-X github.com/Ayash-Bera/reelscout/internal/config.DefaultAPIBase=...".
var DefaultAPIBase = "http://localhost:5000"

const (
	MinTopK = 1
	MaxTopK = 15
)

type Config struct {
	API struct {
		BaseURL string
		Timeout time.Duration
	}
	UI struct {
		Debounce        time.Duration
		SuggestionLimit int
		DefaultTopK     int
		LogFile         string
	}
	Server struct {
		Port      string
		RateLimit int
	}
	Database struct {
		URL string
	}
	Redis struct {
		URL string
	}
	Cache struct {
		TTL time.Duration
	}
	Log struct {
		Level string
	}
	TMDB struct {
		APIKey         string
		BaseURL        string
		ImageBaseURL   string
		PlaceholderURL string
	}
}

func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", DefaultAPIBase)
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("ui.debounce", 200*time.Millisecond)
	v.SetDefault("ui.suggestion_limit", 20)
	v.SetDefault("ui.default_top_k", 5)
	v.SetDefault("ui.log_file", "reelscout.log")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("database.url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p/w500")
	v.SetDefault("tmdb.placeholder_url", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	config.API.BaseURL = strings.TrimRight(v.GetString("api.base_url"), "/")
	config.API.Timeout = v.GetDuration("api.timeout")
	config.UI.Debounce = v.GetDuration("ui.debounce")
	config.UI.SuggestionLimit = v.GetInt("ui.suggestion_limit")
	config.UI.DefaultTopK = v.GetInt("ui.default_top_k")
	config.UI.LogFile = v.GetString("ui.log_file")
	config.Server.Port = v.GetString("server.port")
	config.Server.RateLimit = v.GetInt("server.rate_limit")
	config.Database.URL = v.GetString("database.url")
	config.Redis.URL = v.GetString("redis.url")
	config.Cache.TTL = v.GetDuration("cache.ttl")
	config.Log.Level = v.GetString("log.level")
	config.TMDB.APIKey = v.GetString("tmdb.api_key")
	config.TMDB.BaseURL = strings.TrimRight(v.GetString("tmdb.base_url"), "/")
	config.TMDB.ImageBaseURL = strings.TrimRight(v.GetString("tmdb.image_base_url"), "/")
	config.TMDB.PlaceholderURL = v.GetString("tmdb.placeholder_url")

	return &config, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.UI.Debounce <= 0 {
		return fmt.Errorf("ui.debounce must be positive")
	}
	if c.UI.SuggestionLimit <= 0 {
		return fmt.Errorf("ui.suggestion_limit must be positive")
	}
	if c.UI.DefaultTopK < MinTopK || c.UI.DefaultTopK > MaxTopK {
		return fmt.Errorf("ui.default_top_k must be between %d and %d", MinTopK, MaxTopK)
	}
	return nil
}

// CacheEnabled reports whether a Redis URL was configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.URL != ""
}

// AnalyticsEnabled reports whether a database URL was configured.
func (c *Config) AnalyticsEnabled() bool {
	return c.Database.URL != ""
}

// PostersEnabled reports whether a TMDB API key was configured.
func (c *Config) PostersEnabled() bool {
	return c.TMDB.APIKey != ""
}
