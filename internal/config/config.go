package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CORSConfig holds cross-origin settings for the tracking client.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds per-IP rate limit settings.
type RateLimitConfig struct {
	IPPerMin        int `mapstructure:"ip_per_min"`
	BurstMultiplier int `mapstructure:"burst_multiplier"`
}

// CacheConfig holds settings for the read-only response cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RedisConfig holds the optional Redis connection used for distributed
// rate limiting. An empty address disables Redis entirely.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5001")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("rate_limit.ip_per_min", 60)
	v.SetDefault("rate_limit.burst_multiplier", 2)

	v.SetDefault("cache.ttl", 30*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logging.level", "info")
}

// Load initializes the configuration with Viper. A config.yaml next to the
// binary is optional; environment variables (ANKETIRAJ_SERVER_PORT, ...)
// override it either way.
func Load(configDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ANKETIRAJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Info("No config file found, using defaults and environment")
	} else {
		slog.Info("Loaded config file", "file", v.ConfigFileUsed())

		v.OnConfigChange(func(e fsnotify.Event) {
			slog.Info("Config file changed", "file", e.Name)
		})
		v.WatchConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// SlogLevel maps the configured level string onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
