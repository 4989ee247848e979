package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAPIBaseURL is the local development backend.
const DefaultAPIBaseURL = "http://localhost:8080/api/v1"

type Config struct {
	// Link service API
	API APIConfig `mapstructure:"api"`

	// Logging
	Log LogConfig `mapstructure:"log"`

	// History store
	History HistoryConfig `mapstructure:"history"`

	// Redis (history backend)
	Redis RedisConfig `mapstructure:"redis"`

	// NATS (link events)
	NATS NATSConfig `mapstructure:"nats"`

	// Local web console
	Console ConsoleConfig `mapstructure:"console"`

	// Prometheus
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	Encoding    string `mapstructure:"encoding" validate:"omitempty,oneof=console json"`
	OutputPath  string `mapstructure:"output_path"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups  int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays  int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress    bool   `mapstructure:"compress"`
}

type HistoryConfig struct {
	// Driver is one of sqlite, postgres, redis or none.
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres redis none"`
	DSN    string `mapstructure:"dsn"`
	Limit  int    `mapstructure:"limit" validate:"gt=0"`
	Key    string `mapstructure:"key"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Enabled reports whether link events should be published.
func (c NATSConfig) Enabled() bool {
	return c.Host != ""
}

type ConsoleConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type MetricsConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Enabled reports whether the /metrics server should run.
func (c MetricsConfig) Enabled() bool {
	return c.Port != 0
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config.yaml in the working dir, ./config and ~/.ushort.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".ushort"))
	}

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("ushort")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("log.level", "")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", defaultHistoryDSN())
	v.SetDefault("history.limit", 50)
	v.SetDefault("history.key", "ushort:history")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("console.addr", "127.0.0.1:3000")
}

func defaultHistoryDSN() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "ushort-history.db"
	}
	return filepath.Join(dir, "ushort", "history.db")
}

func bindEnvVars(v *viper.Viper) {
	// API
	v.BindEnv("api.base_url", "USHORT_API_BASE_URL", "API_BASE_URL", "VITE_API_BASE_URL")
	v.BindEnv("api.timeout", "USHORT_API_TIMEOUT", "API_TIMEOUT")

	// Logging
	v.BindEnv("log.level", "USHORT_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("log.output_path", "USHORT_LOG_FILE", "LOG_FILE")

	// History
	v.BindEnv("history.driver", "USHORT_HISTORY_DRIVER", "HISTORY_DRIVER")
	v.BindEnv("history.dsn", "USHORT_HISTORY_DSN", "HISTORY_DSN")

	// Redis
	v.BindEnv("redis.host", "USHORT_REDIS_HOST", "REDIS_HOST")
	v.BindEnv("redis.port", "USHORT_REDIS_PORT", "REDIS_PORT")
	v.BindEnv("redis.password", "USHORT_REDIS_PASSWORD", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "USHORT_REDIS_DB", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "USHORT_NATS_HOST", "NATS_HOST")
	v.BindEnv("nats.port", "USHORT_NATS_PORT", "NATS_PORT")
	v.BindEnv("nats.user", "USHORT_NATS_USER", "NATS_USER")
	v.BindEnv("nats.password", "USHORT_NATS_PASSWORD", "NATS_PASSWORD")

	// Console + Prometheus
	v.BindEnv("console.addr", "USHORT_CONSOLE_ADDR", "CONSOLE_ADDR")
	v.BindEnv("metrics.port", "USHORT_METRICS_PORT", "PROM_PORT")
}
