package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	S3       S3Config       `mapstructure:"s3"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Stats    StatsConfig    `mapstructure:"stats"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReleaseMode     bool          `mapstructure:"release_mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects the data store. Driver is "mongo", "pgx" or "sqlite";
// URI is the connection string of that driver and Name the MongoDB database.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

// RedisConfig enables the shared credential store when Address is set.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	// LocalCacheSize is the freecache size in bytes used without Redis.
	LocalCacheSize int `mapstructure:"local_cache_size"`
}

type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

// OpenAIConfig enables program generation when APIKey is set.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	File      string `mapstructure:"file"`
	JSON      bool   `mapstructure:"json"`
	Stdout    bool   `mapstructure:"stdout"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// StatsConfig.Timezone is the IANA zone used for streak days and week starts.
type StatsConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type TrackerConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

var defaults = map[string]any{
	"server.address":          ":8080",
	"server.release_mode":     false,
	"server.shutdown_timeout": "5s",
	"database.driver":         "mongo",
	"database.uri":            "mongodb://localhost:27017",
	"database.name":           "fittrack",
	"redis.address":           "",
	"redis.password":          "",
	"redis.db":                0,
	"auth.jwt_secret":         "",
	"auth.session_ttl":        "168h",
	"auth.cookie_name":        "fittrack_session",
	"auth.cookie_secure":      true,
	"auth.local_cache_size":   32 * 1024 * 1024,
	"s3.endpoint":             "",
	"s3.region":               "us-east-1",
	"s3.access_key_id":        "",
	"s3.secret_access_key":    "",
	"s3.bucket_name":          "",
	"s3.use_ssl":              true,
	"s3.presign_expiry":       "15m",
	"openai.api_key":          "",
	"openai.base_url":         "",
	"openai.model":            "gpt-4o-mini",
	"logging.level":           "info",
	"logging.file":            "",
	"logging.json":            false,
	"logging.stdout":          true,
	"logging.sentry_dsn":      "",
	"stats.timezone":          "Local",
	"tracker.idle_ttl":        "6h",
	"tracker.sweep_interval":  "10m",
}

// LoadConfig reads config.yaml from path, then applies environment overrides
// (server.address -> SERVER_ADDRESS). A missing file is not an error.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// Every key needs a default, otherwise Unmarshal ignores its env override.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}

	// Duration strings ("60m", "1h") decode straight into time.Duration fields.
	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	return config, config.Validate()
}

// Validate checks the values the server cannot start without.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "mongo", "pgx", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("auth.session_ttl must be positive")
	}
	if c.Tracker.SweepInterval <= 0 || c.Tracker.IdleTTL <= 0 {
		return errors.New("tracker.sweep_interval and tracker.idle_ttl must be positive")
	}
	if _, err := c.Stats.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone, "Local" or empty meaning the server zone.
func (s StatsConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("stats.timezone: %w", err)
	}
	return loc, nil
}
