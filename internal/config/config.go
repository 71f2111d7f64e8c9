package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Goal blob backends.
const (
	GoalsBackendMongo  = "mongo"
	GoalsBackendRedis  = "redis"
	GoalsBackendS3     = "s3"
	GoalsBackendMemory = "memory"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Goals     GoalsConfig     `mapstructure:"goals"`
	Progress  ProgressConfig  `mapstructure:"progress"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"` // duration string in config.yaml, e.g. "60m"
}

// RedisConfig is optional; an empty Addr disables Redis (and with it rate limiting).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type GoalsConfig struct {
	Backend     string        `mapstructure:"backend"`
	CacheSizeMB int           `mapstructure:"cache_size_mb"` // 0 disables the in-process cache
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

type ProgressConfig struct {
	MatchKey string `mapstructure:"match_key"` // "id" or "name"
	Timezone string `mapstructure:"timezone"`  // IANA name used for calendar windows
}

// Location resolves Timezone, defaulting to UTC.
func (c ProgressConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	JSON   bool   `mapstructure:"json"`
	Stdout bool   `mapstructure:"stdout"` // also write to stdout when File is set
}

type RateLimitConfig struct {
	AuthPerMinute int `mapstructure:"auth_per_minute"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Nested keys map to env vars: progress.match_key -> PROGRESS_MATCH_KEY
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Rely on defaults and env vars
		err = nil
	} else if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Every key needs a default, otherwise AutomaticEnv cannot see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "workout_progress")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.key_prefix", "settings/")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("goals.backend", GoalsBackendMongo)
	v.SetDefault("goals.cache_size_mb", 8)
	v.SetDefault("goals.cache_ttl", "10m")
	v.SetDefault("progress.match_key", "id")
	v.SetDefault("progress.timezone", "UTC")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.stdout", false)
	v.SetDefault("ratelimit.auth_per_minute", 10)
}

func (c Config) Validate() error {
	switch c.Goals.Backend {
	case GoalsBackendMongo, GoalsBackendS3, GoalsBackendMemory:
	case GoalsBackendRedis:
		if !c.Redis.Enabled() {
			return errors.New("goals.backend is redis but redis.addr is empty")
		}
	default:
		return fmt.Errorf("unknown goals.backend %q", c.Goals.Backend)
	}

	if c.Goals.Backend == GoalsBackendS3 && c.S3.BucketName == "" {
		return errors.New("goals.backend is s3 but s3.bucket_name is empty")
	}

	switch strings.ToLower(c.Progress.MatchKey) {
	case "id", "name":
	default:
		return fmt.Errorf("unknown progress.match_key %q", c.Progress.MatchKey)
	}

	if _, err := c.Progress.Location(); err != nil {
		return fmt.Errorf("invalid progress.timezone %q: %w", c.Progress.Timezone, err)
	}

	if c.Goals.CacheSizeMB < 0 {
		return errors.New("goals.cache_size_mb must not be negative")
	}

	return nil
}
