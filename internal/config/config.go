package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Notify   NotifyConfig   `yaml:"notify"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection for the users table
type DatabaseConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	Name                  string `yaml:"name"`
	User                  string `yaml:"user"`
	Password              string `yaml:"password"`
	SSLMode               string `yaml:"sslmode"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
	MaxOpenConns          int    `yaml:"max_open_conns"`
}

// ConnectTimeout returns the dial timeout as a duration
func (c DatabaseConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// StorageConfig holds S3 settings for reading and presigning uploads
type StorageConfig struct {
	Region              string `yaml:"region"`
	AWSProfile          string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on Lambda/ECS)
	Endpoint            string `yaml:"endpoint"`
	AccessKey           string `yaml:"access_key"`
	SecretKey           string `yaml:"secret_key"`
	UploadBucket        string `yaml:"upload_bucket"`
	UploadPrefix        string `yaml:"upload_prefix"`
	UploadExpiryMinutes int    `yaml:"upload_expiry_minutes"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// UploadExpiry returns how long a presigned upload stays valid
func (c StorageConfig) UploadExpiry() time.Duration {
	return time.Duration(c.UploadExpiryMinutes) * time.Minute
}

// NotifyConfig holds the automation webhook target
type NotifyConfig struct {
	WebhookURL     string `yaml:"webhook_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the webhook call timeout
func (c NotifyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// IngestConfig holds ingestion policy
type IngestConfig struct {
	IsolateObjectFailures bool             `yaml:"isolate_object_failures"`
	ObjectLock            ObjectLockConfig `yaml:"object_lock"`
}

// Object lock backends
const (
	LockBackendNone     = ""
	LockBackendRedis    = "redis"
	LockBackendPostgres = "postgres"
)

// ObjectLockConfig selects how concurrent deliveries of one object are
// serialized
type ObjectLockConfig struct {
	Backend    string `yaml:"backend"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// TTL returns the lock lifetime
func (c ObjectLockConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII bool   `yaml:"redact_pii"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.Logging.RedactPII = true
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Logging: LoggingConfig{RedactPII: true}}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "require"
	}
	if cfg.Database.ConnectTimeoutSeconds == 0 {
		cfg.Database.ConnectTimeoutSeconds = 30
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 5
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.UploadPrefix == "" {
		cfg.Storage.UploadPrefix = "uploads"
	}
	if cfg.Storage.UploadExpiryMinutes == 0 {
		cfg.Storage.UploadExpiryMinutes = 10
	}
	if cfg.Notify.TimeoutSeconds == 0 {
		cfg.Notify.TimeoutSeconds = 10
	}
	if cfg.Ingest.ObjectLock.TTLSeconds == 0 {
		cfg.Ingest.ObjectLock.TTLSeconds = 900
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars.
// A missing config file is not an error: Lambda deployments are configured
// through the environment alone.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, fs.ErrNotExist):
			cfg = Default()
		default:
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")

	setString(&cfg.Database.Host, "PG_HOST")
	setInt(&cfg.Database.Port, "PG_PORT")
	setString(&cfg.Database.Name, "PG_DATABASE")
	setString(&cfg.Database.User, "PG_USER")
	setString(&cfg.Database.Password, "PG_PASSWORD")
	setString(&cfg.Database.SSLMode, "PG_SSLMODE")

	setString(&cfg.Notify.WebhookURL, "N8N_WEBHOOK_URL")

	setString(&cfg.Storage.UploadBucket, "UPLOAD_BUCKET")
	setString(&cfg.Storage.Region, "AWS_REGION")
	setString(&cfg.Storage.Endpoint, "S3_ENDPOINT")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Logging.Level, "LOG_LEVEL")

	setBool(&cfg.Ingest.IsolateObjectFailures, "INGEST_ISOLATE_OBJECT_FAILURES")
	if v, ok := os.LookupEnv("INGEST_OBJECT_LOCK"); ok {
		cfg.Ingest.ObjectLock.Backend = strings.ToLower(strings.TrimSpace(v))
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
