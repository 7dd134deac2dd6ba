package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Blob     BlobConfig     `yaml:"blob"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string        `yaml:"port"`
	Env            string        `yaml:"env"`
	LogLevel       string        `yaml:"log_level"`
	PublicBaseURL  string        `yaml:"public_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	PostgresConnStr string `yaml:"postgres_conn_str"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
}

// AuthConfig holds token, password and authorization settings
type AuthConfig struct {
	AccessTokenSecret       string        `yaml:"access_token_secret"`
	TokenTTL                time.Duration `yaml:"token_ttl"`
	BcryptCost              int           `yaml:"bcrypt_cost"`
	PostOwnership           string        `yaml:"post_ownership"`
	FirebaseCredentialsPath string        `yaml:"firebase_credentials_path"`
}

// BlobConfig selects and configures the image store
type BlobConfig struct {
	Driver      string `yaml:"driver"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3PublicURL string `yaml:"s3_public_url"`
}

const (
	BlobDriverS3     = "s3"
	BlobDriverGridFS = "gridfs"
)

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			Env:           "development",
			LogLevel:      "info",
			PublicBaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{MongoDatabase: "pinpost"},
		Auth:     AuthConfig{BcryptCost: 10, PostOwnership: "open"},
		Blob:     BlobConfig{Driver: BlobDriverS3, S3Region: "us-east-1"},
	}
}

// Load builds the configuration from, in increasing precedence: built-in
// defaults, the YAML file named by CONFIG_FILE (default config.yaml, optional),
// a .env file, and the process environment.
func Load() (*Config, error) {
	cfg := defaults()

	path := getEnv("CONFIG_FILE", "config.yaml")
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, assuming environment variables are set.")
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Env = getEnv("ENV", c.Server.Env)
	c.Server.LogLevel = getEnv("LOG_LEVEL", c.Server.LogLevel)
	c.Server.PublicBaseURL = getEnv("PUBLIC_BASE_URL", c.Server.PublicBaseURL)

	c.Database.PostgresConnStr = getEnv("POSTGRES_CONN_STR", c.Database.PostgresConnStr)
	c.Database.MongoURI = getEnv("MONGO_URI", c.Database.MongoURI)
	c.Database.MongoDatabase = getEnv("MONGO_DATABASE", c.Database.MongoDatabase)

	c.Auth.AccessTokenSecret = getEnv("ACCESS_TOKEN_SECRET", c.Auth.AccessTokenSecret)
	c.Auth.PostOwnership = getEnv("POST_OWNERSHIP", c.Auth.PostOwnership)
	c.Auth.FirebaseCredentialsPath = getEnv("FIREBASE_CREDENTIALS_PATH", c.Auth.FirebaseCredentialsPath)

	c.Blob.Driver = getEnv("BLOB_DRIVER", c.Blob.Driver)
	c.Blob.S3Bucket = getEnv("S3_BUCKET", c.Blob.S3Bucket)
	c.Blob.S3Region = getEnv("S3_REGION", c.Blob.S3Region)
	c.Blob.S3Endpoint = getEnv("S3_ENDPOINT", c.Blob.S3Endpoint)
	c.Blob.S3AccessKey = getEnv("S3_ACCESS_KEY", c.Blob.S3AccessKey)
	c.Blob.S3SecretKey = getEnv("S3_SECRET_KEY", c.Blob.S3SecretKey)
	c.Blob.S3PublicURL = getEnv("S3_PUBLIC_URL", c.Blob.S3PublicURL)

	var err error
	if c.Server.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", c.Server.RequestTimeout); err != nil {
		return err
	}
	if c.Auth.TokenTTL, err = getDuration("TOKEN_TTL", c.Auth.TokenTTL); err != nil {
		return err
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST %q: %w", v, err)
		}
		c.Auth.BcryptCost = cost
	}
	return nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.AccessTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET environment variable not set")
	}
	if c.Database.PostgresConnStr == "" {
		return errors.New("POSTGRES_CONN_STR environment variable not set")
	}
	switch c.Blob.Driver {
	case BlobDriverS3:
		if c.Blob.S3Bucket == "" {
			return errors.New("S3_BUCKET must be set when BLOB_DRIVER is s3")
		}
	case BlobDriverGridFS:
		if c.Database.MongoURI == "" {
			return errors.New("MONGO_URI must be set when BLOB_DRIVER is gridfs")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.Blob.Driver)
	}
	return nil
}

// IsProduction reports whether the server runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
