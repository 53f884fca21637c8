// Package config reads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"

	UploadDisk   = "disk"
	UploadSQLite = "sqlite"
	UploadS3     = "s3"
)

// MinSecretLength is the shortest accepted SESSION_SECRET.
const MinSecretLength = 32

type Config struct {
	HTTP    HTTPConfig
	Session SessionConfig
	Store   StoreConfig
	Upload  UploadConfig
	S3      S3Config
}

type HTTPConfig struct {
	Port string `env:"PORT" env-default:"8080"`

	// Empty disables CORS handling.
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`

	// Requests per minute per client IP on /login and /register. 0 disables.
	AuthRateLimit int `env:"AUTH_RATE_LIMIT" env-default:"10"`

	// Take the client IP from proxy headers. Only safe behind a proxy that
	// overwrites them.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" env-default:"false"`
}

type SessionConfig struct {
	Secret       string        `env:"SESSION_SECRET" env-required:"true"`
	TTL          time.Duration `env:"SESSION_TTL" env-default:"15m"`
	CookieSecure bool          `env:"COOKIE_SECURE" env-default:"true"`
	BcryptCost   int           `env:"BCRYPT_COST" env-default:"10"`
}

type StoreConfig struct {
	Driver       string `env:"STORE_DRIVER" env-default:"json"`
	UsersFile    string `env:"USERS_FILE" env-default:"data/users.json"`
	DatabasePath string `env:"DATABASE_PATH" env-default:"account-portal.db"`
}

type UploadConfig struct {
	Driver string `env:"UPLOAD_DRIVER" env-default:"disk"`
	Dir    string `env:"UPLOAD_DIR" env-default:"public/uploads"`
}

type S3Config struct {
	Bucket    string `env:"S3_BUCKET"`
	Region    string `env:"S3_REGION" env-default:"us-east-1"`
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
}

// Load reads the optional .env file in the working directory, then the
// environment, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads and validates the configuration from the process
// environment only.
func FromEnv() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	cfg.HTTP.AllowedOrigins = trimAll(cfg.HTTP.AllowedOrigins)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and driver combinations.
func (c Config) Validate() error {
	if len(c.Session.Secret) < MinSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters", MinSecretLength)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Session.BcryptCost < 4 || c.Session.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Session.BcryptCost)
	}
	if c.HTTP.AuthRateLimit < 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT must not be negative, got %d", c.HTTP.AuthRateLimit)
	}

	switch c.Store.Driver {
	case StoreJSON, StoreSQLite:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreJSON, StoreSQLite, c.Store.Driver)
	}

	switch c.Upload.Driver {
	case UploadDisk:
	case UploadSQLite:
		if c.Store.Driver != StoreSQLite {
			return fmt.Errorf("UPLOAD_DRIVER=%s requires STORE_DRIVER=%s", UploadSQLite, StoreSQLite)
		}
	case UploadS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when UPLOAD_DRIVER=%s", UploadS3)
		}
	default:
		return fmt.Errorf("UPLOAD_DRIVER must be one of %s, %s, %s; got %q", UploadDisk, UploadSQLite, UploadS3, c.Upload.Driver)
	}

	return nil
}

// RateLimitPerSecond converts AUTH_RATE_LIMIT to a token refill rate.
func (c HTTPConfig) RateLimitPerSecond() float64 {
	return float64(c.AuthRateLimit) / 60
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
