package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AuthModeDev = "dev"
	AuthModeJWT = "jwt"
	AuthModeIAM = "iam"

	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	AppName string `mapstructure:"APP_NAME"`
	Port    string `mapstructure:"PORT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Vacío = repos in-memory
	DBDSN string `mapstructure:"DB_DSN"`

	StorageDriver  string `mapstructure:"STORAGE_DRIVER"`
	StorageDir     string `mapstructure:"STORAGE_DIR"`
	MaxUploadBytes int64  `mapstructure:"MAX_UPLOAD_BYTES"`

	// --- S3 ---
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`

	// Vacío = dedup de vistas en memoria
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	AuthMode        string        `mapstructure:"AUTH_MODE"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	JWTIssuer       string        `mapstructure:"JWT_ISSUER"`
	ShareSessionTTL time.Duration `mapstructure:"SHARE_SESSION_TTL"`

	IAMURL    string `mapstructure:"IAM_URL"`
	IAMAPIKey string `mapstructure:"IAM_API_KEY"`

	DirectoryURL      string        `mapstructure:"DIRECTORY_URL"`
	DirectoryAPIKey   string        `mapstructure:"DIRECTORY_API_KEY"`
	DirectoryCacheTTL time.Duration `mapstructure:"DIRECTORY_CACHE_TTL"`

	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"APP_NAME":            "pdfshare",
	"PORT":                "8080",
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "text",
	"STORAGE_DRIVER":      StorageLocal,
	"STORAGE_DIR":         "./data/blobs",
	"MAX_UPLOAD_BYTES":    int64(25 << 20),
	"S3_REGION":           "us-east-1",
	"S3_BUCKET":           "pdfshare",
	"REDIS_DB":            0,
	"AUTH_MODE":           AuthModeDev,
	"JWT_ISSUER":          "pdfshare",
	"SHARE_SESSION_TTL":   "30m",
	"DIRECTORY_CACHE_TTL": "5m",
	"SHUTDOWN_TIMEOUT":    "10s",
}

var keys = []string{
	"APP_NAME", "PORT", "LOG_LEVEL", "LOG_FORMAT",
	"DB_DSN",
	"STORAGE_DRIVER", "STORAGE_DIR", "MAX_UPLOAD_BYTES",
	"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
	"S3_USE_SSL", "S3_PATH_STYLE",
	"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD",
	"AUTH_MODE", "JWT_SECRET", "JWT_ISSUER", "SHARE_SESSION_TTL",
	"IAM_URL", "IAM_API_KEY",
	"DIRECTORY_URL", "DIRECTORY_API_KEY", "DIRECTORY_CACHE_TTL",
	"SHUTDOWN_TIMEOUT",
}

// LoadFromEnv carga .env (si existe, solo dev) y después variables de entorno.
func LoadFromEnv() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthModeDev:
	case AuthModeJWT:
		if c.JWTSecret == "" {
			return errors.New("config: JWT_SECRET is required with AUTH_MODE=jwt")
		}
	case AuthModeIAM:
		if c.IAMURL == "" || c.IAMAPIKey == "" {
			return errors.New("config: IAM_URL and IAM_API_KEY are required with AUTH_MODE=iam")
		}
	default:
		return fmt.Errorf("config: unknown AUTH_MODE %q", c.AuthMode)
	}

	switch c.StorageDriver {
	case StorageLocal:
		if c.StorageDir == "" {
			return errors.New("config: STORAGE_DIR is required with STORAGE_DRIVER=local")
		}
	case StorageS3:
		if c.S3Endpoint == "" || c.S3Bucket == "" {
			return errors.New("config: S3_ENDPOINT and S3_BUCKET are required with STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("config: MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// Addr para http.Server.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// String imprime la config con secretos enmascarados.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  AppName: %s\n", c.AppName)
	fmt.Fprintf(&sb, "  Port: %s\n", c.Port)
	fmt.Fprintf(&sb, "  LogLevel: %s\n", c.LogLevel)
	fmt.Fprintf(&sb, "  LogFormat: %s\n", c.LogFormat)
	fmt.Fprintf(&sb, "  DBDSN: %s\n", mask(c.DBDSN))

	fmt.Fprintf(&sb, "  StorageDriver: %s\n", c.StorageDriver)
	fmt.Fprintf(&sb, "  StorageDir: %s\n", c.StorageDir)
	fmt.Fprintf(&sb, "  MaxUploadBytes: %d\n", c.MaxUploadBytes)
	fmt.Fprintf(&sb, "  S3Endpoint: %s\n", c.S3Endpoint)
	fmt.Fprintf(&sb, "  S3Region: %s\n", c.S3Region)
	fmt.Fprintf(&sb, "  S3Bucket: %s\n", c.S3Bucket)
	fmt.Fprintf(&sb, "  S3AccessKey: %s\n", mask(c.S3AccessKey))
	fmt.Fprintf(&sb, "  S3SecretKey: %s\n", mask(c.S3SecretKey))
	fmt.Fprintf(&sb, "  S3UseSSL: %v\n", c.S3UseSSL)
	fmt.Fprintf(&sb, "  S3PathStyle: %v\n", c.S3PathStyle)

	fmt.Fprintf(&sb, "  RedisAddr: %s\n", c.RedisAddr)
	fmt.Fprintf(&sb, "  RedisDB: %d\n", c.RedisDB)
	fmt.Fprintf(&sb, "  RedisPassword: %s\n", mask(c.RedisPassword))

	fmt.Fprintf(&sb, "  AuthMode: %s\n", c.AuthMode)
	fmt.Fprintf(&sb, "  JWTSecret: %s\n", mask(c.JWTSecret))
	fmt.Fprintf(&sb, "  JWTIssuer: %s\n", c.JWTIssuer)
	fmt.Fprintf(&sb, "  ShareSessionTTL: %s\n", c.ShareSessionTTL)
	fmt.Fprintf(&sb, "  IAMURL: %s\n", c.IAMURL)
	fmt.Fprintf(&sb, "  IAMAPIKey: %s\n", mask(c.IAMAPIKey))
	fmt.Fprintf(&sb, "  DirectoryURL: %s\n", c.DirectoryURL)
	fmt.Fprintf(&sb, "  DirectoryAPIKey: %s\n", mask(c.DirectoryAPIKey))
	fmt.Fprintf(&sb, "  DirectoryCacheTTL: %s\n", c.DirectoryCacheTTL)
	fmt.Fprintf(&sb, "  ShutdownTimeout: %s\n", c.ShutdownTimeout)
	return sb.String()
}

func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}
