// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBPath     string `mapstructure:"DB_PATH"`

	DBReadHost string `mapstructure:"DB_READ_HOST"`
	DBReadPort string `mapstructure:"DB_READ_PORT"`

	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`

	RedisURL string `mapstructure:"REDIS_URL"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	// TokenCookie is the cookie carrying the visitor edit token.
	TokenCookie string `mapstructure:"TOKEN_COOKIE"`

	SiteName      string `mapstructure:"SITE_NAME"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
	AdminBaseURL  string `mapstructure:"ADMIN_BASE_URL"`

	PushEnabled     bool   `mapstructure:"PUSH_ENABLED"`
	VAPIDPublicKey  string `mapstructure:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `mapstructure:"VAPID_PRIVATE_KEY"`
	PushSubscriber  string `mapstructure:"PUSH_SUBSCRIBER"`

	BuildHookURL string `mapstructure:"BUILD_HOOK_URL"`

	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	UploadMaxMB    int    `mapstructure:"UPLOAD_MAX_MB"`
	S3Bucket       string `mapstructure:"S3_BUCKET"`
	S3Region       string `mapstructure:"S3_REGION"`
	S3Endpoint     string `mapstructure:"S3_ENDPOINT"`
	S3AccessKey    string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey    string `mapstructure:"S3_SECRET_KEY"`
	S3PublicURL    string `mapstructure:"S3_PUBLIC_URL"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSample   float64 `mapstructure:"TRACING_SAMPLE"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8473")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "chenil")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_PATH", "chenil.db")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ADMIN_EMAIL", "admin@chenil.local")
	viper.SetDefault("ADMIN_PASSWORD", "admin-change-me")
	viper.SetDefault("TOKEN_COOKIE", "edit_token")
	viper.SetDefault("SITE_NAME", "Chenil")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:5173")
	viper.SetDefault("ADMIN_BASE_URL", "http://localhost:5173/admin")
	viper.SetDefault("PUSH_ENABLED", false)
	viper.SetDefault("VAPID_PUBLIC_KEY", "")
	viper.SetDefault("VAPID_PRIVATE_KEY", "")
	viper.SetDefault("PUSH_SUBSCRIBER", "mailto:admin@chenil.local")
	viper.SetDefault("BUILD_HOOK_URL", "")
	viper.SetDefault("STORAGE_BACKEND", "local")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("UPLOAD_MAX_MB", 10)
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_REGION", "")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_ACCESS_KEY", "")
	viper.SetDefault("S3_SECRET_KEY", "")
	viper.SetDefault("S3_PUBLIC_URL", "")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.PushEnabled && (c.VAPIDPublicKey == "" || c.VAPIDPrivateKey == "") {
		return errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY are required when PUSH_ENABLED is true")
	}
	if c.StorageBackend != "local" && c.StorageBackend != "s3" {
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want local or s3)", c.StorageBackend)
	}
	if c.StorageBackend == "s3" && c.S3Bucket == "" {
		return errors.New("S3_BUCKET is required when STORAGE_BACKEND is s3")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.AdminPassword == "admin-change-me" || c.AdminPassword == "" {
			return errors.New("ADMIN_PASSWORD must be changed from the default value in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
		if !c.PushEnabled {
			log.Println("WARNING: PUSH_ENABLED is false in production. Administrators will not receive change notifications.")
		}
	} else {
		// Development/Test warnings
		if len(c.JWTSecret) < 32 {
			log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
	}

	return nil
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.UploadMaxMB) << 20
}
