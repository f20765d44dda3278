package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// devJWTSecret is the out-of-the-box signing key; production must override it
const devJWTSecret = "smartcart-dev-secret-change-me"

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Recognition RecognitionConfig
	Matching    MatchingConfig
	Cache       CacheConfig
	Storage     StorageConfig
	Auth        AuthConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RecognitionConfig holds vision API and frame shaping configuration
type RecognitionConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Burst             int           `mapstructure:"burst"`
	MaxWidth          int           `mapstructure:"max_width"`
	MaxHeight         int           `mapstructure:"max_height"`
	JPEGQuality       int           `mapstructure:"jpeg_quality"`
	Debug             bool          `mapstructure:"debug"`
}

// MatchingConfig holds catalog matching thresholds
type MatchingConfig struct {
	MinConfidence      float64 `mapstructure:"min_confidence"`
	MinMatchScore      float64 `mapstructure:"min_match_score"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StorageConfig selects the product and cart store
type StorageConfig struct {
	Type        string `mapstructure:"type"` // "memory" or "sqlite"
	SQLitePath  string `mapstructure:"sqlite_path"`
	SeedCatalog bool   `mapstructure:"seed_catalog"`
}

// AuthConfig holds bearer token configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/smartcart/")

	// SMARTCART_CACHE_REDIS_URL -> cache.redis_url
	v.SetEnvPrefix("SMARTCART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.max_body_bytes", 12<<20)
	v.SetDefault("server.shutdown_timeout", "15s")

	// Recognition defaults
	v.SetDefault("recognition.api_key", "")
	v.SetDefault("recognition.base_url", "https://api.anthropic.com")
	v.SetDefault("recognition.model", "claude-3-7-sonnet-20250219")
	v.SetDefault("recognition.max_tokens", 200)
	v.SetDefault("recognition.timeout", "20s")
	v.SetDefault("recognition.requests_per_minute", 30)
	v.SetDefault("recognition.burst", 5)
	v.SetDefault("recognition.max_width", 640)
	v.SetDefault("recognition.max_height", 480)
	v.SetDefault("recognition.jpeg_quality", 85)
	v.SetDefault("recognition.debug", false)

	// Matching defaults
	v.SetDefault("matching.min_confidence", 0.6)
	v.SetDefault("matching.min_match_score", 0.3)
	v.SetDefault("matching.enable_debug_logging", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "10m")

	// Storage defaults
	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.sqlite_path", "smartcart.db")
	v.SetDefault("storage.seed_catalog", true)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", devJWTSecret)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.issuer", "smartcart")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("server environment must be 'development', 'staging' or 'production', got: %s", config.Server.Environment)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Storage.Type != "memory" && config.Storage.Type != "sqlite" {
		return fmt.Errorf("storage type must be 'memory' or 'sqlite', got: %s", config.Storage.Type)
	}

	if config.Storage.Type == "sqlite" && config.Storage.SQLitePath == "" {
		return fmt.Errorf("SQLite path is required when storage type is 'sqlite'")
	}

	// the matcher treats a zero threshold as unset
	if config.Matching.MinConfidence <= 0 || config.Matching.MinConfidence > 1 {
		return fmt.Errorf("matching min_confidence must be within (0, 1], got: %v", config.Matching.MinConfidence)
	}

	if config.Matching.MinMatchScore <= 0 || config.Matching.MinMatchScore > 1 {
		return fmt.Errorf("matching min_match_score must be within (0, 1], got: %v", config.Matching.MinMatchScore)
	}

	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required (set SMARTCART_AUTH_JWT_SECRET)")
	}

	if config.Server.Environment == "production" && config.Auth.JWTSecret == devJWTSecret {
		return fmt.Errorf("JWT secret must be changed in production (set SMARTCART_AUTH_JWT_SECRET)")
	}

	return nil
}
