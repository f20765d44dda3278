package config

import (
	"os"
	"testing"
	"time"
)

var envKeys = []string{
	"SMARTCART_SERVER_PORT",
	"SMARTCART_SERVER_ENVIRONMENT",
	"SMARTCART_SERVER_ALLOWED_ORIGINS",
	"SMARTCART_RECOGNITION_API_KEY",
	"SMARTCART_RECOGNITION_BASE_URL",
	"SMARTCART_RECOGNITION_TIMEOUT",
	"SMARTCART_MATCHING_MIN_CONFIDENCE",
	"SMARTCART_MATCHING_MIN_MATCH_SCORE",
	"SMARTCART_CACHE_TYPE",
	"SMARTCART_CACHE_REDIS_URL",
	"SMARTCART_CACHE_TTL",
	"SMARTCART_STORAGE_TYPE",
	"SMARTCART_STORAGE_SQLITE_PATH",
	"SMARTCART_AUTH_JWT_SECRET",
}

// inTempDir runs the test from an empty directory so no config.yaml or .env leaks in
func inTempDir(t *testing.T) {
	t.Helper()
	originalDir, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { os.Chdir(originalDir) })
}

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		inTempDir(t)
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if !cfg.IsDevelopment() {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Server.ShutdownTimeout != 15*time.Second {
			t.Errorf("Server.ShutdownTimeout = %v, want 15s", cfg.Server.ShutdownTimeout)
		}
		if cfg.Recognition.APIKey != "" {
			t.Errorf("Recognition.APIKey = %q, want empty", cfg.Recognition.APIKey)
		}
		if cfg.Recognition.BaseURL != "https://api.anthropic.com" {
			t.Errorf("Recognition.BaseURL = %s", cfg.Recognition.BaseURL)
		}
		if cfg.Recognition.MaxTokens != 200 {
			t.Errorf("Recognition.MaxTokens = %d, want 200", cfg.Recognition.MaxTokens)
		}
		if cfg.Recognition.MaxWidth != 640 || cfg.Recognition.MaxHeight != 480 {
			t.Errorf("Recognition frame bounds = %dx%d, want 640x480", cfg.Recognition.MaxWidth, cfg.Recognition.MaxHeight)
		}
		if cfg.Matching.MinConfidence != 0.6 {
			t.Errorf("Matching.MinConfidence = %v, want 0.6", cfg.Matching.MinConfidence)
		}
		if cfg.Matching.MinMatchScore != 0.3 {
			t.Errorf("Matching.MinMatchScore = %v, want 0.3", cfg.Matching.MinMatchScore)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 10*time.Minute {
			t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
		}
		if cfg.Storage.Type != "memory" || !cfg.Storage.SeedCatalog {
			t.Errorf("Storage = %+v, want seeded memory store", cfg.Storage)
		}
		if cfg.Auth.TokenTTL != 24*time.Hour {
			t.Errorf("Auth.TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		inTempDir(t)
		os.Setenv("SMARTCART_SERVER_PORT", "9090")
		os.Setenv("SMARTCART_SERVER_ENVIRONMENT", "production")
		os.Setenv("SMARTCART_RECOGNITION_API_KEY", "custom-api-key")
		os.Setenv("SMARTCART_RECOGNITION_TIMEOUT", "5s")
		os.Setenv("SMARTCART_MATCHING_MIN_CONFIDENCE", "0.75")
		os.Setenv("SMARTCART_CACHE_TYPE", "redis")
		os.Setenv("SMARTCART_CACHE_REDIS_URL", "redis://localhost:6379")
		os.Setenv("SMARTCART_CACHE_TTL", "1h")
		os.Setenv("SMARTCART_STORAGE_TYPE", "sqlite")
		os.Setenv("SMARTCART_STORAGE_SQLITE_PATH", "/tmp/cart.db")
		os.Setenv("SMARTCART_AUTH_JWT_SECRET", "a-real-secret")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.IsDevelopment() {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Recognition.APIKey != "custom-api-key" {
			t.Errorf("Recognition.APIKey = %s, want custom-api-key", cfg.Recognition.APIKey)
		}
		if cfg.Recognition.Timeout != 5*time.Second {
			t.Errorf("Recognition.Timeout = %v, want 5s", cfg.Recognition.Timeout)
		}
		if cfg.Matching.MinConfidence != 0.75 {
			t.Errorf("Matching.MinConfidence = %v, want 0.75", cfg.Matching.MinConfidence)
		}
		if cfg.Cache.Type != "redis" || cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache = %+v", cfg.Cache)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.Storage.Type != "sqlite" || cfg.Storage.SQLitePath != "/tmp/cart.db" {
			t.Errorf("Storage = %+v", cfg.Storage)
		}
		if cfg.Auth.JWTSecret != "a-real-secret" {
			t.Errorf("Auth.JWTSecret = %s, want a-real-secret", cfg.Auth.JWTSecret)
		}
	})

	t.Run("loads without a recognition API key", func(t *testing.T) {
		cleanupEnv()
		inTempDir(t)
		defer cleanupEnv()

		if _, err := Load(); err != nil {
			t.Errorf("Load() error = %v, want nil", err)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		inTempDir(t)
		os.Setenv("SMARTCART_CACHE_TYPE", "invalid")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		cleanupEnv()
		inTempDir(t)
		os.Setenv("SMARTCART_CACHE_TYPE", "redis")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})

	t.Run("fails validation with the development secret in production", func(t *testing.T) {
		cleanupEnv()
		inTempDir(t)
		os.Setenv("SMARTCART_SERVER_ENVIRONMENT", "production")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for default JWT secret")
		}
		want := "invalid configuration: JWT secret must be changed in production (set SMARTCART_AUTH_JWT_SECRET)"
		if err.Error() != want {
			t.Errorf("Load() error = %v, want %q", err, want)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		inTempDir(t)

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		inTempDir(t)

		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")
		defer func() {
			os.Unsetenv("TEST_VAR_1")
			os.Unsetenv("TEST_VAR_2")
			os.Unsetenv("TEST_VAR_3")
		}()

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		for key, want := range map[string]string{"TEST_VAR_1": "value1", "TEST_VAR_2": "value2", "TEST_VAR_3": "value3"} {
			if got := os.Getenv(key); got != want {
				t.Errorf("%s = %s, want %s", key, got, want)
			}
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		inTempDir(t)

		os.Setenv("TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("TEST_OVERRIDE")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})

	t.Run("feeds Load", func(t *testing.T) {
		inTempDir(t)
		os.Unsetenv("SMARTCART_SERVER_PORT")
		defer os.Unsetenv("SMARTCART_SERVER_PORT")

		if err := os.WriteFile(".env", []byte("SMARTCART_SERVER_PORT=7070\n"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
	})
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Environment: "development"},
		Matching: MatchingConfig{MinConfidence: 0.6, MinMatchScore: 0.3},
		Cache:    CacheConfig{Type: "memory"},
		Storage:  StorageConfig{Type: "memory"},
		Auth:     AuthConfig{JWTSecret: devJWTSecret},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"unknown environment", func(c *Config) { c.Server.Environment = "qa" }, true},
		{"invalid cache type", func(c *Config) { c.Cache.Type = "memcached" }, true},
		{"redis with URL", func(c *Config) { c.Cache.Type = "redis"; c.Cache.RedisURL = "redis://localhost:6379" }, false},
		{"redis without URL", func(c *Config) { c.Cache.Type = "redis" }, true},
		{"invalid storage type", func(c *Config) { c.Storage.Type = "postgres" }, true},
		{"sqlite with path", func(c *Config) { c.Storage.Type = "sqlite"; c.Storage.SQLitePath = "x.db" }, false},
		{"sqlite without path", func(c *Config) { c.Storage.Type = "sqlite" }, true},
		{"confidence above one", func(c *Config) { c.Matching.MinConfidence = 1.5 }, true},
		{"negative match score", func(c *Config) { c.Matching.MinMatchScore = -0.1 }, true},
		{"zero match score", func(c *Config) { c.Matching.MinMatchScore = 0 }, true},
		{"zero confidence", func(c *Config) { c.Matching.MinConfidence = 0 }, true},
		{"match score of one", func(c *Config) { c.Matching.MinMatchScore = 1 }, false},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"production with dev secret", func(c *Config) { c.Server.Environment = "production" }, true},
		{"production with real secret", func(c *Config) {
			c.Server.Environment = "production"
			c.Auth.JWTSecret = "real"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
