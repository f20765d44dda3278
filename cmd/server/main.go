package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/smartcart/backend/config"
	httpDelivery "github.com/smartcart/backend/internal/delivery/http"
	"github.com/smartcart/backend/internal/domain"
	"github.com/smartcart/backend/internal/infrastructure/auth"
	"github.com/smartcart/backend/internal/infrastructure/cache"
	"github.com/smartcart/backend/internal/infrastructure/recognition"
	"github.com/smartcart/backend/internal/infrastructure/seed"
	"github.com/smartcart/backend/internal/infrastructure/storage/memory"
	"github.com/smartcart/backend/internal/infrastructure/storage/sqlite"
	"github.com/smartcart/backend/internal/usecase"
)

// store is what both storage backends provide
type store interface {
	domain.ProductCatalog
	domain.CartStore
}

func main() {
	// Load configuration (.env, config.yaml, SMARTCART_* variables)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SmartCart Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s (TTL %s)", cfg.Cache.Type, cfg.Cache.TTL)
	log.Printf("Storage Type: %s", cfg.Storage.Type)

	shutdownOps := map[string]gfshutdown.Operation{}

	// Initialize infrastructure dependencies
	cacheRepo, err := newCache(cfg, shutdownOps)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	productStore, err := newStore(cfg, shutdownOps)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize usecase layer
	catalogService := usecase.NewCatalogService(productStore, cacheRepo, usecase.CatalogServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	})

	if cfg.Storage.SeedCatalog {
		products, err := seed.Products()
		if err != nil {
			log.Fatalf("Failed to read seed catalog: %v", err)
		}
		if _, err := catalogService.Seed(context.Background(), products); err != nil {
			log.Fatalf("Failed to seed catalog: %v", err)
		}
	}

	cartService := usecase.NewCartService(productStore, productStore)

	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		MinConfidence:      cfg.Matching.MinConfidence,
		MinMatchScore:      cfg.Matching.MinMatchScore,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})
	log.Printf("Matching: min confidence=%.2f, min score=%.2f, debug=%v",
		cfg.Matching.MinConfidence,
		cfg.Matching.MinMatchScore,
		cfg.Matching.EnableDebugLogging)

	frames := recognition.NewFramePreparer(recognition.FrameConfig{
		MaxWidth:    cfg.Recognition.MaxWidth,
		MaxHeight:   cfg.Recognition.MaxHeight,
		JPEGQuality: cfg.Recognition.JPEGQuality,
		MaxBytes:    int(cfg.Server.MaxBodyBytes),
	})

	scanService := usecase.NewScanService(frames, newRecognizer(cfg), catalogService, cartService, matcher)

	tokens := auth.NewManager(auth.Config{
		Secret:   cfg.Auth.JWTSecret,
		TokenTTL: cfg.Auth.TokenTTL,
		Issuer:   cfg.Auth.Issuer,
	})
	if cfg.IsDevelopment() {
		log.Printf("Development token endpoint enabled at POST /api/v1/dev/token")
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(catalogService, cartService, scanService, tokens)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, tokens)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	shutdownOps["http-server"] = func(ctx context.Context) error {
		log.Println("Graceful shutdown initiated...")
		return server.Shutdown(ctx)
	}

	// Wait for shutdown signal and exit with appropriate code
	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.Server.ShutdownTimeout, shutdownOps)
	exitCode := <-wait
	log.Printf("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func newCache(cfg *config.Config, shutdownOps map[string]gfshutdown.Operation) (domain.CacheRepository, error) {
	if cfg.Cache.Type == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, "smartcart:")
		if err != nil {
			return nil, err
		}
		shutdownOps["redis"] = func(ctx context.Context) error {
			return redisCache.Close()
		}
		log.Printf("Redis cache connected")
		return redisCache, nil
	}

	memoryCache := cache.NewMemoryCache(time.Minute)
	shutdownOps["memory-cache"] = func(ctx context.Context) error {
		stats := memoryCache.Stats()
		log.Printf("[CACHE] memory cache hits=%d misses=%d evicted=%d", stats.Hits, stats.Misses, stats.Evicted)
		return memoryCache.Close()
	}
	return memoryCache, nil
}

func newStore(cfg *config.Config, shutdownOps map[string]gfshutdown.Operation) (store, error) {
	if cfg.Storage.Type == "sqlite" {
		sqliteStore, err := sqlite.Open(cfg.Storage.SQLitePath, cfg.IsDevelopment())
		if err != nil {
			return nil, err
		}
		shutdownOps["sqlite"] = func(ctx context.Context) error {
			return sqliteStore.Close()
		}
		return sqliteStore, nil
	}

	log.Printf("Using in-memory storage; carts are lost on restart")
	return memory.NewStore(), nil
}

// newRecognizer builds the vision client, or a client that always reports
// recognition as unavailable when no API key is configured
func newRecognizer(cfg *config.Config) domain.RecognitionClient {
	client, err := recognition.NewClient(recognition.Config{
		APIKey:            cfg.Recognition.APIKey,
		BaseURL:           cfg.Recognition.BaseURL,
		Model:             cfg.Recognition.Model,
		MaxTokens:         cfg.Recognition.MaxTokens,
		Timeout:           cfg.Recognition.Timeout,
		RequestsPerMinute: cfg.Recognition.RequestsPerMinute,
		Burst:             cfg.Recognition.Burst,
	})
	if err != nil {
		log.Printf("WARNING: Recognition API not configured (%v) - scans will fail until SMARTCART_RECOGNITION_API_KEY is set", err)
		return recognition.Unavailable{Reason: err}
	}

	// Enable debug mode in development environment or on request
	if cfg.Recognition.Debug || cfg.IsDevelopment() {
		client.SetDebug(true)
		log.Printf("Recognition client debug mode enabled")
	}

	log.Printf("Recognition API configured: %s (model %s)", cfg.Recognition.BaseURL, cfg.Recognition.Model)
	return client
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
