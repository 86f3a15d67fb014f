package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/itzcole03/atlas/adapters/prizepicks"
	"github.com/itzcole03/atlas/adapters/sportsradar"
	"github.com/itzcole03/atlas/adapters/theoddsapi"
	"github.com/itzcole03/atlas/internal/cache"
	"github.com/itzcole03/atlas/internal/config"
	"github.com/itzcole03/atlas/internal/history"
	"github.com/itzcole03/atlas/internal/httpapi"
	"github.com/itzcole03/atlas/internal/hub"
	"github.com/itzcole03/atlas/internal/metrics"
	"github.com/itzcole03/atlas/internal/sports"
	"github.com/itzcole03/atlas/internal/unified"
	"github.com/itzcole03/atlas/pkg/contracts"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	if cfg.Providers.OddsAPIKey == "" {
		fmt.Println("✗ ODDS_API_KEY environment variable is required")
		os.Exit(1)
	}

	// Cache backend
	var store contracts.CacheStore
	switch cfg.Cache.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			fmt.Printf("failed to connect to Redis: %v\n", err)
			os.Exit(1)
		}
		store = cache.NewRedis(redisClient)
		fmt.Println("✓ Connected to Redis cache")

	default:
		store = cache.NewMemory(cfg.Cache.Capacity)
		fmt.Printf("✓ In-memory cache (capacity %d)\n", cfg.Cache.Capacity)
	}

	// Domain wiring
	m := metrics.New()
	registry := sports.NewRegistry()
	normalizer := sports.NewNormalizer(registry, logger)

	oddsClient := theoddsapi.NewClient(cfg.Providers.OddsAPIKey)
	propsClient := prizepicks.NewClient()
	fmt.Println("✓ Initialized vendor adapters")

	service := unified.NewService(unified.Config{
		CacheTTL: cfg.Cache.TTL,
		Regions:  cfg.Providers.Regions,
		Markets:  cfg.Providers.Markets,
	}, oddsClient, propsClient, store, normalizer, logger, m)

	// Schedules come from SportsRadar when a key is configured, otherwise
	// from The Odds API's events endpoint.
	if cfg.Providers.SportsRadarAPIKey != "" {
		service.SetEventProvider(sportsradar.NewClient(cfg.Providers.SportsRadarAPIKey))
	} else {
		service.SetEventProvider(oddsClient)
	}

	// Optional snapshot history
	if cfg.History.DSN != "" {
		db, err := sql.Open("postgres", cfg.History.DSN)
		if err != nil {
			fmt.Printf("failed to open history DB: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			fmt.Printf("failed to ping history DB: %v\n", err)
			os.Exit(1)
		}

		writer := history.NewWriter(db, logger)
		writer.Start(ctx)
		defer writer.Stop()

		service.SetRecorder(writer)
		fmt.Println("✓ Connected to history DB")
	}

	// WebSocket hub
	h := hub.NewHub(logger, m)
	go h.Run(ctx)
	service.SetNotifier(h)

	// HTTP server
	api := httpapi.NewServer(service, registry, h, m, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Router(cfg.Server.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("✓ Atlas listening on %s\n", cfg.Server.Addr)
		fmt.Printf("  Cache TTL: %v\n", cfg.Cache.TTL)
		fmt.Printf("  Sports registered: %d\n", registry.Count())
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		fmt.Printf("server error: %v\n", err)
		os.Exit(1)

	case sig := <-sigChan:
		fmt.Printf("\n✓ Received %v, shutting down gracefully...\n", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("graceful shutdown failed: %v\n", err)
			if err := srv.Close(); err != nil {
				fmt.Printf("could not stop server: %v\n", err)
			}
		}
		cancel()
	}

	fmt.Println("✓ Atlas stopped")
}
