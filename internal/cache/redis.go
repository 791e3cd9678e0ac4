// Package cache wraps the Redis surface of the control server: event-bus
// fan-out over Pub/Sub, a distributed lock guarding concurrent traffic
// updates against the same world, and a TTL'd cache of distance-table
// lookups keyed by graph generation.
package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	client     *redis.Client
	clientOnce sync.Once
	clientErr  error
)

// Config holds Redis configuration
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
	MutexTTL time.Duration
}

// LoadConfigFromEnv loads Redis configuration from environment variables
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, _ := time.ParseDuration(getEnv("CACHE_TTL", "10m"))
	mutexTTL, _ := time.ParseDuration(getEnv("CACHE_MUTEX_TTL", "5s"))

	return &Config{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     port,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
		TTL:      ttl,
		MutexTTL: mutexTTL,
	}
}

// GetClient returns the global Redis client (singleton pattern)
func GetClient() (*redis.Client, error) {
	clientOnce.Do(func() {
		config := LoadConfigFromEnv()

		opts := &redis.Options{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Password:     config.Password,
			DB:           config.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}

		// Enable TLS if configured (required for managed Redis)
		if getEnv("REDIS_TLS_ENABLED", "false") == "true" {
			opts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		client = redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			clientErr = fmt.Errorf("failed to connect to Redis: %w", err)
			return
		}
	})

	return client, clientErr
}

// Close closes the Redis client
func Close() {
	if client != nil {
		client.Close()
	}
}

// EventChannel names the Pub/Sub channel mirroring a world's event bus.
func EventChannel(worldID string) string {
	return fmt.Sprintf("events:%s", worldID)
}

// PublishEvent mirrors one serialized event onto the world's Pub/Sub
// channel so visualization consumers can attach without holding an SSE
// connection open against the simulation process.
func PublishEvent(ctx context.Context, worldID string, payload []byte) error {
	client, err := GetClient()
	if err != nil {
		return err
	}
	return client.Publish(ctx, EventChannel(worldID), payload).Err()
}

// SubscribeEvents attaches to a world's event channel.
func SubscribeEvents(ctx context.Context, worldID string) (*redis.PubSub, error) {
	client, err := GetClient()
	if err != nil {
		return nil, err
	}
	return client.Subscribe(ctx, EventChannel(worldID)), nil
}

// TrafficLockKey names the mutex guarding traffic updates for one world.
func TrafficLockKey(worldID string) string {
	return fmt.Sprintf("lock:traffic:%s", worldID)
}

// DistKey generates a cache key for one distance-table lookup. generation
// increments on every traffic update, invalidating earlier entries.
func DistKey(worldID string, generation uint64, u, v int64) string {
	return fmt.Sprintf("dist:%s:%d:%d:%d", worldID, generation, u, v)
}

// GetDist retrieves a cached distance. The second return is false on miss.
func GetDist(ctx context.Context, key string) (float64, bool, error) {
	client, err := GetClient()
	if err != nil {
		return 0, false, err
	}

	val, err := client.Get(ctx, key).Float64()
	if err == redis.Nil {
		return 0, false, nil // cache miss
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// SetDist caches a distance lookup
func SetDist(ctx context.Context, key string, dist float64, ttl time.Duration) error {
	client, err := GetClient()
	if err != nil {
		return err
	}
	return client.Set(ctx, key, dist, ttl).Err()
}

// AcquireLock attempts to acquire a distributed lock
// Returns true if lock was acquired, false if already locked
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	client, err := GetClient()
	if err != nil {
		return false, err
	}

	// Try to set the lock key with NX (only if not exists)
	ok, err := client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseLock releases a distributed lock
func ReleaseLock(ctx context.Context, key string) error {
	client, err := GetClient()
	if err != nil {
		return err
	}

	return client.Del(ctx, key).Err()
}

// HealthCheck performs a health check on the Redis connection
func HealthCheck(ctx context.Context) error {
	client, err := GetClient()
	if err != nil {
		return fmt.Errorf("Redis client not initialized: %w", err)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
