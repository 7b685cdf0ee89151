package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/medtrack/pharmacy-portal/pkg/logger"
)

// CacheConfig holds cache configuration
type CacheConfig struct {
	DefaultTTL       time.Duration
	CacheableMethods []string
	CacheableStatus  []int
	SkipPrefixes     []string
}

// DefaultCacheConfig returns default cache configuration. The TTL stays
// under the portal's 45-second refresh cadence so cached alert payloads
// never outlive a poll cycle.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DefaultTTL:       30 * time.Second,
		CacheableMethods: []string{"GET", "HEAD"},
		CacheableStatus:  []int{200, 203, 301, 404, 410},
		SkipPrefixes:     []string{"/api/notifications", "/api/relay"},
	}
}

// CacheMiddleware implements response caching with Redis
func CacheMiddleware(redisClient *redis.Client, config CacheConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if redisClient == nil {
			return c.Next()
		}

		if !isMethodCacheable(c.Method(), config.CacheableMethods) {
			return c.Next()
		}

		// Read-state and relay endpoints mutate per request, never cache them.
		for _, prefix := range config.SkipPrefixes {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}

		cacheKey := generateCacheKey(c)

		ctx := context.Background()
		cachedResponse, err := redisClient.Get(ctx, cacheKey).Bytes()
		if err == nil && len(cachedResponse) > 0 {
			logger.Logger.Debug().
				Str("path", c.Path()).
				Str("cache_key", cacheKey).
				Msg("Cache hit")

			c.Set("X-Cache", "HIT")
			c.Set("Content-Type", "application/json")
			return c.Send(cachedResponse)
		}

		err = c.Next()

		statusCode := c.Response().StatusCode()
		if isStatusCacheable(statusCode, config.CacheableStatus) {
			responseBody := c.Response().Body()

			if err := redisClient.Set(ctx, cacheKey, responseBody, config.DefaultTTL).Err(); err != nil {
				logger.Logger.Warn().
					Err(err).
					Str("cache_key", cacheKey).
					Msg("Failed to cache response")
			}

			c.Set("X-Cache", "MISS")
		}

		return err
	}
}

// generateCacheKey generates a unique cache key for the request
func generateCacheKey(c *fiber.Ctx) string {
	// Include the auth header so pharmacists never see each other's payloads
	keyComponents := fmt.Sprintf("%s:%s:%s:%s",
		c.Method(),
		c.Path(),
		string(c.Request().URI().QueryString()),
		c.Get("Authorization"),
	)

	hash := sha256.Sum256([]byte(keyComponents))
	return fmt.Sprintf("cache:%s", hex.EncodeToString(hash[:]))
}

func isMethodCacheable(method string, cacheableMethods []string) bool {
	for _, m := range cacheableMethods {
		if m == method {
			return true
		}
	}
	return false
}

func isStatusCacheable(status int, cacheableStatus []int) bool {
	for _, s := range cacheableStatus {
		if s == status {
			return true
		}
	}
	return false
}

// InvalidateCache invalidates cache entries matching a key pattern
func InvalidateCache(redisClient *redis.Client, pattern string) error {
	ctx := context.Background()

	iter := redisClient.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		if err := redisClient.Del(ctx, keys...).Err(); err != nil {
			return err
		}

		logger.Logger.Info().
			Int("count", len(keys)).
			Str("pattern", pattern).
			Msg("Cache invalidated")
	}

	return nil
}
