// Package cache provides a Redis-backed cache for the compiled document of
// each bot's active version. Runtimes read the active document on every
// conversation turn, so lookups are served from Redis; entries are written
// through on activation and rollback and dropped when a write fails or an
// entry turns out corrupt.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/convopilot/convopilot/pkg/models"
)

// ErrCacheMiss is returned when no document is cached for a bot.
var ErrCacheMiss = errors.New("active document not cached")

const keyPrefix = "convopilot:active:"

// ActiveDocumentCache caches compiled documents keyed by bot ID.
type ActiveDocumentCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewActiveDocumentCache(logger *slog.Logger, redisURL string, ttl time.Duration) (*ActiveDocumentCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &ActiveDocumentCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		logger: logger.With("module", "cache"),
	}, nil
}

func (c *ActiveDocumentCache) Set(ctx context.Context, botID string, doc *models.CompiledDocument) error {
	payload, err := doc.Canonical()
	if err != nil {
		return fmt.Errorf("failed to encode compiled document: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+botID, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache active document for bot %s: %w", botID, err)
	}

	return nil
}

func (c *ActiveDocumentCache) Get(ctx context.Context, botID string) (*models.CompiledDocument, error) {
	payload, err := c.client.Get(ctx, keyPrefix+botID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read cached document for bot %s: %w", botID, err)
	}

	var doc models.CompiledDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		// A corrupt entry is treated as a miss so callers fall back to
		// the store and rewrite it.
		c.logger.WarnContext(ctx, "Discarding corrupt cached document", "bot_id", botID, "error", err)
		c.client.Del(ctx, keyPrefix+botID)

		return nil, ErrCacheMiss
	}

	return &doc, nil
}

func (c *ActiveDocumentCache) Invalidate(ctx context.Context, botID string) error {
	if err := c.client.Del(ctx, keyPrefix+botID).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached document for bot %s: %w", botID, err)
	}

	return nil
}

func (c *ActiveDocumentCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *ActiveDocumentCache) Close() error {
	return c.client.Close()
}
