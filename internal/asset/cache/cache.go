package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stockroom/internal/asset/models"
	platformredis "stockroom/internal/platform/redis"
)

// Snapshot is a read-through cache for asset lookups. Misses and Redis errors
// fall back to the database; every quantity mutation invalidates, so a stale
// snapshot can only survive for the TTL after a write raced the invalidation.
type Snapshot struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewSnapshot(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *Snapshot {
	return &Snapshot{client: client, ttl: ttl, logger: logger}
}

func key(id uuid.UUID) string {
	return "asset:snapshot:" + id.String()
}

// Get returns the cached asset and true on a hit.
func (c *Snapshot) Get(ctx context.Context, id uuid.UUID) (*models.Asset, bool) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var asset models.Asset
	if err := json.Unmarshal(raw, &asset); err != nil {
		c.logger.Warn("corrupt asset snapshot, invalidating", "asset_id", id, "error", err)
		c.Invalidate(ctx, id)
		return nil, false
	}
	return &asset, true
}

// Set stores a snapshot with the configured TTL. Failures are logged only;
// the cache is an optimization, not a source of truth.
func (c *Snapshot) Set(ctx context.Context, asset *models.Asset) {
	raw, err := json.Marshal(asset)
	if err != nil {
		c.logger.Warn("failed to encode asset snapshot", "asset_id", asset.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, key(asset.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache asset snapshot", "asset_id", asset.ID, "error", err)
	}
}

// Invalidate drops the snapshot after any mutation.
func (c *Snapshot) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.Warn("failed to invalidate asset snapshot", "asset_id", id, "error", err)
	}
}
