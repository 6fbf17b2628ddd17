package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SlotCache holds short-lived availability views per (doctor, date). It is
// injected into the booking service; a cache failure is only a miss, the
// store stays the source of truth.
type SlotCache interface {
	Get(ctx context.Context, doctorID uuid.UUID, date string) ([]string, bool)
	Set(ctx context.Context, doctorID uuid.UUID, date string, slots []string)
	Invalidate(ctx context.Context, doctorID uuid.UUID, date string)
}

type redisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewSlotCache(client *redis.Client, ttl time.Duration, log *zap.Logger) SlotCache {
	return &redisSlotCache{
		client: client,
		ttl:    ttl,
		log:    log.With(zap.String("cache", "slots")),
	}
}

func slotKey(doctorID uuid.UUID, date string) string {
	return fmt.Sprintf("slots:%s:%s", doctorID.String(), date)
}

func (c *redisSlotCache) Get(ctx context.Context, doctorID uuid.UUID, date string) ([]string, bool) {
	raw, err := c.client.Get(ctx, slotKey(doctorID, date)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("Slot cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var slots []string
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		return nil, false
	}

	return slots, true
}

func (c *redisSlotCache) Set(ctx context.Context, doctorID uuid.UUID, date string, slots []string) {
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, slotKey(doctorID, date), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Slot cache write failed", zap.Error(err))
	}
}

func (c *redisSlotCache) Invalidate(ctx context.Context, doctorID uuid.UUID, date string) {
	if err := c.client.Del(ctx, slotKey(doctorID, date)).Err(); err != nil {
		c.log.Warn("Slot cache invalidation failed",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
			zap.String("date", date),
		)
	}
}
