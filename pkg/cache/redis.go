package cache

import (
	"context"
	"time"

	"hospital-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// InitRedis opens the client used by the slot-availability cache.
func InitRedis(cfg utils.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
