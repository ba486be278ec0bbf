package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkraemer/slotgrab/config"
	"github.com/nkraemer/slotgrab/internal/domain"
)

// RedisCache holds the venue listing, which every booking-creation request
// reads but which changes rarely.
type RedisCache struct {
	client    *redis.Client
	venuesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, venuesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		venuesTTL: venuesTTL,
	}
}

func (c *RedisCache) GetVenues(ctx context.Context) ([]domain.Venue, error) {
	data, err := c.client.Get(ctx, venuesKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var venues []domain.Venue
	if err := json.Unmarshal(data, &venues); err != nil {
		return nil, err
	}
	return venues, nil
}

func (c *RedisCache) SetVenues(ctx context.Context, venues []domain.Venue) error {
	payload, err := json.Marshal(venues)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, venuesKey(), payload, c.venuesTTL).Err()
}

// InvalidateVenues drops the cached listing after a venue is created or
// edited.
func (c *RedisCache) InvalidateVenues(ctx context.Context) error {
	return c.client.Del(ctx, venuesKey()).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func venuesKey() string {
	return "cache:venues"
}
