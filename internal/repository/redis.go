package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"verkstad/internal/config"
	"verkstad/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	client := redis.NewClient(options)

	return client
}

func NewRedisListingCache(client *redis.Client, ttl time.Duration) *RedisListingCache {
	return &RedisListingCache{
		client: client,
		ttl:    ttl,
	}
}

func listingKey(requestID, viewKey string) string {
	return fmt.Sprintf("listing:%s:%s", requestID, viewKey)
}

func listingIndexKey(requestID string) string {
	return fmt.Sprintf("listing_keys:%s", requestID)
}

func (r *RedisListingCache) GetListing(ctx context.Context, requestID, viewKey string) ([]models.RankedOffer, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, listingKey(requestID, viewKey)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing from redis: %w", err)
	}

	var listing []models.RankedOffer
	if err := json.Unmarshal([]byte(val), &listing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listing: %w", err)
	}

	return listing, nil
}

func (r *RedisListingCache) SetListing(ctx context.Context, requestID, viewKey string, listing []models.RankedOffer) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}

	key := listingKey(requestID, viewKey)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set listing in redis: %w", err)
	}

	// Индекс ключей нужен для точечной инвалидации всех представлений заявки.
	index := listingIndexKey(requestID)
	if err := r.client.SAdd(ctx, index, key).Err(); err != nil {
		return fmt.Errorf("failed to index listing key: %w", err)
	}
	r.client.Expire(ctx, index, r.ttl)

	return nil
}

func (r *RedisListingCache) InvalidateListing(ctx context.Context, requestID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	index := listingIndexKey(requestID)
	keys, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("failed to read listing index: %w", err)
	}
	keys = append(keys, index)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate listing: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
