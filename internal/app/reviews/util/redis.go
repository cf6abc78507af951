package util

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"juneplums/internal/app/reviews/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const ratingKeyPrefix = "rating:product:"

// RedisClient кеширует агрегированные оценки товаров
// Значение в кеше всегда перезаписывается пересчетом, TTL страхует от устаревания
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент кеша оценок
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// NewRedisClientFromClient оборачивает готовый Redis клиент (для тестов)
func NewRedisClientFromClient(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// GetRating получает оценку товара из кеша
// Возвращает nil, nil при отсутствии ключа (cache miss)
func (r *RedisClient) GetRating(ctx context.Context, productID uuid.UUID) (*entity.ProductRating, error) {
	data, err := r.client.Get(ctx, ratingKey(productID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rating from cache: %w", err)
	}

	var rating entity.ProductRating
	if err := json.Unmarshal(data, &rating); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rating: %w", err)
	}

	return &rating, nil
}

// SetRating сохраняет оценку товара в кеш с TTL
func (r *RedisClient) SetRating(ctx context.Context, rating *entity.ProductRating, ttl time.Duration) error {
	data, err := json.Marshal(rating)
	if err != nil {
		return fmt.Errorf("failed to marshal rating: %w", err)
	}

	if err := r.client.Set(ctx, ratingKey(rating.ProductID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set rating in cache: %w", err)
	}

	return nil
}

// DeleteRating убирает оценку товара из кеша
func (r *RedisClient) DeleteRating(ctx context.Context, productID uuid.UUID) error {
	if err := r.client.Del(ctx, ratingKey(productID)).Err(); err != nil {
		return fmt.Errorf("failed to delete rating from cache: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisClient) Close() error {
	return r.client.Close()
}

func ratingKey(productID uuid.UUID) string {
	return ratingKeyPrefix + productID.String()
}
