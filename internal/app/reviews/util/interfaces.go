package util

import (
	"context"
	"time"

	"juneplums/internal/app/reviews/entity"

	"github.com/google/uuid"
)

// RatingCache интерфейс для работы с кешем агрегированных оценок в Redis
// Используется для dependency injection и упрощения тестирования
type RatingCache interface {
	GetRating(ctx context.Context, productID uuid.UUID) (*entity.ProductRating, error)
	SetRating(ctx context.Context, rating *entity.ProductRating, ttl time.Duration) error
	DeleteRating(ctx context.Context, productID uuid.UUID) error
	Close() error
}
