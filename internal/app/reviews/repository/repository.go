package repository

import (
	"context"
	"errors"

	"juneplums/internal/app/reviews/entity"

	"github.com/google/uuid"
)

var (
	// Стандартные ошибки репозиториев для обработки в service layer
	ErrReviewNotFound  = errors.New("review not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ReviewRepository определяет методы для работы с отзывами в MongoDB
// Все выборки отсортированы по дате создания, новые первыми
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetAll(ctx context.Context) ([]entity.Review, error)
	Count(ctx context.Context) (int64, error)
	GetByProductID(ctx context.Context, productID string) ([]entity.Review, error)
	GetPageByProductID(ctx context.Context, productID string, skip, limit int64) ([]entity.Review, error)
	CountByProductID(ctx context.Context, productID string) (int64, error)
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	DistinctProductIDs(ctx context.Context) ([]string, error)
}

// ProductRepository определяет методы для работы с товарами каталога в PostgreSQL
// Сервис отзывов только читает товар и перезаписывает его рейтинг
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error
}

// UserRepository определяет read-only доступ к пользователям Auth Service
// Возвращаются только поля, нужные для отображения автора отзыва
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Author, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Author, error)
}
