package service

import (
	"context"

	"juneplums/internal/app/reviews/entity"

	"github.com/google/uuid"
)

const serviceName = "reviews-service"

// ReviewServiceInterface - полный контракт сервиса отзывов
// Используется обработчиками HTTP и фоновой сверкой рейтингов
type ReviewServiceInterface interface {
	ListReviews(ctx context.Context, page, limit int, query string) (*entity.ReviewListResponse, error)
	ListReviewsForProduct(ctx context.Context, productID uuid.UUID, page, limit int) (*entity.ReviewListResponse, error)
	GetProductRating(ctx context.Context, productID uuid.UUID) (*entity.ProductRating, error)
	CreateReview(ctx context.Context, productID uuid.UUID, req *entity.CreateReviewRequest, user *entity.User) (*entity.ReviewView, error)
	UpdateReview(ctx context.Context, reviewID string, req *entity.UpdateReviewRequest, user *entity.User) (*entity.ReviewView, error)
	DeleteReview(ctx context.Context, reviewID string, user *entity.User) error
	ReconcileRatings(ctx context.Context) (int, error)
}
