package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"juneplums/internal/app/reviews/config"
	"juneplums/internal/app/reviews/entity"
	"juneplums/internal/app/reviews/infrastructure"
	"juneplums/internal/app/reviews/repository"
	"juneplums/internal/app/reviews/util"
	"juneplums/pkg/logger"
	"juneplums/pkg/metrics"

	"github.com/google/uuid"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	// Наружу все они сводятся к одному "operation failed", но внутри различаются
	ErrReviewNotFound  = errors.New("review not found")
	ErrProductNotFound = errors.New("product not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoReviews       = errors.New("no reviews for product")
)

const ratingCacheTTL = time.Hour

// ReviewService обрабатывает бизнес-логику отзывов
// Центральный инвариант: после каждой мутации отзыва рейтинг товара
// синхронно пересчитывается с нуля по всем его текущим отзывам
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	ratingCache util.RatingCache
	producer    infrastructure.MessagePublisher
	cfg         config.ReviewsConfig

	// Ленивая карта productID -> *sync.Mutex, активна только при SerializeRatings
	productLocks sync.Map
}

// NewReviewService создает новый сервис отзывов с внедрением зависимостей
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	ratingCache util.RatingCache,
	producer infrastructure.MessagePublisher,
	cfg config.ReviewsConfig,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		ratingCache: ratingCache,
		producer:    producer,
		cfg:         cfg,
	}
}

// ListReviews возвращает страницу всех отзывов, новые первыми
// Поиск query сужает набор по подстроке в title или description без учета регистра;
// total при поиске равен размеру суженного набора, и страницы считаются от него
func (s *ReviewService) ListReviews(ctx context.Context, page, limit int, query string) (*entity.ReviewListResponse, error) {
	page, limit = s.normalizePage(page, limit)

	reviews, err := s.reviewRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	total, err := s.reviewRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	if query != "" {
		q := strings.ToLower(query)
		filtered := make([]entity.Review, 0, len(reviews))
		for _, review := range reviews {
			if strings.Contains(strings.ToLower(review.Title), q) ||
				strings.Contains(strings.ToLower(review.Description), q) {
				filtered = append(filtered, review)
			}
		}
		reviews = filtered
		total = int64(len(filtered))
	}

	pageItems := paginate(reviews, page, limit)

	views, err := s.attachAuthors(ctx, pageItems, true)
	if err != nil {
		return nil, err
	}

	return &entity.ReviewListResponse{Reviews: views, Total: int(total)}, nil
}

// ListReviewsForProduct возвращает страницу отзывов одного товара
// Пагинация делегирована хранилищу (skip/limit), total - число всех отзывов товара
// Товар без единого отзыва считается ошибкой, а не пустым успехом
func (s *ReviewService) ListReviewsForProduct(ctx context.Context, productID uuid.UUID, page, limit int) (*entity.ReviewListResponse, error) {
	page, limit = s.normalizePage(page, limit)

	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	total, err := s.reviewRepo.CountByProductID(ctx, productID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	skip := int64(page-1) * int64(limit)
	reviews, err := s.reviewRepo.GetPageByProductID(ctx, productID.String(), skip, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	if len(reviews) == 0 || total == 0 {
		return nil, ErrNoReviews
	}

	views, err := s.attachAuthors(ctx, reviews, true)
	if err != nil {
		return nil, err
	}

	return &entity.ReviewListResponse{Reviews: views, Total: int(total)}, nil
}

// GetProductRating возвращает агрегированную оценку товара
// Сначала смотрит в Redis, при промахе считает по отзывам и кеширует
func (s *ReviewService) GetProductRating(ctx context.Context, productID uuid.UUID) (*entity.ProductRating, error) {
	rating, err := s.ratingCache.GetRating(ctx, productID)
	if err != nil {
		logger.Warn().Err(err).Str("product_id", productID.String()).Msg("Rating cache read failed")
	}
	if rating != nil {
		metrics.RecordCacheHit(serviceName, "rating")
		return rating, nil
	}
	metrics.RecordCacheMiss(serviceName, "rating")

	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	reviews, err := s.reviewRepo.GetByProductID(ctx, productID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	rating = &entity.ProductRating{
		ProductID:  productID,
		Rate:       meanRate(reviews),
		Count:      len(reviews),
		ComputedAt: time.Now(),
	}

	if err := s.ratingCache.SetRating(ctx, rating, ratingCacheTTL); err != nil {
		logger.Warn().Err(err).Str("product_id", productID.String()).Msg("Rating cache write failed")
	}

	return rating, nil
}

// CreateReview создает новый отзыв и синхронно пересчитывает рейтинг товара
// Оценка по умолчанию подставляется, если rate не передан или нулевой
func (s *ReviewService) CreateReview(ctx context.Context, productID uuid.UUID, req *entity.CreateReviewRequest, user *entity.User) (*entity.ReviewView, error) {
	if user == nil || req.Title == "" || req.Description == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	rate := s.cfg.DefaultRate
	if req.Rate != nil && *req.Rate != 0 {
		rate = *req.Rate
	}

	review := &entity.Review{
		ProductID:   productID.String(),
		UserID:      user.ID.String(),
		Rate:        rate,
		Title:       req.Title,
		Description: req.Description,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	// Мутация и пересчет - одна единица работы: сбой пересчета валит всю операцию
	if _, err := s.recomputeRating(ctx, productID); err != nil {
		return nil, err
	}

	s.publishReviewEvent(ctx, "REVIEW_CREATED", review)
	metrics.ReviewsCreated.Inc()

	author := s.lookupAuthor(ctx, user.ID)
	view := review.View(author)
	return &view, nil
}

// UpdateReview обновляет отзыв, редактировать может только автор
// Роль здесь не играет: даже администратор не правит чужой текст
// Пересчет рейтинга выполняется только если передан ненулевой rate
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID string, req *entity.UpdateReviewRequest, user *entity.User) (*entity.ReviewView, error) {
	if user == nil || reviewID == "" {
		return nil, ErrInvalidInput
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if review.UserID != user.ID.String() {
		return nil, ErrForbidden
	}

	// Пустые значения оставляют сохраненные поля без изменений
	fields := make(map[string]interface{})
	if req.Title != "" {
		fields["title"] = req.Title
	}
	if req.Description != "" {
		fields["description"] = req.Description
	}

	rateChanged := req.Rate != nil && *req.Rate != 0
	if rateChanged {
		fields["rate"] = *req.Rate
	}

	if err := s.reviewRepo.Update(ctx, reviewID, fields); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	if rateChanged {
		productID, err := uuid.Parse(review.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id on review: %w", err)
		}
		if _, err := s.recomputeRating(ctx, productID); err != nil {
			return nil, err
		}
	}

	updated, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload review: %w", err)
	}

	s.publishReviewEvent(ctx, "REVIEW_UPDATED", updated)

	author := s.lookupAuthor(ctx, user.ID)
	view := updated.View(author)
	return &view, nil
}

// DeleteReview удаляет отзыв и пересчитывает рейтинг товара
// Разрешено автору отзыва либо любой повышенной роли
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string, user *entity.User) error {
	if user == nil || reviewID == "" {
		return ErrInvalidInput
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to get review: %w", err)
	}

	if user.Role == entity.RoleUser && review.UserID != user.ID.String() {
		return ErrForbidden
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}

	productID, err := uuid.Parse(review.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product id on review: %w", err)
	}
	if _, err := s.recomputeRating(ctx, productID); err != nil {
		return err
	}

	s.publishReviewEvent(ctx, "REVIEW_DELETED", review)
	metrics.ReviewsDeleted.Inc()

	return nil
}

// ReconcileRatings пересчитывает рейтинги всех товаров, у которых есть отзывы
// Фоновая сверка чинит дрейф от конкурентных пересчетов (last-writer-wins)
func (s *ReviewService) ReconcileRatings(ctx context.Context) (int, error) {
	ids, err := s.reviewRepo.DistinctProductIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list reviewed products: %w", err)
	}

	recomputed := 0
	for _, id := range ids {
		productID, err := uuid.Parse(id)
		if err != nil {
			logger.Warn().Str("product_id", id).Msg("Skipping review with malformed product id")
			continue
		}
		if _, err := s.recomputeRating(ctx, productID); err != nil {
			logger.Error().Err(err).Str("product_id", id).Msg("Failed to reconcile product rating")
			continue
		}
		recomputed++
	}

	return recomputed, nil
}

// recomputeRating пересчитывает рейтинг товара с нуля по всем его отзывам
// Значение перезаписывается целиком; ноль отзывов дает явный рейтинг 0
// Ошибка пересчета считается ошибкой всей охватывающей операции
func (s *ReviewService) recomputeRating(ctx context.Context, productID uuid.UUID) (*entity.ProductRating, error) {
	if s.cfg.SerializeRatings {
		lock := s.productLock(productID)
		lock.Lock()
		defer lock.Unlock()
	}

	start := time.Now()

	reviews, err := s.reviewRepo.GetByProductID(ctx, productID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews for rating: %w", err)
	}

	rating := &entity.ProductRating{
		ProductID:  productID,
		Rate:       meanRate(reviews),
		Count:      len(reviews),
		ComputedAt: time.Now(),
	}

	if err := s.productRepo.UpdateRating(ctx, productID, rating.Rate); err != nil {
		return nil, fmt.Errorf("failed to store product rating: %w", err)
	}

	metrics.RatingRecomputes.Inc()
	metrics.RatingRecomputeDuration.Observe(time.Since(start).Seconds())

	if err := s.ratingCache.SetRating(ctx, rating, ratingCacheTTL); err != nil {
		// Кеш не источник истины, протухший ключ добьет TTL
		logger.Warn().Err(err).Str("product_id", productID.String()).Msg("Rating cache refresh failed")
	}

	s.publishRatingEvent(ctx, rating)

	return rating, nil
}

// meanRate возвращает среднее арифметическое оценок, 0 для пустого набора
func meanRate(reviews []entity.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rate
	}
	return float64(sum) / float64(len(reviews))
}

// paginate вырезает страницу из набора, отступ считается от начала набора
func paginate(reviews []entity.Review, page, limit int) []entity.Review {
	start := (page - 1) * limit
	if start >= len(reviews) {
		return []entity.Review{}
	}
	end := start + limit
	if end > len(reviews) {
		end = len(reviews)
	}
	return reviews[start:end]
}

func (s *ReviewService) normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.cfg.DefaultPageSize
	}
	return page, limit
}

func (s *ReviewService) productLock(productID uuid.UUID) *sync.Mutex {
	lock, _ := s.productLocks.LoadOrStore(productID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// attachAuthors резолвит авторов батчем и строит наружные представления
// redact вычищает внутренний идентификатор верхнего уровня (списочные выдачи)
func (s *ReviewService) attachAuthors(ctx context.Context, reviews []entity.Review, redact bool) ([]entity.ReviewView, error) {
	ids := make([]uuid.UUID, 0, len(reviews))
	seen := make(map[uuid.UUID]struct{}, len(reviews))
	for _, review := range reviews {
		userID, err := uuid.Parse(review.UserID)
		if err != nil {
			continue
		}
		if _, ok := seen[userID]; !ok {
			seen[userID] = struct{}{}
			ids = append(ids, userID)
		}
	}

	authors, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve authors: %w", err)
	}

	views := make([]entity.ReviewView, 0, len(reviews))
	for i := range reviews {
		var author *entity.Author
		if userID, err := uuid.Parse(reviews[i].UserID); err == nil {
			if a, ok := authors[userID]; ok {
				author = &a
			}
		}
		view := reviews[i].View(author)
		if redact {
			view = view.Redact()
		}
		views = append(views, view)
	}

	return views, nil
}

// lookupAuthor резолвит одного автора, отсутствие автора не считается ошибкой
func (s *ReviewService) lookupAuthor(ctx context.Context, userID uuid.UUID) *entity.Author {
	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			logger.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to resolve review author")
		}
		return nil
	}
	return author
}

func (s *ReviewService) publishReviewEvent(ctx context.Context, eventType string, review *entity.Review) {
	event := entity.ReviewEvent{
		EventType: eventType,
		ReviewID:  review.ID.Hex(),
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rate:      review.Rate,
		Timestamp: time.Now(),
	}
	s.publish(ctx, event.ReviewID, event)
}

func (s *ReviewService) publishRatingEvent(ctx context.Context, rating *entity.ProductRating) {
	event := entity.RatingEvent{
		EventType: "RATING_RECOMPUTED",
		ProductID: rating.ProductID.String(),
		Rate:      rating.Rate,
		Count:     rating.Count,
		Timestamp: time.Now(),
	}
	s.publish(ctx, event.ProductID, event)
}

// publish отправляет событие в Kafka с ключом для партиционирования
// Хранилище - источник истины, ошибки отправки не валят операцию
func (s *ReviewService) publish(ctx context.Context, key string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal review event")
		return
	}

	if err := s.producer.PublishMessage(ctx, key, data); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish review event")
	}
}
