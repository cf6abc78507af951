//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"juneplums/internal/app/reviews/config"
	"juneplums/internal/app/reviews/entity"
	"juneplums/internal/app/reviews/handler"
	"juneplums/internal/app/reviews/repository"
	"juneplums/internal/app/reviews/repository/mocks"
	"juneplums/internal/app/reviews/service"
	"juneplums/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Отзывы живут в настоящем MongoDB, каталог/пользователи/кеш замоканы:
// интеграционный интерес здесь - согласованность рейтинга с хранилищем отзывов
type ReviewsIntegrationTestSuite struct {
	suite.Suite
	client        *mongo.Client
	db            *mongo.Database
	router        *gin.Engine
	reviewService *service.ReviewService
	productRepo   *mocks.MockProductRepository
	userRepo      *mocks.MockUserRepository
	ratingCache   *mocks.MockRatingCache
	kafkaProducer *mocks.MockMessagePublisher
	testUserID    uuid.UUID
	testProductID uuid.UUID
	lastRating    float64
}

func TestReviewsIntegrationSuite(t *testing.T) {
	suite.Run(t, new(ReviewsIntegrationTestSuite))
}

func (s *ReviewsIntegrationTestSuite) SetupSuite() {
	logger.InitWithWriter("reviews-service-test", "error", io.Discard)

	mongoURI := getEnv("TEST_MONGODB_URI", "mongodb://localhost:27018")
	dbName := getEnv("TEST_MONGODB_DATABASE", "reviews_test_db")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	s.client, err = mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	s.Require().NoError(err)

	s.db = s.client.Database(dbName)

	s.testUserID = uuid.New()
	s.testProductID = uuid.New()

	gin.SetMode(gin.TestMode)
}

func (s *ReviewsIntegrationTestSuite) SetupTest() {
	ctx := context.Background()
	s.db.Collection("reviews").Drop(ctx)

	reviewRepo := repository.NewReviewRepository(s.db)

	s.productRepo = new(mocks.MockProductRepository)
	s.userRepo = new(mocks.MockUserRepository)
	s.ratingCache = new(mocks.MockRatingCache)
	s.kafkaProducer = &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	s.lastRating = -1

	s.productRepo.On("GetByID", mock.Anything, s.testProductID).
		Return(&entity.Product{ID: s.testProductID}, nil)
	s.productRepo.On("UpdateRating", mock.Anything, s.testProductID, mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		s.lastRating = args.Get(2).(float64)
	})
	s.userRepo.On("GetByID", mock.Anything, mock.Anything).
		Return(&entity.Author{ID: s.testUserID, Name: "Test User"}, nil)
	s.userRepo.On("GetByIDs", mock.Anything, mock.Anything).
		Return(map[uuid.UUID]entity.Author{s.testUserID: {ID: s.testUserID, Name: "Test User"}}, nil)
	s.ratingCache.On("GetRating", mock.Anything, mock.Anything).Return(nil, nil)
	s.ratingCache.On("SetRating", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.kafkaProducer.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	cfg := config.ReviewsConfig{DefaultPageSize: 8, DefaultRate: 5}
	s.reviewService = service.NewReviewService(reviewRepo, s.productRepo, s.userRepo, s.ratingCache, s.kafkaProducer, cfg)

	reviewHandler := handler.NewReviewHandler(s.reviewService)

	authMiddleware := func(c *gin.Context) {
		c.Set("user_id", s.testUserID.String())
		c.Set("role_name", "user")
		c.Next()
	}

	s.router = gin.New()
	reviews := s.router.Group("/reviews")
	reviews.GET("", reviewHandler.ListReviews)
	reviews.GET("/product/:product_id", reviewHandler.ListReviewsForProduct)
	reviews.GET("/product/:product_id/rating", reviewHandler.GetProductRating)
	reviews.POST("/product/:product_id", authMiddleware, reviewHandler.CreateReview)
	reviews.PATCH("/:review_id", authMiddleware, reviewHandler.UpdateReview)
	reviews.DELETE("/:review_id", authMiddleware, reviewHandler.DeleteReview)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}

func (s *ReviewsIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(ctx)
	}
}

func (s *ReviewsIntegrationTestSuite) createReview(rate int, title, description string) entity.ReviewView {
	body, _ := json.Marshal(map[string]interface{}{
		"rate":        rate,
		"title":       title,
		"description": description,
	})
	req, _ := http.NewRequest(http.MethodPost, "/reviews/product/"+s.testProductID.String(), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusCreated, w.Code)

	var response struct {
		Message string            `json:"message"`
		Data    entity.ReviewView `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response.Data
}

func (s *ReviewsIntegrationTestSuite) TestCreateReview_Success() {
	review := s.createReview(5, "Excellent", "Excellent product!")

	s.NotEmpty(review.ID)
	s.Equal(5, review.Rate)
	s.Equal(s.testProductID.String(), review.ProductID)
	s.Equal(5.0, s.lastRating)
	s.NotEmpty(s.kafkaProducer.Messages)
}

func (s *ReviewsIntegrationTestSuite) TestCreateReviews_RatingIsMean() {
	s.createReview(5, "Great", "Great product")
	s.createReview(3, "Average", "Average product")
	s.createReview(4, "Good", "Good product")

	// Рейтинг товара - среднее арифметическое всех его оценок
	s.Equal(4.0, s.lastRating)
}

func (s *ReviewsIntegrationTestSuite) TestListReviewsForProduct() {
	for i := 0; i < 3; i++ {
		s.createReview(i+3, "Review", "Test review text here.")
	}

	req, _ := http.NewRequest(http.MethodGet, "/reviews/product/"+s.testProductID.String(), nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var response entity.ReviewListResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Equal(3, response.Total)
	// Списочные выдачи не содержат внутренний идентификатор
	for _, review := range response.Reviews {
		s.Empty(review.ID)
	}
}

func (s *ReviewsIntegrationTestSuite) TestListReviews_SearchNarrowsTotal() {
	s.createReview(5, "Crunchy plums", "So good")
	s.createReview(4, "Soft fruit", "Not crunchy at all")
	s.createReview(3, "Meh", "Nothing special")

	req, _ := http.NewRequest(http.MethodGet, "/reviews?q=crunchy", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var response entity.ReviewListResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Equal(2, response.Total)
}

func (s *ReviewsIntegrationTestSuite) TestUpdateReview_RateTriggersRecompute() {
	created := s.createReview(3, "Average", "Average product here.")

	body, _ := json.Marshal(map[string]interface{}{"rate": 5, "title": "Updated: great product!"})
	req, _ := http.NewRequest(http.MethodPatch, "/reviews/"+created.ID, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	s.Equal(5.0, s.lastRating)

	var response struct {
		Data entity.ReviewView `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Equal(5, response.Data.Rate)
	s.Equal("Updated: great product!", response.Data.Title)
}

func (s *ReviewsIntegrationTestSuite) TestDeleteReview_RecomputesToZero() {
	created := s.createReview(4, "Good", "Good product here.")

	req, _ := http.NewRequest(http.MethodDelete, "/reviews/"+created.ID, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	// Последний отзыв удален - рейтинг перезаписан явным нулем
	s.Equal(0.0, s.lastRating)
}

func (s *ReviewsIntegrationTestSuite) TestHealthCheck() {
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
