package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"juneplums/internal/app/reviews/entity"
	"juneplums/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ReviewServiceInterface interface {
	ListReviews(ctx context.Context, page, limit int, query string) (*entity.ReviewListResponse, error)
	ListReviewsForProduct(ctx context.Context, productID uuid.UUID, page, limit int) (*entity.ReviewListResponse, error)
	GetProductRating(ctx context.Context, productID uuid.UUID) (*entity.ProductRating, error)
	CreateReview(ctx context.Context, productID uuid.UUID, req *entity.CreateReviewRequest, user *entity.User) (*entity.ReviewView, error)
	UpdateReview(ctx context.Context, reviewID string, req *entity.UpdateReviewRequest, user *entity.User) (*entity.ReviewView, error)
	DeleteReview(ctx context.Context, reviewID string, user *entity.User) error
}

type ReviewHandler struct {
	reviewService ReviewServiceInterface
	validator     *validator.Validate
}

func NewReviewHandler(reviewService ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     validator.New(),
	}
}

// ListReviews обрабатывает GET /reviews?_page=&_limit=&q=
// Нечисловые _page/_limit молча заменяются значениями по умолчанию
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	page := parseIntQuery(c, "_page")
	limit := parseIntQuery(c, "_limit")
	query := c.Query("q")

	response, err := h.reviewService.ListReviews(c.Request.Context(), page, limit, query)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListReviewsForProduct обрабатывает GET /reviews/product/:product_id
func (h *ReviewHandler) ListReviewsForProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	page := parseIntQuery(c, "_page")
	limit := parseIntQuery(c, "_limit")

	response, err := h.reviewService.ListReviewsForProduct(c.Request.Context(), productID, page, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetProductRating обрабатывает GET /reviews/product/:product_id/rating
func (h *ReviewHandler) GetProductRating(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	rating, err := h.reviewService.GetProductRating(c.Request.Context(), productID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

// CreateReview обрабатывает POST /reviews/product/:product_id
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var req entity.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), productID, &req, user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity.SuccessResponse{
		Message: "Review created successfully",
		Data:    review,
	})
}

// UpdateReview обрабатывает PATCH /reviews/:review_id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	var req entity.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), reviewID, &req, user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Review updated successfully",
		Data:    review,
	})
}

// DeleteReview обрабатывает DELETE /reviews/:review_id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	reviewID := c.Param("review_id")
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review ID is required"})
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), reviewID, user); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Review deleted successfully",
	})
}

// writeError переводит ошибки бизнес-логики в HTTP статусы
// Внутри ошибки различаются, наружу уходит только статус и короткое сообщение
func (h *ReviewHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, service.ErrNoReviews):
		c.JSON(http.StatusNotFound, gin.H{"error": "No reviews found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Operation failed"})
	}
}

// currentUser достает аутентифицированного пользователя из контекста Gin
func currentUser(c *gin.Context) (*entity.User, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}

	userIDStr, ok := userID.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID"})
		return nil, false
	}

	id, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return nil, false
	}

	role := entity.RoleUser
	if roleName, exists := c.Get("role_name"); exists {
		if s, ok := roleName.(string); ok && s != "" {
			role = s
		}
	}

	return &entity.User{ID: id, Role: role}, true
}

func parseProductID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("product_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
		return uuid.Nil, false
	}

	productID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return uuid.Nil, false
	}

	return productID, true
}

// parseIntQuery возвращает 0 для отсутствующих или нечисловых значений,
// подстановку значений по умолчанию выполняет service layer
func parseIntQuery(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
