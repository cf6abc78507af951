//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"juneplums/internal/app/reviews/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Для e2e нужен запущенный сервис и валидный JWT с ролью user,
// а также существующий товар каталога (E2E_PRODUCT_ID)
var (
	BaseURL   = getEnv("E2E_BASE_URL", "http://localhost:8084")
	AuthToken = getEnv("E2E_AUTH_TOKEN", "test-jwt-token")
	ProductID = getEnv("E2E_PRODUCT_ID", uuid.NewString())
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getAuthHeaders() http.Header {
	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	headers.Set("Authorization", "Bearer "+AuthToken)
	return headers
}

type successResponse struct {
	Message string            `json:"message"`
	Data    entity.ReviewView `json:"data"`
}

func TestFullReviewFlow(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	// Create
	body, _ := json.Marshal(map[string]interface{}{
		"rate":        4,
		"title":       "Good product",
		"description": "Good product here.",
	})

	req, _ := http.NewRequest(http.MethodPost, BaseURL+"/reviews/product/"+ProductID, bytes.NewBuffer(body))
	req.Header = getAuthHeaders()

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created successResponse
	json.NewDecoder(resp.Body).Decode(&created)
	reviewID := created.Data.ID
	require.NotEmpty(t, reviewID)

	defer func() {
		req, _ := http.NewRequest(http.MethodDelete, BaseURL+"/reviews/"+reviewID, nil)
		req.Header = getAuthHeaders()
		resp, _ := client.Do(req)
		if resp != nil {
			resp.Body.Close()
		}
	}()

	// List by product
	resp, err = client.Get(BaseURL + "/reviews/product/" + ProductID)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listResp entity.ReviewListResponse
	json.NewDecoder(resp.Body).Decode(&listResp)
	assert.GreaterOrEqual(t, listResp.Total, 1)

	// Rating
	resp, err = client.Get(BaseURL + "/reviews/product/" + ProductID + "/rating")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rating entity.ProductRating
	json.NewDecoder(resp.Body).Decode(&rating)
	assert.GreaterOrEqual(t, rating.Count, 1)

	// Update
	body, _ = json.Marshal(map[string]interface{}{"rate": 5, "title": "Updated: excellent!"})

	req, _ = http.NewRequest(http.MethodPatch, BaseURL+"/reviews/"+reviewID, bytes.NewBuffer(body))
	req.Header = getAuthHeaders()

	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated successResponse
	json.NewDecoder(resp.Body).Decode(&updated)
	assert.Equal(t, 5, updated.Data.Rate)
}

func TestGetReviewsForUnknownProduct(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(BaseURL + "/reviews/product/" + uuid.NewString())
	require.NoError(t, err)
	defer resp.Body.Close()

	// Неизвестный товар или товар без отзывов - 404, а не пустой список
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateNonExistentReview(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	body, _ := json.Marshal(map[string]interface{}{"rate": 5})

	req, _ := http.NewRequest(http.MethodPatch, BaseURL+"/reviews/"+primitive.NewObjectID().Hex(), bytes.NewBuffer(body))
	req.Header = getAuthHeaders()

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteNonExistentReview(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	req, _ := http.NewRequest(http.MethodDelete, BaseURL+"/reviews/"+primitive.NewObjectID().Hex(), nil)
	req.Header = getAuthHeaders()

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnauthorizedAccess(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	body, _ := json.Marshal(map[string]interface{}{
		"rate":        5,
		"title":       "Test",
		"description": "Test review.",
	})

	req, _ := http.NewRequest(http.MethodPost, BaseURL+"/reviews/product/"+ProductID, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(BaseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestCreateReview_ValidationErrors тестирует валидацию
func TestCreateReview_ValidationErrors(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	testCases := []struct {
		name    string
		request map[string]interface{}
	}{
		{
			name: "Missing title",
			request: map[string]interface{}{
				"rate":        5,
				"description": "Достаточно длинный текст отзыва.",
			},
		},
		{
			name: "Missing description",
			request: map[string]interface{}{
				"rate":  5,
				"title": "Заголовок",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.request)

			req, _ := http.NewRequest(http.MethodPost, BaseURL+"/reviews/product/"+ProductID, bytes.NewBuffer(body))
			req.Header = getAuthHeaders()

			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

// TestInvalidProductID тестирует невалидный UUID товара
func TestInvalidProductID(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	invalidIDs := []string{"invalid-id", "123", "not-a-uuid"}

	for _, invalidID := range invalidIDs {
		t.Run("Get_"+invalidID, func(t *testing.T) {
			resp, err := client.Get(BaseURL + "/reviews/product/" + invalidID)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

// TestDefaultRate тестирует подстановку оценки по умолчанию
func TestDefaultRate(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	body, _ := json.Marshal(map[string]interface{}{
		"title":       "Без оценки",
		"description": "Отзыв без явной оценки.",
	})

	req, _ := http.NewRequest(http.MethodPost, BaseURL+"/reviews/product/"+ProductID, bytes.NewBuffer(body))
	req.Header = getAuthHeaders()

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created successResponse
	json.NewDecoder(resp.Body).Decode(&created)
	assert.Equal(t, 5, created.Data.Rate)

	// Cleanup
	if created.Data.ID != "" {
		req, _ := http.NewRequest(http.MethodDelete, BaseURL+"/reviews/"+created.Data.ID, nil)
		req.Header = getAuthHeaders()
		resp, _ := client.Do(req)
		if resp != nil {
			resp.Body.Close()
		}
	}
}
