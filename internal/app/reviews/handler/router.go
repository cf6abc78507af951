package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"juneplums/pkg/logger"
	"juneplums/pkg/metrics"
)

func SetupRoutes(reviewHandler *ReviewHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware("reviews-service"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "reviews-service",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	reviews := router.Group("/reviews")
	{
		// Чтение отзывов и рейтингов доступно без аутентификации
		reviews.GET("", reviewHandler.ListReviews)
		reviews.GET("/product/:product_id", reviewHandler.ListReviewsForProduct)
		reviews.GET("/product/:product_id/rating", reviewHandler.GetProductRating)

		// Мутации требуют JWT
		protected := reviews.Group("")
		protected.Use(authMiddleware.Authenticate())
		{
			protected.POST("/product/:product_id", reviewHandler.CreateReview)
			protected.PATCH("/:review_id", reviewHandler.UpdateReview)
			protected.DELETE("/:review_id", reviewHandler.DeleteReview)
		}
	}

	return router
}
