package entity

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review представляет отзыв о товаре в MongoDB
type Review struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID   string             `json:"product_id" bson:"product_id"` // UUID товара из каталога
	UserID      string             `json:"user_id" bson:"user_id"`       // UUID автора из Auth Service
	Rate        int                `json:"rate" bson:"rate"`             // Оценка, концептуально от 1 до 5
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// Product представляет товар каталога в PostgreSQL
// Сервис отзывов читает товар для проверки существования
// и перезаписывает поле rating после пересчета
type Product struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Rating    float64   `json:"rating"` // Среднее арифметическое оценок всех отзывов товара
	CreatedAt time.Time `json:"created_at"`
}

// Author - минимальная проекция пользователя из Auth Service
// Наружу не отдаются никакие чувствительные поля кроме id и имени
type Author struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// User - аутентифицированный пользователь, разрешенный транспортным слоем
type User struct {
	ID   uuid.UUID
	Role string // "admin" или "user"
}

// RoleUser - роль обычного пользователя, все остальные роли считаются повышенными
const RoleUser = "user"

// ProductRating - агрегированная оценка товара, кешируется в Redis
type ProductRating struct {
	ProductID  uuid.UUID `json:"product_id"`
	Rate       float64   `json:"rate"`
	Count      int       `json:"count"`
	ComputedAt time.Time `json:"computed_at"`
}

// ReviewEvent представляет событие изменения отзыва для Kafka
type ReviewEvent struct {
	EventType string    `json:"event_type"` // REVIEW_CREATED, REVIEW_UPDATED, REVIEW_DELETED
	ReviewID  string    `json:"review_id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rate      int       `json:"rate"`
	Timestamp time.Time `json:"timestamp"`
}

// RatingEvent представляет событие пересчета оценки товара для Kafka
type RatingEvent struct {
	EventType string    `json:"event_type"` // RATING_RECOMPUTED
	ProductID string    `json:"product_id"`
	Rate      float64   `json:"rate"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}
