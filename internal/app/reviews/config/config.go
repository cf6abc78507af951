package config

import (
	"os"
	"strconv"
)

// Config содержит все настройки Reviews Service
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	CatalogDB PostgresConfig
	AuthDB    PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	Reviews   ReviewsConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8084)
}

// MongoDBConfig - настройки подключения к MongoDB с отзывами
type MongoDBConfig struct {
	URI      string // URI подключения к MongoDB
	Database string // Имя базы данных
}

// PostgresConfig - настройки подключения к PostgreSQL
// Каталог (товары) и Auth (пользователи) живут в разных базах
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string // disable/require/verify-full
}

// RedisConfig - настройки Redis для кеша агрегированных оценок
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int // Номер БД Redis (0-15)
}

// KafkaConfig - настройки Kafka для событий об отзывах и оценках
type KafkaConfig struct {
	Brokers []string // Список брокеров Kafka (формат: host:port)
	Topic   string   // Топик для событий REVIEW_* и RATING_RECOMPUTED
}

// JWTConfig - настройки проверки JWT токенов
type JWTConfig struct {
	Secret string // Секретный ключ, должен совпадать с Auth Service
}

// ReviewsConfig - настройки бизнес-логики отзывов
type ReviewsConfig struct {
	DefaultPageSize   int    // Размер страницы, если _limit не передан или не число
	DefaultRate       int    // Оценка по умолчанию при создании без rate
	ReconcileSchedule string // Cron-расписание фоновой сверки оценок
	SerializeRatings  bool   // Сериализовать пересчеты по одному товару через mutex
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		redisDB = 0
	}

	pageSize, err := strconv.Atoi(getEnv("REVIEWS_PAGE_SIZE", "8"))
	if err != nil || pageSize <= 0 {
		pageSize = 8
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8084"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "reviews_service"),
		},
		CatalogDB: PostgresConfig{
			Host:     getEnv("CATALOG_DB_HOST", "localhost"),
			Port:     getEnv("CATALOG_DB_PORT", "5432"),
			User:     getEnv("CATALOG_DB_USER", "postgres"),
			Password: getEnv("CATALOG_DB_PASSWORD", "postgres"),
			DBName:   getEnv("CATALOG_DB_NAME", "catalog_service"),
			SSLMode:  getEnv("CATALOG_DB_SSLMODE", "disable"),
		},
		AuthDB: PostgresConfig{
			Host:     getEnv("AUTH_DB_HOST", "localhost"),
			Port:     getEnv("AUTH_DB_PORT", "5432"),
			User:     getEnv("AUTH_DB_USER", "postgres"),
			Password: getEnv("AUTH_DB_PASSWORD", "postgres"),
			DBName:   getEnv("AUTH_DB_NAME", "auth_service"),
			SSLMode:  getEnv("AUTH_DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "review_events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Reviews: ReviewsConfig{
			DefaultPageSize:   pageSize,
			DefaultRate:       5,
			ReconcileSchedule: getEnv("REVIEWS_RECONCILE_SCHEDULE", "@every 1h"),
			SerializeRatings:  getEnv("REVIEWS_SERIALIZE_RATINGS", "false") == "true",
		},
	}, nil
}

// Address возвращает адрес HTTP сервера
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
