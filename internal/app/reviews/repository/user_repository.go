package repository

import (
	"context"
	"errors"
	"fmt"

	"juneplums/internal/app/reviews/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создает read-only репозиторий пользователей Auth Service
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

// GetByID получает автора отзыва по ID
// Запрашиваются только id и имя, чувствительные поля наружу не выходят
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Author, error) {
	query := `SELECT id, name FROM users WHERE id = $1`

	var author entity.Author
	err := r.db.QueryRow(ctx, query, id).Scan(&author.ID, &author.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &author, nil
}

// GetByIDs получает авторов батчем для списочных выборок
// Отсутствующие пользователи просто не попадают в результат
func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Author, error) {
	authors := make(map[uuid.UUID]entity.Author, len(ids))
	if len(ids) == 0 {
		return authors, nil
	}

	query := `SELECT id, name FROM users WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var author entity.Author
		if err := rows.Scan(&author.ID, &author.Name); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		authors[author.ID] = author
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}

	return authors, nil
}
