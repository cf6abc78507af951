package entity

import "time"

// CreateReviewRequest - запрос на создание отзыва
// Rate необязателен: отсутствующее или нулевое значение заменяется значением по умолчанию
type CreateReviewRequest struct {
	Rate        *int   `json:"rate" validate:"omitempty"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
}

// UpdateReviewRequest - запрос на обновление отзыва
// Пустые поля оставляют сохраненные значения без изменений;
// пересчет оценки товара выполняется только если передан ненулевой Rate
type UpdateReviewRequest struct {
	Rate        *int   `json:"rate" validate:"omitempty"`
	Title       string `json:"title" validate:"omitempty,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// ReviewView - отзыв в том виде, в котором он отдается наружу
// Внутренний идентификатор верхнего уровня вычищается для списков,
// create/update возвращают его явно (hex)
type ReviewView struct {
	ID          string    `json:"id,omitempty"`
	ProductID   string    `json:"product_id"`
	Rate        int       `json:"rate"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Author      *Author   `json:"author,omitempty"`
}

// Redact убирает внутренний идентификатор верхнего уровня
// Вложенный author сохраняет свой id; повторное применение ничего не меняет
func (v ReviewView) Redact() ReviewView {
	v.ID = ""
	return v
}

// View строит наружное представление отзыва с заполненным идентификатором
func (r *Review) View(author *Author) ReviewView {
	return ReviewView{
		ID:          r.ID.Hex(),
		ProductID:   r.ProductID,
		Rate:        r.Rate,
		Title:       r.Title,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		Author:      author,
	}
}

// ReviewListResponse - ответ со списком отзывов
// Total при поиске равен размеру отфильтрованного набора, а не общему числу отзывов
type ReviewListResponse struct {
	Reviews []ReviewView `json:"reviews"`
	Total   int          `json:"total"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
