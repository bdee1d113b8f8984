package dto

import (
	"time"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
)

// ResultDTO — результат сдачи в редактированном виде: оценка и счётчики,
// без присланных ответов и без ключа
type ResultDTO struct {
	ID             string    `json:"id"`
	TestID         string    `json:"test_id"`
	Score          int       `json:"score"`
	CorrectCount   int       `json:"correct_count"`
	TotalQuestions int       `json:"total_questions"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// AdminResultDTO — результат для администратора, с именем студента
type AdminResultDTO struct {
	ID             string    `json:"id"`
	TestID         string    `json:"test_id"`
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	Score          int       `json:"score"`
	CorrectCount   int       `json:"correct_count"`
	TotalQuestions int       `json:"total_questions"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// PaginatedResultsResponse — пагинированный список результатов теста
type PaginatedResultsResponse struct {
	Results []AdminResultDTO `json:"results"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// NewResultDTO строит редактированное представление результата
func NewResultDTO(r *entity.Result) *ResultDTO {
	return &ResultDTO{
		ID:             r.ID,
		TestID:         r.TestID,
		Score:          r.Score,
		CorrectCount:   r.CorrectCount,
		TotalQuestions: r.TotalQuestions,
		SubmittedAt:    r.SubmittedAt,
	}
}

// NewAdminResultDTO строит представление результата для администратора
func NewAdminResultDTO(r *entity.Result) AdminResultDTO {
	return AdminResultDTO{
		ID:             r.ID,
		TestID:         r.TestID,
		UserID:         r.UserID,
		Username:       r.Username,
		Score:          r.Score,
		CorrectCount:   r.CorrectCount,
		TotalQuestions: r.TotalQuestions,
		SubmittedAt:    r.SubmittedAt,
	}
}
