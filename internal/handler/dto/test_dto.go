package dto

import (
	"time"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
)

// OptionDTO — вариант ответа без флага правильности.
// Эталонные ответы наружу не отдаются.
type OptionDTO struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionDTO — вопрос теста в редактированном (без ключа) виде
type QuestionDTO struct {
	ID       string      `json:"id"`
	Text     string      `json:"text"`
	Type     string      `json:"type"`
	Options  []OptionDTO `json:"options,omitempty"`
	Position int         `json:"position"`
}

// TestDTO — тест для прохождения студентом: вопросы без эталонных ответов
type TestDTO struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Questions   []QuestionDTO `json:"questions"`
	CreatedAt   time.Time     `json:"created_at"`
}

// TestSummaryDTO — тест в списке, без вопросов
type TestSummaryDTO struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaginatedTestsResponse — пагинированный список тестов
type PaginatedTestsResponse struct {
	Tests   []TestSummaryDTO `json:"tests"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// NewTestDTO строит редактированное представление теста
func NewTestDTO(test *entity.Test) *TestDTO {
	questions := make([]QuestionDTO, 0, len(test.Questions))
	for _, q := range test.Questions {
		options := make([]OptionDTO, 0, len(q.Options))
		for _, opt := range q.Options {
			options = append(options, OptionDTO{ID: opt.ID, Text: opt.Text})
		}
		questions = append(questions, QuestionDTO{
			ID:       q.ID,
			Text:     q.Text,
			Type:     q.Type,
			Options:  options,
			Position: q.Position,
		})
	}
	return &TestDTO{
		ID:          test.ID,
		Title:       test.Title,
		Description: test.Description,
		Questions:   questions,
		CreatedAt:   test.CreatedAt,
	}
}

// NewTestSummaryDTO строит краткое представление теста для списка
func NewTestSummaryDTO(test *entity.Test) TestSummaryDTO {
	return TestSummaryDTO{
		ID:            test.ID,
		Title:         test.Title,
		Description:   test.Description,
		QuestionCount: test.QuestionCount(),
		CreatedAt:     test.CreatedAt,
	}
}
