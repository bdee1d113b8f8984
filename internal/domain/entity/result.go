package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Answer — один ответ студента в составе результата. Поля заполнены в
// зависимости от типа вопроса: OptionID для multiple-choice, SelectedOptions
// для multiple-answer, Text для текстовых.
type Answer struct {
	QuestionID      string   `json:"question_id"`
	OptionID        string   `json:"option_id,omitempty"`
	SelectedOptions []string `json:"selected_options,omitempty"`
	Text            string   `json:"text,omitempty"`
	Correct         bool     `json:"correct"`
}

// AnswerArray - пользовательский тип для работы с JSONB
type AnswerArray []Answer

// Scan реализует интерфейс sql.Scanner для AnswerArray
func (a *AnswerArray) Scan(value interface{}) error {
	if value == nil {
		*a = AnswerArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*a = AnswerArray{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Value реализует интерфейс driver.Valuer для AnswerArray
func (a AnswerArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Result представляет итог прохождения теста. Создаётся один раз на сдачу и
// далее не изменяется; целиком выводится из пары (тест, ответы).
type Result struct {
	ID             string      `gorm:"type:uuid;primaryKey" json:"id"`
	TestID         string      `gorm:"type:uuid;not null;index" json:"test_id"`
	UserID         string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Username       string      `gorm:"size:50;not null;default:''" json:"username"`
	Answers        AnswerArray `gorm:"type:jsonb;not null" json:"answers"`
	Score          int         `gorm:"not null;default:0" json:"score"`
	CorrectCount   int         `gorm:"not null;default:0" json:"correct_count"`
	TotalQuestions int         `gorm:"not null;default:0" json:"total_questions"`
	SubmittedAt    time.Time   `gorm:"not null" json:"submitted_at"`
	CreatedAt      time.Time   `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Result) TableName() string {
	return "results"
}
