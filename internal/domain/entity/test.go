package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Типы вопросов
const (
	QuestionTypeMultipleChoice = "multiple-choice"
	QuestionTypeMultipleAnswer = "multiple-answer"
	QuestionTypeText           = "text"
)

// Option — вариант ответа на вопрос. Флаг Correct сериализуется в JSONB,
// от клиента он скрывается на уровне DTO (см. handler/dto), а не здесь.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// OptionArray - пользовательский тип для работы с JSONB
type OptionArray []Option

// Scan реализует интерфейс sql.Scanner для OptionArray
// Используется GORM для чтения JSONB данных из базы
func (o *OptionArray) Scan(value interface{}) error {
	if value == nil {
		*o = OptionArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = OptionArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для OptionArray
// Используется GORM для записи OptionArray в JSONB в базе
func (o OptionArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Question представляет вопрос теста
type Question struct {
	ID            string      `gorm:"type:uuid;primaryKey" json:"id"`
	TestID        string      `gorm:"type:uuid;not null;index" json:"test_id"`
	Text          string      `gorm:"size:500;not null" json:"text"`
	Type          string      `gorm:"size:20;not null" json:"type"`
	Options       OptionArray `gorm:"type:jsonb;not null" json:"options"`
	CorrectAnswer string      `gorm:"size:500;not null;default:''" json:"-"` // Эталон для type=text, скрыт от клиента
	Position      int         `gorm:"not null;default:0" json:"position"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// CorrectOptionID возвращает id единственного правильного варианта
// (для multiple-choice). Пустая строка, если такого нет.
func (q *Question) CorrectOptionID() string {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.ID
		}
	}
	return ""
}

// CorrectOptionIDs возвращает id всех правильных вариантов (для multiple-answer)
func (q *Question) CorrectOptionIDs() []string {
	var ids []string
	for _, opt := range q.Options {
		if opt.Correct {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// Test представляет тест, который проходят студенты
type Test struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"size:1000;not null;default:''" json:"description"`
	Questions   []Question `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"questions"`
	CreatedBy   string     `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Test) TableName() string {
	return "tests"
}

// QuestionCount возвращает полное число вопросов теста.
// Именно оно, а не число присланных ответов, является знаменателем оценки.
func (t *Test) QuestionCount() int {
	return len(t.Questions)
}

// FindQuestion возвращает вопрос теста по id или nil
func (t *Test) FindQuestion(questionID string) *Question {
	for i := range t.Questions {
		if t.Questions[i].ID == questionID {
			return &t.Questions[i]
		}
	}
	return nil
}
