package service

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
)

// SubmittedAnswer — ответ студента в том виде, в котором его прислал клиент.
// Входные данные недоверенные: id вопросов и вариантов могут не существовать.
type SubmittedAnswer struct {
	QuestionID      string   `json:"question_id"`
	OptionID        string   `json:"option_id,omitempty"`
	SelectedOptions []string `json:"selected_options,omitempty"`
	Text            string   `json:"text,omitempty"`
}

// Grade оценивает присланные ответы против эталона теста. Чистая функция:
// одинаковая пара (тест, ответы) всегда даёт одинаковый результат, часы
// используются только для SubmittedAt.
//
// Знаменатель оценки — полное число вопросов теста: неотвеченные вопросы
// и ответы на несуществующие вопросы играют против студента.
func Grade(test *entity.Test, userID, username string, answers []SubmittedAnswer, submittedAt time.Time) *entity.Result {
	graded := make(entity.AnswerArray, 0, len(answers))
	correctCount := 0
	// Вопрос засчитывается не больше одного раза, даже если ответ прислан дважды
	counted := make(map[string]bool)

	for _, ans := range answers {
		question := test.FindQuestion(ans.QuestionID)
		correct := question != nil && gradeAnswer(question, ans)

		graded = append(graded, entity.Answer{
			QuestionID:      ans.QuestionID,
			OptionID:        ans.OptionID,
			SelectedOptions: ans.SelectedOptions,
			Text:            ans.Text,
			Correct:         correct,
		})

		if correct && !counted[ans.QuestionID] {
			counted[ans.QuestionID] = true
			correctCount++
		}
	}

	total := test.QuestionCount()
	score := 0
	if total > 0 {
		score = int(math.Round(float64(correctCount) / float64(total) * 100))
	}

	return &entity.Result{
		ID:             uuid.NewString(),
		TestID:         test.ID,
		UserID:         userID,
		Username:       username,
		Answers:        graded,
		Score:          score,
		CorrectCount:   correctCount,
		TotalQuestions: total,
		SubmittedAt:    submittedAt,
	}
}

// gradeAnswer применяет правило корректности, соответствующее типу вопроса
func gradeAnswer(q *entity.Question, ans SubmittedAnswer) bool {
	switch q.Type {
	case entity.QuestionTypeMultipleChoice:
		correctID := q.CorrectOptionID()
		return correctID != "" && ans.OptionID == correctID

	case entity.QuestionTypeMultipleAnswer:
		// Точное совпадение множеств: все правильные выбраны и ни одного лишнего
		return sameOptionSet(ans.SelectedOptions, q.CorrectOptionIDs())

	case entity.QuestionTypeText:
		expected := strings.TrimSpace(q.CorrectAnswer)
		if expected == "" {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(ans.Text), expected)

	default:
		return false
	}
}

// sameOptionSet сравнивает выбор студента с эталонным набором как множества
func sameOptionSet(selected, correct []string) bool {
	selectedSet := make(map[string]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}
	correctSet := make(map[string]bool, len(correct))
	for _, id := range correct {
		correctSet[id] = true
	}

	if len(selectedSet) != len(correctSet) {
		return false
	}
	for id := range correctSet {
		if !selectedSet[id] {
			return false
		}
	}
	return true
}
