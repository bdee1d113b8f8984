package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
)

func gradingTest() *entity.Test {
	return &entity.Test{
		ID:    "test-1",
		Title: "Математика",
		Questions: []entity.Question{
			{
				ID:   "q1",
				Type: entity.QuestionTypeMultipleChoice,
				Options: entity.OptionArray{
					{ID: "q1a", Text: "1"},
					{ID: "q1b", Text: "2", Correct: true},
					{ID: "q1c", Text: "3"},
				},
			},
			{
				ID:   "q2",
				Type: entity.QuestionTypeMultipleAnswer,
				Options: entity.OptionArray{
					{ID: "q2a", Text: "2", Correct: true},
					{ID: "q2b", Text: "3", Correct: true},
					{ID: "q2c", Text: "4"},
				},
			},
			{
				ID:            "q3",
				Type:          entity.QuestionTypeText,
				CorrectAnswer: "Пифагор",
			},
			{
				ID:   "q4",
				Type: entity.QuestionTypeMultipleChoice,
				Options: entity.OptionArray{
					{ID: "q4a", Text: "да", Correct: true},
					{ID: "q4b", Text: "нет"},
				},
			},
		},
	}
}

func TestGrade_AllCorrect(t *testing.T) {
	answers := []SubmittedAnswer{
		{QuestionID: "q1", OptionID: "q1b"},
		{QuestionID: "q2", SelectedOptions: []string{"q2b", "q2a"}},
		{QuestionID: "q3", Text: "  пифагор "},
		{QuestionID: "q4", OptionID: "q4a"},
	}

	result := Grade(gradingTest(), "user-1", "alice", answers, time.Now())

	assert.Equal(t, 4, result.CorrectCount)
	assert.Equal(t, 4, result.TotalQuestions)
	assert.Equal(t, 100, result.Score)
	require.Len(t, result.Answers, 4)
	for _, a := range result.Answers {
		assert.True(t, a.Correct, "answer %s", a.QuestionID)
	}
}

func TestGrade_ScoreUsesFullQuestionCount(t *testing.T) {
	// Отвечен один вопрос из четырёх: знаменатель — полное число вопросов
	answers := []SubmittedAnswer{
		{QuestionID: "q1", OptionID: "q1b"},
	}

	result := Grade(gradingTest(), "user-1", "alice", answers, time.Now())

	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 4, result.TotalQuestions)
	assert.Equal(t, 25, result.Score)
}

func TestGrade_MultipleAnswerExactSet(t *testing.T) {
	tests := []struct {
		name     string
		selected []string
		want     bool
	}{
		{"exact set", []string{"q2a", "q2b"}, true},
		{"order does not matter", []string{"q2b", "q2a"}, true},
		{"missing correct option", []string{"q2a"}, false},
		{"extra incorrect option", []string{"q2a", "q2b", "q2c"}, false},
		{"only incorrect option", []string{"q2c"}, false},
		{"empty selection", nil, false},
		{"duplicate selections collapse", []string{"q2a", "q2a", "q2b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := []SubmittedAnswer{{QuestionID: "q2", SelectedOptions: tt.selected}}
			result := Grade(gradingTest(), "user-1", "alice", answers, time.Now())
			assert.Equal(t, tt.want, result.Answers[0].Correct)
		})
	}
}

func TestGrade_TextTrimAndCaseFold(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exact", "Пифагор", true},
		{"different case", "ПИФАГОР", true},
		{"surrounding spaces", "  пифагор\t", true},
		{"wrong answer", "Евклид", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := []SubmittedAnswer{{QuestionID: "q3", Text: tt.text}}
			result := Grade(gradingTest(), "user-1", "alice", answers, time.Now())
			assert.Equal(t, tt.want, result.Answers[0].Correct)
		})
	}
}

func TestGrade_UnknownQuestionRecordedAsIncorrect(t *testing.T) {
	answers := []SubmittedAnswer{
		{QuestionID: "no-such-question", OptionID: "q1b"},
		{QuestionID: "q1", OptionID: "q1b"},
	}

	result := Grade(gradingTest(), "user-1", "alice", answers, time.Now())

	// Ответ на несуществующий вопрос записан, но не засчитан
	require.Len(t, result.Answers, 2)
	assert.False(t, result.Answers[0].Correct)
	assert.True(t, result.Answers[1].Correct)
	assert.Equal(t, 1, result.CorrectCount)
}

func TestGrade_DuplicateAnswerCountsOnce(t *testing.T) {
	answers := []SubmittedAnswer{
		{QuestionID: "q1", OptionID: "q1b"},
		{QuestionID: "q1", OptionID: "q1b"},
	}

	result := Grade(gradingTest(), "user-1", "alice", answers, time.Now())

	assert.Equal(t, 1, result.CorrectCount)
	assert.Len(t, result.Answers, 2)
}

func TestGrade_EmptyAnswers(t *testing.T) {
	result := Grade(gradingTest(), "user-1", "alice", nil, time.Now())

	assert.Equal(t, 0, result.CorrectCount)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 4, result.TotalQuestions)
	assert.Empty(t, result.Answers)
}

func TestGrade_Deterministic(t *testing.T) {
	answers := []SubmittedAnswer{
		{QuestionID: "q1", OptionID: "q1b"},
		{QuestionID: "q2", SelectedOptions: []string{"q2a"}},
		{QuestionID: "q3", Text: "пифагор"},
	}
	submittedAt := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	first := Grade(gradingTest(), "user-1", "alice", answers, submittedAt)
	second := Grade(gradingTest(), "user-1", "alice", answers, submittedAt)

	// Всё, кроме случайного ID, совпадает
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.CorrectCount, second.CorrectCount)
	assert.Equal(t, first.TotalQuestions, second.TotalQuestions)
	assert.Equal(t, first.Answers, second.Answers)
	assert.Equal(t, first.SubmittedAt, second.SubmittedAt)
}

func TestGrade_ScoreRounding(t *testing.T) {
	// 1 из 3 = 33.33 -> 33, 2 из 3 = 66.67 -> 67
	test := &entity.Test{
		ID: "test-2",
		Questions: []entity.Question{
			{ID: "q1", Type: entity.QuestionTypeText, CorrectAnswer: "a"},
			{ID: "q2", Type: entity.QuestionTypeText, CorrectAnswer: "b"},
			{ID: "q3", Type: entity.QuestionTypeText, CorrectAnswer: "c"},
		},
	}

	one := Grade(test, "u", "u", []SubmittedAnswer{{QuestionID: "q1", Text: "a"}}, time.Now())
	assert.Equal(t, 33, one.Score)

	two := Grade(test, "u", "u", []SubmittedAnswer{
		{QuestionID: "q1", Text: "a"},
		{QuestionID: "q2", Text: "b"},
	}, time.Now())
	assert.Equal(t, 67, two.Score)
}
