package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
	"github.com/yourusername/testadmin-api/internal/domain/repository"
	apperrors "github.com/yourusername/testadmin-api/internal/pkg/errors"
)

const testCacheTTL = 5 * time.Minute

// TestService предоставляет методы для работы с тестами
type TestService struct {
	testRepo  repository.TestRepository
	cacheRepo repository.CacheRepository
}

// NewTestService создает новый сервис тестов.
// cacheRepo может быть nil, тогда кеширование отключено.
func NewTestService(testRepo repository.TestRepository, cacheRepo repository.CacheRepository) (*TestService, error) {
	if testRepo == nil {
		return nil, fmt.Errorf("test repository is required")
	}
	return &TestService{
		testRepo:  testRepo,
		cacheRepo: cacheRepo,
	}, nil
}

// QuestionInput — вопрос в запросе на создание/обновление теста
type QuestionInput struct {
	Text          string        `json:"text"`
	Type          string        `json:"type"`
	Options       []OptionInput `json:"options,omitempty"`
	CorrectAnswer string        `json:"correct_answer,omitempty"`
}

// OptionInput — вариант ответа в запросе на создание/обновление теста
type OptionInput struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// TestInput содержит данные для создания или обновления теста
type TestInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Questions   []QuestionInput `json:"questions"`
}

// CreateTest валидирует и сохраняет тест вместе с вопросами
func (s *TestService) CreateTest(createdBy string, input TestInput) (*entity.Test, error) {
	test, err := buildTest(uuid.NewString(), createdBy, input)
	if err != nil {
		return nil, err
	}

	if err := s.testRepo.Create(test); err != nil {
		log.Printf("[TestService] Ошибка создания теста %q: %v", input.Title, err)
		return nil, fmt.Errorf("%w: failed to create test", apperrors.ErrStorageUnavailable)
	}

	log.Printf("[TestService] Создан тест %s (%q, вопросов: %d)", test.ID, test.Title, len(test.Questions))
	return test, nil
}

// GetTest возвращает тест с вопросами, при наличии кеша — из кеша
func (s *TestService) GetTest(id string) (*entity.Test, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: test id is required", apperrors.ErrValidation)
	}

	if s.cacheRepo != nil {
		var cached entity.Test
		if err := s.cacheRepo.GetJSON(testCacheKey(id), &cached); err == nil {
			return &cached, nil
		}
	}

	test, err := s.testRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to load test", apperrors.ErrStorageUnavailable)
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(testCacheKey(id), test, testCacheTTL); err != nil {
			log.Printf("[TestService] Ошибка кеширования теста %s: %v", id, err)
		}
	}
	return test, nil
}

// ListTests возвращает тесты без вопросов с пагинацией
func (s *TestService) ListTests(page, pageSize int) ([]entity.Test, int64, error) {
	limit, offset := normalizePagination(page, pageSize)
	return s.testRepo.List(limit, offset)
}

// UpdateTest заменяет содержимое теста и сбрасывает его кеш
func (s *TestService) UpdateTest(id, updatedBy string, input TestInput) (*entity.Test, error) {
	existing, err := s.testRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to load test", apperrors.ErrStorageUnavailable)
	}

	test, err := buildTest(existing.ID, existing.CreatedBy, input)
	if err != nil {
		return nil, err
	}
	test.CreatedAt = existing.CreatedAt

	if err := s.testRepo.Update(test); err != nil {
		log.Printf("[TestService] Ошибка обновления теста %s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to update test", apperrors.ErrStorageUnavailable)
	}

	s.invalidateCache(id)
	log.Printf("[TestService] Тест %s обновлён пользователем %s (вопросов: %d)", id, updatedBy, len(test.Questions))
	return test, nil
}

// DeleteTest удаляет тест и сбрасывает его кеш
func (s *TestService) DeleteTest(id string) error {
	if err := s.testRepo.Delete(id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: failed to delete test", apperrors.ErrStorageUnavailable)
	}
	s.invalidateCache(id)
	return nil
}

func (s *TestService) invalidateCache(id string) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(testCacheKey(id)); err != nil {
		log.Printf("[TestService] Ошибка сброса кеша теста %s: %v", id, err)
	}
}

func testCacheKey(id string) string {
	return "test:" + id
}

// buildTest валидирует входные данные и собирает сущность с новыми id
// вопросов и вариантов
func buildTest(id, createdBy string, input TestInput) (*entity.Test, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if len(input.Questions) == 0 {
		return nil, fmt.Errorf("%w: at least one question is required", apperrors.ErrValidation)
	}

	questions := make([]entity.Question, 0, len(input.Questions))
	for i, q := range input.Questions {
		question, err := buildQuestion(id, i, q)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *question)
	}

	return &entity.Test{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Questions:   questions,
		CreatedBy:   createdBy,
	}, nil
}

func buildQuestion(testID string, position int, input QuestionInput) (*entity.Question, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: question %d: text is required", apperrors.ErrValidation, position+1)
	}

	options := make(entity.OptionArray, 0, len(input.Options))
	correctCount := 0
	for _, opt := range input.Options {
		if strings.TrimSpace(opt.Text) == "" {
			return nil, fmt.Errorf("%w: question %d: option text is required", apperrors.ErrValidation, position+1)
		}
		if opt.Correct {
			correctCount++
		}
		options = append(options, entity.Option{
			ID:      uuid.NewString(),
			Text:    strings.TrimSpace(opt.Text),
			Correct: opt.Correct,
		})
	}

	switch input.Type {
	case entity.QuestionTypeMultipleChoice:
		if len(options) < 2 {
			return nil, fmt.Errorf("%w: question %d: at least two options are required", apperrors.ErrValidation, position+1)
		}
		if correctCount != 1 {
			return nil, fmt.Errorf("%w: question %d: exactly one correct option is required", apperrors.ErrValidation, position+1)
		}
	case entity.QuestionTypeMultipleAnswer:
		if len(options) < 2 {
			return nil, fmt.Errorf("%w: question %d: at least two options are required", apperrors.ErrValidation, position+1)
		}
	case entity.QuestionTypeText:
		if strings.TrimSpace(input.CorrectAnswer) == "" {
			return nil, fmt.Errorf("%w: question %d: correct_answer is required", apperrors.ErrValidation, position+1)
		}
	default:
		return nil, fmt.Errorf("%w: question %d: unknown type %q", apperrors.ErrValidation, position+1, input.Type)
	}

	return &entity.Question{
		ID:            uuid.NewString(),
		TestID:        testID,
		Text:          text,
		Type:          input.Type,
		Options:       options,
		CorrectAnswer: strings.TrimSpace(input.CorrectAnswer),
		Position:      position,
	}, nil
}
