package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
	"github.com/yourusername/testadmin-api/internal/domain/repository"
	apperrors "github.com/yourusername/testadmin-api/internal/pkg/errors"
)

// ResultService оценивает сдачи и предоставляет доступ к результатам
type ResultService struct {
	resultRepo repository.ResultRepository
	testRepo   repository.TestRepository
	userRepo   repository.UserRepository
}

// NewResultService создает новый сервис результатов и возвращает ошибку при проблемах
func NewResultService(
	resultRepo repository.ResultRepository,
	testRepo repository.TestRepository,
	userRepo repository.UserRepository,
) (*ResultService, error) {
	if resultRepo == nil {
		return nil, fmt.Errorf("result repository is required")
	}
	if testRepo == nil {
		return nil, fmt.Errorf("test repository is required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &ResultService{
		resultRepo: resultRepo,
		testRepo:   testRepo,
		userRepo:   userRepo,
	}, nil
}

// SubmitAnswers оценивает присланные ответы и сохраняет иммутабельный
// результат. Эталонные ответы наружу не отдаются: вызывающая сторона
// показывает клиенту только оценку и счётчики (см. handler/dto).
func (s *ResultService) SubmitAnswers(userID, testID string, answers []SubmittedAnswer) (*entity.Result, error) {
	if testID == "" {
		return nil, fmt.Errorf("%w: test_id is required", apperrors.ErrValidation)
	}

	test, err := s.testRepo.GetByID(testID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to load test", apperrors.ErrStorageUnavailable)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to load user", apperrors.ErrStorageUnavailable)
	}

	result := Grade(test, user.ID, user.Username, answers, time.Now())

	if err := s.resultRepo.Save(result); err != nil {
		log.Printf("[ResultService] Ошибка сохранения результата userID=%s testID=%s: %v", userID, testID, err)
		return nil, fmt.Errorf("%w: failed to save result", apperrors.ErrStorageUnavailable)
	}

	log.Printf("[ResultService] Результат сохранён: userID=%s testID=%s score=%d (%d/%d)",
		userID, testID, result.Score, result.CorrectCount, result.TotalQuestions)
	return result, nil
}

// GetTestResults возвращает результаты теста с пагинацией
func (s *ResultService) GetTestResults(testID string, page, pageSize int) ([]entity.Result, int64, error) {
	limit, offset := normalizePagination(page, pageSize)
	return s.resultRepo.GetTestResults(testID, limit, offset)
}

// GetAllTestResults возвращает все результаты теста (для экспорта)
func (s *ResultService) GetAllTestResults(testID string) ([]entity.Result, error) {
	return s.resultRepo.GetAllTestResults(testID)
}

// GetUserResults возвращает результаты пользователя с пагинацией
func (s *ResultService) GetUserResults(userID string, page, pageSize int) ([]entity.Result, error) {
	limit, offset := normalizePagination(page, pageSize)
	return s.resultRepo.GetUserResults(userID, limit, offset)
}

// normalizePagination приводит параметры пагинации к допустимым значениям
func normalizePagination(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}
	return pageSize, (page - 1) * pageSize
}
