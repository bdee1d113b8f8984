package repository

import (
	"github.com/yourusername/testadmin-api/internal/domain/entity"
)

// ResultRepository определяет методы для работы с результатами
type ResultRepository interface {
	Save(result *entity.Result) error
	GetTestResults(testID string, limit, offset int) ([]entity.Result, int64, error)
	// GetAllTestResults возвращает все результаты теста без пагинации (экспорт)
	GetAllTestResults(testID string) ([]entity.Result, error)
	GetUserResults(userID string, limit, offset int) ([]entity.Result, error)
}
