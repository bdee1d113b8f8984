package repository

import (
	"github.com/yourusername/testadmin-api/internal/domain/entity"
)

// TestRepository определяет методы для работы с тестами
type TestRepository interface {
	// Create сохраняет тест вместе с вопросами
	Create(test *entity.Test) error
	// GetByID возвращает тест с вопросами, упорядоченными по position
	GetByID(id string) (*entity.Test, error)
	List(limit, offset int) ([]entity.Test, int64, error)
	// Update заменяет тест и его вопросы целиком
	Update(test *entity.Test) error
	Delete(id string) error
}
