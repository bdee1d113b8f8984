package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
	apperrors "github.com/yourusername/testadmin-api/internal/pkg/errors"
)

// TestRepo реализует repository.TestRepository
type TestRepo struct {
	db *gorm.DB
}

// NewTestRepo создает новый репозиторий тестов
func NewTestRepo(db *gorm.DB) *TestRepo {
	return &TestRepo{db: db}
}

// Create сохраняет тест вместе с вопросами
func (r *TestRepo) Create(test *entity.Test) error {
	return r.db.Create(test).Error
}

// GetByID возвращает тест с вопросами, упорядоченными по position
func (r *TestRepo) GetByID(id string) (*entity.Test, error) {
	var test entity.Test
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.position ASC")
	}).Where("id = ?", id).First(&test).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &test, nil
}

// List возвращает тесты без вопросов, с пагинацией и общим количеством
func (r *TestRepo) List(limit, offset int) ([]entity.Test, int64, error) {
	var tests []entity.Test
	var total int64

	tx := r.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if tx.Error != nil {
		return nil, 0, tx.Error
	}

	if err := tx.Model(&entity.Test{}).Count(&total).Error; err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	if err := tx.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tests).Error; err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, 0, err
	}

	return tests, total, nil
}

// Update заменяет тест и его вопросы целиком
func (r *TestRepo) Update(test *entity.Test) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Старые вопросы удаляются: клиент присылает полный новый набор
		if err := tx.Where("test_id = ?", test.ID).Delete(&entity.Question{}).Error; err != nil {
			return err
		}
		return tx.Save(test).Error
	})
}

// Delete удаляет тест; вопросы каскадируются по внешнему ключу
func (r *TestRepo) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&entity.Test{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
