package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
)

// ResultRepo реализует repository.ResultRepository
type ResultRepo struct {
	db *gorm.DB
}

// NewResultRepo создает новый репозиторий результатов
func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// Save сохраняет итоговый результат. Запись иммутабельна: только Create,
// никаких Update.
func (r *ResultRepo) Save(result *entity.Result) error {
	return r.db.Create(result).Error
}

// GetTestResults возвращает результаты теста, отсортированные по очкам, с пагинацией
func (r *ResultRepo) GetTestResults(testID string, limit, offset int) ([]entity.Result, int64, error) {
	var results []entity.Result
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

	if err := tx.Model(&entity.Result{}).Where("test_id = ?", testID).Count(&total).Error; err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	if err := tx.Where("test_id = ?", testID).
		Order("score DESC, submitted_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// GetAllTestResults возвращает все результаты теста без пагинации (экспорт)
func (r *ResultRepo) GetAllTestResults(testID string) ([]entity.Result, error) {
	var results []entity.Result
	err := r.db.Where("test_id = ?", testID).
		Order("score DESC, submitted_at ASC").
		Find(&results).Error
	return results, err
}

// GetUserResults возвращает результаты пользователя с пагинацией
func (r *ResultRepo) GetUserResults(userID string, limit, offset int) ([]entity.Result, error) {
	var results []entity.Result
	err := r.db.Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error
	return results, err
}
