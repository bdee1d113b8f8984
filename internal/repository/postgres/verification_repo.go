package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
	apperrors "github.com/yourusername/testadmin-api/internal/pkg/errors"
)

// VerificationRepo реализует repository.VerificationRepository
type VerificationRepo struct {
	db *gorm.DB
}

// NewVerificationRepo создает новый репозиторий заявок на верификацию
func NewVerificationRepo(db *gorm.DB) *VerificationRepo {
	return &VerificationRepo{db: db}
}

// Issue атомарно гасит прежние активные заявки хендла и создаёт новую.
// Транзакция закрывает гонку "два процесса выдают код одному хендлу":
// у хендла в любой момент не больше одной активной заявки.
func (r *VerificationRepo) Issue(req *entity.VerificationRequest) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&entity.VerificationRequest{}).
			Where("telegram_handle = ? AND status IN ?",
				req.TelegramHandle,
				[]string{entity.VerificationStatusPending, entity.VerificationStatusStep1Verified}).
			Update("status", entity.VerificationStatusExpired).Error
		if err != nil {
			return err
		}
		return tx.Create(req).Error
	})
}

// GetByUserID возвращает последнюю заявку для выделенного userId
func (r *VerificationRepo) GetByUserID(userID string) (*entity.VerificationRequest, error) {
	var req entity.VerificationRequest
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindPending ищет pending-заявку по одновременному совпадению хендла, кода и userId
func (r *VerificationRepo) FindPending(handle, code, userID string) (*entity.VerificationRequest, error) {
	var req entity.VerificationRequest
	err := r.db.Where(
		"telegram_handle = ? AND code = ? AND user_id = ? AND status = ?",
		handle, code, userID, entity.VerificationStatusPending,
	).Order("created_at DESC").First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetLatestActiveByHandle возвращает последнюю заявку хендла со статусом pending
// или step1-verified. Истечение срока проверяет вызывающая сторона.
func (r *VerificationRepo) GetLatestActiveByHandle(handle string) (*entity.VerificationRequest, error) {
	var req entity.VerificationRequest
	err := r.db.Where("telegram_handle = ? AND status IN ?",
		handle,
		[]string{entity.VerificationStatusPending, entity.VerificationStatusStep1Verified}).
		Order("created_at DESC").
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// Complete в одной транзакции выполняет CAS step1-verified -> completed и
// создаёт пользователя. Транзакция закрывает две гонки сразу: из двух
// конкурентных завершений одной заявки выиграет ровно одно, а сбой создания
// пользователя (занятый username, недоступное хранилище) откатывает переход
// статуса вместо того, чтобы оставить completed-заявку без пользователя.
func (r *VerificationRepo) Complete(requestID string, user *entity.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.VerificationRequest{}).
			Where("id = ? AND status = ?", requestID, entity.VerificationStatusStep1Verified).
			Update("status", entity.VerificationStatusCompleted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}

		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrConflict
			}
			return err
		}
		return nil
	})
}

// UpdateStatus выполняет compare-and-swap перехода статуса. Обновляется только
// запись с текущим статусом fromStatus; ноль затронутых строк означает, что
// переход уже выполнен другим процессом либо записи нет.
func (r *VerificationRepo) UpdateStatus(id string, fromStatus, toStatus string) error {
	result := r.db.Model(&entity.VerificationRequest{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]interface{}{
			"status": toStatus,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
