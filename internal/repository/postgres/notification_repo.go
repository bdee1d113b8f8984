package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
	apperrors "github.com/yourusername/testadmin-api/internal/pkg/errors"
)

// NotificationRepo реализует repository.NotificationRepository
type NotificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo создает новый репозиторий уведомлений
func NewNotificationRepo(db *gorm.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create создает запись об уведомлении
func (r *NotificationRepo) Create(notification *entity.Notification) error {
	return r.db.Create(notification).Error
}

// GetPending возвращает неотправленные уведомления для replay-прохода
func (r *NotificationRepo) GetPending(limit int) ([]entity.Notification, error) {
	var notifications []entity.Notification
	err := r.db.Where("sent = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// MarkSent помечает уведомление отправленным
func (r *NotificationRepo) MarkSent(id string, sentAt time.Time) error {
	result := r.db.Model(&entity.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sent":    true,
			"sent_at": sentAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
