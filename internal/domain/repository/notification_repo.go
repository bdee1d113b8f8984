package repository

import (
	"time"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
)

// NotificationRepository определяет методы для работы с уведомлениями
type NotificationRepository interface {
	Create(notification *entity.Notification) error
	// GetPending возвращает неотправленные уведомления (sent=false) для replay-прохода
	GetPending(limit int) ([]entity.Notification, error)
	MarkSent(id string, sentAt time.Time) error
}
