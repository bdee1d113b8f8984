package entity

import "time"

// Notification — долговременная запись о попытке доставки кода через
// messaging-канал. Sent=true означает "показано пользователю", отдельного
// подтверждения доставки нет (fire-and-forget).
type Notification struct {
	ID             string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string     `gorm:"type:uuid;not null;index" json:"user_id"`
	TelegramHandle string     `gorm:"size:64;not null;index" json:"telegram_handle"`
	Message        string     `gorm:"size:500;not null" json:"message"`
	ChatID         int64      `gorm:"not null;default:0" json:"chat_id,omitempty"`
	Sent           bool       `gorm:"not null;default:false;index" json:"sent"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Notification) TableName() string {
	return "notifications"
}
