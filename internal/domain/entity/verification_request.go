package entity

import (
	"strings"
	"time"
)

// Статусы заявки на верификацию. Машина состояний движется только вперёд:
// pending -> step1-verified -> completed, с боковыми переходами в expired.
// "Истекла" — производный предикат от ExpiresAt, вычисляемый при чтении;
// сохранённый статус сам по себе не считается истиной об истечении.
const (
	VerificationStatusPending       = "pending"
	VerificationStatusStep1Verified = "step1-verified"
	VerificationStatusExpired       = "expired"
	VerificationStatusCompleted     = "completed"
)

// VerificationRequest представляет одну попытку регистрации, привязанную к
// telegram-хендлу. UserID выделяется при выдаче кода и становится идентификатором
// будущего пользователя. Записи никогда не удаляются (аудиторский след).
type VerificationRequest struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string    `gorm:"type:uuid;not null;index" json:"user_id"`
	TelegramHandle string    `gorm:"size:64;not null;index" json:"telegram_handle"`
	Code           string    `gorm:"size:6;not null" json:"-"` // Скрыт от клиента: доставляется только через messaging-канал
	Status         string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Name           string    `gorm:"size:100;not null;default:''" json:"name"`
	Phone          string    `gorm:"size:20;not null;default:''" json:"phone"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `gorm:"not null;index" json:"expires_at"`
}

// TableName определяет имя таблицы для GORM
func (VerificationRequest) TableName() string {
	return "verification_requests"
}

// IsExpired возвращает true, если срок действия заявки вышел либо она уже
// помечена истекшей. Любое чтение для сопоставления кода обязано использовать
// этот предикат, а не только сохранённый статус.
func (v *VerificationRequest) IsExpired(now time.Time) bool {
	return v.Status == VerificationStatusExpired || now.After(v.ExpiresAt)
}

// NormalizeTelegramHandle приводит хендл к канонической форме для сопоставления:
// срезает ведущий "@" и приводит к нижнему регистру. Бот и веб-форма присылают
// хендл в разных формах ("@alice" и "alice"), сопоставление обязано их склеивать.
func NormalizeTelegramHandle(handle string) string {
	h := strings.TrimSpace(handle)
	h = strings.TrimPrefix(h, "@")
	return strings.ToLower(h)
}
