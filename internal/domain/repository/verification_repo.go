package repository

import (
	"github.com/yourusername/testadmin-api/internal/domain/entity"
)

// VerificationRepository определяет методы для работы с заявками на верификацию.
// Хендлы во всех методах — в канонической форме (entity.NormalizeTelegramHandle).
type VerificationRepository interface {
	// Issue атомарно помечает все активные заявки хендла истекшими и
	// создаёт новую pending-заявку (правило "одна активная заявка на хендл").
	Issue(req *entity.VerificationRequest) error

	// GetByUserID возвращает последнюю заявку для выделенного userId
	GetByUserID(userID string) (*entity.VerificationRequest, error)

	// FindPending ищет pending-заявку, совпадающую по хендлу, коду и userId
	// одновременно. Истечение срока проверяет вызывающая сторона.
	FindPending(handle, code, userID string) (*entity.VerificationRequest, error)

	// GetLatestActiveByHandle возвращает последнюю заявку хендла со статусом
	// pending или step1-verified
	GetLatestActiveByHandle(handle string) (*entity.VerificationRequest, error)

	// UpdateStatus выполняет compare-and-swap перехода статуса: запись
	// обновляется только если её текущий статус равен fromStatus, иначе
	// возвращается apperrors.ErrNotFound. Это защита от гонки двух процессов
	// на одной записи.
	UpdateStatus(id string, fromStatus, toStatus string) error

	// Complete атомарно переводит заявку из step1-verified в completed и
	// создаёт пользователя. Оба изменения идут в одной транзакции: сбой
	// создания пользователя откатывает и переход статуса, заявка остаётся
	// step1-verified и завершение можно повторить. Возвращает
	// apperrors.ErrNotFound при проигранном CAS и apperrors.ErrConflict,
	// если username уже занят.
	Complete(requestID string, user *entity.User) error
}
