package service

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
	"github.com/yourusername/testadmin-api/internal/domain/repository"
	apperrors "github.com/yourusername/testadmin-api/internal/pkg/errors"
)

// MessageSender — исходящая сторона messaging-канала. Реализуется
// telegram-ботом; в тестах подменяется моком.
type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

// NotificationService связывает выданный веб-частью код с telegram-каналом.
// Интерактивный путь (RecordDelivery) фиксирует показ кода сразу; replay-путь
// (ReplayPending) добирает неотправленные уведомления по таймеру.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	sender           MessageSender
}

// NewNotificationService создает новый сервис уведомлений.
// sender может быть nil в процессе, который сам ничего не отправляет (веб-API).
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	sender MessageSender,
) (*NotificationService, error) {
	if notificationRepo == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		sender:           sender,
	}, nil
}

// SetSender устанавливает отправителя после создания сервиса. Нужен
// процессу бота: бот и есть отправитель, но создаётся позже сервиса.
func (s *NotificationService) SetSender(sender MessageSender) {
	s.sender = sender
}

// RecordDelivery фиксирует показ кода пользователю в telegram-канале.
// Ответ пользователю уже построен к этому моменту, поэтому уведомление
// сразу создаётся с sent=true: "отправлено" здесь значит "показано".
func (s *NotificationService) RecordDelivery(userID, telegramHandle, code string, chatID int64) (*entity.Notification, error) {
	if userID == "" || code == "" {
		return nil, fmt.Errorf("%w: user_id and code are required", apperrors.ErrValidation)
	}

	now := time.Now()
	notification := &entity.Notification{
		ID:             uuid.NewString(),
		UserID:         userID,
		TelegramHandle: entity.NormalizeTelegramHandle(telegramHandle),
		Message:        fmt.Sprintf("Ваш код подтверждения: %s", code),
		ChatID:         chatID,
		Sent:           true,
		SentAt:         &now,
		CreatedAt:      now,
	}

	if err := s.notificationRepo.Create(notification); err != nil {
		log.Printf("[NotificationService] Ошибка записи уведомления userID=%s: %v", userID, err)
		return nil, fmt.Errorf("%w: failed to record notification", apperrors.ErrStorageUnavailable)
	}
	return notification, nil
}

// ReplayPending добирает уведомления с sent=false и пытается доставить их
// fire-and-forget. Каждое уведомление помечается отправленным независимо от
// исхода доставки: ошибки транспорта логируются и не ретраятся. Возвращает
// число обработанных уведомлений.
func (s *NotificationService) ReplayPending(batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	pending, err := s.notificationRepo.GetPending(batchSize)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to load pending notifications", apperrors.ErrStorageUnavailable)
	}

	attempted := 0
	for i := range pending {
		n := &pending[i]

		switch {
		case s.sender == nil:
			log.Printf("[NotificationService] Replay без отправителя: уведомление %s помечается обработанным", n.ID)
		case n.ChatID != 0:
			if err := s.sender.SendMessage(n.ChatID, n.Message); err != nil {
				// Fire-and-forget: неудача доставки не повторяется
				log.Printf("[NotificationService] Ошибка доставки уведомления %s в chatID=%d: %v", n.ID, n.ChatID, err)
			}
		default:
			// Telegram не умеет писать по голому хендлу: без chat_id
			// доставка невозможна, уведомление всё равно помечается
			log.Printf("[NotificationService] Уведомление %s без chat_id (handle=%s), доставка пропущена", n.ID, n.TelegramHandle)
		}

		now := time.Now()
		if err := s.notificationRepo.MarkSent(n.ID, now); err != nil {
			log.Printf("[NotificationService] Ошибка пометки уведомления %s: %v", n.ID, err)
			continue
		}
		attempted++
	}

	if attempted > 0 {
		log.Printf("[NotificationService] Replay обработал %d уведомлений", attempted)
	}
	return attempted, nil
}
