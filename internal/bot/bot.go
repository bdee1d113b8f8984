package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
	"github.com/yourusername/testadmin-api/internal/domain/repository"
	"github.com/yourusername/testadmin-api/internal/service"
)

// Привязка хендла к chat_id живёт в Redis без срока: задел под push-доставку,
// когда канал должен будет написать пользователю первым.
const chatBindingKeyPrefix = "tg:chat:"

// Bot — процесс messaging-канала: выдаёт коды подтверждения по запросу
// пользователя и периодически добирает неотправленные уведомления.
type Bot struct {
	api                 *tgbotapi.BotAPI
	verificationService *service.VerificationService
	notificationService *service.NotificationService
	cacheRepo           repository.CacheRepository

	pollTimeout     int
	replayInterval  time.Duration
	replayBatchSize int
}

// Config содержит настройки бота
type Config struct {
	Token           string
	PollTimeoutSec  int
	ReplayInterval  time.Duration
	ReplayBatchSize int
}

// New создает бота и проверяет токен обращением к Telegram API
func New(
	cfg Config,
	verificationService *service.VerificationService,
	notificationService *service.NotificationService,
	cacheRepo repository.CacheRepository,
) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if verificationService == nil {
		return nil, fmt.Errorf("verification service is required")
	}
	if notificationService == nil {
		return nil, fmt.Errorf("notification service is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	if cfg.PollTimeoutSec <= 0 {
		cfg.PollTimeoutSec = 30
	}
	if cfg.ReplayInterval <= 0 {
		cfg.ReplayInterval = time.Minute
	}
	if cfg.ReplayBatchSize <= 0 {
		cfg.ReplayBatchSize = 100
	}

	log.Printf("[Bot] Авторизован как @%s", api.Self.UserName)

	return &Bot{
		api:                 api,
		verificationService: verificationService,
		notificationService: notificationService,
		cacheRepo:           cacheRepo,
		pollTimeout:         cfg.PollTimeoutSec,
		replayInterval:      cfg.ReplayInterval,
		replayBatchSize:     cfg.ReplayBatchSize,
	}, nil
}

// SendMessage реализует service.MessageSender
func (b *Bot) SendMessage(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// Run запускает long polling и replay-цикл. Блокирует до отмены контекста.
func (b *Bot) Run(ctx context.Context) error {
	// Replay при старте: уведомления, скопившиеся пока канал был офлайн
	if _, err := b.notificationService.ReplayPending(b.replayBatchSize); err != nil {
		log.Printf("[Bot] Ошибка replay при старте: %v", err)
	}

	go b.replayLoop(ctx)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(update.Message)
		}
	}
}

// replayLoop периодически добирает уведомления с sent=false
func (b *Bot) replayLoop(ctx context.Context) {
	ticker := time.NewTicker(b.replayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.notificationService.ReplayPending(b.replayBatchSize); err != nil {
				log.Printf("[Bot] Ошибка replay-прохода: %v", err)
			}
		}
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	handle := entity.NormalizeTelegramHandle(msg.From.UserName)
	chatID := msg.Chat.ID

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.handleStart(handle, chatID)
	case msg.IsCommand() && msg.Command() == "code":
		b.deliverCode(handle, chatID)
	case msg.IsCommand():
		b.reply(chatID, "Неизвестная команда. Отправьте /code, чтобы получить код подтверждения.")
	default:
		// Любой текст трактуем как запрос кода для хендла отправителя
		b.deliverCode(handle, chatID)
	}
}

func (b *Bot) handleStart(handle string, chatID int64) {
	if handle != "" && b.cacheRepo != nil {
		if err := b.cacheRepo.Set(chatBindingKeyPrefix+handle, chatID, 0); err != nil {
			log.Printf("[Bot] Ошибка сохранения привязки handle=%s: %v", handle, err)
		}
	}
	b.reply(chatID, "Здравствуйте! Отправьте /code, чтобы получить код подтверждения регистрации.")
}

// deliverCode ищет активную заявку хендла и показывает код. Показ фиксируется
// уведомлением с sent=true: пользователь получил ответ синхронно.
func (b *Bot) deliverCode(handle string, chatID int64) {
	if handle == "" {
		b.reply(chatID, "У вашего аккаунта Telegram не задан username — без него подтвердить регистрацию невозможно.")
		return
	}

	req, err := b.verificationService.LookupActiveCode(handle)
	if err != nil {
		if errors.Is(err, service.ErrVerificationNotFound) {
			b.reply(chatID, "Активный код для вашего аккаунта не найден. Запросите код на сайте и повторите.")
			return
		}
		log.Printf("[Bot] Ошибка поиска кода для handle=%s: %v", handle, err)
		b.reply(chatID, "Не получилось проверить код, попробуйте позже.")
		return
	}

	notification, err := b.notificationService.RecordDelivery(req.UserID, handle, req.Code, chatID)
	if err != nil {
		log.Printf("[Bot] Ошибка записи уведомления для handle=%s: %v", handle, err)
		b.reply(chatID, "Не получилось выдать код, попробуйте позже.")
		return
	}

	b.reply(chatID, notification.Message)
	log.Printf("[Bot] Код показан handle=%s, userID=%s", handle, req.UserID)
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.SendMessage(chatID, strings.TrimSpace(text)); err != nil {
		log.Printf("[Bot] Ошибка отправки сообщения в chatID=%d: %v", chatID, err)
	}
}
