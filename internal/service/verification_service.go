package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
	"github.com/yourusername/testadmin-api/internal/domain/repository"
	apperrors "github.com/yourusername/testadmin-api/internal/pkg/errors"
)

// VerificationService владеет жизненным циклом заявки на верификацию:
// выдача кода, двухшаговое подтверждение, завершение регистрации.
// Код доставляется только через telegram-канал; владение аккаунтом
// в мессенджере и есть доказательство личности.
type VerificationService struct {
	verificationRepo repository.VerificationRepository
	userRepo         repository.UserRepository
	codeTTL          time.Duration
}

// NewVerificationService создает новый сервис верификации и возвращает ошибку при проблемах
func NewVerificationService(
	verificationRepo repository.VerificationRepository,
	userRepo repository.UserRepository,
	codeTTL time.Duration,
) (*VerificationService, error) {
	if verificationRepo == nil {
		return nil, fmt.Errorf("verification repository is required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if codeTTL <= 0 {
		codeTTL = 30 * time.Minute
	}
	return &VerificationService{
		verificationRepo: verificationRepo,
		userRepo:         userRepo,
		codeTTL:          codeTTL,
	}, nil
}

// IssueCodeResult — ответ на выдачу кода. Сам код сюда не входит: он
// доступен только через telegram-канал.
type IssueCodeResult struct {
	UserID string `json:"user_id"`
}

// CompleteRegistrationInput содержит данные для завершения регистрации
type CompleteRegistrationInput struct {
	UserID   string
	Username string
	Password string
	Name     string
	Phone    string
	Telegram string
}

// IssueCode выдаёт новый 6-значный код для хендла. Прежние активные заявки
// того же хендла при этом помечаются истекшими: у хендла в любой момент не
// больше одной активной заявки. UserID выделяется здесь и станет
// идентификатором будущего пользователя.
func (s *VerificationService) IssueCode(telegramHandle, name, phone string) (*IssueCodeResult, error) {
	handle := entity.NormalizeTelegramHandle(telegramHandle)
	if handle == "" {
		return nil, fmt.Errorf("%w: telegram handle is required", apperrors.ErrValidation)
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	now := time.Now()
	req := &entity.VerificationRequest{
		ID:             uuid.NewString(),
		UserID:         uuid.NewString(),
		TelegramHandle: handle,
		Code:           code,
		Status:         entity.VerificationStatusPending,
		Name:           strings.TrimSpace(name),
		Phone:          strings.TrimSpace(phone),
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.codeTTL),
	}

	if err := s.verificationRepo.Issue(req); err != nil {
		log.Printf("[VerificationService] Ошибка при выдаче кода для handle=%s: %v", handle, err)
		return nil, fmt.Errorf("%w: failed to issue verification code", apperrors.ErrStorageUnavailable)
	}

	log.Printf("[VerificationService] Выдан код для handle=%s, userID=%s, истекает %s",
		handle, req.UserID, req.ExpiresAt.Format(time.RFC3339))

	return &IssueCodeResult{UserID: req.UserID}, nil
}

// ConfirmStep1 переводит заявку из pending в step1-verified. Заявка должна
// совпасть по хендлу, коду и userId одновременно и быть неистекшей; любое
// несовпадение даёт один и тот же ErrVerificationNotFound.
func (s *VerificationService) ConfirmStep1(telegramHandle, code, userID string) error {
	handle := entity.NormalizeTelegramHandle(telegramHandle)
	if handle == "" || strings.TrimSpace(code) == "" || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: telegram, code and user_id are required", apperrors.ErrValidation)
	}

	req, err := s.verificationRepo.FindPending(handle, strings.TrimSpace(code), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrVerificationNotFound
		}
		log.Printf("[VerificationService] Ошибка поиска заявки для handle=%s: %v", handle, err)
		return fmt.Errorf("%w: failed to look up verification request", apperrors.ErrStorageUnavailable)
	}

	// Истечение — производный предикат: сохранённый статус может отставать
	if req.IsExpired(time.Now()) {
		return ErrVerificationNotFound
	}

	err = s.verificationRepo.UpdateStatus(req.ID,
		entity.VerificationStatusPending, entity.VerificationStatusStep1Verified)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Статус уже изменил другой процесс
			return ErrVerificationNotFound
		}
		return fmt.Errorf("%w: failed to update verification status", apperrors.ErrStorageUnavailable)
	}

	log.Printf("[VerificationService] Шаг 1 подтверждён для handle=%s, userID=%s", handle, userID)
	return nil
}

// CompleteRegistration завершает регистрацию: требует step1-verified
// неистекшую заявку для userId и свободный username. Создаёт пользователя с
// id, выделенным при выдаче кода, и переводит заявку в completed. Повторный
// вызов с тем же userId падает с ErrVerificationNotFound: статус уже не
// step1-verified.
func (s *VerificationService) CompleteRegistration(input CompleteRegistrationInput) (*entity.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if strings.TrimSpace(input.UserID) == "" || input.Username == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: user_id, username and password are required", apperrors.ErrValidation)
	}

	req, err := s.verificationRepo.GetByUserID(input.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("%w: failed to look up verification request", apperrors.ErrStorageUnavailable)
	}

	if req.Status != entity.VerificationStatusStep1Verified || req.IsExpired(time.Now()) {
		return nil, ErrVerificationNotFound
	}

	if _, err := s.userRepo.GetByUsername(input.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: failed to check username", apperrors.ErrStorageUnavailable)
	}

	user := &entity.User{
		ID:       req.UserID,
		Username: input.Username,
		Password: input.Password, // хешируется в BeforeSave
		Name:     strings.TrimSpace(input.Name),
		Phone:    strings.TrimSpace(input.Phone),
		Telegram: req.TelegramHandle,
		Role:     entity.RoleStudent,
	}

	// CAS и создание пользователя — одна транзакция: из двух конкурентных
	// завершений выиграет ровно одно, а сбой создания пользователя
	// откатывает переход статуса, и заявку можно завершить повторно
	if err := s.verificationRepo.Complete(req.ID, user); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, ErrVerificationNotFound
		case errors.Is(err, apperrors.ErrConflict):
			return nil, ErrUsernameTaken
		}
		log.Printf("[VerificationService] Ошибка завершения регистрации userID=%s: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: failed to complete registration", apperrors.ErrStorageUnavailable)
	}

	log.Printf("[VerificationService] Регистрация завершена: userID=%s, username=%s", user.ID, user.Username)
	return user, nil
}

// LookupActiveCode возвращает неистекшую pending-заявку хендла для показа
// кода в telegram-канале. Принимает хендл и с "@", и без.
func (s *VerificationService) LookupActiveCode(telegramHandle string) (*entity.VerificationRequest, error) {
	handle := entity.NormalizeTelegramHandle(telegramHandle)
	if handle == "" {
		return nil, fmt.Errorf("%w: telegram handle is required", apperrors.ErrValidation)
	}

	req, err := s.verificationRepo.GetLatestActiveByHandle(handle)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("%w: failed to look up verification request", apperrors.ErrStorageUnavailable)
	}

	if req.IsExpired(time.Now()) {
		return nil, ErrVerificationNotFound
	}

	// Показывается только код, который ещё можно ввести на шаге 1:
	// после step1-verified код уже использован
	if req.Status != entity.VerificationStatusPending {
		return nil, ErrVerificationNotFound
	}
	return req, nil
}

// generateVerificationCode генерирует равномерно случайный 6-значный код
// в диапазоне 100000-999999. Глобальная уникальность кодов между разными
// хендлами не гарантируется и не требуется: уникальность на хендл
// обеспечивается гашением прежних заявок при перевыдаче.
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
