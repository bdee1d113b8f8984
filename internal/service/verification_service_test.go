package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
	apperrors "github.com/yourusername/testadmin-api/internal/pkg/errors"
)

func newVerificationService(t *testing.T, verificationRepo *MockVerificationRepository, userRepo *MockUserRepository) *VerificationService {
	t.Helper()
	svc, err := NewVerificationService(verificationRepo, userRepo, 30*time.Minute)
	require.NoError(t, err)
	return svc
}

// ============================================================================
// IssueCode
// ============================================================================

func TestIssueCode_Success(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	var issued *entity.VerificationRequest
	verificationRepo.On("Issue", mock.AnythingOfType("*entity.VerificationRequest")).
		Run(func(args mock.Arguments) {
			issued = args.Get(0).(*entity.VerificationRequest)
		}).
		Return(nil)

	result, err := svc.IssueCode("@Alice", "Alice", "+998901234567")
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, issued)

	// Хендл нормализован, код шестизначный, заявка pending
	assert.Equal(t, "alice", issued.TelegramHandle)
	assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), issued.Code)
	assert.Equal(t, entity.VerificationStatusPending, issued.Status)
	assert.Equal(t, "Alice", issued.Name)
	assert.NotEmpty(t, issued.UserID)
	assert.Equal(t, issued.UserID, result.UserID)

	// TTL — 30 минут от выдачи
	assert.WithinDuration(t, issued.CreatedAt.Add(30*time.Minute), issued.ExpiresAt, time.Second)

	verificationRepo.AssertExpectations(t)
}

func TestIssueCode_EmptyHandle(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	_, err := svc.IssueCode("  @  ", "Alice", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	verificationRepo.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestIssueCode_StorageError(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	verificationRepo.On("Issue", mock.Anything).Return(assert.AnError)

	_, err := svc.IssueCode("alice", "", "")
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
}

// ============================================================================
// ConfirmStep1
// ============================================================================

func TestConfirmStep1_Success(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	req := &entity.VerificationRequest{
		ID:             "req-1",
		UserID:         "user-1",
		TelegramHandle: "alice",
		Code:           "123456",
		Status:         entity.VerificationStatusPending,
		ExpiresAt:      time.Now().Add(10 * time.Minute),
	}
	verificationRepo.On("FindPending", "alice", "123456", "user-1").Return(req, nil)
	verificationRepo.On("UpdateStatus", "req-1",
		entity.VerificationStatusPending, entity.VerificationStatusStep1Verified).Return(nil)

	err := svc.ConfirmStep1("@Alice", "123456", "user-1")
	require.NoError(t, err)
	verificationRepo.AssertExpectations(t)
}

func TestConfirmStep1_WrongCode_CollapsedError(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	verificationRepo.On("FindPending", "alice", "999999", "user-1").Return(nil, apperrors.ErrNotFound)

	err := svc.ConfirmStep1("alice", "999999", "user-1")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestConfirmStep1_Expired_CollapsedError(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	// Сохранённый статус pending, но срок вышел: предикат важнее статуса
	req := &entity.VerificationRequest{
		ID:             "req-1",
		UserID:         "user-1",
		TelegramHandle: "alice",
		Code:           "123456",
		Status:         entity.VerificationStatusPending,
		ExpiresAt:      time.Now().Add(-time.Minute),
	}
	verificationRepo.On("FindPending", "alice", "123456", "user-1").Return(req, nil)

	err := svc.ConfirmStep1("alice", "123456", "user-1")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
	verificationRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmStep1_LostRace_CollapsedError(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	req := &entity.VerificationRequest{
		ID:             "req-1",
		UserID:         "user-1",
		TelegramHandle: "alice",
		Code:           "123456",
		Status:         entity.VerificationStatusPending,
		ExpiresAt:      time.Now().Add(10 * time.Minute),
	}
	verificationRepo.On("FindPending", "alice", "123456", "user-1").Return(req, nil)
	// Другой процесс успел изменить статус между чтением и CAS
	verificationRepo.On("UpdateStatus", "req-1",
		entity.VerificationStatusPending, entity.VerificationStatusStep1Verified).
		Return(apperrors.ErrNotFound)

	err := svc.ConfirmStep1("alice", "123456", "user-1")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestConfirmStep1_MissingFields(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	assert.ErrorIs(t, svc.ConfirmStep1("", "123456", "user-1"), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.ConfirmStep1("alice", "", "user-1"), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.ConfirmStep1("alice", "123456", ""), apperrors.ErrValidation)
}

// ============================================================================
// CompleteRegistration
// ============================================================================

func validStep1Request() *entity.VerificationRequest {
	return &entity.VerificationRequest{
		ID:             "req-1",
		UserID:         "user-1",
		TelegramHandle: "alice",
		Code:           "123456",
		Status:         entity.VerificationStatusStep1Verified,
		ExpiresAt:      time.Now().Add(10 * time.Minute),
	}
}

func TestCompleteRegistration_Success(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	verificationRepo.On("GetByUserID", "user-1").Return(validStep1Request(), nil)
	userRepo.On("GetByUsername", "alice_t").Return(nil, apperrors.ErrNotFound)

	var created *entity.User
	verificationRepo.On("Complete", "req-1", mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*entity.User)
		}).
		Return(nil)

	user, err := svc.CompleteRegistration(CompleteRegistrationInput{
		UserID:   "user-1",
		Username: "alice_t",
		Password: "password",
		Name:     "Alice",
		Phone:    "+998901234567",
		Telegram: "alice",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	// ID пользователя равен userId, выделенному при выдаче кода;
	// хендл берётся из заявки, а не из запроса
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "alice", user.Telegram)
	assert.Equal(t, entity.RoleStudent, user.Role)

	verificationRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestCompleteRegistration_PendingRequest_Fails(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	req := validStep1Request()
	req.Status = entity.VerificationStatusPending
	verificationRepo.On("GetByUserID", "user-1").Return(req, nil)

	_, err := svc.CompleteRegistration(CompleteRegistrationInput{
		UserID: "user-1", Username: "alice_t", Password: "password",
	})
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestCompleteRegistration_DoubleComplete_Fails(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	// Повторный вызов: заявка уже completed
	req := validStep1Request()
	req.Status = entity.VerificationStatusCompleted
	verificationRepo.On("GetByUserID", "user-1").Return(req, nil)

	_, err := svc.CompleteRegistration(CompleteRegistrationInput{
		UserID: "user-1", Username: "alice_t", Password: "password",
	})
	assert.ErrorIs(t, err, ErrVerificationNotFound)
	verificationRepo.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestCompleteRegistration_ConcurrentComplete_LosesCAS(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	verificationRepo.On("GetByUserID", "user-1").Return(validStep1Request(), nil)
	userRepo.On("GetByUsername", "alice_t").Return(nil, apperrors.ErrNotFound)
	// Конкурентное завершение выиграло CAS первым
	verificationRepo.On("Complete", "req-1", mock.AnythingOfType("*entity.User")).
		Return(apperrors.ErrNotFound)

	_, err := svc.CompleteRegistration(CompleteRegistrationInput{
		UserID: "user-1", Username: "alice_t", Password: "password",
	})
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestCompleteRegistration_UsernameRace_Conflict(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	// Username освободился на предварительной проверке, но занят к моменту
	// вставки: уникальный индекс отвечает конфликтом
	verificationRepo.On("GetByUserID", "user-1").Return(validStep1Request(), nil)
	userRepo.On("GetByUsername", "alice_t").Return(nil, apperrors.ErrNotFound)
	verificationRepo.On("Complete", "req-1", mock.AnythingOfType("*entity.User")).
		Return(apperrors.ErrConflict)

	_, err := svc.CompleteRegistration(CompleteRegistrationInput{
		UserID: "user-1", Username: "alice_t", Password: "password",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCompleteRegistration_RetryAfterStorageError(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	// Сбой транзакции откатывает и переход статуса: при повторном вызове
	// заявка всё ещё step1-verified и регистрация завершается
	verificationRepo.On("GetByUserID", "user-1").Return(validStep1Request(), nil).Twice()
	userRepo.On("GetByUsername", "alice_t").Return(nil, apperrors.ErrNotFound).Twice()
	verificationRepo.On("Complete", "req-1", mock.AnythingOfType("*entity.User")).
		Return(assert.AnError).Once()
	verificationRepo.On("Complete", "req-1", mock.AnythingOfType("*entity.User")).
		Return(nil).Once()

	input := CompleteRegistrationInput{
		UserID: "user-1", Username: "alice_t", Password: "password",
	}

	_, err := svc.CompleteRegistration(input)
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)

	user, err := svc.CompleteRegistration(input)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	verificationRepo.AssertExpectations(t)
}

func TestCompleteRegistration_UsernameTaken(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	verificationRepo.On("GetByUserID", "user-1").Return(validStep1Request(), nil)
	userRepo.On("GetByUsername", "alice_t").Return(&entity.User{ID: "other", Username: "alice_t"}, nil)

	_, err := svc.CompleteRegistration(CompleteRegistrationInput{
		UserID: "user-1", Username: "alice_t", Password: "password",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCompleteRegistration_Expired(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	req := validStep1Request()
	req.ExpiresAt = time.Now().Add(-time.Minute)
	verificationRepo.On("GetByUserID", "user-1").Return(req, nil)

	_, err := svc.CompleteRegistration(CompleteRegistrationInput{
		UserID: "user-1", Username: "alice_t", Password: "password",
	})
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

// ============================================================================
// LookupActiveCode
// ============================================================================

func TestLookupActiveCode_Success(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	req := &entity.VerificationRequest{
		ID:             "req-1",
		UserID:         "user-1",
		TelegramHandle: "alice",
		Code:           "123456",
		Status:         entity.VerificationStatusPending,
		ExpiresAt:      time.Now().Add(10 * time.Minute),
	}
	verificationRepo.On("GetLatestActiveByHandle", "alice").Return(req, nil)

	got, err := svc.LookupActiveCode("@Alice")
	require.NoError(t, err)
	assert.Equal(t, "123456", got.Code)
}

func TestLookupActiveCode_Expired(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	req := &entity.VerificationRequest{
		ID:             "req-1",
		TelegramHandle: "alice",
		Status:         entity.VerificationStatusPending,
		ExpiresAt:      time.Now().Add(-time.Minute),
	}
	verificationRepo.On("GetLatestActiveByHandle", "alice").Return(req, nil)

	_, err := svc.LookupActiveCode("alice")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestLookupActiveCode_Step1Verified_NotShown(t *testing.T) {
	verificationRepo := new(MockVerificationRepository)
	userRepo := new(MockUserRepository)
	svc := newVerificationService(t, verificationRepo, userRepo)

	// После первого шага код уже использован и повторно не показывается
	req := &entity.VerificationRequest{
		ID:             "req-1",
		UserID:         "user-1",
		TelegramHandle: "alice",
		Code:           "123456",
		Status:         entity.VerificationStatusStep1Verified,
		ExpiresAt:      time.Now().Add(10 * time.Minute),
	}
	verificationRepo.On("GetLatestActiveByHandle", "alice").Return(req, nil)

	_, err := svc.LookupActiveCode("alice")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

// ============================================================================
// generateVerificationCode
// ============================================================================

func TestGenerateVerificationCode_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}
