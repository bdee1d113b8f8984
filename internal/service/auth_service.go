package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
	"github.com/yourusername/testadmin-api/internal/domain/repository"
	apperrors "github.com/yourusername/testadmin-api/internal/pkg/errors"
	"github.com/yourusername/testadmin-api/pkg/auth"
)

// AuthService предоставляет методы для аутентификации пользователей
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации и возвращает ошибку при проблемах
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("JWT service is required")
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}, nil
}

// TokenResponse содержит access-токен и данные пользователя
type TokenResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

// Login проверяет пару логин/пароль и выдаёт access-токен.
// Неверный логин и неверный пароль неразличимы для клиента.
func (s *AuthService) Login(username, password string) (*TokenResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: failed to load user", apperrors.ErrStorageUnavailable)
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return s.IssueToken(user)
}

// IssueToken выдаёт access-токен для уже аутентифицированного пользователя
// (например, сразу после завершения регистрации)
func (s *AuthService) IssueToken(user *entity.User) (*TokenResponse, error) {
	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &TokenResponse{Token: token, User: user}, nil
}

// EnsureAdmin создаёт администратора при первом запуске, если пользователя
// с таким именем ещё нет. Повторные запуски ничего не меняют.
func (s *AuthService) EnsureAdmin(username, password, name string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		log.Println("[AuthService] Учётные данные администратора не заданы, bootstrap пропущен")
		return nil
	}

	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to check admin user: %w", err)
	}

	admin := &entity.User{
		ID:       uuid.NewString(),
		Username: username,
		Password: password, // хешируется в BeforeSave
		Name:     name,
		Role:     entity.RoleAdmin,
	}
	if err := s.userRepo.Create(admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("[AuthService] Создан администратор username=%s", username)
	return nil
}
