package service

import (
	"fmt"

	"github.com/yourusername/testadmin-api/internal/domain/entity"
	"github.com/yourusername/testadmin-api/internal/domain/repository"
)

// UserService предоставляет методы для работы с пользователями
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository) (*UserService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &UserService{userRepo: userRepo}, nil
}

// GetByID возвращает пользователя по ID
func (s *UserService) GetByID(id string) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}

// ListUsers возвращает пользователей с пагинацией и общим количеством
func (s *UserService) ListUsers(page, pageSize int) ([]entity.User, int64, error) {
	limit, offset := normalizePagination(page, pageSize)
	return s.userRepo.List(limit, offset)
}

// DeleteUser удаляет пользователя
func (s *UserService) DeleteUser(id string) error {
	return s.userRepo.Delete(id)
}
