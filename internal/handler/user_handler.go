package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/testadmin-api/internal/service"
)

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me возвращает профиль текущего пользователя
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetByID(c.GetString("user_id"))
	if err != nil {
		handleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers возвращает пагинированный список пользователей (только администратор)
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, pageSize := paginationParams(c)

	users, total, err := h.userService.ListUsers(page, pageSize)
	if err != nil {
		handleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":    users,
		"total":    total,
		"page":     page,
		"per_page": pageSize,
	})
}

// DeleteUser удаляет пользователя (только администратор)
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Param("id")); err != nil {
		handleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
