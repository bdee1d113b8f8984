package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/testadmin-api/internal/pkg/errors"
)

// handleAppError переводит сентинельные ошибки слоя сервисов в HTTP-ответы
// с устойчивым error_type
func handleAppError(c *gin.Context, err error) {
	log.Printf("[Handler] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка валидации данных", "error_type": "validation_error"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Ошибка аутентификации", "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Доступ запрещен", "error_type": "forbidden"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Запрашиваемый ресурс не найден", "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Конфликт данных", "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrStorageUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Хранилище временно недоступно", "error_type": "storage_unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера", "error_type": "internal_server_error"})
	}
}
