package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/testadmin-api/internal/service"
)

// AuthHandler обрабатывает запросы регистрации и аутентификации
type AuthHandler struct {
	verificationService *service.VerificationService
	authService         *service.AuthService
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(verificationService *service.VerificationService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		verificationService: verificationService,
		authService:         authService,
	}
}

// Структуры запросов и ответов

// SendCodeRequest представляет запрос на выдачу кода подтверждения
type SendCodeRequest struct {
	Telegram string `json:"telegram" binding:"required,min=3,max=64"`
	Name     string `json:"name" binding:"omitempty,max=100"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
}

// VerifyCodeRequest представляет запрос на подтверждение кода (шаг 1)
type VerifyCodeRequest struct {
	Telegram string `json:"telegram" binding:"required"`
	Code     string `json:"code" binding:"required,len=6"`
	UserID   string `json:"user_id" binding:"required,uuid"`
}

// CompleteRegistrationRequest представляет запрос на завершение регистрации (шаг 2)
type CompleteRegistrationRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=50"`
	Name     string `json:"name" binding:"omitempty,max=100"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
	Telegram string `json:"telegram" binding:"omitempty,max=64"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SendCode обрабатывает запрос на выдачу кода подтверждения.
// Сам код в ответ не попадает: забрать его можно только у telegram-бота.
func (h *AuthHandler) SendCode(c *gin.Context) {
	var req SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	result, err := h.verificationService.IssueCode(req.Telegram, req.Name, req.Phone)
	if err != nil {
		handleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": result.UserID})
}

// VerifyCodeStep1 обрабатывает первый шаг подтверждения.
// Неверный код, чужой хендл и истекшая заявка дают один и тот же ответ:
// по нему нельзя перебором выяснить, какие хендлы находятся в процессе регистрации.
func (h *AuthHandler) VerifyCodeStep1(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	if err := h.verificationService.ConfirmStep1(req.Telegram, req.Code, req.UserID); err != nil {
		h.handleVerificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// CompleteRegistration обрабатывает второй шаг: создание пользователя.
// В случае успеха сразу выдаёт access-токен.
func (h *AuthHandler) CompleteRegistration(c *gin.Context) {
	var req CompleteRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	user, err := h.verificationService.CompleteRegistration(service.CompleteRegistrationInput{
		UserID:   req.UserID,
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Telegram: req.Telegram,
	})
	if err != nil {
		h.handleVerificationError(c, err)
		return
	}

	tokenResp, err := h.authService.IssueToken(user)
	if err != nil {
		log.Printf("[AuthHandler] Пользователь %s создан, но выдача токена не удалась: %v", user.ID, err)
		handleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResp)
}

// Login обрабатывает вход по паре логин/пароль
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	tokenResp, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверные учетные данные", "error_type": "invalid_credentials"})
			return
		}
		handleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResp)
}

// handleVerificationError переводит ошибки пайплайна верификации в HTTP-ответы
func (h *AuthHandler) handleVerificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVerificationNotFound):
		// Нарочно неразличимый ответ: не найдено / не совпало / истекло
		c.JSON(http.StatusBadRequest, gin.H{"error": "Код недействителен или истек", "error_type": "verification_failed"})
	case errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Имя пользователя уже занято", "error_type": "username_taken"})
	default:
		handleAppError(c, err)
	}
}
