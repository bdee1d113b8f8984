package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/testadmin-api/internal/handler/dto"
	"github.com/yourusername/testadmin-api/internal/service"
)

// TestHandler обрабатывает CRUD-запросы по тестам
type TestHandler struct {
	testService *service.TestService
}

// NewTestHandler создает новый обработчик тестов
func NewTestHandler(testService *service.TestService) *TestHandler {
	return &TestHandler{testService: testService}
}

// CreateTest создает тест вместе с вопросами (только администратор)
func (h *TestHandler) CreateTest(c *gin.Context) {
	var input service.TestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	createdBy := c.GetString("user_id")
	test, err := h.testService.CreateTest(createdBy, input)
	if err != nil {
		handleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, test)
}

// ListTests возвращает пагинированный список тестов без вопросов
func (h *TestHandler) ListTests(c *gin.Context) {
	page, pageSize := paginationParams(c)

	tests, total, err := h.testService.ListTests(page, pageSize)
	if err != nil {
		handleAppError(c, err)
		return
	}

	summaries := make([]dto.TestSummaryDTO, 0, len(tests))
	for i := range tests {
		summaries = append(summaries, dto.NewTestSummaryDTO(&tests[i]))
	}

	c.JSON(http.StatusOK, dto.PaginatedTestsResponse{
		Tests:   summaries,
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	})
}

// GetTest возвращает тест для прохождения: вопросы без эталонных ответов
func (h *TestHandler) GetTest(c *gin.Context) {
	test, err := h.testService.GetTest(c.Param("id"))
	if err != nil {
		handleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTestDTO(test))
}

// GetTestWithAnswers возвращает тест вместе с ключом (только администратор)
func (h *TestHandler) GetTestWithAnswers(c *gin.Context) {
	test, err := h.testService.GetTest(c.Param("id"))
	if err != nil {
		handleAppError(c, err)
		return
	}

	// Сущность сериализует флаги correct и скрывает только CorrectAnswer,
	// поэтому для полного ключа отдаём отдельное представление
	type questionWithAnswer struct {
		ID            string      `json:"id"`
		Text          string      `json:"text"`
		Type          string      `json:"type"`
		Options       interface{} `json:"options,omitempty"`
		CorrectAnswer string      `json:"correct_answer,omitempty"`
		Position      int         `json:"position"`
	}

	questions := make([]questionWithAnswer, 0, len(test.Questions))
	for _, q := range test.Questions {
		questions = append(questions, questionWithAnswer{
			ID:            q.ID,
			Text:          q.Text,
			Type:          q.Type,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Position:      q.Position,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          test.ID,
		"title":       test.Title,
		"description": test.Description,
		"questions":   questions,
		"created_by":  test.CreatedBy,
		"created_at":  test.CreatedAt,
	})
}

// UpdateTest заменяет содержимое теста (только администратор)
func (h *TestHandler) UpdateTest(c *gin.Context) {
	var input service.TestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	test, err := h.testService.UpdateTest(c.Param("id"), c.GetString("user_id"), input)
	if err != nil {
		handleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// DeleteTest удаляет тест (только администратор)
func (h *TestHandler) DeleteTest(c *gin.Context) {
	if err := h.testService.DeleteTest(c.Param("id")); err != nil {
		handleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// paginationParams извлекает page и page_size из query-параметров
func paginationParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
