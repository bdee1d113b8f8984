package handler

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/testadmin-api/internal/handler/dto"
	"github.com/yourusername/testadmin-api/internal/service"
)

// ResultHandler обрабатывает сдачу ответов и доступ к результатам
type ResultHandler struct {
	resultService *service.ResultService
	testService   *service.TestService
}

// NewResultHandler создает новый обработчик результатов
func NewResultHandler(resultService *service.ResultService, testService *service.TestService) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		testService:   testService,
	}
}

// SubmitRequest представляет запрос на сдачу ответов
type SubmitRequest struct {
	TestID  string                    `json:"test_id" binding:"required,uuid"`
	Answers []service.SubmittedAnswer `json:"answers" binding:"required"`
}

// Submit оценивает присланные ответы и возвращает редактированный результат:
// оценку и счётчики, без ключа
func (h *ResultHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	userID := c.GetString("user_id")
	result, err := h.resultService.SubmitAnswers(userID, req.TestID, req.Answers)
	if err != nil {
		handleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewResultDTO(result))
}

// MyResults возвращает результаты текущего пользователя
func (h *ResultHandler) MyResults(c *gin.Context) {
	page, pageSize := paginationParams(c)

	results, err := h.resultService.GetUserResults(c.GetString("user_id"), page, pageSize)
	if err != nil {
		handleAppError(c, err)
		return
	}

	out := make([]*dto.ResultDTO, 0, len(results))
	for i := range results {
		out = append(out, dto.NewResultDTO(&results[i]))
	}
	c.JSON(http.StatusOK, gin.H{"results": out, "page": page, "per_page": pageSize})
}

// TestResults возвращает результаты теста (только администратор)
func (h *ResultHandler) TestResults(c *gin.Context) {
	page, pageSize := paginationParams(c)

	results, total, err := h.resultService.GetTestResults(c.Param("id"), page, pageSize)
	if err != nil {
		handleAppError(c, err)
		return
	}

	out := make([]dto.AdminResultDTO, 0, len(results))
	for i := range results {
		out = append(out, dto.NewAdminResultDTO(&results[i]))
	}
	c.JSON(http.StatusOK, dto.PaginatedResultsResponse{
		Results: out,
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	})
}

// ExportTestResults выгружает все результаты теста в .xlsx (только администратор).
// Используем StreamWriter для эффективной работы с большими файлами.
func (h *ResultHandler) ExportTestResults(c *gin.Context) {
	testID := c.Param("id")

	test, err := h.testService.GetTest(testID)
	if err != nil {
		handleAppError(c, err)
		return
	}

	results, err := h.resultService.GetAllTestResults(testID)
	if err != nil {
		handleAppError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"results_%s.xlsx\"", testID))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Результаты"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[ResultHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file", "error_type": "internal_server_error"})
		return
	}

	// Заголовки
	headers := []interface{}{"Пользователь", "Оценка", "Правильных", "Всего вопросов", "Сдано"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[ResultHandler] Ошибка записи заголовков: %v", err)
	}

	// Данные
	for i, r := range results {
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		cell := fmt.Sprintf("A%d", rowNum)

		row := []interface{}{
			sanitizeForExcel(r.Username),
			r.Score,
			r.CorrectCount,
			r.TotalQuestions,
			r.SubmittedAt.Format("2006-01-02 15:04:05"),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[ResultHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[ResultHandler] Ошибка при Flush: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[ResultHandler] Ошибка записи Excel в response: %v", err)
	}

	log.Printf("[ResultHandler] Экспортировано %d результатов теста %s (%q)", len(results), testID, test.Title)
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
