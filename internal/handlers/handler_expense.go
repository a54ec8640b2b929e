package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/dto"
	"github.com/expenseflow/expense_flow_app/internal/middleware"
	"github.com/expenseflow/expense_flow_app/internal/platform/config"
)

// expenseHandler handles HTTP requests related to expense items and receipts.
type expenseHandler struct {
	expenseService portssvc.ExpenseSvcFacade
	receiptURLTTL  time.Duration
}

// newExpenseHandler creates a new expenseHandler.
func newExpenseHandler(es portssvc.ExpenseSvcFacade, cfg *config.Config) *expenseHandler {
	return &expenseHandler{
		expenseService: es,
		receiptURLTTL:  cfg.ReceiptURLTTL,
	}
}

// registerExpenseRoutes registers routes related to expense items.
// Receipt keys contain slashes, so they travel as query parameters.
func registerExpenseRoutes(rg *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade, cfg *config.Config) {
	h := newExpenseHandler(expenseService, cfg)

	rg.POST("/reports/:reportID/expenses", h.addExpense)

	expenses := rg.Group("/expenses")
	{
		expenses.PUT("/:expenseID", h.updateExpense)
		expenses.DELETE("/:expenseID", h.deleteExpense)

		expenses.POST("/:expenseID/receipts", h.attachReceipt)
		expenses.DELETE("/:expenseID/receipts", h.removeReceipt)
		expenses.GET("/:expenseID/receipts/url", h.receiptURL)
	}
}

// addExpense godoc
// @Summary Add an expense to a report
// @Description Adds an expense item to a draft report owned by the caller. The report total is recomputed atomically.
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   reportID path string true "Report ID"
// @Param   expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 409 {object} map[string]string "Report is not a draft"
// @Security BearerAuth
// @Router /reports/{reportID}/expenses [post]
func (h *expenseHandler) addExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddExpense", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	created, err := h.expenseService.AddExpense(c.Request.Context(), c.Param("reportID"), req, actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to add expense")
		return
	}

	logger.Info("Expense added", slog.String("expense_id", created.ExpenseID), slog.String("report_id", created.ReportID))
	c.JSON(http.StatusCreated, dto.ToExpenseResponse(created))
}

// updateExpense godoc
// @Summary Update an expense
// @Description Updates an expense on a draft report owned by the caller. The report total is recomputed atomically.
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Param   expense body dto.UpdateExpenseRequest true "Fields to update"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 409 {object} map[string]string "Report is not a draft"
// @Security BearerAuth
// @Router /expenses/{expenseID} [put]
func (h *expenseHandler) updateExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	updated, err := h.expenseService.UpdateExpense(c.Request.Context(), c.Param("expenseID"), req, actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to update expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(updated))
}

// deleteExpense godoc
// @Summary Delete an expense
// @Description Removes an expense and its stored receipts from a draft report. The report total is recomputed atomically.
// @Tags expenses
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 409 {object} map[string]string "Report is not a draft"
// @Security BearerAuth
// @Router /expenses/{expenseID} [delete]
func (h *expenseHandler) deleteExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), c.Param("expenseID"), actor); err != nil {
		respondWithError(c, logger, err, "Failed to delete expense")
		return
	}

	c.Status(http.StatusNoContent)
}

// attachReceipt godoc
// @Summary Attach a receipt to an expense
// @Description Uploads a receipt file (multipart field "receipt") and attaches it to an expense on a draft report
// @Tags receipts
// @Accept  multipart/form-data
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Param   receipt formData file true "Receipt file (jpg, png, webp or pdf, max 10MB)"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Missing file or unsupported type"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 409 {object} map[string]string "Report is not a draft"
// @Security BearerAuth
// @Router /expenses/{expenseID}/receipts [post]
func (h *expenseHandler) attachReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt file is required (multipart field 'receipt')"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded receipt", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	upload := dto.ReceiptUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Reader:   file,
	}

	updated, err := h.expenseService.AttachReceipt(c.Request.Context(), c.Param("expenseID"), upload, actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to attach receipt")
		return
	}

	logger.Info("Receipt attached", slog.String("expense_id", updated.ExpenseID))
	c.JSON(http.StatusOK, dto.ToExpenseResponse(updated))
}

// removeReceipt godoc
// @Summary Remove a receipt from an expense
// @Description Detaches a receipt key from an expense on a draft report and deletes the stored file
// @Tags receipts
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Param   key query string true "Receipt key"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Missing key"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Expense or receipt not found"
// @Security BearerAuth
// @Router /expenses/{expenseID}/receipts [delete]
func (h *expenseHandler) removeReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt key is required"})
		return
	}

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	updated, err := h.expenseService.RemoveReceipt(c.Request.Context(), c.Param("expenseID"), key, actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to remove receipt")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(updated))
}

// receiptURL godoc
// @Summary Get a signed receipt viewing URL
// @Description Returns a short-lived signed URL for viewing one receipt of an expense the caller may see
// @Tags receipts
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Param   key query string true "Receipt key"
// @Success 200 {object} dto.ReceiptURLResponse
// @Failure 400 {object} map[string]string "Missing key"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Expense or receipt not found"
// @Security BearerAuth
// @Router /expenses/{expenseID}/receipts/url [get]
func (h *expenseHandler) receiptURL(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt key is required"})
		return
	}

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	url, err := h.expenseService.ReceiptURL(c.Request.Context(), c.Param("expenseID"), key, actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to generate receipt URL")
		return
	}

	c.JSON(http.StatusOK, dto.ReceiptURLResponse{
		URL:       url,
		ExpiresAt: time.Now().Add(h.receiptURLTTL),
	})
}
