package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/dto"
	"github.com/expenseflow/expense_flow_app/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportHandler handles spreadsheet export requests.
type exportHandler struct {
	exportService portssvc.ExportSvcFacade
}

// registerExportRoutes registers the export routes.
func registerExportRoutes(rg *gin.RouterGroup, exportService portssvc.ExportSvcFacade) {
	h := &exportHandler{exportService: exportService}
	rg.GET("/exports/expenses", h.exportExpenses)
}

// exportExpenses godoc
// @Summary Export expenses as a spreadsheet
// @Description Builds an xlsx workbook of expense rows matching the filter (approver roles only). billableOnly restricts rows to approved reports flagged bill-to-customer.
// @Tags exports
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param   startDate query string false "Earliest expense date (2006-01-02)"
// @Param   endDate query string false "Latest expense date (2006-01-02)"
// @Param   customerName query string false "Customer name substring filter"
// @Param   reportID query string false "Restrict to one report"
// @Param   billableOnly query bool false "Only approved, bill-to-customer rows"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 403 {object} map[string]string "Caller is not an approver"
// @Failure 500 {object} map[string]string "Failed to build export"
// @Security BearerAuth
// @Router /exports/expenses [get]
func (h *exportHandler) exportExpenses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ExportExpensesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	filter := domain.ExportFilter{
		CustomerName: params.CustomerName,
		ReportID:     params.ReportID,
		BillableOnly: params.BillableOnly,
	}
	if params.StartDate != "" {
		t, _ := time.Parse("2006-01-02", params.StartDate)
		filter.StartDate = &t
	}
	if params.EndDate != "" {
		// Inclusive end date: filter up to the end of that day.
		t, _ := time.Parse("2006-01-02", params.EndDate)
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &t
	}

	content, filename, err := h.exportService.ExportExpenses(c.Request.Context(), filter, actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to build export")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, content)
}
