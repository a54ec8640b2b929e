package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	"github.com/expenseflow/expense_flow_app/internal/core/lifecycle"
	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/dto"
	"github.com/expenseflow/expense_flow_app/internal/middleware"
)

// reportHandler handles HTTP requests related to reimbursement reports.
type reportHandler struct {
	reportService  portssvc.ReportSvcFacade
	expenseService portssvc.ExpenseSvcFacade
}

// newReportHandler creates a new reportHandler.
func newReportHandler(rs portssvc.ReportSvcFacade, es portssvc.ExpenseSvcFacade) *reportHandler {
	return &reportHandler{
		reportService:  rs,
		expenseService: es,
	}
}

// registerReportRoutes registers routes related to reports and their lifecycle.
func registerReportRoutes(rg *gin.RouterGroup, reportService portssvc.ReportSvcFacade, expenseService portssvc.ExpenseSvcFacade) {
	h := newReportHandler(reportService, expenseService)

	reports := rg.Group("/reports")
	{
		reports.POST("", h.createReport)
		reports.GET("", h.listReports)
		reports.GET("/:reportID", h.getReport)
		reports.PUT("/:reportID", h.updateReport)
		reports.DELETE("/:reportID", h.deleteReport)

		reports.POST("/:reportID/submit", h.submitReport)
		reports.POST("/:reportID/approve", h.approveReport)
		reports.POST("/:reportID/reject", h.rejectReport)
		reports.POST("/:reportID/send-back", h.sendBackReport)
		reports.POST("/:reportID/withdraw", h.withdrawReport)
		reports.POST("/:reportID/reimburse", h.markReimbursed)

		reports.GET("/:reportID/approvals", h.listApprovalHistory)
	}

	approvals := rg.Group("/approvals")
	{
		approvals.GET("/pending", h.listPendingApprovals)
		approvals.GET("/processed", h.listProcessedApprovals)
	}
}

// actorOrAbort extracts the authenticated actor from the context or aborts with 401.
func actorOrAbort(c *gin.Context) (lifecycle.Actor, bool) {
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Actor not found in context on authenticated route")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return lifecycle.Actor{}, false
	}
	return actor, true
}

// bindDecision reads the optional comment body of a decision endpoint.
// An empty body is valid; a malformed one is not.
func bindDecision(c *gin.Context) (*string, bool) {
	if c.Request.ContentLength == 0 {
		return nil, true
	}
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return nil, false
	}
	return req.Comments, true
}

// createReport godoc
// @Summary Create a new report
// @Description Creates a new draft reimbursement report owned by the caller
// @Tags reports
// @Accept  json
// @Produce  json
// @Param   report body dto.CreateReportRequest true "Report details"
// @Success 201 {object} dto.ReportResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create report"
// @Security BearerAuth
// @Router /reports [post]
func (h *reportHandler) createReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateReport", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	created, err := h.reportService.CreateReport(c.Request.Context(), req, actor.UserID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create report")
		return
	}

	logger.Info("Report created", slog.String("report_id", created.ReportID))
	resp := dto.ToReportResponse(created)
	resp.Actions = lifecycle.PermittedActions(lifecycle.ViewOf(created, 0), actor)
	c.JSON(http.StatusCreated, resp)
}

// listReports godoc
// @Summary List own reports
// @Description Retrieves the caller's reports, newest first, optionally filtered by status
// @Tags reports
// @Produce  json
// @Param   status query string false "Filter by status" Enums(draft, submitted, pending_partner_approval, approved, rejected)
// @Param   limit query int false "Page size (default 20)"
// @Param   offset query int false "Page offset (default 0)"
// @Success 200 {object} dto.ListReportsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list reports"
// @Security BearerAuth
// @Router /reports [get]
func (h *reportHandler) listReports(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListReportsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var status *domain.ReportStatus
	if params.Status != "" {
		s := domain.ReportStatus(params.Status)
		status = &s
	}

	reports, err := h.reportService.ListReports(c.Request.Context(), actor, status, params.Limit, params.Offset)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list reports")
		return
	}

	c.JSON(http.StatusOK, dto.ToListReportsResponse(reports))
}

// getReport godoc
// @Summary Get a report with its expenses
// @Description Retrieves a report, its expense items and the actions the caller may take on it
// @Tags reports
// @Produce  json
// @Param   reportID path string true "Report ID"
// @Success 200 {object} dto.ReportDetailResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 500 {object} map[string]string "Failed to retrieve report"
// @Security BearerAuth
// @Router /reports/{reportID} [get]
func (h *reportHandler) getReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reportID := c.Param("reportID")

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetReportByID(c.Request.Context(), reportID, actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve report")
		return
	}

	expenses, err := h.expenseService.ListReportExpenses(c.Request.Context(), reportID, actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve report expenses")
		return
	}

	resp := dto.ReportDetailResponse{
		ReportResponse: dto.ToReportResponse(report),
		Expenses:       dto.ToListExpensesResponse(expenses).Expenses,
	}
	resp.Actions = lifecycle.PermittedActions(lifecycle.ViewOf(report, len(expenses)), actor)
	c.JSON(http.StatusOK, resp)
}

// updateReport godoc
// @Summary Update a draft report
// @Description Updates the editable fields of a draft report owned by the caller
// @Tags reports
// @Accept  json
// @Produce  json
// @Param   reportID path string true "Report ID"
// @Param   report body dto.UpdateReportRequest true "Fields to update"
// @Success 200 {object} dto.ReportResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 409 {object} map[string]string "Report is not a draft"
// @Security BearerAuth
// @Router /reports/{reportID} [put]
func (h *reportHandler) updateReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reportID := c.Param("reportID")

	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	updated, err := h.reportService.UpdateReport(c.Request.Context(), reportID, req, actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to update report")
		return
	}

	c.JSON(http.StatusOK, dto.ToReportResponse(updated))
}

// deleteReport godoc
// @Summary Delete a draft report
// @Description Deletes a draft report, its expenses and stored receipts
// @Tags reports
// @Produce  json
// @Param   reportID path string true "Report ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 409 {object} map[string]string "Report is not a draft"
// @Security BearerAuth
// @Router /reports/{reportID} [delete]
func (h *reportHandler) deleteReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reportID := c.Param("reportID")

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.reportService.DeleteReport(c.Request.Context(), reportID, actor); err != nil {
		respondWithError(c, logger, err, "Failed to delete report")
		return
	}

	logger.Info("Report deleted", slog.String("report_id", reportID))
	c.Status(http.StatusNoContent)
}

// transitionResponse writes the post-transition report with refreshed actions.
func (h *reportHandler) transitionResponse(c *gin.Context, actor lifecycle.Actor, report *domain.Report) {
	resp := dto.ToReportResponse(report)
	// Expense count only gates submit, which just happened or is now
	// irrelevant, so 1 is a safe stand-in.
	resp.Actions = lifecycle.PermittedActions(lifecycle.ViewOf(report, 1), actor)
	c.JSON(http.StatusOK, resp)
}

// submitReport godoc
// @Summary Submit a report for approval
// @Description Moves a draft report with at least one expense into the approval flow
// @Tags reports
// @Produce  json
// @Param   reportID path string true "Report ID"
// @Success 200 {object} dto.ReportResponse
// @Failure 400 {object} map[string]string "Report has no expenses"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 409 {object} map[string]string "Report is not a draft"
// @Security BearerAuth
// @Router /reports/{reportID}/submit [post]
func (h *reportHandler) submitReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	report, err := h.reportService.SubmitReport(c.Request.Context(), c.Param("reportID"), actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to submit report")
		return
	}

	logger.Info("Report submitted", slog.String("report_id", report.ReportID))
	h.transitionResponse(c, actor, report)
}

// approveReport godoc
// @Summary Approve a report
// @Description Approves a pending report, escalating to partner review when the total exceeds the approval threshold
// @Tags reports
// @Accept  json
// @Produce  json
// @Param   reportID path string true "Report ID"
// @Param   decision body dto.DecisionRequest false "Optional comment"
// @Success 200 {object} dto.ReportResponse
// @Failure 403 {object} map[string]string "Forbidden (wrong role or own report)"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 409 {object} map[string]string "Report is not pending or was decided concurrently"
// @Security BearerAuth
// @Router /reports/{reportID}/approve [post]
func (h *reportHandler) approveReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	comments, ok := bindDecision(c)
	if !ok {
		return
	}

	report, err := h.reportService.ApproveReport(c.Request.Context(), c.Param("reportID"), actor, comments)
	if err != nil {
		respondWithError(c, logger, err, "Failed to approve report")
		return
	}

	logger.Info("Report approval recorded",
		slog.String("report_id", report.ReportID),
		slog.String("status", string(report.Status)))
	h.transitionResponse(c, actor, report)
}

// rejectReport godoc
// @Summary Reject a report
// @Description Terminally rejects a pending report
// @Tags reports
// @Accept  json
// @Produce  json
// @Param   reportID path string true "Report ID"
// @Param   decision body dto.DecisionRequest false "Optional comment"
// @Success 200 {object} dto.ReportResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 409 {object} map[string]string "Report is not pending or was decided concurrently"
// @Security BearerAuth
// @Router /reports/{reportID}/reject [post]
func (h *reportHandler) rejectReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	comments, ok := bindDecision(c)
	if !ok {
		return
	}

	report, err := h.reportService.RejectReport(c.Request.Context(), c.Param("reportID"), actor, comments)
	if err != nil {
		respondWithError(c, logger, err, "Failed to reject report")
		return
	}

	logger.Info("Report rejected", slog.String("report_id", report.ReportID))
	h.transitionResponse(c, actor, report)
}

// sendBackReport godoc
// @Summary Send a report back for revision
// @Description Returns a pending report to its owner as an editable draft
// @Tags reports
// @Accept  json
// @Produce  json
// @Param   reportID path string true "Report ID"
// @Param   decision body dto.DecisionRequest false "Optional comment"
// @Success 200 {object} dto.ReportResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 409 {object} map[string]string "Report is not pending or was decided concurrently"
// @Security BearerAuth
// @Router /reports/{reportID}/send-back [post]
func (h *reportHandler) sendBackReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	comments, ok := bindDecision(c)
	if !ok {
		return
	}

	report, err := h.reportService.SendBackReport(c.Request.Context(), c.Param("reportID"), actor, comments)
	if err != nil {
		respondWithError(c, logger, err, "Failed to send back report")
		return
	}

	logger.Info("Report sent back", slog.String("report_id", report.ReportID))
	h.transitionResponse(c, actor, report)
}

// withdrawReport godoc
// @Summary Withdraw a pending report
// @Description Lets the owner pull a pending report back to draft before any decision
// @Tags reports
// @Produce  json
// @Param   reportID path string true "Report ID"
// @Success 200 {object} dto.ReportResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 409 {object} map[string]string "Report is not pending or was decided concurrently"
// @Security BearerAuth
// @Router /reports/{reportID}/withdraw [post]
func (h *reportHandler) withdrawReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	report, err := h.reportService.WithdrawReport(c.Request.Context(), c.Param("reportID"), actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to withdraw report")
		return
	}

	logger.Info("Report withdrawn", slog.String("report_id", report.ReportID))
	h.transitionResponse(c, actor, report)
}

// markReimbursed godoc
// @Summary Mark a report as reimbursed
// @Description Records that an approved report has been paid out (admin only)
// @Tags reports
// @Produce  json
// @Param   reportID path string true "Report ID"
// @Success 200 {object} dto.ReportResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 409 {object} map[string]string "Report is not approved"
// @Security BearerAuth
// @Router /reports/{reportID}/reimburse [post]
func (h *reportHandler) markReimbursed(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	report, err := h.reportService.MarkReimbursed(c.Request.Context(), c.Param("reportID"), actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to mark report reimbursed")
		return
	}

	logger.Info("Report marked reimbursed", slog.String("report_id", report.ReportID))
	h.transitionResponse(c, actor, report)
}

// listApprovalHistory godoc
// @Summary Get a report's decision timeline
// @Description Retrieves the chronological approval, rejection and send-back history of a report
// @Tags approvals
// @Produce  json
// @Param   reportID path string true "Report ID"
// @Success 200 {object} dto.ApprovalHistoryResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Report not found"
// @Security BearerAuth
// @Router /reports/{reportID}/approvals [get]
func (h *reportHandler) listApprovalHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	entries, err := h.reportService.ListApprovalHistory(c.Request.Context(), c.Param("reportID"), actor)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve approval history")
		return
	}

	c.JSON(http.StatusOK, dto.ToApprovalHistoryResponse(entries))
}

// listPendingApprovals godoc
// @Summary List reports awaiting the caller's decision
// @Description Retrieves submitted reports for managers, submitted plus escalated reports for partners. Own reports are excluded.
// @Tags approvals
// @Produce  json
// @Param   limit query int false "Page size (default 20)"
// @Param   offset query int false "Page offset (default 0)"
// @Success 200 {object} dto.ListReportsResponse
// @Failure 403 {object} map[string]string "Caller is not an approver"
// @Security BearerAuth
// @Router /approvals/pending [get]
func (h *reportHandler) listPendingApprovals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListReportsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	reports, err := h.reportService.ListPendingApprovals(c.Request.Context(), actor, params.Limit, params.Offset)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list pending approvals")
		return
	}

	c.JSON(http.StatusOK, dto.ToListReportsResponse(reports))
}

// listProcessedApprovals godoc
// @Summary List reports the caller has decided on
// @Description Retrieves reports the caller previously approved, rejected or sent back, most recent decision first
// @Tags approvals
// @Produce  json
// @Param   limit query int false "Page size (default 20)"
// @Param   offset query int false "Page offset (default 0)"
// @Success 200 {object} dto.ListReportsResponse
// @Failure 403 {object} map[string]string "Caller is not an approver"
// @Security BearerAuth
// @Router /approvals/processed [get]
func (h *reportHandler) listProcessedApprovals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListReportsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	reports, err := h.reportService.ListProcessedApprovals(c.Request.Context(), actor, params.Limit, params.Offset)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list processed approvals")
		return
	}

	c.JSON(http.StatusOK, dto.ToListReportsResponse(reports))
}
