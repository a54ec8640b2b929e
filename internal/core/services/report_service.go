package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/expenseflow/expense_flow_app/internal/apperrors"
	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	"github.com/expenseflow/expense_flow_app/internal/core/lifecycle"
	portsrepo "github.com/expenseflow/expense_flow_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/dto"
	"github.com/expenseflow/expense_flow_app/internal/middleware"
)

// reportService implements the report read, write and lifecycle operations.
type reportService struct {
	reportRepo   portsrepo.ReportRepositoryFacade
	expenseRepo  portsrepo.ExpenseRepositoryFacade
	approvalRepo portsrepo.ApprovalRepositoryFacade
	receipts     portsrepo.ReceiptStore
	threshold    decimal.Decimal
}

// NewReportService creates a new report service.
func NewReportService(reportRepo portsrepo.ReportRepositoryFacade, expenseRepo portsrepo.ExpenseRepositoryFacade, approvalRepo portsrepo.ApprovalRepositoryFacade, receipts portsrepo.ReceiptStore, threshold decimal.Decimal) portssvc.ReportSvcFacade {
	return &reportService{
		reportRepo:   reportRepo,
		expenseRepo:  expenseRepo,
		approvalRepo: approvalRepo,
		receipts:     receipts,
		threshold:    threshold,
	}
}

// Ensure reportService implements the portssvc.ReportSvcFacade interface
var _ portssvc.ReportSvcFacade = (*reportService)(nil)

// canView reports whether the actor may read the report at all: owners see
// their own, approver roles see everything.
func canView(report *domain.Report, actor lifecycle.Actor) bool {
	return report.UserID == actor.UserID || actor.Role.IsApproverRole()
}

func (s *reportService) GetReportByID(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error) {
	report, err := s.reportRepo.FindReportByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to find report %s: %w", reportID, err)
	}
	if !canView(report, actor) {
		middleware.GetLoggerFromCtx(ctx).Warn("Report view denied", slog.String("report_id", reportID))
		return nil, fmt.Errorf("%w: report is not visible to this user", apperrors.ErrForbidden)
	}
	return report, nil
}

func (s *reportService) ListReports(ctx context.Context, actor lifecycle.Actor, status *domain.ReportStatus, limit, offset int) ([]domain.Report, error) {
	reports, err := s.reportRepo.FindReportsByOwner(ctx, actor.UserID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (s *reportService) ListPendingApprovals(ctx context.Context, actor lifecycle.Actor, limit, offset int) ([]domain.Report, error) {
	var statuses []domain.ReportStatus
	switch actor.Role {
	case domain.RoleManager, domain.RoleAdmin:
		statuses = []domain.ReportStatus{domain.StatusSubmitted}
	case domain.RolePartner:
		statuses = []domain.ReportStatus{domain.StatusSubmitted, domain.StatusPendingPartnerApproval}
	default:
		return nil, fmt.Errorf("%w: role %q has no approval queue", apperrors.ErrForbidden, actor.Role)
	}

	reports, err := s.reportRepo.FindReportsByStatus(ctx, statuses, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}

	// Own reports never appear in one's queue.
	queue := reports[:0]
	for _, r := range reports {
		if r.UserID != actor.UserID {
			queue = append(queue, r)
		}
	}
	return queue, nil
}

func (s *reportService) ListProcessedApprovals(ctx context.Context, actor lifecycle.Actor, limit, offset int) ([]domain.Report, error) {
	if !actor.Role.IsApproverRole() {
		return nil, fmt.Errorf("%w: role %q has no approval queue", apperrors.ErrForbidden, actor.Role)
	}
	reports, err := s.reportRepo.FindReportsDecidedBy(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed approvals: %w", err)
	}
	return reports, nil
}

func (s *reportService) ListApprovalHistory(ctx context.Context, reportID string, actor lifecycle.Actor) ([]domain.ApprovalEntry, error) {
	if _, err := s.GetReportByID(ctx, reportID, actor); err != nil {
		return nil, err
	}
	entries, err := s.approvalRepo.FindApprovalsByReportID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval history for report %s: %w", reportID, err)
	}
	return entries, nil
}

func (s *reportService) CreateReport(ctx context.Context, req dto.CreateReportRequest, creatorUserID string) (*domain.Report, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	report := domain.Report{
		ReportID:       uuid.NewString(),
		UserID:         creatorUserID,
		Title:          req.Title,
		Purpose:        req.Purpose,
		Status:         domain.StatusDraft,
		TotalAmount:    decimal.Zero,
		CustomerName:   req.CustomerName,
		BillToCustomer: req.BillToCustomer,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.reportRepo.SaveReport(ctx, report); err != nil {
		logger.Error("Failed to save report", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	logger.Info("Report created", slog.String("report_id", report.ReportID))
	return &report, nil
}

func (s *reportService) UpdateReport(ctx context.Context, reportID string, req dto.UpdateReportRequest, actor lifecycle.Actor) (*domain.Report, error) {
	report, err := s.GetReportByID(ctx, reportID, actor)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Authorize(lifecycle.ViewOf(report, 0), actor, lifecycle.ActionEdit); err != nil {
		return nil, err
	}

	if req.Title != nil {
		report.Title = *req.Title
	}
	if req.Purpose != nil {
		report.Purpose = *req.Purpose
	}
	if req.CustomerName != nil {
		report.CustomerName = req.CustomerName
	}
	if req.BillToCustomer != nil {
		report.BillToCustomer = *req.BillToCustomer
	}
	report.LastUpdatedAt = time.Now()
	report.LastUpdatedBy = actor.UserID

	if err := s.reportRepo.UpdateReportDetails(ctx, *report); err != nil {
		return nil, fmt.Errorf("failed to update report %s: %w", reportID, err)
	}
	return report, nil
}

func (s *reportService) DeleteReport(ctx context.Context, reportID string, actor lifecycle.Actor) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	report, err := s.GetReportByID(ctx, reportID, actor)
	if err != nil {
		return err
	}
	if err := lifecycle.Authorize(lifecycle.ViewOf(report, 0), actor, lifecycle.ActionDelete); err != nil {
		return err
	}

	expenses, err := s.expenseRepo.FindExpensesByReportID(ctx, reportID)
	if err != nil {
		return fmt.Errorf("failed to load expenses of report %s: %w", reportID, err)
	}

	if err := s.reportRepo.DeleteReport(ctx, reportID); err != nil {
		return fmt.Errorf("failed to delete report %s: %w", reportID, err)
	}

	// Blob cleanup is best effort; the rows are already gone.
	for _, exp := range expenses {
		for _, key := range exp.ReceiptKeys {
			if err := s.receipts.Delete(ctx, key); err != nil {
				logger.Warn("Failed to delete receipt blob", slog.String("key", key), slog.String("error", err.Error()))
			}
		}
	}

	logger.Info("Report deleted", slog.String("report_id", reportID))
	return nil
}

func (s *reportService) SubmitReport(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error) {
	return s.transition(ctx, reportID, actor, lifecycle.ActionSubmit, nil, "")
}

func (s *reportService) ApproveReport(ctx context.Context, reportID string, actor lifecycle.Actor, comments *string) (*domain.Report, error) {
	return s.transition(ctx, reportID, actor, lifecycle.ActionApprove, comments, domain.DecisionApproved)
}

func (s *reportService) RejectReport(ctx context.Context, reportID string, actor lifecycle.Actor, comments *string) (*domain.Report, error) {
	return s.transition(ctx, reportID, actor, lifecycle.ActionReject, comments, domain.DecisionRejected)
}

func (s *reportService) SendBackReport(ctx context.Context, reportID string, actor lifecycle.Actor, comments *string) (*domain.Report, error) {
	return s.transition(ctx, reportID, actor, lifecycle.ActionSendBack, comments, domain.DecisionSentBack)
}

func (s *reportService) WithdrawReport(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error) {
	return s.transition(ctx, reportID, actor, lifecycle.ActionWithdraw, nil, "")
}

func (s *reportService) MarkReimbursed(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error) {
	return s.transition(ctx, reportID, actor, lifecycle.ActionReimburse, nil, "")
}

// transition runs one lifecycle action end to end: load, decide, apply with a
// status precondition, then record the decision history when there is one.
// A losing race surfaces as apperrors.ErrConflict from the conditional update.
func (s *reportService) transition(ctx context.Context, reportID string, actor lifecycle.Actor, action lifecycle.Action, comments *string, decision domain.ApprovalDecision) (*domain.Report, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	report, err := s.reportRepo.FindReportByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to find report %s: %w", reportID, err)
	}

	expenseCount := 0
	if action == lifecycle.ActionSubmit {
		expenseCount, err = s.reportRepo.CountExpenses(ctx, reportID)
		if err != nil {
			return nil, fmt.Errorf("failed to count expenses of report %s: %w", reportID, err)
		}
	}

	outcome, err := lifecycle.Transition(lifecycle.ViewOf(report, expenseCount), actor, action, s.threshold)
	if err != nil {
		logger.Warn("Lifecycle action rejected",
			slog.String("report_id", reportID),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	now := time.Now()
	change := domain.StatusChange{
		Status:         outcome.Status,
		ClearLifecycle: outcome.ClearLifecycle,
		UpdatedAt:      now,
		UpdatedBy:      actor.UserID,
	}
	if outcome.SetSubmittedAt {
		change.SubmittedAt = &now
	}
	if outcome.RecordApproval {
		change.ApprovedAt = &now
		change.ApproverID = &actor.UserID
	}
	if outcome.SetReimbursedAt {
		change.ReimbursedAt = &now
	}

	updated, err := s.reportRepo.TransitionStatus(ctx, reportID, outcome.FromStates, change)
	if err != nil {
		logger.Warn("Status transition failed",
			slog.String("report_id", reportID),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to transition report %s: %w", reportID, err)
	}

	if decision != "" {
		approval := domain.Approval{
			ApprovalID: uuid.NewString(),
			ReportID:   reportID,
			ApproverID: actor.UserID,
			Decision:   decision,
			Comments:   comments,
			CreatedAt:  now,
		}
		if err := s.approvalRepo.SaveApproval(ctx, approval); err != nil {
			// The transition itself stuck; report the history failure loudly.
			logger.Error("Failed to record approval history", slog.String("report_id", reportID), slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to record approval for report %s: %w", reportID, err)
		}
	}

	logger.Info("Report transitioned",
		slog.String("report_id", reportID),
		slog.String("action", string(action)),
		slog.String("status", string(updated.Status)),
	)
	return updated, nil
}
