package services

import (
	"context"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	"github.com/expenseflow/expense_flow_app/internal/core/lifecycle"
	"github.com/expenseflow/expense_flow_app/internal/dto"
)

// ReportReaderSvc defines read operations for reports
type ReportReaderSvc interface {
	// GetReportByID retrieves a report the actor is allowed to see: owners see
	// their own, approver roles see everything.
	GetReportByID(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error)

	// ListReports retrieves the actor's own reports, newest first.
	ListReports(ctx context.Context, actor lifecycle.Actor, status *domain.ReportStatus, limit, offset int) ([]domain.Report, error)

	// ListPendingApprovals retrieves the reports awaiting the actor's decision:
	// submitted for managers, submitted plus escalated for partners.
	ListPendingApprovals(ctx context.Context, actor lifecycle.Actor, limit, offset int) ([]domain.Report, error)

	// ListProcessedApprovals retrieves reports the actor has already decided on.
	ListProcessedApprovals(ctx context.Context, actor lifecycle.Actor, limit, offset int) ([]domain.Report, error)

	// ListApprovalHistory retrieves a report's decision timeline.
	ListApprovalHistory(ctx context.Context, reportID string, actor lifecycle.Actor) ([]domain.ApprovalEntry, error)
}

// ReportWriterSvc defines write operations for report metadata
type ReportWriterSvc interface {
	// CreateReport creates a new draft report owned by the creator.
	CreateReport(ctx context.Context, req dto.CreateReportRequest, creatorUserID string) (*domain.Report, error)

	// UpdateReport updates a draft report's editable fields.
	UpdateReport(ctx context.Context, reportID string, req dto.UpdateReportRequest, actor lifecycle.Actor) (*domain.Report, error)

	// DeleteReport removes a draft report, its expenses and their receipts.
	DeleteReport(ctx context.Context, reportID string, actor lifecycle.Actor) error
}

// ReportLifecycleSvc defines the status transitions of a report
type ReportLifecycleSvc interface {
	// SubmitReport moves a draft into the approval flow.
	SubmitReport(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error)

	// ApproveReport records an approval, finalizing the report or escalating it
	// to partner review when the total exceeds the approval threshold.
	ApproveReport(ctx context.Context, reportID string, actor lifecycle.Actor, comments *string) (*domain.Report, error)

	// RejectReport terminally rejects a report.
	RejectReport(ctx context.Context, reportID string, actor lifecycle.Actor, comments *string) (*domain.Report, error)

	// SendBackReport returns a report to its owner for revision.
	SendBackReport(ctx context.Context, reportID string, actor lifecycle.Actor, comments *string) (*domain.Report, error)

	// WithdrawReport lets the owner pull a report back to draft before a decision.
	WithdrawReport(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error)

	// MarkReimbursed records that an approved report has been paid out.
	MarkReimbursed(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error)
}

// ReportSvcFacade combines all report-related service interfaces
type ReportSvcFacade interface {
	ReportReaderSvc
	ReportWriterSvc
	ReportLifecycleSvc
}
