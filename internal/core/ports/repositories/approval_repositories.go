package repositories

import (
	"context"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
)

// ApprovalRepositoryFacade defines storage for the append-only approval history.
type ApprovalRepositoryFacade interface {
	// SaveApproval appends a decision record.
	SaveApproval(ctx context.Context, approval domain.Approval) error

	// FindApprovalsByReportID retrieves a report's decision history with
	// approver names, oldest first.
	FindApprovalsByReportID(ctx context.Context, reportID string) ([]domain.ApprovalEntry, error)
}
