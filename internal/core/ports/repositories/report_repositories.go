package repositories

import (
	"context"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
)

// ReportReader defines read operations for report data
type ReportReader interface {
	// FindReportByID retrieves a specific report by its ID.
	FindReportByID(ctx context.Context, reportID string) (*domain.Report, error)

	// FindReportsByOwner retrieves a user's reports, newest first, optionally
	// filtered to one status.
	FindReportsByOwner(ctx context.Context, ownerID string, status *domain.ReportStatus, limit, offset int) ([]domain.Report, error)

	// FindReportsByStatus retrieves reports in any of the given statuses,
	// oldest submission first. Used for approval queues.
	FindReportsByStatus(ctx context.Context, statuses []domain.ReportStatus, limit, offset int) ([]domain.Report, error)

	// FindReportsDecidedBy retrieves reports the given approver has recorded a
	// decision on, most recent decision first.
	FindReportsDecidedBy(ctx context.Context, approverID string, limit, offset int) ([]domain.Report, error)

	// CountExpenses returns the number of expense items on a report.
	CountExpenses(ctx context.Context, reportID string) (int, error)
}

// ReportWriter defines write operations for report data
type ReportWriter interface {
	// SaveReport persists a new report.
	SaveReport(ctx context.Context, report domain.Report) error

	// UpdateReportDetails updates a report's editable fields (title, purpose,
	// customer binding). Status and lifecycle stamps are not touched here.
	UpdateReportDetails(ctx context.Context, report domain.Report) error

	// TransitionStatus applies a status change conditioned on the report still
	// being in one of the expected statuses. It returns apperrors.ErrConflict
	// when the condition no longer holds, so a losing concurrent writer fails
	// instead of silently overwriting.
	TransitionStatus(ctx context.Context, reportID string, expected []domain.ReportStatus, change domain.StatusChange) (*domain.Report, error)

	// DeleteReport removes a report and its expenses.
	DeleteReport(ctx context.Context, reportID string) error
}

// ReportRepositoryFacade combines all report-related repository interfaces
type ReportRepositoryFacade interface {
	ReportReader
	ReportWriter
}
