package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expenseflow/expense_flow_app/internal/apperrors"
	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_flow_app/internal/core/ports/repositories"
)

const reportColumns = `report_id, user_id, title, purpose, status, total_amount,
	customer_name, bill_to_customer, submitted_at, approved_at, reimbursed_at, approver_id,
	created_at, created_by, last_updated_at, last_updated_by`

// ReportRepository is the pgx-backed store for reports.
type ReportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Ensure ReportRepository implements the repository facade
var _ portsrepo.ReportRepositoryFacade = (*ReportRepository)(nil)

func scanReport(row pgx.Row) (*domain.Report, error) {
	var r domain.Report
	err := row.Scan(
		&r.ReportID,
		&r.UserID,
		&r.Title,
		&r.Purpose,
		&r.Status,
		&r.TotalAmount,
		&r.CustomerName,
		&r.BillToCustomer,
		&r.SubmittedAt,
		&r.ApprovedAt,
		&r.ReimbursedAt,
		&r.ApproverID,
		&r.CreatedAt,
		&r.CreatedBy,
		&r.LastUpdatedAt,
		&r.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func collectReports(rows pgx.Rows) ([]domain.Report, error) {
	defer rows.Close()
	reports := []domain.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, *r)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", rows.Err())
	}
	return reports, nil
}

func (r *ReportRepository) FindReportByID(ctx context.Context, reportID string) (*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE report_id = $1;`
	report, err := scanReport(r.db.QueryRow(ctx, query, reportID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: report %s", apperrors.ErrNotFound, reportID)
		}
		return nil, fmt.Errorf("failed to find report by ID: %w", err)
	}
	return report, nil
}

func (r *ReportRepository) FindReportsByOwner(ctx context.Context, ownerID string, status *domain.ReportStatus, limit, offset int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4;
	`
	rows, err := r.db.Query(ctx, query, ownerID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	return collectReports(rows)
}

func (r *ReportRepository) FindReportsByStatus(ctx context.Context, statuses []domain.ReportStatus, limit, offset int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	strs := make([]string, len(statuses))
	for i, s := range statuses {
		strs[i] = string(s)
	}

	// Oldest submission first so approvers work the queue in order.
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE status = ANY($1)
		ORDER BY submitted_at ASC NULLS LAST
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.db.Query(ctx, query, strs, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports by status: %w", err)
	}
	return collectReports(rows)
}

func (r *ReportRepository) FindReportsDecidedBy(ctx context.Context, approverID string, limit, offset int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT r.report_id, r.user_id, r.title, r.purpose, r.status, r.total_amount,
			r.customer_name, r.bill_to_customer, r.submitted_at, r.approved_at, r.reimbursed_at, r.approver_id,
			r.created_at, r.created_by, r.last_updated_at, r.last_updated_by
		FROM reports r
		JOIN approvals a ON a.report_id = r.report_id
		WHERE a.approver_id = $1
		GROUP BY r.report_id
		ORDER BY MAX(a.created_at) DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.db.Query(ctx, query, approverID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query decided reports: %w", err)
	}
	return collectReports(rows)
}

func (r *ReportRepository) CountExpenses(ctx context.Context, reportID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM expenses WHERE report_id = $1;`, reportID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return count, nil
}

func (r *ReportRepository) SaveReport(ctx context.Context, report domain.Report) error {
	query := `
		INSERT INTO reports (report_id, user_id, title, purpose, status, total_amount,
			customer_name, bill_to_customer, submitted_at, approved_at, reimbursed_at, approver_id,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.db.Exec(ctx, query,
		report.ReportID,
		report.UserID,
		report.Title,
		report.Purpose,
		report.Status,
		report.TotalAmount,
		report.CustomerName,
		report.BillToCustomer,
		report.SubmittedAt,
		report.ApprovedAt,
		report.ReimbursedAt,
		report.ApproverID,
		report.CreatedAt,
		report.CreatedBy,
		report.LastUpdatedAt,
		report.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (r *ReportRepository) UpdateReportDetails(ctx context.Context, report domain.Report) error {
	query := `
		UPDATE reports
		SET title = $1, purpose = $2, customer_name = $3, bill_to_customer = $4,
			last_updated_at = $5, last_updated_by = $6
		WHERE report_id = $7;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		report.Title,
		report.Purpose,
		report.CustomerName,
		report.BillToCustomer,
		report.LastUpdatedAt,
		report.LastUpdatedBy,
		report.ReportID,
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: report %s", apperrors.ErrNotFound, report.ReportID)
	}
	return nil
}

// TransitionStatus applies a status change only if the row is still in one of
// the expected statuses. Zero rows affected means a concurrent writer got there
// first, which surfaces as ErrConflict.
func (r *ReportRepository) TransitionStatus(ctx context.Context, reportID string, expected []domain.ReportStatus, change domain.StatusChange) (*domain.Report, error) {
	strs := make([]string, len(expected))
	for i, s := range expected {
		strs[i] = string(s)
	}

	query := `
		UPDATE reports
		SET status = $1,
			submitted_at = CASE
				WHEN $2::timestamptz IS NOT NULL THEN $2
				WHEN $6 THEN NULL
				ELSE submitted_at END,
			approved_at = CASE
				WHEN $3::timestamptz IS NOT NULL THEN $3
				WHEN $6 THEN NULL
				ELSE approved_at END,
			approver_id = CASE
				WHEN $4::text IS NOT NULL THEN $4
				WHEN $6 THEN NULL
				ELSE approver_id END,
			reimbursed_at = COALESCE($5, reimbursed_at),
			last_updated_at = $7,
			last_updated_by = $8
		WHERE report_id = $9 AND status = ANY($10)
		RETURNING ` + reportColumns + `;
	`
	report, err := scanReport(r.db.QueryRow(ctx, query,
		change.Status,
		change.SubmittedAt,
		change.ApprovedAt,
		change.ApproverID,
		change.ReimbursedAt,
		change.ClearLifecycle,
		change.UpdatedAt,
		change.UpdatedBy,
		reportID,
		strs,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The report exists (callers load it first); its status moved under us.
			return nil, fmt.Errorf("%w: report %s changed status concurrently", apperrors.ErrConflict, reportID)
		}
		return nil, fmt.Errorf("failed to transition report status: %w", err)
	}
	return report, nil
}

func (r *ReportRepository) DeleteReport(ctx context.Context, reportID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM approvals WHERE report_id = $1;`, reportID); err != nil {
		return fmt.Errorf("failed to delete report approvals: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM expenses WHERE report_id = $1;`, reportID); err != nil {
		return fmt.Errorf("failed to delete report expenses: %w", err)
	}
	cmdTag, err := tx.Exec(ctx, `DELETE FROM reports WHERE report_id = $1;`, reportID)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: report %s", apperrors.ErrNotFound, reportID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit report deletion: %w", err)
	}
	return nil
}
