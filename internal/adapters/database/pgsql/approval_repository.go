package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_flow_app/internal/core/ports/repositories"
)

// ApprovalRepository stores the append-only decision history.
type ApprovalRepository struct {
	db *pgxpool.Pool
}

func NewApprovalRepository(db *pgxpool.Pool) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Ensure ApprovalRepository implements the repository facade
var _ portsrepo.ApprovalRepositoryFacade = (*ApprovalRepository)(nil)

func (r *ApprovalRepository) SaveApproval(ctx context.Context, approval domain.Approval) error {
	query := `
		INSERT INTO approvals (approval_id, report_id, approver_id, decision, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.db.Exec(ctx, query,
		approval.ApprovalID,
		approval.ReportID,
		approval.ApproverID,
		approval.Decision,
		approval.Comments,
		approval.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save approval: %w", err)
	}
	return nil
}

func (r *ApprovalRepository) FindApprovalsByReportID(ctx context.Context, reportID string) ([]domain.ApprovalEntry, error) {
	query := `
		SELECT a.approval_id, a.report_id, a.approver_id, a.decision, a.comments, a.created_at, u.full_name
		FROM approvals a
		JOIN users u ON u.user_id = a.approver_id
		WHERE a.report_id = $1
		ORDER BY a.created_at ASC;
	`
	rows, err := r.db.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer rows.Close()

	entries := []domain.ApprovalEntry{}
	for rows.Next() {
		var e domain.ApprovalEntry
		err := rows.Scan(
			&e.ApprovalID,
			&e.ReportID,
			&e.ApproverID,
			&e.Decision,
			&e.Comments,
			&e.CreatedAt,
			&e.ApproverName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval row: %w", err)
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating approval rows: %w", rows.Err())
	}
	return entries, nil
}
