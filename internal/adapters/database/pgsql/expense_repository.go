package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expenseflow/expense_flow_app/internal/apperrors"
	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_flow_app/internal/core/ports/repositories"
)

const expenseColumns = `expense_id, report_id, user_id, category, cost_center, amount,
	expense_date, description, is_vat_invoice, tax_rate, receipt_keys,
	created_at, created_by, last_updated_at, last_updated_by`

// ExpenseRepository is the pgx-backed store for expense items. Every write
// recomputes the parent report's total in the same transaction, so reads never
// observe a report total that disagrees with its item sum.
type ExpenseRepository struct {
	db *pgxpool.Pool
}

func NewExpenseRepository(db *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Ensure ExpenseRepository implements the repository facade
var _ portsrepo.ExpenseRepositoryFacade = (*ExpenseRepository)(nil)

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	err := row.Scan(
		&e.ExpenseID,
		&e.ReportID,
		&e.UserID,
		&e.Category,
		&e.CostCenter,
		&e.Amount,
		&e.ExpenseDate,
		&e.Description,
		&e.IsVATInvoice,
		&e.TaxRate,
		&e.ReceiptKeys,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE expense_id = $1;`
	expense, err := scanExpense(r.db.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, expenseID)
		}
		return nil, fmt.Errorf("failed to find expense by ID: %w", err)
	}
	return expense, nil
}

func (r *ExpenseRepository) FindExpensesByReportID(ctx context.Context, reportID string) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE report_id = $1 ORDER BY expense_date, created_at;`
	rows, err := r.db.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating expense rows: %w", rows.Err())
	}
	return expenses, nil
}

func (r *ExpenseRepository) FindExpensesForExport(ctx context.Context, filter domain.ExportFilter) ([]domain.ExpenseExportRow, error) {
	query := `
		SELECT e.expense_id, e.expense_date, e.category, e.cost_center, e.amount,
			u.full_name, r.customer_name, r.bill_to_customer, r.title,
			r.submitted_at, r.approved_at, ap.full_name
		FROM expenses e
		JOIN reports r ON r.report_id = e.report_id
		JOIN users u ON u.user_id = r.user_id
		LEFT JOIN users ap ON ap.user_id = r.approver_id
		WHERE ($1::timestamptz IS NULL OR e.expense_date >= $1)
			AND ($2::timestamptz IS NULL OR e.expense_date <= $2)
			AND ($3 = '' OR r.customer_name ILIKE '%' || $3 || '%')
			AND ($4 = '' OR r.report_id = $4)
			AND (NOT $5 OR (r.status = 'approved' AND r.bill_to_customer))
		ORDER BY e.expense_date, e.created_at;
	`
	rows, err := r.db.Query(ctx, query,
		filter.StartDate, filter.EndDate, filter.CustomerName, filter.ReportID, filter.BillableOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query export rows: %w", err)
	}
	defer rows.Close()

	result := []domain.ExpenseExportRow{}
	for rows.Next() {
		var row domain.ExpenseExportRow
		err := rows.Scan(
			&row.ExpenseID,
			&row.ExpenseDate,
			&row.Category,
			&row.CostCenter,
			&row.Amount,
			&row.EmployeeName,
			&row.CustomerName,
			&row.BillToCustomer,
			&row.ReportTitle,
			&row.SubmittedAt,
			&row.ApprovedAt,
			&row.ApproverName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		result = append(result, row)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating export rows: %w", rows.Err())
	}
	return result, nil
}

// recomputeReportTotal keeps reports.total_amount equal to the sum of the
// report's expense amounts. Must run inside the same transaction as the write.
func recomputeReportTotal(ctx context.Context, tx pgx.Tx, reportID string, now time.Time) error {
	query := `
		UPDATE reports
		SET total_amount = COALESCE((SELECT SUM(amount) FROM expenses WHERE report_id = $1), 0),
			last_updated_at = $2
		WHERE report_id = $1;
	`
	if _, err := tx.Exec(ctx, query, reportID, now); err != nil {
		return fmt.Errorf("failed to recompute report total: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO expenses (expense_id, report_id, user_id, category, cost_center, amount,
			expense_date, description, is_vat_invoice, tax_rate, receipt_keys,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = tx.Exec(ctx, query,
		expense.ExpenseID,
		expense.ReportID,
		expense.UserID,
		expense.Category,
		expense.CostCenter,
		expense.Amount,
		expense.ExpenseDate,
		expense.Description,
		expense.IsVATInvoice,
		expense.TaxRate,
		expense.ReceiptKeys,
		expense.CreatedAt,
		expense.CreatedBy,
		expense.LastUpdatedAt,
		expense.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}

	if err := recomputeReportTotal(ctx, tx, expense.ReportID, expense.LastUpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit expense insert: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) UpdateExpense(ctx context.Context, expense domain.Expense) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE expenses
		SET category = $1, cost_center = $2, amount = $3, expense_date = $4,
			description = $5, is_vat_invoice = $6, tax_rate = $7, receipt_keys = $8,
			last_updated_at = $9, last_updated_by = $10
		WHERE expense_id = $11;
	`
	cmdTag, err := tx.Exec(ctx, query,
		expense.Category,
		expense.CostCenter,
		expense.Amount,
		expense.ExpenseDate,
		expense.Description,
		expense.IsVATInvoice,
		expense.TaxRate,
		expense.ReceiptKeys,
		expense.LastUpdatedAt,
		expense.LastUpdatedBy,
		expense.ExpenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, expense.ExpenseID)
	}

	if err := recomputeReportTotal(ctx, tx, expense.ReportID, expense.LastUpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit expense update: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) DeleteExpense(ctx context.Context, expenseID string, reportID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cmdTag, err := tx.Exec(ctx, `DELETE FROM expenses WHERE expense_id = $1;`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, expenseID)
	}

	if err := recomputeReportTotal(ctx, tx, reportID, time.Now()); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit expense deletion: %w", err)
	}
	return nil
}
