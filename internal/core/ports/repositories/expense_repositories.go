package repositories

import (
	"context"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
)

// ExpenseReader defines read operations for expense data
type ExpenseReader interface {
	// FindExpenseByID retrieves a specific expense by its ID.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// FindExpensesByReportID retrieves all expenses on a report, by expense date.
	FindExpensesByReportID(ctx context.Context, reportID string) ([]domain.Expense, error)

	// FindExpensesForExport retrieves joined expense rows matching the filter,
	// for the analytics export.
	FindExpensesForExport(ctx context.Context, filter domain.ExportFilter) ([]domain.ExpenseExportRow, error)
}

// ExpenseWriter defines write operations for expense data.
// Every write recomputes the parent report's total_amount in the same
// transaction, so the stored total never drifts from the item sum.
type ExpenseWriter interface {
	// SaveExpense persists a new expense.
	SaveExpense(ctx context.Context, expense domain.Expense) error

	// UpdateExpense updates an existing expense.
	UpdateExpense(ctx context.Context, expense domain.Expense) error

	// DeleteExpense removes an expense.
	DeleteExpense(ctx context.Context, expenseID string, reportID string) error
}

// ExpenseRepositoryFacade combines all expense-related repository interfaces
type ExpenseRepositoryFacade interface {
	ExpenseReader
	ExpenseWriter
}
