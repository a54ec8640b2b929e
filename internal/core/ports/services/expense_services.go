package services

import (
	"context"
	"io"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	"github.com/expenseflow/expense_flow_app/internal/core/lifecycle"
	"github.com/expenseflow/expense_flow_app/internal/dto"
)

// ExpenseReaderSvc defines read operations for expense items
type ExpenseReaderSvc interface {
	// ListReportExpenses retrieves the expenses of a report the actor may see.
	ListReportExpenses(ctx context.Context, reportID string, actor lifecycle.Actor) ([]domain.Expense, error)
}

// ExpenseWriterSvc defines write operations for expense items.
// All writes require the parent report to be a draft owned by the actor.
type ExpenseWriterSvc interface {
	// AddExpense adds an expense to a draft report.
	AddExpense(ctx context.Context, reportID string, req dto.CreateExpenseRequest, actor lifecycle.Actor) (*domain.Expense, error)

	// UpdateExpense updates an expense on a draft report.
	UpdateExpense(ctx context.Context, expenseID string, req dto.UpdateExpenseRequest, actor lifecycle.Actor) (*domain.Expense, error)

	// DeleteExpense removes an expense and its stored receipts.
	DeleteExpense(ctx context.Context, expenseID string, actor lifecycle.Actor) error
}

// ReceiptSvc defines attachment handling for expense receipts
type ReceiptSvc interface {
	// AttachReceipt stores an uploaded receipt blob and records its key on the
	// expense. The blob is written before the row, so a failed write never
	// leaves a dangling key.
	AttachReceipt(ctx context.Context, expenseID string, upload dto.ReceiptUpload, actor lifecycle.Actor) (*domain.Expense, error)

	// RemoveReceipt detaches a receipt key from the expense and deletes the blob.
	RemoveReceipt(ctx context.Context, expenseID string, key string, actor lifecycle.Actor) (*domain.Expense, error)

	// ReceiptURL returns a short-lived signed URL for viewing one receipt of an
	// expense the actor may see.
	ReceiptURL(ctx context.Context, expenseID string, key string, actor lifecycle.Actor) (string, error)

	// OpenReceiptByToken validates a signed receipt token and opens the blob.
	// The returned content type is derived from the key's extension.
	OpenReceiptByToken(ctx context.Context, token string) (io.ReadCloser, string, error)
}

// ExpenseSvcFacade combines all expense-related service interfaces
type ExpenseSvcFacade interface {
	ExpenseReaderSvc
	ExpenseWriterSvc
	ReceiptSvc
}
