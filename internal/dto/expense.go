package dto

import (
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
)

// CreateExpenseRequest defines the data needed to add an expense to a report.
// ExpenseDate is a calendar date, "2006-01-02".
type CreateExpenseRequest struct {
	Category     string           `json:"category" binding:"required"`
	CostCenter   string           `json:"costCenter" binding:"required"`
	Amount       decimal.Decimal  `json:"amount" binding:"required,positivedecimal"`
	ExpenseDate  string           `json:"expenseDate" binding:"required,datetime=2006-01-02"`
	Description  *string          `json:"description" binding:"omitempty,max=2000"`
	IsVATInvoice bool             `json:"isVatInvoice"`
	TaxRate      *decimal.Decimal `json:"taxRate"` // Required when IsVATInvoice
}

// UpdateExpenseRequest defines the data allowed for updating an expense.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateExpenseRequest struct {
	Category     *string          `json:"category"`
	CostCenter   *string          `json:"costCenter"`
	Amount       *decimal.Decimal `json:"amount" binding:"omitempty,positivedecimal"`
	ExpenseDate  *string          `json:"expenseDate" binding:"omitempty,datetime=2006-01-02"`
	Description  *string          `json:"description" binding:"omitempty,max=2000"`
	IsVATInvoice *bool            `json:"isVatInvoice"`
	TaxRate      *decimal.Decimal `json:"taxRate"`
}

// ReceiptUpload is one uploaded receipt file, as read from a multipart form.
type ReceiptUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// ReceiptURLResponse carries a short-lived signed viewing URL.
type ReceiptURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExpenseResponse defines the data returned for an expense.
type ExpenseResponse struct {
	ExpenseID    string           `json:"expenseID"`
	ReportID     string           `json:"reportID"`
	Category     string           `json:"category"`
	CostCenter   string           `json:"costCenter"`
	Amount       decimal.Decimal  `json:"amount"`
	ExpenseDate  string           `json:"expenseDate"`
	Description  *string          `json:"description,omitempty"`
	IsVATInvoice bool             `json:"isVatInvoice"`
	TaxRate      *decimal.Decimal `json:"taxRate,omitempty"`
	ReceiptKeys  []string         `json:"receiptKeys"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// ListExpensesResponse wraps the expenses of a report.
type ListExpensesResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
}

// ToExpenseResponse converts a domain.Expense to ExpenseResponse DTO
func ToExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ExpenseID:    e.ExpenseID,
		ReportID:     e.ReportID,
		Category:     e.Category,
		CostCenter:   e.CostCenter,
		Amount:       e.Amount,
		ExpenseDate:  e.ExpenseDate.Format("2006-01-02"),
		Description:  e.Description,
		IsVATInvoice: e.IsVATInvoice,
		TaxRate:      e.TaxRate,
		ReceiptKeys:  e.ReceiptKeys,
		CreatedAt:    e.CreatedAt,
	}
}

// ToListExpensesResponse converts a slice of domain.Expense to ListExpensesResponse DTO
func ToListExpensesResponse(expenses []domain.Expense) ListExpensesResponse {
	res := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		res[i] = ToExpenseResponse(&expenses[i])
	}
	return ListExpensesResponse{Expenses: res}
}
