package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is one discrete cost on a report. Editable only while the parent report
// is in draft, and only by the report owner.
type Expense struct {
	ExpenseID    string          `json:"expenseID"` // Primary Key (UUID)
	ReportID     string          `json:"reportID"`  // FK -> reports.report_id
	UserID       string          `json:"userID"`    // Owner (matches report owner)
	Category     string          `json:"category"`
	CostCenter   string          `json:"costCenter"`
	Amount       decimal.Decimal `json:"amount"` // Positive currency value
	ExpenseDate  time.Time       `json:"expenseDate"`
	Description  *string         `json:"description,omitempty"`
	IsVATInvoice bool            `json:"isVatInvoice"`
	TaxRate      *decimal.Decimal `json:"taxRate,omitempty"` // Required when IsVATInvoice
	ReceiptKeys  []string        `json:"receiptKeys"`        // Opaque blob-store locators
	AuditFields
}

// ExpenseExportRow is one row of the analytics export: an expense joined with its
// report and the involved actors' display names.
type ExpenseExportRow struct {
	ExpenseID      string
	ExpenseDate    time.Time
	Category       string
	CostCenter     string
	Amount         decimal.Decimal
	EmployeeName   string
	CustomerName   *string
	BillToCustomer bool
	ReportTitle    string
	SubmittedAt    *time.Time
	ApprovedAt     *time.Time
	ApproverName   *string
}

// ExportFilter narrows the analytics export query.
type ExportFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	CustomerName string // substring match, empty means no filter
	ReportID     string // restrict to one report, empty means all
	BillableOnly bool   // approved reports flagged bill_to_customer only
}
