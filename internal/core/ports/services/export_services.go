package services

import (
	"context"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	"github.com/expenseflow/expense_flow_app/internal/core/lifecycle"
)

// ExportSvcFacade produces spreadsheet exports for finance and billing.
type ExportSvcFacade interface {
	// ExportExpenses builds an xlsx workbook of expense rows matching the
	// filter. Approver roles only; a BillableOnly filter restricts rows to
	// approved reports flagged bill-to-customer.
	ExportExpenses(ctx context.Context, filter domain.ExportFilter, actor lifecycle.Actor) ([]byte, string, error)
}
