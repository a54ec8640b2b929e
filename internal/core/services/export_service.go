package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/expenseflow/expense_flow_app/internal/apperrors"
	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	"github.com/expenseflow/expense_flow_app/internal/core/lifecycle"
	portsrepo "github.com/expenseflow/expense_flow_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/middleware"
)

// exportService builds xlsx workbooks of expense data for finance and billing.
type exportService struct {
	expenseRepo portsrepo.ExpenseRepositoryFacade
}

// NewExportService creates a new export service.
func NewExportService(expenseRepo portsrepo.ExpenseRepositoryFacade) portssvc.ExportSvcFacade {
	return &exportService{expenseRepo: expenseRepo}
}

// Ensure exportService implements the portssvc.ExportSvcFacade interface
var _ portssvc.ExportSvcFacade = (*exportService)(nil)

var exportHeaders = []string{
	"Expense Date", "Category", "Cost Center", "Amount", "Employee",
	"Customer", "Billable", "Report Title", "Submitted At", "Approved At", "Approved By",
}

func (s *exportService) ExportExpenses(ctx context.Context, filter domain.ExportFilter, actor lifecycle.Actor) ([]byte, string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.Role.IsApproverRole() {
		return nil, "", fmt.Errorf("%w: exports are limited to approver roles", apperrors.ErrForbidden)
	}

	rows, err := s.expenseRepo.FindExpensesForExport(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query export rows: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Expenses"
	f.SetSheetName("Sheet1", sheet)

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, r := range rows {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.ExpenseDate.Format("2006-01-02"))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Category)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.CostCenter)
		amount, _ := r.Amount.Float64()
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), amount)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.EmployeeName)
		if r.CustomerName != nil {
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), *r.CustomerName)
		}
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), r.BillToCustomer)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), r.ReportTitle)
		if r.SubmittedAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), r.SubmittedAt.Format("2006-01-02 15:04"))
		}
		if r.ApprovedAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("J%d", row), r.ApprovedAt.Format("2006-01-02 15:04"))
		}
		if r.ApproverName != nil {
			f.SetCellValue(sheet, fmt.Sprintf("K%d", row), *r.ApproverName)
		}
	}

	f.SetColWidth(sheet, "A", "K", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("expenses_%s.xlsx", time.Now().Format("20060102_150405"))
	logger.Info("Expense export generated", slog.Int("rows", len(rows)), slog.String("filename", filename))
	return buf.Bytes(), filename, nil
}
