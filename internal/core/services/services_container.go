package services

import (
	portsrepo "github.com/expenseflow/expense_flow_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.User = NewUserService(repos.UserRepo)
	container.Report = NewReportService(repos.ReportRepo, repos.ExpenseRepo, repos.ApprovalRepo, repos.Receipts, cfg.ApprovalThreshold)
	container.Expense = NewExpenseService(repos.ExpenseRepo, repos.ReportRepo, repos.Receipts, cfg)
	container.Directory = NewDirectoryService(repos.DirectoryRepo, cfg)
	container.Export = NewExportService(repos.ExpenseRepo)

	return container
}
