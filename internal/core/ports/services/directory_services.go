package services

import (
	"context"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
)

// DirectorySvcFacade manages the admin-maintained lookup lists presented in
// report and expense forms.
type DirectorySvcFacade interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, name string, requestingUserID string) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, customerID string, requestingUserID string) error

	ListCostCenters(ctx context.Context) ([]domain.CostCenter, error)
	CreateCostCenter(ctx context.Context, name string, requestingUserID string) (*domain.CostCenter, error)
	DeleteCostCenter(ctx context.Context, costCenterID string, requestingUserID string) error

	// ListExpenseCategories returns the configured category list for expense forms.
	ListExpenseCategories(ctx context.Context) []string
}
