package repositories

import (
	"context"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
)

// DirectoryRepositoryFacade defines storage for the two admin-maintained
// lookup lists: customers and cost centers.
type DirectoryRepositoryFacade interface {
	FindCustomers(ctx context.Context) ([]domain.Customer, error)
	SaveCustomer(ctx context.Context, customer domain.Customer) error
	DeleteCustomer(ctx context.Context, customerID string) error

	FindCostCenters(ctx context.Context) ([]domain.CostCenter, error)
	SaveCostCenter(ctx context.Context, costCenter domain.CostCenter) error
	DeleteCostCenter(ctx context.Context, costCenterID string) error
}
