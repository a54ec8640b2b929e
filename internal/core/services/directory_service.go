package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_flow_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/middleware"
	"github.com/expenseflow/expense_flow_app/internal/platform/config"
)

// directoryService manages the customer and cost center lookup lists. Admin
// gating happens at the route level; these methods trust their caller.
type directoryService struct {
	directoryRepo portsrepo.DirectoryRepositoryFacade
	categories    []string
}

// NewDirectoryService creates a new directory service.
func NewDirectoryService(directoryRepo portsrepo.DirectoryRepositoryFacade, cfg *config.Config) portssvc.DirectorySvcFacade {
	return &directoryService{
		directoryRepo: directoryRepo,
		categories:    cfg.ExpenseCategories,
	}
}

// Ensure directoryService implements the portssvc.DirectorySvcFacade interface
var _ portssvc.DirectorySvcFacade = (*directoryService)(nil)

func (s *directoryService) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers, err := s.directoryRepo.FindCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *directoryService) CreateCustomer(ctx context.Context, name string, requestingUserID string) (*domain.Customer, error) {
	customer := domain.Customer{
		CustomerID: uuid.NewString(),
		Name:       name,
		CreatedAt:  time.Now(),
	}
	if err := s.directoryRepo.SaveCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	middleware.GetLoggerFromCtx(ctx).Info("Customer created", slog.String("customer_id", customer.CustomerID))
	return &customer, nil
}

func (s *directoryService) DeleteCustomer(ctx context.Context, customerID string, requestingUserID string) error {
	if err := s.directoryRepo.DeleteCustomer(ctx, customerID); err != nil {
		return fmt.Errorf("failed to delete customer %s: %w", customerID, err)
	}
	return nil
}

func (s *directoryService) ListCostCenters(ctx context.Context) ([]domain.CostCenter, error) {
	centers, err := s.directoryRepo.FindCostCenters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cost centers: %w", err)
	}
	return centers, nil
}

func (s *directoryService) CreateCostCenter(ctx context.Context, name string, requestingUserID string) (*domain.CostCenter, error) {
	center := domain.CostCenter{
		CostCenterID: uuid.NewString(),
		Name:         name,
		CreatedAt:    time.Now(),
	}
	if err := s.directoryRepo.SaveCostCenter(ctx, center); err != nil {
		return nil, fmt.Errorf("failed to create cost center: %w", err)
	}
	middleware.GetLoggerFromCtx(ctx).Info("Cost center created", slog.String("cost_center_id", center.CostCenterID))
	return &center, nil
}

func (s *directoryService) DeleteCostCenter(ctx context.Context, costCenterID string, requestingUserID string) error {
	if err := s.directoryRepo.DeleteCostCenter(ctx, costCenterID); err != nil {
		return fmt.Errorf("failed to delete cost center %s: %w", costCenterID, err)
	}
	return nil
}

func (s *directoryService) ListExpenseCategories(ctx context.Context) []string {
	return s.categories
}
