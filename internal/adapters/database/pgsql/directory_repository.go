package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expenseflow/expense_flow_app/internal/apperrors"
	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	portsrepo "github.com/expenseflow/expense_flow_app/internal/core/ports/repositories"
)

// DirectoryRepository stores the customer and cost center lookup lists.
type DirectoryRepository struct {
	db *pgxpool.Pool
}

func NewDirectoryRepository(db *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// Ensure DirectoryRepository implements the repository facade
var _ portsrepo.DirectoryRepositoryFacade = (*DirectoryRepository)(nil)

func (r *DirectoryRepository) FindCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT customer_id, name, created_at FROM customers ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating customer rows: %w", rows.Err())
	}
	return customers, nil
}

func (r *DirectoryRepository) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	query := `INSERT INTO customers (customer_id, name, created_at) VALUES ($1, $2, $3);`
	_, err := r.db.Exec(ctx, query, customer.CustomerID, customer.Name, customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: customer %s", apperrors.ErrDuplicate, customer.Name)
		}
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

func (r *DirectoryRepository) DeleteCustomer(ctx context.Context, customerID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE customer_id = $1;`, customerID)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %s", apperrors.ErrNotFound, customerID)
	}
	return nil
}

func (r *DirectoryRepository) FindCostCenters(ctx context.Context) ([]domain.CostCenter, error) {
	rows, err := r.db.Query(ctx, `SELECT cost_center_id, name, created_at FROM cost_centers ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost centers: %w", err)
	}
	defer rows.Close()

	centers := []domain.CostCenter{}
	for rows.Next() {
		var c domain.CostCenter
		if err := rows.Scan(&c.CostCenterID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cost center row: %w", err)
		}
		centers = append(centers, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating cost center rows: %w", rows.Err())
	}
	return centers, nil
}

func (r *DirectoryRepository) SaveCostCenter(ctx context.Context, costCenter domain.CostCenter) error {
	query := `INSERT INTO cost_centers (cost_center_id, name, created_at) VALUES ($1, $2, $3);`
	_, err := r.db.Exec(ctx, query, costCenter.CostCenterID, costCenter.Name, costCenter.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: cost center %s", apperrors.ErrDuplicate, costCenter.Name)
		}
		return fmt.Errorf("failed to save cost center: %w", err)
	}
	return nil
}

func (r *DirectoryRepository) DeleteCostCenter(ctx context.Context, costCenterID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cost_centers WHERE cost_center_id = $1;`, costCenterID)
	if err != nil {
		return fmt.Errorf("failed to delete cost center: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cost center %s", apperrors.ErrNotFound, costCenterID)
	}
	return nil
}
