package dto

import (
	"time"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
)

// CreateNamedEntryRequest creates a customer or cost center.
type CreateNamedEntryRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// CustomerResponse defines the data returned for a customer.
type CustomerResponse struct {
	CustomerID string    `json:"customerID"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CostCenterResponse defines the data returned for a cost center.
type CostCenterResponse struct {
	CostCenterID string    `json:"costCenterID"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ListCustomersResponse wraps the customer list.
type ListCustomersResponse struct {
	Customers []CustomerResponse `json:"customers"`
}

// ListCostCentersResponse wraps the cost center list.
type ListCostCentersResponse struct {
	CostCenters []CostCenterResponse `json:"costCenters"`
}

// CategoriesResponse wraps the configured expense category list.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// ToListCustomersResponse converts domain customers to the list DTO
func ToListCustomersResponse(customers []domain.Customer) ListCustomersResponse {
	res := make([]CustomerResponse, len(customers))
	for i, c := range customers {
		res[i] = CustomerResponse{CustomerID: c.CustomerID, Name: c.Name, CreatedAt: c.CreatedAt}
	}
	return ListCustomersResponse{Customers: res}
}

// ToListCostCentersResponse converts domain cost centers to the list DTO
func ToListCostCentersResponse(centers []domain.CostCenter) ListCostCentersResponse {
	res := make([]CostCenterResponse, len(centers))
	for i, c := range centers {
		res[i] = CostCenterResponse{CostCenterID: c.CostCenterID, Name: c.Name, CreatedAt: c.CreatedAt}
	}
	return ListCostCentersResponse{CostCenters: res}
}
