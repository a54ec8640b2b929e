package domain

import "time"

// Customer is a billable client selectable on a report.
type Customer struct {
	CustomerID string    `json:"customerID"` // Primary Key (UUID)
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CostCenter is an accounting bucket selectable on an expense.
type CostCenter struct {
	CostCenterID string    `json:"costCenterID"` // Primary Key (UUID)
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}
