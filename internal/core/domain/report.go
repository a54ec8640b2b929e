package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportStatus is the lifecycle state of a reimbursement report.
type ReportStatus string

const (
	StatusDraft                  ReportStatus = "draft"
	StatusSubmitted              ReportStatus = "submitted"
	StatusPendingPartnerApproval ReportStatus = "pending_partner_approval"
	StatusApproved               ReportStatus = "approved"
	StatusRejected               ReportStatus = "rejected"
)

// Report is a reimbursement claim aggregating expense line items.
// TotalAmount is derived: it always equals the sum of the report's expenses and is
// recomputed by the expense repository inside the same DB transaction as any item change.
type Report struct {
	ReportID       string          `json:"reportID"` // Primary Key (UUID)
	UserID         string          `json:"userID"`   // Owner; immutable after creation
	Title          string          `json:"title"`
	Purpose        string          `json:"purpose"`
	Status         ReportStatus    `json:"status"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	CustomerName   *string         `json:"customerName,omitempty"`
	BillToCustomer bool            `json:"billToCustomer"`
	SubmittedAt    *time.Time      `json:"submittedAt,omitempty"`
	ApprovedAt     *time.Time      `json:"approvedAt,omitempty"`
	ReimbursedAt   *time.Time      `json:"reimbursedAt,omitempty"`
	ApproverID     *string         `json:"approverID,omitempty"` // Last approving actor
	AuditFields
}

// StatusChange describes the row mutation a lifecycle transition wants applied.
// Pointer fields are set-if-non-nil; ClearLifecycle nulls submitted_at, approved_at
// and approver_id (return to draft).
type StatusChange struct {
	Status         ReportStatus
	SubmittedAt    *time.Time
	ApprovedAt     *time.Time
	ApproverID     *string
	ReimbursedAt   *time.Time
	ClearLifecycle bool
	UpdatedAt      time.Time
	UpdatedBy      string
}
