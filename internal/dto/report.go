package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	"github.com/expenseflow/expense_flow_app/internal/core/lifecycle"
)

// CreateReportRequest defines the data needed to create a new report.
type CreateReportRequest struct {
	Title          string  `json:"title" binding:"required,max=200"`
	Purpose        string  `json:"purpose" binding:"max=2000"`
	CustomerName   *string `json:"customerName"` // Optional, use pointer for nullability
	BillToCustomer bool    `json:"billToCustomer"`
}

// UpdateReportRequest defines the data allowed for updating a draft report.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateReportRequest struct {
	Title          *string `json:"title" binding:"omitempty,max=200"`
	Purpose        *string `json:"purpose" binding:"omitempty,max=2000"`
	CustomerName   *string `json:"customerName"`
	BillToCustomer *bool   `json:"billToCustomer"`
}

// DecisionRequest carries the optional comment of an approve/reject/send-back call.
type DecisionRequest struct {
	Comments *string `json:"comments" binding:"omitempty,max=2000"`
}

// ListReportsParams defines query parameters for listing reports.
type ListReportsParams struct {
	Status string `form:"status" binding:"omitempty,oneof=draft submitted pending_partner_approval approved rejected"`
	Limit  int    `form:"limit,default=20"`
	Offset int    `form:"offset,default=0"`
}

// ReportResponse defines the data returned for a report.
type ReportResponse struct {
	ReportID       string             `json:"reportID"`
	UserID         string             `json:"userID"`
	Title          string             `json:"title"`
	Purpose        string             `json:"purpose"`
	Status         string             `json:"status"`
	TotalAmount    decimal.Decimal    `json:"totalAmount"`
	CustomerName   *string            `json:"customerName,omitempty"`
	BillToCustomer bool               `json:"billToCustomer"`
	SubmittedAt    *time.Time         `json:"submittedAt,omitempty"`
	ApprovedAt     *time.Time         `json:"approvedAt,omitempty"`
	ReimbursedAt   *time.Time         `json:"reimbursedAt,omitempty"`
	ApproverID     *string            `json:"approverID,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	LastUpdatedAt  time.Time          `json:"lastUpdatedAt"`
	Actions        []lifecycle.Action `json:"actions,omitempty"` // actions the caller may take
}

// ReportDetailResponse is a report with its expense items.
type ReportDetailResponse struct {
	ReportResponse
	Expenses []ExpenseResponse `json:"expenses"`
}

// ListReportsResponse wraps the list of reports.
type ListReportsResponse struct {
	Reports []ReportResponse `json:"reports"`
}

// ApprovalEntryResponse is one row of a report's decision timeline.
type ApprovalEntryResponse struct {
	ApprovalID   string    `json:"approvalID"`
	ApproverID   string    `json:"approverID"`
	ApproverName string    `json:"approverName"`
	Decision     string    `json:"decision"`
	Comments     *string   `json:"comments,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ApprovalHistoryResponse wraps a report's decision timeline.
type ApprovalHistoryResponse struct {
	Approvals []ApprovalEntryResponse `json:"approvals"`
}

// ToReportResponse converts a domain.Report to ReportResponse DTO. Actions is
// left for the caller to fill since it depends on who is asking.
func ToReportResponse(r *domain.Report) ReportResponse {
	return ReportResponse{
		ReportID:       r.ReportID,
		UserID:         r.UserID,
		Title:          r.Title,
		Purpose:        r.Purpose,
		Status:         string(r.Status),
		TotalAmount:    r.TotalAmount,
		CustomerName:   r.CustomerName,
		BillToCustomer: r.BillToCustomer,
		SubmittedAt:    r.SubmittedAt,
		ApprovedAt:     r.ApprovedAt,
		ReimbursedAt:   r.ReimbursedAt,
		ApproverID:     r.ApproverID,
		CreatedAt:      r.CreatedAt,
		LastUpdatedAt:  r.LastUpdatedAt,
	}
}

// ToListReportsResponse converts a slice of domain.Report to ListReportsResponse DTO
func ToListReportsResponse(reports []domain.Report) ListReportsResponse {
	res := make([]ReportResponse, len(reports))
	for i := range reports {
		res[i] = ToReportResponse(&reports[i])
	}
	return ListReportsResponse{Reports: res}
}

// ToApprovalHistoryResponse converts approval entries to the timeline DTO
func ToApprovalHistoryResponse(entries []domain.ApprovalEntry) ApprovalHistoryResponse {
	res := make([]ApprovalEntryResponse, len(entries))
	for i, e := range entries {
		res[i] = ApprovalEntryResponse{
			ApprovalID:   e.ApprovalID,
			ApproverID:   e.ApproverID,
			ApproverName: e.ApproverName,
			Decision:     string(e.Decision),
			Comments:     e.Comments,
			CreatedAt:    e.CreatedAt,
		}
	}
	return ApprovalHistoryResponse{Approvals: res}
}
