package domain

import "time"

// ApprovalDecision is the outcome an approver recorded on a report.
type ApprovalDecision string

const (
	DecisionApproved ApprovalDecision = "approved"
	DecisionRejected ApprovalDecision = "rejected"
	DecisionSentBack ApprovalDecision = "sent_back"
)

// Approval is one entry of the append-only decision history for a report.
// It records what an approver did, not the resulting report status: a manager
// approval above the threshold still records DecisionApproved even though the
// report only moves to pending_partner_approval.
type Approval struct {
	ApprovalID string           `json:"approvalID"` // Primary Key (UUID)
	ReportID   string           `json:"reportID"`   // FK -> reports.report_id
	ApproverID string           `json:"approverID"` // FK -> users.user_id
	Decision   ApprovalDecision `json:"decision"`
	Comments   *string          `json:"comments,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// ApprovalEntry is an approval joined with the approver's display name, as
// shown in a report's decision timeline.
type ApprovalEntry struct {
	Approval
	ApproverName string `json:"approverName"`
}
