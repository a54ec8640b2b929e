// Package lifecycle is the single source of truth for the report approval state
// machine and its authorization predicate. It is pure: no I/O, no clock, no
// ambient session state. Callers pass in everything the decision depends on and
// apply the returned Outcome themselves, conditioned on the expected pre-states
// to guard against concurrent modification.
package lifecycle

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/expenseflow/expense_flow_app/internal/apperrors"
	"github.com/expenseflow/expense_flow_app/internal/core/domain"
)

// Action is a request an actor can make against a report.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionSendBack Action = "send_back"
	ActionWithdraw Action = "withdraw"

	// Non-transition permissions, exposed so every entry point (item edits,
	// report deletion, reimbursement marking) consults the same predicate.
	ActionEdit      Action = "edit"
	ActionDelete    Action = "delete"
	ActionReimburse Action = "mark_reimbursed"
)

// Actor is the authenticated identity requesting an action.
type Actor struct {
	UserID string
	Role   domain.UserRole
}

// ReportView is the slice of report state the engine decides on.
type ReportView struct {
	OwnerID      string
	Status       domain.ReportStatus
	TotalAmount  decimal.Decimal
	ExpenseCount int
	Reimbursed   bool
}

// ViewOf projects a persisted report into the state slice the engine needs.
func ViewOf(r *domain.Report, expenseCount int) ReportView {
	return ReportView{
		OwnerID:      r.UserID,
		Status:       r.Status,
		TotalAmount:  r.TotalAmount,
		ExpenseCount: expenseCount,
		Reimbursed:   r.ReimbursedAt != nil,
	}
}

// Outcome tells the caller how to mutate the report row. The caller must apply
// it with a write conditioned on FromStates still holding.
type Outcome struct {
	Status domain.ReportStatus

	// FromStates are the statuses the persisted row must still be in at write
	// time; a conditional update matching zero rows is a concurrency conflict.
	FromStates []domain.ReportStatus

	SetSubmittedAt  bool // stamp submitted_at = now
	RecordApproval  bool // stamp approved_at = now and approver_id = actor
	SetReimbursedAt bool // stamp reimbursed_at = now
	ClearLifecycle  bool // null submitted_at, approved_at, approver_id (back to draft)
}

// fromStates lists, per transition action, every status the action is defined
// for, regardless of actor. An action outside this table is a wrong-state
// error, not an authorization error.
var fromStates = map[Action][]domain.ReportStatus{
	ActionSubmit:    {domain.StatusDraft},
	ActionApprove:   {domain.StatusSubmitted, domain.StatusPendingPartnerApproval},
	ActionReject:    {domain.StatusSubmitted, domain.StatusPendingPartnerApproval},
	ActionSendBack:  {domain.StatusSubmitted, domain.StatusPendingPartnerApproval},
	ActionWithdraw:  {domain.StatusSubmitted, domain.StatusPendingPartnerApproval},
	ActionEdit:      {domain.StatusDraft},
	ActionDelete:    {domain.StatusDraft},
	ActionReimburse: {domain.StatusApproved},
}

func definedFor(action Action, status domain.ReportStatus) bool {
	for _, s := range fromStates[action] {
		if s == status {
			return true
		}
	}
	return false
}

// PermittedActions is the authorization predicate: given who is asking and the
// report's current state, it returns every mutating action the actor may
// request. All other combinations are read-only.
func PermittedActions(report ReportView, actor Actor) []Action {
	isOwner := actor.UserID == report.OwnerID

	var actions []Action
	if isOwner {
		switch report.Status {
		case domain.StatusDraft:
			actions = append(actions, ActionEdit, ActionSubmit, ActionDelete)
		case domain.StatusSubmitted, domain.StatusPendingPartnerApproval:
			actions = append(actions, ActionWithdraw)
		}
	} else {
		switch actor.Role {
		case domain.RoleManager, domain.RoleAdmin:
			if report.Status == domain.StatusSubmitted {
				actions = append(actions, ActionApprove, ActionReject, ActionSendBack)
			}
		case domain.RolePartner:
			if report.Status == domain.StatusSubmitted || report.Status == domain.StatusPendingPartnerApproval {
				actions = append(actions, ActionApprove, ActionReject, ActionSendBack)
			}
		}
	}

	if actor.Role == domain.RoleAdmin && !isOwner &&
		report.Status == domain.StatusApproved && !report.Reimbursed {
		actions = append(actions, ActionReimburse)
	}

	return actions
}

// Can reports whether the predicate permits the actor to perform action.
func Can(report ReportView, actor Actor, action Action) bool {
	for _, a := range PermittedActions(report, actor) {
		if a == action {
			return true
		}
	}
	return false
}

// Authorize checks whether the actor may perform action on the report,
// distinguishing wrong state (ErrInvalidTransition) from lack of permission
// (ErrForbidden). The state check runs first so that, say, approving a rejected
// report reads as a state error for everyone.
func Authorize(report ReportView, actor Actor, action Action) error {
	if !definedFor(action, report.Status) {
		return fmt.Errorf("%w: cannot %s a report in status %q", apperrors.ErrInvalidTransition, action, report.Status)
	}
	if !Can(report, actor, action) {
		if action == ActionApprove && actor.UserID == report.OwnerID {
			return fmt.Errorf("%w: cannot approve your own report", apperrors.ErrForbidden)
		}
		return fmt.Errorf("%w: role %q may not %s a report in status %q", apperrors.ErrForbidden, actor.Role, action, report.Status)
	}
	return nil
}

// Transition validates and computes a lifecycle action. Errors distinguish the
// three rejection kinds the caller needs to surface: wrong state
// (ErrInvalidTransition), not authorized (ErrForbidden) and malformed input
// (ErrValidation). Concurrency conflicts are detected later, when the caller
// applies Outcome.FromStates as a write precondition.
func Transition(report ReportView, actor Actor, action Action, threshold decimal.Decimal) (Outcome, error) {
	if err := Authorize(report, actor, action); err != nil {
		return Outcome{}, err
	}

	out := Outcome{FromStates: []domain.ReportStatus{report.Status}}

	switch action {
	case ActionSubmit:
		if report.ExpenseCount == 0 {
			return Outcome{}, fmt.Errorf("%w: report has no expense items", apperrors.ErrValidation)
		}
		out.Status = domain.StatusSubmitted
		out.SetSubmittedAt = true

	case ActionApprove:
		if escalates(report, actor, threshold) {
			out.Status = domain.StatusPendingPartnerApproval
		} else {
			out.Status = domain.StatusApproved
			out.RecordApproval = true
		}

	case ActionReject:
		out.Status = domain.StatusRejected

	case ActionSendBack, ActionWithdraw:
		out.Status = domain.StatusDraft
		out.ClearLifecycle = true

	case ActionReimburse:
		out.Status = domain.StatusApproved
		out.SetReimbursedAt = true

	default:
		return Outcome{}, fmt.Errorf("%w: %s is not a transition action", apperrors.ErrInvalidTransition, action)
	}

	return out, nil
}

// escalates implements the monetary-limit delegation rule: a manager (or admin)
// approving a submitted report whose total strictly exceeds the threshold routes
// it to partner review instead of finalizing. Partners have unbounded authority,
// and a total equal to the threshold does not escalate.
func escalates(report ReportView, actor Actor, threshold decimal.Decimal) bool {
	if actor.Role == domain.RolePartner {
		return false
	}
	return report.Status == domain.StatusSubmitted && report.TotalAmount.GreaterThan(threshold)
}
