package models

import "fmt"

// ModerationStatus is the review state shared by seller applications and listings.
type ModerationStatus string

const (
	StatusPending     ModerationStatus = "pending"
	StatusUnderReview ModerationStatus = "under_review"
	StatusApproved    ModerationStatus = "approved"
	StatusRejected    ModerationStatus = "rejected"
)

// IsValid reports whether s is one of the known statuses.
func (s ModerationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further action may leave s.
func (s ModerationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ModerationAction is an admin decision applied to a moderated entity.
type ModerationAction string

const (
	ActionApprove     ModerationAction = "approve"
	ActionReject      ModerationAction = "reject"
	ActionStartReview ModerationAction = "start_review"
)

// ActionEdit is recorded in the audit trail when an owner edit sends a
// reviewed listing back to pending. It is not an admin action.
const ActionEdit ModerationAction = "edit"

// DefaultRejectionReason is stored when a reject carries no reason.
const DefaultRejectionReason = "No reason provided"

// ParseModerationAction converts a route segment or body value to an action.
func ParseModerationAction(s string) (ModerationAction, error) {
	switch a := ModerationAction(s); a {
	case ActionApprove, ActionReject, ActionStartReview:
		return a, nil
	}
	return "", fmt.Errorf("unknown moderation action %q", s)
}

// Target is the status an entity holds after the action succeeds.
func (a ModerationAction) Target() ModerationStatus {
	switch a {
	case ActionApprove:
		return StatusApproved
	case ActionReject:
		return StatusRejected
	default:
		return StatusUnderReview
	}
}

// AllowedFrom lists the statuses an entity may be in for the action to apply.
func (a ModerationAction) AllowedFrom() []ModerationStatus {
	if a == ActionStartReview {
		return []ModerationStatus{StatusPending}
	}
	return []ModerationStatus{StatusPending, StatusUnderReview}
}

// CanApply reports whether the action is legal from the given status.
func (a ModerationAction) CanApply(from ModerationStatus) bool {
	for _, s := range a.AllowedFrom() {
		if s == from {
			return true
		}
	}
	return false
}

// Transition describes one atomic status change requested by a reviewer.
type Transition struct {
	Action   ModerationAction
	Reviewer string
	Reason   string
}
