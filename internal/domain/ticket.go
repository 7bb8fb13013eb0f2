package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusWaiting    TicketStatus = "waiting"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusDone       TicketStatus = "done"
)

// Valid reports whether s is one of the enumerated statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusWaiting, TicketStatusInProgress, TicketStatusDone:
		return true
	}
	return false
}

// TicketPriority enumerates ticket urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityHigh   TicketPriority = "high"
)

// Valid reports whether p is one of the enumerated priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for tracked work.
type Ticket struct {
	ID              string
	Owner           UserRef
	AssignedTo      *UserRef
	Title           string
	Description     string
	Priority        TicketPriority
	Status          TicketStatus
	CreatedAt       time.Time
	FirstAssignedAt *time.Time
	LastAssignedAt  *time.Time
}

// IsOwnedBy compares by user id.
func (t *Ticket) IsOwnedBy(userID string) bool {
	return t.Owner.ID == userID
}

// IsAssignedTo compares by user id; an unassigned ticket is assigned to nobody.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && t.AssignedTo.ID == userID
}

// Assign records a (re)assignment at the given instant. FirstAssignedAt is only
// ever written once.
func (t *Ticket) Assign(user UserRef, at time.Time) {
	t.AssignedTo = &user
	last := at
	t.LastAssignedAt = &last
	if t.FirstAssignedAt == nil {
		first := at
		t.FirstAssignedAt = &first
	}
}

// Unassign clears the assignee and keeps the assignment timestamps.
func (t *Ticket) Unassign() {
	t.AssignedTo = nil
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (t *Ticket) Clone() Ticket {
	out := *t
	if t.AssignedTo != nil {
		ref := *t.AssignedTo
		out.AssignedTo = &ref
	}
	out.FirstAssignedAt = cloneTime(t.FirstAssignedAt)
	out.LastAssignedAt = cloneTime(t.LastAssignedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
