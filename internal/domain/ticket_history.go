package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeCreated        TicketChangeType = "CREATED"
	ChangeTypeUpdated        TicketChangeType = "UPDATED"
	ChangeTypeAssignee       TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypeStatus         TicketChangeType = "STATUS_CHANGE"
	ChangeTypeDeleted        TicketChangeType = "DELETED"
	ChangeTypeCommentAdded   TicketChangeType = "COMMENT_ADDED"
	ChangeTypeCommentDeleted TicketChangeType = "COMMENT_DELETED"
)

// TicketHistory is an immutable audit trail entry. Entries outlive the ticket.
type TicketHistory struct {
	ID         string
	TicketID   string
	ActorID    *string
	ChangeType TicketChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
