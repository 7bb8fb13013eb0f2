package events

import (
	"context"
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketUnassigned    EventType = "ticket_unassigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventCommentAdded        EventType = "comment_added"
	EventCommentDeleted      EventType = "comment_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	OwnerID    string                `json:"owner_id"`
	AssigneeID *string               `json:"assignee_id,omitempty"`
	Title      string                `json:"title"`
	Priority   domain.TicketPriority `json:"priority"`
	Status     domain.TicketStatus   `json:"status"`
}

// TicketUpdatedPayload lists only the fields that changed.
type TicketUpdatedPayload struct {
	OldPriority    *domain.TicketPriority `json:"old_priority,omitempty"`
	NewPriority    *domain.TicketPriority `json:"new_priority,omitempty"`
	DescriptionSet bool                   `json:"description_set"`
}

// TicketAssignmentPayload is shared by assign and unassign events.
type TicketAssignmentPayload struct {
	OldAssigneeID *string `json:"old_assignee_id,omitempty"`
	NewAssigneeID *string `json:"new_assignee_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// CommentPayload is shared by comment events.
type CommentPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview,omitempty"`
}

type actorKey struct{}

// WithActor attaches the id of the user performing the current operation.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the acting user id, if one was attached.
func ActorFromContext(ctx context.Context) *string {
	id, ok := ctx.Value(actorKey{}).(string)
	if !ok || id == "" {
		return nil
	}
	return &id
}
