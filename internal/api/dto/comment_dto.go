package dto

import "github.com/spec-kit/ticket-tracker/internal/domain"

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse is the serialized comment. Deleted is only ever true on audit listings.
type CommentResponse struct {
	ID        string          `json:"id"`
	TicketID  string          `json:"ticketId"`
	Author    UserRefResponse `json:"author"`
	Content   string          `json:"content"`
	CreatedAt string          `json:"createdAt"`
	Deleted   bool            `json:"deleted,omitempty"`
}

// TicketHistoryResponse is one audit trail entry.
type TicketHistoryResponse struct {
	ID         string                  `json:"id"`
	TicketID   string                  `json:"ticketId"`
	ActorID    *string                 `json:"actorId"`
	ChangeType domain.TicketChangeType `json:"changeType"`
	OldValue   map[string]any          `json:"oldValue,omitempty"`
	NewValue   map[string]any          `json:"newValue,omitempty"`
	CreatedAt  string                  `json:"createdAt"`
}
