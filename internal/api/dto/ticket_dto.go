package dto

import (
	"github.com/guregu/null/v5"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// TimestampLayout is how every timestamp leaves the API (UTC).
const TimestampLayout = "2006-01-02 15:04:05"

// CreateTicketRequest payload. The owner is always the caller.
type CreateTicketRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	AssignedToID *string               `json:"assignedToId"`
}

// UpdateTicketRequest payload. Absent and null fields are left untouched.
type UpdateTicketRequest struct {
	Description null.String `json:"description"`
	Priority    null.String `json:"priority"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	UserID string `json:"userId"`
}

// UserRefResponse is the compact user shape embedded in tickets and comments.
type UserRefResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TicketResponse is the serialized ticket.
type TicketResponse struct {
	ID              string                `json:"id"`
	Owner           *UserRefResponse      `json:"owner"`
	AssignedTo      *UserRefResponse      `json:"assignedTo"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Priority        domain.TicketPriority `json:"priority"`
	Status          domain.TicketStatus   `json:"status"`
	CreatedAt       string                `json:"createdAt"`
	FirstAssignedAt *string               `json:"firstAssignedAt"`
	LastAssignedAt  *string               `json:"lastAssignedAt"`
}

// MessageResponse acknowledges commands that return no entity.
type MessageResponse struct {
	Message string `json:"message"`
}
