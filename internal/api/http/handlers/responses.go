package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(dto.TimestampLayout)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func userRef(ref domain.UserRef) *dto.UserRefResponse {
	return &dto.UserRefResponse{ID: ref.ID, Email: ref.Email}
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:              ticket.ID,
		Owner:           userRef(ticket.Owner),
		Title:           ticket.Title,
		Description:     ticket.Description,
		Priority:        ticket.Priority,
		Status:          ticket.Status,
		CreatedAt:       formatTime(ticket.CreatedAt),
		FirstAssignedAt: formatOptionalTime(ticket.FirstAssignedAt),
		LastAssignedAt:  formatOptionalTime(ticket.LastAssignedAt),
	}
	if ticket.AssignedTo != nil {
		resp.AssignedTo = userRef(*ticket.AssignedTo)
	}
	return resp
}

func ticketList(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		Author:    *userRef(comment.Author),
		Content:   comment.Content,
		CreatedAt: formatTime(comment.CreatedAt),
		Deleted:   comment.Deleted,
	}
}

func historyResponse(entry *domain.TicketHistory) dto.TicketHistoryResponse {
	return dto.TicketHistoryResponse{
		ID:         entry.ID,
		TicketID:   entry.TicketID,
		ActorID:    entry.ActorID,
		ChangeType: entry.ChangeType,
		OldValue:   entry.OldValue,
		NewValue:   entry.NewValue,
		CreatedAt:  formatTime(entry.CreatedAt),
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Roles:     roles,
		CreatedAt: formatTime(user.CreatedAt),
	}
}

func message(c *fiber.Ctx, text string) error {
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: text}})
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewInvalidArgument("Invalid JSON data", nil)
	}
	return nil
}
