package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/persistence"
	"github.com/spec-kit/ticket-tracker/internal/service"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// CommentsHandler exposes ticket comments and the ticket audit trail.
type CommentsHandler struct {
	tickets  *service.TicketService
	comments *service.CommentService
	history  *service.HistoryService
	locker   persistence.Locker
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(tickets *service.TicketService, comments *service.CommentService, history *service.HistoryService, locker persistence.Locker) *CommentsHandler {
	return &CommentsHandler{tickets: tickets, comments: comments, history: history, locker: locker}
}

// AddComment POST /tickets/:id/comments.
func (h *CommentsHandler) AddComment(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var comment *domain.Comment
	ctx := events.WithActor(c.UserContext(), caller.ID)
	err = withLockedTicket(ctx, h.locker, h.tickets, c.Params("id"), func(ticket *domain.Ticket) error {
		added, err := h.comments.AddComment(ctx, ticket, caller, req.Content)
		comment = added
		return err
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	ticket, err := loadTicket(c.UserContext(), h.tickets, c.Params("id"))
	if err != nil {
		return err
	}
	comments, err := h.comments.ListComments(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": commentList(comments)})
}

// AuditComments GET /tickets/:id/comments/audit. Includes deleted comments.
func (h *CommentsHandler) AuditComments(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	comments, err := h.comments.ListCommentsForAudit(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": commentList(comments)})
}

// DeleteComment DELETE /comments/:id.
func (h *CommentsHandler) DeleteComment(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	ctx := events.WithActor(c.UserContext(), caller.ID)

	release, err := lock(ctx, h.locker, "comment:"+id)
	if err != nil {
		return err
	}
	defer release()

	comment, err := h.comments.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if comment == nil {
		return apperrors.NewNotFound("comment", map[string]any{"id": id})
	}
	if err := h.comments.DeleteComment(ctx, comment, caller); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// History GET /tickets/:id/history. Works for deleted tickets too.
func (h *CommentsHandler) History(c *fiber.Ctx) error {
	entries, err := h.history.ListHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"id": c.Params("id")})
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, historyResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func commentList(comments []domain.Comment) []dto.CommentResponse {
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return items
}
