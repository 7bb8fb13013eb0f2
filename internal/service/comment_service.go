package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

const commentPreviewLen = 80

// CommentService applies the comment policy: only the ticket owner or assignee may
// comment, and only the author may delete. Deletion is soft.
type CommentService struct {
	comments repository.CommentRepository
	bus      publisher
	now      func() time.Time
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		comments: deps.CommentRepo,
		bus:      publisher{dispatcher: deps.Dispatcher, logger: loggerOrNop(deps.Logger)},
		now:      clockOrNow(deps.Clock),
	}
}

// AddComment stores a comment by author on ticket.
func (s *CommentService) AddComment(ctx context.Context, ticket *domain.Ticket, author *domain.User, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewInvalidArgument("Comment content is required", nil)
	}
	if author == nil || !domain.CanComment(ticket, author.ID) {
		return nil, apperrors.NewForbidden("only the ticket owner or assignee may comment")
	}

	comment := &domain.Comment{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		Author:    author.Ref(),
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticket.ID})
		}
		return nil, apperrors.MapError(err)
	}

	s.bus.publish(ctx, events.EventCommentAdded, ticket.ID, comment.CreatedAt, events.CommentPayload{
		CommentID:   comment.ID,
		AuthorID:    author.ID,
		BodyPreview: preview(content),
	})
	return comment, nil
}

// DeleteComment marks the comment deleted. The content is kept for audit.
func (s *CommentService) DeleteComment(ctx context.Context, comment *domain.Comment, caller *domain.User) error {
	if caller == nil || !domain.CanDeleteComment(comment, caller.ID) {
		return apperrors.NewForbidden("only the author may delete a comment")
	}

	next := *comment
	next.Deleted = true
	if err := s.comments.Update(ctx, &next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("comment", map[string]any{"id": comment.ID})
		}
		return apperrors.MapError(err)
	}
	*comment = next

	s.bus.publish(ctx, events.EventCommentDeleted, comment.TicketID, s.now().UTC(), events.CommentPayload{
		CommentID: comment.ID,
		AuthorID:  comment.Author.ID,
	})
	return nil
}

// GetComment returns nil, nil when the comment is absent or deleted.
func (s *CommentService) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// ListComments returns the visible comments of a ticket, oldest first.
func (s *CommentService) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	return s.list(ctx, repository.CommentFilter{TicketID: ticketID})
}

// ListCommentsForAudit includes soft-deleted comments. Admins only.
func (s *CommentService) ListCommentsForAudit(ctx context.Context, caller *domain.User, ticketID string) ([]domain.Comment, error) {
	if caller == nil || !caller.HasRole(domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("admin role required")
	}
	return s.list(ctx, repository.CommentFilter{TicketID: ticketID, IncludeDeleted: true})
}

func (s *CommentService) list(ctx context.Context, filter repository.CommentFilter) ([]domain.Comment, error) {
	comments, err := s.comments.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

func preview(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= commentPreviewLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:commentPreviewLen]) + "..."
}
