package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// HistoryService turns domain events into ticket_history rows.
type HistoryService struct {
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewHistoryService creates the service.
func NewHistoryService(history repository.TicketHistoryRepository, dispatcher events.Dispatcher, logger *zap.Logger) *HistoryService {
	return &HistoryService{
		history:    history,
		dispatcher: dispatcher,
		logger:     loggerOrNop(logger),
	}
}

// RegisterHandlers subscribes to every ticket and comment event.
func (h *HistoryService) RegisterHandlers() {
	if h.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketAssigned,
		events.EventTicketUnassigned,
		events.EventTicketStatusChanged,
		events.EventTicketDeleted,
		events.EventCommentAdded,
		events.EventCommentDeleted,
	} {
		h.dispatcher.Subscribe(eventType, h.record)
	}
}

// ListHistory returns the audit trail of a ticket, oldest first. Entries of deleted
// tickets remain readable.
func (h *HistoryService) ListHistory(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	entries, err := h.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (h *HistoryService) record(ctx context.Context, event events.Event) error {
	changeType, oldValue, newValue := describe(event)
	if changeType == "" {
		h.logger.Debug("ignoring event", zap.String("event_type", string(event.Type)))
		return nil
	}

	createdAt := event.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	entry := &domain.TicketHistory{
		ID:         uuid.NewString(),
		TicketID:   event.TicketID,
		ActorID:    event.ActorID,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  createdAt,
	}
	if err := h.history.Create(ctx, entry); err != nil {
		return err
	}
	h.logger.Debug("history recorded",
		zap.String("ticket_id", event.TicketID),
		zap.String("change_type", string(changeType)),
	)
	return nil
}

func describe(event events.Event) (domain.TicketChangeType, map[string]any, map[string]any) {
	switch p := event.Payload.(type) {
	case events.TicketCreatedPayload:
		return domain.ChangeTypeCreated, nil, map[string]any{
			"ownerId":      p.OwnerID,
			"assignedToId": optional(p.AssigneeID),
			"title":        p.Title,
			"priority":     string(p.Priority),
			"status":       string(p.Status),
		}
	case events.TicketUpdatedPayload:
		oldValue, newValue := map[string]any{}, map[string]any{"descriptionChanged": p.DescriptionSet}
		if p.OldPriority != nil && p.NewPriority != nil {
			oldValue["priority"] = string(*p.OldPriority)
			newValue["priority"] = string(*p.NewPriority)
		}
		return domain.ChangeTypeUpdated, oldValue, newValue
	case events.TicketAssignmentPayload:
		return domain.ChangeTypeAssignee,
			map[string]any{"assignedToId": optional(p.OldAssigneeID)},
			map[string]any{"assignedToId": optional(p.NewAssigneeID)}
	case events.TicketStatusChangedPayload:
		return domain.ChangeTypeStatus,
			map[string]any{"status": string(p.OldStatus)},
			map[string]any{"status": string(p.NewStatus)}
	case events.CommentPayload:
		values := map[string]any{"commentId": p.CommentID, "authorId": p.AuthorID}
		if event.Type == events.EventCommentDeleted {
			return domain.ChangeTypeCommentDeleted, values, nil
		}
		if p.BodyPreview != "" {
			values["preview"] = p.BodyPreview
		}
		return domain.ChangeTypeCommentAdded, nil, values
	}
	if event.Type == events.EventTicketDeleted {
		return domain.ChangeTypeDeleted, nil, nil
	}
	return "", nil, nil
}

func optional(id *string) any {
	if id == nil {
		return nil
	}
	return *id
}
