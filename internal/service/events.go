package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
)

// publisher stamps and publishes domain events. Subscriber failures are logged, never
// surfaced: the mutation they describe has already been persisted.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, eventType events.EventType, ticketID string, at time.Time, payload interface{}) {
	if p.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   events.ActorFromContext(ctx),
		Timestamp: at,
		Payload:   payload,
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil && p.logger != nil {
		p.logger.Warn("event subscriber failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", ticketID),
			zap.Error(err),
		)
	}
}

func clockOrNow(clock func() time.Time) func() time.Time {
	if clock != nil {
		return clock
	}
	return time.Now
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger != nil {
		return logger
	}
	return zap.NewNop()
}

func idPtr(id string) *string {
	return &id
}

func assigneeID(ticket *domain.Ticket) *string {
	if ticket.AssignedTo == nil {
		return nil
	}
	return idPtr(ticket.AssignedTo.ID)
}
