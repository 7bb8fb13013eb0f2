package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

const notAssignedMessage = "Ticket is not assigned to current user"

// TicketService enforces the ticket lifecycle: creation, partial updates, assignment
// bookkeeping and the assignee-only start/close transitions.
//
// Every mutation works on a copy of the caller's ticket and only writes the copy back
// once the repository accepted it, so a failed call leaves the ticket untouched.
type TicketService struct {
	tickets repository.TicketRepository
	bus     publisher
	now     func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Status      domain.TicketStatus
}

// TicketUpdateInput carries the editable fields. Nil means "leave as is".
type TicketUpdateInput struct {
	Description *string
	Priority    *domain.TicketPriority
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets: deps.TicketRepo,
		bus:     publisher{dispatcher: deps.Dispatcher, logger: loggerOrNop(deps.Logger)},
		now:     clockOrNow(deps.Clock),
	}
}

// CreateTicket validates the input and stores a new ticket owned by owner. When assignee
// is given the ticket starts assigned, with both assignment timestamps equal to createdAt.
func (s *TicketService) CreateTicket(ctx context.Context, owner, assignee *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if owner == nil {
		return nil, apperrors.NewInvalidArgument("owner is required", nil)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewInvalidArgument("Title is required", nil)
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewInvalidArgument("Description is required", nil)
	}
	if err := validatePriority(input.Priority); err != nil {
		return nil, err
	}
	if !input.Status.Valid() {
		return nil, apperrors.NewInvalidArgument("Invalid status", map[string]any{
			"status":  string(input.Status),
			"allowed": []domain.TicketStatus{domain.TicketStatusPending, domain.TicketStatusWaiting, domain.TicketStatusInProgress, domain.TicketStatusDone},
		})
	}

	now := s.now().UTC()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Owner:       owner.Ref(),
		Title:       title,
		Description: description,
		Priority:    input.Priority,
		Status:      input.Status,
		CreatedAt:   now,
	}
	if assignee != nil {
		ticket.Assign(assignee.Ref(), now)
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.bus.publish(ctx, events.EventTicketCreated, ticket.ID, now, events.TicketCreatedPayload{
		OwnerID:    ticket.Owner.ID,
		AssigneeID: assigneeID(ticket),
		Title:      ticket.Title,
		Priority:   ticket.Priority,
		Status:     ticket.Status,
	})
	return ticket, nil
}

// UpdateTicket applies the provided fields. Status is not editable here. An input with
// no fields is a no-op: nothing is saved and no history is recorded.
func (s *TicketService) UpdateTicket(ctx context.Context, ticket *domain.Ticket, input TicketUpdateInput) error {
	if input.Description == nil && input.Priority == nil {
		return nil
	}
	if input.Priority != nil {
		if err := validatePriority(*input.Priority); err != nil {
			return err
		}
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		return apperrors.NewInvalidArgument("Description must not be empty", nil)
	}

	next := ticket.Clone()
	payload := events.TicketUpdatedPayload{}
	if input.Description != nil {
		next.Description = strings.TrimSpace(*input.Description)
		payload.DescriptionSet = true
	}
	if input.Priority != nil {
		oldPriority, newPriority := ticket.Priority, *input.Priority
		next.Priority = newPriority
		payload.OldPriority = &oldPriority
		payload.NewPriority = &newPriority
	}

	if err := s.save(ctx, ticket, &next); err != nil {
		return err
	}
	s.bus.publish(ctx, events.EventTicketUpdated, ticket.ID, s.now().UTC(), payload)
	return nil
}

// DeleteTicket hard-deletes the ticket. Its comments go with it.
func (s *TicketService) DeleteTicket(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return false, ticketError(err, ticket.ID)
	}
	s.bus.publish(ctx, events.EventTicketDeleted, ticket.ID, s.now().UTC(), nil)
	return true, nil
}

// AssignTicket (re)assigns the ticket. lastAssignedAt always moves; firstAssignedAt is set once.
func (s *TicketService) AssignTicket(ctx context.Context, ticket *domain.Ticket, user *domain.User) error {
	if user == nil {
		return apperrors.NewInvalidArgument("User ID is required", nil)
	}
	now := s.now().UTC()
	next := ticket.Clone()
	next.Assign(user.Ref(), now)

	previous := assigneeID(ticket)
	if err := s.save(ctx, ticket, &next); err != nil {
		return err
	}
	s.bus.publish(ctx, events.EventTicketAssigned, ticket.ID, now, events.TicketAssignmentPayload{
		OldAssigneeID: previous,
		NewAssigneeID: idPtr(user.ID),
	})
	return nil
}

// UnassignTicket clears the assignee. Assignment timestamps are kept as history.
func (s *TicketService) UnassignTicket(ctx context.Context, ticket *domain.Ticket) error {
	next := ticket.Clone()
	next.Unassign()

	previous := assigneeID(ticket)
	if err := s.save(ctx, ticket, &next); err != nil {
		return err
	}
	s.bus.publish(ctx, events.EventTicketUnassigned, ticket.ID, s.now().UTC(), events.TicketAssignmentPayload{
		OldAssigneeID: previous,
	})
	return nil
}

// StartTicket moves the ticket to in-progress. Only the current assignee may do so;
// the prior status is not checked.
func (s *TicketService) StartTicket(ctx context.Context, ticket *domain.Ticket, current *domain.User) error {
	return s.transition(ctx, ticket, current, domain.TicketStatusInProgress)
}

// CloseTicket moves the ticket to done under the same rule as StartTicket.
func (s *TicketService) CloseTicket(ctx context.Context, ticket *domain.Ticket, current *domain.User) error {
	return s.transition(ctx, ticket, current, domain.TicketStatusDone)
}

func (s *TicketService) transition(ctx context.Context, ticket *domain.Ticket, current *domain.User, status domain.TicketStatus) error {
	if current == nil || !ticket.IsAssignedTo(current.ID) {
		return apperrors.NewInvalidArgument(notAssignedMessage, map[string]any{"ticketId": ticket.ID})
	}
	next := ticket.Clone()
	next.Status = status

	previous := ticket.Status
	if err := s.save(ctx, ticket, &next); err != nil {
		return err
	}
	s.bus.publish(ctx, events.EventTicketStatusChanged, ticket.ID, s.now().UTC(), events.TicketStatusChangedPayload{
		OldStatus: previous,
		NewStatus: status,
	})
	return nil
}

// GetTicket returns nil, nil when no ticket has the id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// GetAllTickets lists every ticket in insertion order.
func (s *TicketService) GetAllTickets(ctx context.Context) ([]domain.Ticket, error) {
	return s.list(ctx, repository.TicketFilter{})
}

// GetTicketsByOwner lists the tickets the user owns.
func (s *TicketService) GetTicketsByOwner(ctx context.Context, user *domain.User) ([]domain.Ticket, error) {
	return s.list(ctx, repository.TicketFilter{OwnerID: idPtr(user.ID)})
}

// GetTicketsByAssignee lists the tickets currently assigned to the user.
func (s *TicketService) GetTicketsByAssignee(ctx context.Context, user *domain.User) ([]domain.Ticket, error) {
	return s.list(ctx, repository.TicketFilter{AssigneeID: idPtr(user.ID)})
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *TicketService) save(ctx context.Context, ticket, next *domain.Ticket) error {
	if err := s.tickets.Update(ctx, next); err != nil {
		return ticketError(err, ticket.ID)
	}
	*ticket = *next
	return nil
}

func validatePriority(priority domain.TicketPriority) error {
	if priority.Valid() {
		return nil
	}
	return apperrors.NewInvalidArgument("Invalid priority", map[string]any{
		"priority": string(priority),
		"allowed":  []domain.TicketPriority{domain.TicketPriorityLow, domain.TicketPriorityNormal, domain.TicketPriorityHigh},
	})
}

func ticketError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}
