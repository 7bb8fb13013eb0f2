package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/persistence"
	"github.com/spec-kit/ticket-tracker/internal/service"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket lifecycle.
type TicketsHandler struct {
	tickets *service.TicketService
	users   *service.AuthService
	locker  persistence.Locker
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, users *service.AuthService, locker persistence.Locker) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, users: users, locker: locker}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.GetAllTickets(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketList(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := loadTicket(c.UserContext(), h.tickets, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx := events.WithActor(c.UserContext(), caller.ID)
	var assignee *domain.User
	if req.AssignedToID != nil && *req.AssignedToID != "" {
		if assignee, err = h.loadUser(ctx, *req.AssignedToID); err != nil {
			return err
		}
	}

	ticket, err := h.tickets.CreateTicket(ctx, caller, assignee, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.TicketUpdateInput{Description: req.Description.Ptr()}
	if req.Priority.Valid {
		priority := domain.TicketPriority(req.Priority.String)
		input.Priority = &priority
	}

	var updated *domain.Ticket
	err := h.withTicket(c, func(ctx context.Context, ticket *domain.Ticket, _ *domain.User) error {
		updated = ticket
		return h.tickets.UpdateTicket(ctx, ticket, input)
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(updated)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	err := h.withTicket(c, func(ctx context.Context, ticket *domain.Ticket, _ *domain.User) error {
		_, err := h.tickets.DeleteTicket(ctx, ticket)
		return err
	})
	if err != nil {
		return err
	}
	return message(c, "Ticket deleted successfully")
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.UserID == "" {
		return apperrors.NewInvalidArgument("User ID is required", nil)
	}

	err := h.withTicket(c, func(ctx context.Context, ticket *domain.Ticket, _ *domain.User) error {
		user, err := h.loadUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		return h.tickets.AssignTicket(ctx, ticket, user)
	})
	if err != nil {
		return err
	}
	return message(c, "Ticket assigned successfully")
}

// UnassignTicket DELETE /tickets/:id/assign.
func (h *TicketsHandler) UnassignTicket(c *fiber.Ctx) error {
	err := h.withTicket(c, func(ctx context.Context, ticket *domain.Ticket, _ *domain.User) error {
		return h.tickets.UnassignTicket(ctx, ticket)
	})
	if err != nil {
		return err
	}
	return message(c, "Ticket unassigned successfully")
}

// StartTicket POST /tickets/:id/start. The caller must be the assignee.
func (h *TicketsHandler) StartTicket(c *fiber.Ctx) error {
	if err := h.withTicket(c, h.tickets.StartTicket); err != nil {
		return err
	}
	return message(c, "Ticket started successfully")
}

// CloseTicket POST /tickets/:id/close. The caller must be the assignee.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	if err := h.withTicket(c, h.tickets.CloseTicket); err != nil {
		return err
	}
	return message(c, "Ticket closed successfully")
}

// OwnedTickets GET /users/:id/tickets/owned.
func (h *TicketsHandler) OwnedTickets(c *fiber.Ctx) error {
	user, err := h.loadUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	tickets, err := h.tickets.GetTicketsByOwner(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketList(tickets)})
}

// AssignedTickets GET /users/:id/tickets/assigned.
func (h *TicketsHandler) AssignedTickets(c *fiber.Ctx) error {
	user, err := h.loadUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	tickets, err := h.tickets.GetTicketsByAssignee(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketList(tickets)})
}

// withTicket serialises a load-mutate-save cycle on one ticket behind the ticket lock.
func (h *TicketsHandler) withTicket(c *fiber.Ctx, fn func(context.Context, *domain.Ticket, *domain.User) error) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := events.WithActor(c.UserContext(), caller.ID)
	return withLockedTicket(ctx, h.locker, h.tickets, c.Params("id"), func(ticket *domain.Ticket) error {
		return fn(ctx, ticket, caller)
	})
}

func (h *TicketsHandler) loadUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := h.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return user, nil
}

// withLockedTicket holds the ticket lock while fn runs. The ticket is read after the
// lock is taken so fn sees the latest state.
func withLockedTicket(ctx context.Context, locker persistence.Locker, tickets *service.TicketService, id string, fn func(*domain.Ticket) error) error {
	release, err := lock(ctx, locker, "ticket:"+id)
	if err != nil {
		return err
	}
	defer release()

	ticket, err := loadTicket(ctx, tickets, id)
	if err != nil {
		return err
	}
	return fn(ticket)
}

func loadTicket(ctx context.Context, tickets *service.TicketService, id string) (*domain.Ticket, error) {
	ticket, err := tickets.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return ticket, nil
}

// lock waits for key until the request deadline.
func lock(ctx context.Context, locker persistence.Locker, key string) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	release, err := locker.Acquire(ctx, key)
	if err != nil {
		return nil, lockError(key, err)
	}
	return release, nil
}

func lockError(key string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewDomainError("TIMEOUT", "request timed out waiting for the resource", http.StatusGatewayTimeout, map[string]any{"key": key})
	}
	return apperrors.NewInternalError(err)
}
