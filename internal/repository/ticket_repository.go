package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// TicketFilter narrows ticket listings. Nil fields match everything.
type TicketFilter struct {
	OwnerID    *string
	AssigneeID *string
}

// TicketRepository encapsulates ticket persistence. Listings come back in insertion order.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketSelect = `
        SELECT t.id, t.owner_id, o.email, t.assigned_to_id, a.email,
               t.title, t.description, t.priority, t.status,
               t.created_at, t.first_assigned_at, t.last_assigned_at
        FROM tickets t
        JOIN users o ON o.id = t.owner_id
        LEFT JOIN users a ON a.id = t.assigned_to_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, owner_id, assigned_to_id, title, description, priority, status,
                             created_at, first_assigned_at, last_assigned_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.Owner.ID,
		assigneeID(ticket),
		ticket.Title,
		ticket.Description,
		string(ticket.Priority),
		string(ticket.Status),
		ticket.CreatedAt,
		ticket.FirstAssignedAt,
		ticket.LastAssignedAt,
	)
	return err
}

// Update writes every mutable column; owner and created_at are immutable.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assigned_to_id=$1, title=$2, description=$3, priority=$4, status=$5,
            first_assigned_at=$6, last_assigned_at=$7
        WHERE id=$8`
	return requireAffected(r.db.Exec(ctx, query,
		assigneeID(ticket),
		ticket.Title,
		ticket.Description,
		string(ticket.Priority),
		string(ticket.Status),
		ticket.FirstAssignedAt,
		ticket.LastAssignedAt,
		ticket.ID,
	))
}

// Delete removes the ticket; comments go with it through ON DELETE CASCADE.
func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id))
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, ticketSelect+` WHERE t.id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("t.owner_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("t.assigned_to_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.seq ASC`, ticketSelect, strings.Join(clauses, " AND "))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket          domain.Ticket
		assignedID      *string
		assignedEmail   *string
		priority        string
		status          string
		firstAssignedAt *time.Time
		lastAssignedAt  *time.Time
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Owner.ID,
		&ticket.Owner.Email,
		&assignedID,
		&assignedEmail,
		&ticket.Title,
		&ticket.Description,
		&priority,
		&status,
		&ticket.CreatedAt,
		&firstAssignedAt,
		&lastAssignedAt,
	); err != nil {
		return nil, err
	}
	ticket.Priority = domain.TicketPriority(priority)
	ticket.Status = domain.TicketStatus(status)
	ticket.FirstAssignedAt = firstAssignedAt
	ticket.LastAssignedAt = lastAssignedAt
	if assignedID != nil {
		ref := domain.UserRef{ID: *assignedID}
		if assignedEmail != nil {
			ref.Email = *assignedEmail
		}
		ticket.AssignedTo = &ref
	}
	return &ticket, nil
}

func assigneeID(ticket *domain.Ticket) *string {
	if ticket.AssignedTo == nil {
		return nil
	}
	id := ticket.AssignedTo.ID
	return &id
}
