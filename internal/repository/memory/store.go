// Package memory implements the repository interfaces over process memory.
// It backs the service when no Postgres DSN is configured and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
)

// Store holds every table behind one lock so ticket deletion can cascade to comments.
type Store struct {
	mu sync.RWMutex

	users       map[string]domain.User
	ticketOrder []string
	tickets     map[string]domain.Ticket
	comments    []domain.Comment
	history     []domain.TicketHistory
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:   make(map[string]domain.User),
		tickets: make(map[string]domain.Ticket),
	}
}

// Users returns the account repository.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Tickets returns the ticket repository.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Comments returns the comment repository.
func (s *Store) Comments() repository.CommentRepository { return commentRepo{s} }

// History returns the audit trail repository.
func (s *Store) History() repository.TicketHistoryRepository { return historyRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneUser(user)
	return &out, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if user.Email == email {
			out := cloneUser(user)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func cloneUser(u domain.User) domain.User {
	u.Roles = append([]string(nil), u.Roles...)
	return u
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tickets[ticket.ID] = ticket.Clone()
	r.s.ticketOrder = append(r.s.ticketOrder, ticket.ID)
	return nil
}

func (r ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := ticket.Clone()
	next.Owner = stored.Owner
	next.CreatedAt = stored.CreatedAt
	r.s.tickets[ticket.ID] = next
	return nil
}

func (r ticketRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tickets, id)
	for i, tid := range r.s.ticketOrder {
		if tid == id {
			r.s.ticketOrder = append(r.s.ticketOrder[:i], r.s.ticketOrder[i+1:]...)
			break
		}
	}
	kept := r.s.comments[:0]
	for _, c := range r.s.comments {
		if c.TicketID != id {
			kept = append(kept, c)
		}
	}
	r.s.comments = kept
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := ticket.Clone()
	return &out, nil
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []domain.Ticket{}
	for _, id := range r.s.ticketOrder {
		ticket := r.s.tickets[id]
		if filter.OwnerID != nil && !ticket.IsOwnedBy(*filter.OwnerID) {
			continue
		}
		if filter.AssigneeID != nil && !ticket.IsAssignedTo(*filter.AssigneeID) {
			continue
		}
		result = append(result, ticket.Clone())
	}
	return result, nil
}

type commentRepo struct{ s *Store }

func (r commentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[comment.TicketID]; !ok {
		return repository.ErrNotFound
	}
	r.s.comments = append(r.s.comments, *comment)
	return nil
}

func (r commentRepo) Update(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.comments {
		if r.s.comments[i].ID == comment.ID {
			r.s.comments[i].Content = comment.Content
			r.s.comments[i].Deleted = comment.Deleted
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r commentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.comments {
		if c.ID == id && !c.Deleted {
			out := c
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r commentRepo) List(_ context.Context, filter repository.CommentFilter) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []domain.Comment{}
	for _, c := range r.s.comments {
		if c.TicketID != filter.TicketID {
			continue
		}
		if c.Deleted && !filter.IncludeDeleted {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history = append(r.s.history, *history)
	return nil
}

func (r historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []domain.TicketHistory{}
	for _, h := range r.s.history {
		if h.TicketID == ticketID {
			result = append(result, h)
		}
	}
	return result, nil
}
