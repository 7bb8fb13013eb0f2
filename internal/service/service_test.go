package service

import (
	"testing"
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository/memory"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 3, 13, 2, 1, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var (
	u1    = &domain.User{ID: "u1", Email: "user1@test.com", Roles: []string{domain.RoleUser}}
	u2    = &domain.User{ID: "u2", Email: "user2@test.com", Roles: []string{domain.RoleUser}}
	u3    = &domain.User{ID: "u3", Email: "user3@test.com", Roles: []string{domain.RoleUser}}
	admin = &domain.User{ID: "admin", Email: "admin@test.com", Roles: []string{domain.RoleUser, domain.RoleAdmin}}
)

type fixture struct {
	store    *memory.Store
	clock    *fakeClock
	tickets  *TicketService
	comments *CommentService
	history  *HistoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := newFakeClock()
	dispatcher := events.NewInMemoryDispatcher()

	history := NewHistoryService(store.History(), dispatcher, nil)
	history.RegisterHandlers()

	return &fixture{
		store: store,
		clock: clock,
		tickets: NewTicketService(TicketDependencies{
			TicketRepo: store.Tickets(),
			Dispatcher: dispatcher,
			Clock:      clock.Now,
		}),
		comments: NewCommentService(CommentDependencies{
			CommentRepo: store.Comments(),
			Dispatcher:  dispatcher,
			Clock:       clock.Now,
		}),
		history: history,
	}
}
