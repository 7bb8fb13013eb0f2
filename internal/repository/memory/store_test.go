package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
)

func seedTicket(t *testing.T, store *Store, id, owner string, assignee *string) {
	t.Helper()
	ticket := &domain.Ticket{
		ID:        id,
		Owner:     domain.UserRef{ID: owner},
		Title:     "title " + id,
		Priority:  domain.TicketPriorityNormal,
		Status:    domain.TicketStatusPending,
		CreatedAt: time.Now(),
	}
	if assignee != nil {
		ticket.Assign(domain.UserRef{ID: *assignee}, ticket.CreatedAt)
	}
	if err := store.Tickets().Create(context.Background(), ticket); err != nil {
		t.Fatalf("Create(%s) error = %v", id, err)
	}
}

func strPtr(s string) *string { return &s }

func TestTicketsListInInsertionOrder(t *testing.T) {
	store := NewStore()
	seedTicket(t, store, "c", "u1", nil)
	seedTicket(t, store, "a", "u2", strPtr("u1"))
	seedTicket(t, store, "b", "u1", strPtr("u2"))

	ctx := context.Background()
	all, err := store.Tickets().List(ctx, repository.TicketFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[1].ID != "a" || all[2].ID != "b" {
		t.Fatalf("unexpected order %+v", all)
	}

	owned, _ := store.Tickets().List(ctx, repository.TicketFilter{OwnerID: strPtr("u1")})
	if len(owned) != 2 || owned[0].ID != "c" || owned[1].ID != "b" {
		t.Fatalf("unexpected owned tickets %+v", owned)
	}

	assigned, _ := store.Tickets().List(ctx, repository.TicketFilter{AssigneeID: strPtr("u1")})
	if len(assigned) != 1 || assigned[0].ID != "a" {
		t.Fatalf("unexpected assigned tickets %+v", assigned)
	}
}

func TestTicketsReturnCopies(t *testing.T) {
	store := NewStore()
	seedTicket(t, store, "t1", "u1", strPtr("u2"))
	ctx := context.Background()

	got, err := store.Tickets().GetByID(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	got.Title = "changed"
	got.AssignedTo.ID = "u9"

	again, _ := store.Tickets().GetByID(ctx, "t1")
	if again.Title != "title t1" || again.AssignedTo.ID != "u2" {
		t.Fatalf("store was mutated through a returned ticket: %+v", again)
	}
}

func TestTicketUpdateKeepsOwner(t *testing.T) {
	store := NewStore()
	seedTicket(t, store, "t1", "u1", nil)
	ctx := context.Background()

	ticket, _ := store.Tickets().GetByID(ctx, "t1")
	ticket.Owner = domain.UserRef{ID: "intruder"}
	ticket.Status = domain.TicketStatusDone
	if err := store.Tickets().Update(ctx, ticket); err != nil {
		t.Fatal(err)
	}
	stored, _ := store.Tickets().GetByID(ctx, "t1")
	if stored.Owner.ID != "u1" {
		t.Errorf("owner changed to %s", stored.Owner.ID)
	}
	if stored.Status != domain.TicketStatusDone {
		t.Errorf("status = %s", stored.Status)
	}

	missing := &domain.Ticket{ID: "nope"}
	if err := store.Tickets().Update(ctx, missing); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTicketDeleteCascadesComments(t *testing.T) {
	store := NewStore()
	seedTicket(t, store, "t1", "u1", nil)
	seedTicket(t, store, "t2", "u1", nil)
	ctx := context.Background()

	for _, c := range []domain.Comment{
		{ID: "c1", TicketID: "t1", Author: domain.UserRef{ID: "u1"}, Content: "one"},
		{ID: "c2", TicketID: "t2", Author: domain.UserRef{ID: "u1"}, Content: "two"},
		{ID: "c3", TicketID: "t1", Author: domain.UserRef{ID: "u1"}, Content: "three", Deleted: true},
	} {
		c := c
		if err := store.Comments().Create(ctx, &c); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.Tickets().Delete(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Tickets().GetByID(ctx, "t1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected deleted ticket to be gone, got %v", err)
	}
	left, _ := store.Comments().List(ctx, repository.CommentFilter{TicketID: "t1", IncludeDeleted: true})
	if len(left) != 0 {
		t.Fatalf("expected comments of t1 to cascade, got %+v", left)
	}
	other, _ := store.Comments().List(ctx, repository.CommentFilter{TicketID: "t2"})
	if len(other) != 1 {
		t.Fatalf("comments of t2 must survive, got %+v", other)
	}
	if err := store.Tickets().Delete(ctx, "t1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete should report ErrNotFound, got %v", err)
	}
}

func TestCommentsHideDeleted(t *testing.T) {
	store := NewStore()
	seedTicket(t, store, "t1", "u1", nil)
	ctx := context.Background()
	comment := &domain.Comment{ID: "c1", TicketID: "t1", Author: domain.UserRef{ID: "u1"}, Content: "hello"}
	if err := store.Comments().Create(ctx, comment); err != nil {
		t.Fatal(err)
	}

	comment.Deleted = true
	if err := store.Comments().Update(ctx, comment); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Comments().GetByID(ctx, "c1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("deleted comment visible through GetByID: %v", err)
	}
	visible, _ := store.Comments().List(ctx, repository.CommentFilter{TicketID: "t1"})
	if len(visible) != 0 {
		t.Fatalf("deleted comment visible in listing: %+v", visible)
	}
	audit, _ := store.Comments().List(ctx, repository.CommentFilter{TicketID: "t1", IncludeDeleted: true})
	if len(audit) != 1 || !audit[0].Deleted || audit[0].Content != "hello" {
		t.Fatalf("audit listing should keep the row and its content: %+v", audit)
	}
}

func TestCommentCreateRequiresTicket(t *testing.T) {
	store := NewStore()
	seedTicket(t, store, "t1", "u1", nil)
	ctx := context.Background()
	if err := store.Tickets().Delete(ctx, "t1"); err != nil {
		t.Fatal(err)
	}

	err := store.Comments().Create(ctx, &domain.Comment{ID: "c1", TicketID: "t1", Author: domain.UserRef{ID: "u1"}, Content: "late"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	left, _ := store.Comments().List(ctx, repository.CommentFilter{TicketID: "t1", IncludeDeleted: true})
	if len(left) != 0 {
		t.Fatalf("comment stored for a missing ticket: %+v", left)
	}
}

func TestUsersLookup(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	user := &domain.User{ID: "u1", Email: "u1@test.com", Roles: []string{domain.RoleUser}}
	if err := store.Users().Create(ctx, user); err != nil {
		t.Fatal(err)
	}
	user.Roles[0] = domain.RoleAdmin

	byEmail, err := store.Users().GetByEmail(ctx, "u1@test.com")
	if err != nil {
		t.Fatal(err)
	}
	if byEmail.ID != "u1" || byEmail.HasRole(domain.RoleAdmin) {
		t.Fatalf("unexpected user %+v", byEmail)
	}
	if _, err := store.Users().GetByID(ctx, "u2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsersRejectDuplicateEmail(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.Users().Create(ctx, &domain.User{ID: "u1", Email: "dup@test.com"}); err != nil {
		t.Fatal(err)
	}
	err := store.Users().Create(ctx, &domain.User{ID: "u2", Email: "dup@test.com"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
