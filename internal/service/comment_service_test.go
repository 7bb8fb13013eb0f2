package service

import (
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

func TestAddCommentPolicy(t *testing.T) {
	tests := []struct {
		name     string
		author   *domain.User
		wantCode string
	}{
		{name: "owner", author: u1},
		{name: "assignee", author: u2},
		{name: "stranger", author: u3, wantCode: apperrors.CodeForbidden},
		{name: "admin is not a participant", author: admin, wantCode: apperrors.CodeForbidden},
		{name: "anonymous", author: nil, wantCode: apperrors.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			ticket := mustCreate(t, f, u1, u2)

			comment, err := f.comments.AddComment(ctx, ticket, tt.author, "looking into it")
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				listed, _ := f.comments.ListComments(ctx, ticket.ID)
				if len(listed) != 0 {
					t.Fatalf("rejected comment was stored: %+v", listed)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddComment() error = %v", err)
			}
			if comment.Deleted || comment.Author.ID != tt.author.ID || comment.TicketID != ticket.ID {
				t.Fatalf("unexpected comment %+v", comment)
			}
			if !comment.CreatedAt.Equal(f.clock.Now()) {
				t.Fatalf("createdAt = %v", comment.CreatedAt)
			}
		})
	}
}

func TestAddCommentRequiresContent(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, u1, u2)
	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := f.comments.AddComment(context.Background(), ticket, u1, content); !apperrors.HasCode(err, apperrors.CodeInvalidArgument) {
			t.Fatalf("content %q: expected INVALID_ARGUMENT, got %v", content, err)
		}
	}
}

func TestAddCommentFollowsReassignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := mustCreate(t, f, u1, u2)

	if err := f.tickets.AssignTicket(ctx, ticket, u3); err != nil {
		t.Fatal(err)
	}
	if _, err := f.comments.AddComment(ctx, ticket, u3, "mine now"); err != nil {
		t.Fatalf("new assignee should comment: %v", err)
	}
	if _, err := f.comments.AddComment(ctx, ticket, u2, "still here"); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("former assignee should be forbidden, got %v", err)
	}
}

func TestAddCommentOnDeletedTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := mustCreate(t, f, u1, u2)
	stale := ticket.Clone()

	if _, err := f.tickets.DeleteTicket(ctx, ticket); err != nil {
		t.Fatal(err)
	}
	comment, err := f.comments.AddComment(ctx, &stale, u1, "hello")
	if comment != nil || !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %+v, %v", comment, err)
	}
	orphans, _ := f.store.Comments().List(ctx, repository.CommentFilter{TicketID: stale.ID, IncludeDeleted: true})
	if len(orphans) != 0 {
		t.Fatalf("comment stored for deleted ticket: %+v", orphans)
	}
	entries, _ := f.history.ListHistory(ctx, stale.ID)
	for _, entry := range entries {
		if entry.ChangeType == domain.ChangeTypeCommentAdded {
			t.Fatalf("history recorded a rejected comment: %+v", entry)
		}
	}
}

func TestDeleteCommentPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := mustCreate(t, f, u1, u2)
	comment, err := f.comments.AddComment(ctx, ticket, u2, "first!")
	if err != nil {
		t.Fatal(err)
	}

	for _, caller := range []*domain.User{u1, u3, admin, nil} {
		if err := f.comments.DeleteComment(ctx, comment, caller); !apperrors.HasCode(err, apperrors.CodeForbidden) {
			t.Fatalf("expected FORBIDDEN, got %v", err)
		}
		if comment.Deleted {
			t.Fatal("comment marked deleted by non-author")
		}
	}
	if visible, _ := f.comments.GetComment(ctx, comment.ID); visible == nil {
		t.Fatal("comment should still be visible")
	}

	if err := f.comments.DeleteComment(ctx, comment, u2); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}
	if !comment.Deleted {
		t.Fatal("expected deleted flag")
	}
	if got, err := f.comments.GetComment(ctx, comment.ID); err != nil || got != nil {
		t.Fatalf("GetComment() = %v, %v; want nil, nil", got, err)
	}
}

func TestCommentVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := mustCreate(t, f, u1, u2)

	keep, _ := f.comments.AddComment(ctx, ticket, u1, "keep me")
	drop, _ := f.comments.AddComment(ctx, ticket, u2, "drop me")
	if err := f.comments.DeleteComment(ctx, drop, u2); err != nil {
		t.Fatal(err)
	}

	visible, err := f.comments.ListComments(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(visible) != 1 || visible[0].ID != keep.ID {
		t.Fatalf("visible comments = %+v", visible)
	}

	audit, err := f.comments.ListCommentsForAudit(ctx, admin, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(audit) != 2 || audit[1].ID != drop.ID || !audit[1].Deleted || audit[1].Content != "drop me" {
		t.Fatalf("audit comments = %+v", audit)
	}

	if _, err := f.comments.ListCommentsForAudit(ctx, u1, ticket.ID); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN for non-admin audit, got %v", err)
	}
}

func TestCommentEventsReachHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := mustCreate(t, f, u1, u2)
	long := strings.Repeat("x", 200)

	comment, err := f.comments.AddComment(ctx, ticket, u1, long)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.comments.DeleteComment(ctx, comment, u1); err != nil {
		t.Fatal(err)
	}

	entries, _ := f.history.ListHistory(ctx, ticket.ID)
	if len(entries) != 3 {
		t.Fatalf("expected created, comment added, comment deleted; got %+v", entries)
	}
	if entries[1].ChangeType != domain.ChangeTypeCommentAdded || entries[2].ChangeType != domain.ChangeTypeCommentDeleted {
		t.Fatalf("unexpected change types %s, %s", entries[1].ChangeType, entries[2].ChangeType)
	}
	if p, _ := entries[1].NewValue["preview"].(string); len(p) != commentPreviewLen+3 {
		t.Fatalf("preview not truncated: %q", p)
	}
}
