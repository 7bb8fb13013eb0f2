package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

func TestUserRepositoryGetByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	created := time.Now()
	rows := pgxmock.NewRows([]string{"id", "email", "password_hash", "roles", "created_at"}).
		AddRow("u1", "u1@test.com", "hash", []string{domain.RoleUser, domain.RoleAdmin}, created)
	mock.ExpectQuery("FROM users WHERE email").WithArgs("u1@test.com").WillReturnRows(rows)

	user, err := repo.GetByEmail(context.Background(), "u1@test.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if user.ID != "u1" || !user.HasRole(domain.RoleAdmin) {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestUserRepositoryGetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("FROM users WHERE id").WithArgs("u9").WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "u9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTicketHistoryRepositoryCreate(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketHistoryRepository(mock)

	entry := &domain.TicketHistory{
		ID:         "h1",
		TicketID:   "t1",
		ActorID:    strPtr("u1"),
		ChangeType: domain.ChangeTypeStatus,
		OldValue:   map[string]any{"status": "pending"},
		NewValue:   map[string]any{"status": "in-progress"},
		CreatedAt:  time.Now(),
	}
	mock.ExpectExec("INSERT INTO ticket_history").
		WithArgs("h1", "t1", strPtr("u1"), "STATUS_CHANGE", entry.OldValue, entry.NewValue, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestUserRepositoryCreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	user := &domain.User{ID: "u1", Email: "u1@test.com", PasswordHash: "hash", Roles: []string{domain.RoleUser}, CreatedAt: time.Now()}
	mock.ExpectExec("INSERT INTO users").
		WithArgs(user.ID, user.Email, user.PasswordHash, user.Roles, user.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	if err := repo.Create(context.Background(), user); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
