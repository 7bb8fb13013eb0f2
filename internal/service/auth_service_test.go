package service

import (
	"context"
	"testing"

	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository/memory"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(
		config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4},
		AuthDependencies{UserRepo: memory.NewStore().Users(), Clock: newFakeClock().Now},
	)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "  Alice@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if registered.User.Email != "alice@example.com" || !registered.User.HasRole(domain.RoleUser) {
		t.Fatalf("unexpected user %+v", registered.User)
	}
	if registered.User.PasswordHash == "correct horse" {
		t.Fatal("password stored in clear")
	}

	claims, err := svc.TokenManager().ParseToken(registered.Token)
	if err != nil || claims.UserID() != registered.User.ID {
		t.Fatalf("token does not identify the user: %v %v", claims, err)
	}

	loggedIn, err := svc.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if loggedIn.User.ID != registered.User.ID {
		t.Fatalf("logged in as %s, want %s", loggedIn.User.ID, registered.User.ID)
	}

	user, err := svc.GetUser(ctx, registered.User.ID)
	if err != nil || user == nil || user.Email != "alice@example.com" {
		t.Fatalf("GetUser() = %v, %v", user, err)
	}
	if missing, err := svc.GetUser(ctx, "nope"); missing != nil || err != nil {
		t.Fatalf("GetUser(missing) = %v, %v", missing, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "bob@example.com", "password123"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		code     string
	}{
		{name: "duplicate email", email: "BOB@example.com", password: "password123", code: apperrors.CodeConflict},
		{name: "malformed email", email: "not-an-email", password: "password123", code: apperrors.CodeInvalidArgument},
		{name: "display name", email: "Bob <bob2@example.com>", password: "password123", code: apperrors.CodeInvalidArgument},
		{name: "short password", email: "carol@example.com", password: "short", code: apperrors.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.email, tt.password); !apperrors.HasCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestLoginRejections(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "dave@example.com", "password123"); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct{ email, password string }{
		{"dave@example.com", "password124"},
		{"eve@example.com", "password123"},
	} {
		if _, err := svc.Login(ctx, tc.email, tc.password); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
			t.Fatalf("Login(%s) expected UNAUTHORIZED, got %v", tc.email, err)
		}
	}
}
