package users

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/cinescan/cinescan/pkg/models"
	"github.com/cinescan/cinescan/pkg/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := storage.Open("")
	if err != nil {
		t.Fatal(err)
	}

	return New(db, "test-secret", time.Hour, slog.Default())
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Register(context.Background(), models.User{
		Username: "frodo",
		Email:    "frodo@shire.me",
		Password: "second-breakfast",
	})
	if err != nil {
		t.Fatal(err)
	}

	if user.ID == 0 {
		t.Fatal("user was not persisted")
	}
	if user.Password == "second-breakfast" {
		t.Fatal("password stored in plaintext")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, models.User{Username: "frodo", Password: "pw1"}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Register(ctx, models.User{Username: "frodo", Password: "pw2"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthenticateAndParseToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, models.User{Username: "frodo", Password: "second-breakfast"}); err != nil {
		t.Fatal(err)
	}

	token, err := svc.Authenticate(ctx, "frodo", "second-breakfast")
	if err != nil {
		t.Fatal(err)
	}

	username, err := svc.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if username != "frodo" {
		t.Fatalf("expected subject frodo, got %q", username)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, models.User{Username: "frodo", Password: "second-breakfast"}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Authenticate(ctx, "frodo", "elevenses"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// An unknown user reads the same as a bad password.
	if _, err := svc.Authenticate(ctx, "sauron", "one-ring"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestParseTokenRejectsForgedToken(t *testing.T) {
	svc := newTestService(t)
	other := newTestService(t)
	ctx := context.Background()

	if _, err := other.Register(ctx, models.User{Username: "frodo", Password: "pw"}); err != nil {
		t.Fatal(err)
	}

	forged := New(other.db, "other-secret", time.Hour, slog.Default())
	token, err := forged.Authenticate(ctx, "frodo", "pw")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ParseToken(token); err == nil {
		t.Fatal("expected a token signed with another secret to be rejected")
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, models.User{Username: "frodo", Email: "frodo@shire.me", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register(ctx, models.User{Username: "sam", Password: "pw"}); err != nil {
		t.Fatal(err)
	}

	// Taken name and own name are both conflicts.
	if err := svc.UpdateProfile(ctx, &user, models.User{Username: "sam"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if err := svc.UpdateProfile(ctx, &user, models.User{Username: "frodo"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if err := svc.UpdateProfile(ctx, &user, models.User{Username: "mr-underhill", Email: "underhill@bree.me"}); err != nil {
		t.Fatal(err)
	}

	stored, err := svc.ByUsername(ctx, "mr-underhill")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Email != "underhill@bree.me" {
		t.Errorf("email not updated, got %q", stored.Email)
	}
}
