package user

import (
	"context"
	"errors"
	"testing"

	"github.com/roleverse/roleverse/internal/store"
)

func TestLoginCreatesUserAndSession(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	u, sess, err := svc.Login(ctx, "alice")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if u.ID == "" || u.Username != "alice" {
		t.Fatalf("unexpected user %+v", u)
	}
	if sess.ID == "" || sess.UserID != u.ID {
		t.Fatalf("unexpected session %+v", sess)
	}

	resolved, err := svc.Resolve(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolved.ID != u.ID {
		t.Fatalf("expected resolved user %q, got %q", u.ID, resolved.ID)
	}
}

func TestLoginTwiceReusesUser(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	first, _, err := svc.Login(ctx, "alice")
	if err != nil {
		t.Fatalf("first Login returned error: %v", err)
	}
	second, sess, err := svc.Login(ctx, "alice")
	if err != nil {
		t.Fatalf("second Login returned error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same user id, got %q and %q", first.ID, second.ID)
	}
	if second.LastLogin == nil {
		t.Fatal("expected last login to be set")
	}
	if sess.ID == "" {
		t.Fatal("expected a fresh session")
	}
}

func TestLoginEmptyUsername(t *testing.T) {
	svc := NewService(store.NewMemory())
	if _, _, err := svc.Login(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank username")
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	_, sess, err := svc.Login(ctx, "alice")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if err := svc.Logout(ctx, sess.ID); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if _, err := svc.Resolve(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after logout, got %v", err)
	}
}

func TestResolveUnknownSession(t *testing.T) {
	svc := NewService(store.NewMemory())
	if _, err := svc.Resolve(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
