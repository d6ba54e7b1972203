package service

import (
	"context"
	"errors"
	"testing"

	"github.com/controla/internal/model"
	"github.com/controla/internal/store"
)

func TestAuthServiceFlow(t *testing.T) {
	svc := NewAuthService(setupServiceStore(t))
	ctx := context.Background()

	msg, err := svc.SignUp(ctx, " ana@example.com ", "secreto")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if msg != SignUpMessage {
		t.Fatalf("unexpected message %q", msg)
	}

	if _, err := svc.SignUp(ctx, "ana@example.com", "otra"); !errors.Is(err, store.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	sess, err := svc.SignIn(ctx, "ana@example.com", "secreto")
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}
	if !sess.Valid() {
		t.Fatal("expected a valid session")
	}

	if _, err := svc.SignIn(ctx, "ana@example.com", "nope"); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := svc.SignOut(ctx, sess); err != nil {
		t.Fatalf("SignOut returned error: %v", err)
	}
	if err := svc.SignOut(ctx, model.Session{}); err != nil {
		t.Fatalf("SignOut without session returned error: %v", err)
	}
}

func TestAuthServiceValidation(t *testing.T) {
	svc := NewAuthService(nil)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "", "x"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.SignIn(ctx, "no-at-sign", "x"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.SignIn(ctx, "ana@example.com", ""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

type refreshRecorder struct {
	store.Authenticator
	calls int
}

func (r *refreshRecorder) Refresh(_ context.Context, sess model.Session) (model.Session, error) {
	r.calls++
	sess.AccessToken = "access-2"
	return sess, nil
}

func TestAuthServiceRefresh(t *testing.T) {
	backend := &refreshRecorder{Authenticator: setupServiceStore(t)}
	svc := NewAuthService(backend)
	ctx := context.Background()

	if _, err := svc.Refresh(ctx, model.Session{}); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
	if _, err := svc.Refresh(ctx, model.Session{UserID: "u1"}); !errors.Is(err, store.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired without refresh token, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("backend should not be asked without a refresh token, got %d calls", backend.calls)
	}

	sess, err := svc.Refresh(ctx, model.Session{UserID: "u1", RefreshToken: "refresh-1"})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if sess.AccessToken != "access-2" || backend.calls != 1 {
		t.Fatalf("unexpected refresh result %+v after %d calls", sess, backend.calls)
	}
}
