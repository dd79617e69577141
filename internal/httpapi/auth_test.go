package httpapi

import (
	"testing"
	"time"

	"tokodash/backend/internal/domain"
	"tokodash/backend/internal/store/memory"
)

func TestLoginAndParseTokenRoundTrip(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-secret-1")
	t.Setenv("SEED_VIEWER_PASSWORD", "viewer-secret-1")

	auth := NewAuthManager(testSecret, time.Hour, memory.NewEmpty())

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin-secret-1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != "admin" {
		t.Fatalf("expected admin role, got %q", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-secret-1")
	t.Setenv("SEED_VIEWER_PASSWORD", "viewer-secret-1")

	auth := NewAuthManager(testSecret, time.Hour, memory.NewEmpty())

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Fatalf("expected wrong password to be rejected")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "ghost", Password: "admin-secret-1"}); err == nil {
		t.Fatalf("expected unknown user to be rejected")
	}
}

func TestParseTokenRejectsForgedToken(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour, nil)
	other := NewAuthManager("another-secret-another-secret-32", time.Hour, nil)

	forged, err := other.sign("admin", "admin", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := auth.ParseToken(forged); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestCreateViewerPersistsToUserStore(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-secret-1")
	t.Setenv("SEED_VIEWER_PASSWORD", "viewer-secret-1")

	repo := memory.NewEmpty()
	auth := NewAuthManager(testSecret, time.Hour, repo)

	if _, err := auth.CreateViewer(domain.ViewerCreateRequest{Username: "analyst", Password: "long-enough"}); err != nil {
		t.Fatalf("create viewer failed: %v", err)
	}

	fresh := NewAuthManager(testSecret, time.Hour, repo)
	if _, err := fresh.Login(domain.LoginRequest{Username: "analyst", Password: "long-enough"}); err != nil {
		t.Fatalf("viewer should survive an auth manager restart: %v", err)
	}
}
