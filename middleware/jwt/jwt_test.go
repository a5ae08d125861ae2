package jwt

import (
	"testing"
	"time"

	"github.com/learninverse/server/internal/rbac"
)

func TestNewTokenManager(t *testing.T) {
	secret := "test-secret"
	expireHours := 24
	refreshHours := 168

	tm := NewTokenManager(secret, expireHours, refreshHours)
	if tm == nil {
		t.Fatal("NewTokenManager returned nil")
	}
	if string(tm.secret) != secret {
		t.Errorf("Expected secret %s, got %s", secret, string(tm.secret))
	}

	expectedExpireDur := time.Duration(expireHours) * time.Hour
	if tm.expireDur != expectedExpireDur {
		t.Errorf("Expected expireDur %v, got %v", expectedExpireDur, tm.expireDur)
	}

	expectedRefreshDur := time.Duration(refreshHours) * time.Hour
	if tm.refreshDur != expectedRefreshDur {
		t.Errorf("Expected refreshDur %v, got %v", expectedRefreshDur, tm.refreshDur)
	}
}

func TestGenerateToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 24, 168)
	userID := "7c9a1d2e-0000-4000-8000-000000000001"
	username := "alex.johnson"
	email := "alex.student@learninverse.com"

	token, err := tm.GenerateToken(userID, username, email, rbac.RoleStudent)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Error("Generated token is empty")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("Expected UserID %s, got %s", userID, claims.UserID)
	}
	if claims.UserName != username {
		t.Errorf("Expected UserName %s, got %s", username, claims.UserName)
	}
	if claims.UserEmail != email {
		t.Errorf("Expected UserEmail %s, got %s", email, claims.UserEmail)
	}
	if claims.Role != rbac.RoleStudent {
		t.Errorf("Expected Role %s, got %s", rbac.RoleStudent, claims.Role)
	}
}

func TestParseToken_RoleRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 24, 168)

	for _, role := range rbac.AllRoles {
		token, err := tm.GenerateToken("user-1", "user", "user@learninverse.com", role)
		if err != nil {
			t.Fatalf("GenerateToken(%s) failed: %v", role, err)
		}
		claims, err := tm.ParseToken(token)
		if err != nil {
			t.Fatalf("ParseToken(%s) failed: %v", role, err)
		}
		if claims.Role != role {
			t.Errorf("Expected role %s, got %s", role, claims.Role)
		}
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 24, 168)

	if _, err := tm.ParseToken("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}

	other := NewTokenManager("other-secret", 24, 168)
	token, err := other.GenerateToken("user-1", "user", "user@learninverse.com", rbac.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := tm.ParseToken(token); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 0, 168)
	// expireHours = 0 produces an already-expired token
	token, err := tm.GenerateToken("user-1", "user", "user@learninverse.com", rbac.RoleTeacher)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	_, err = tm.ParseToken(token)
	if err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestRefreshToken(t *testing.T) {
	// With a refresh window wider than the expiry the token is immediately
	// eligible for refresh.
	tm := NewTokenManager("test-secret", 1, 168)
	token, err := tm.GenerateToken("user-1", "user", "user@learninverse.com", rbac.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	refreshed, err := tm.RefreshToken(token)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	claims, err := tm.ParseToken(refreshed)
	if err != nil {
		t.Fatalf("ParseToken of refreshed token failed: %v", err)
	}
	if claims.Role != rbac.RoleAdmin {
		t.Errorf("refreshed token lost role claim: got %s", claims.Role)
	}
}

func TestGetUserIDFromToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 24, 168)
	token, err := tm.GenerateToken("user-42", "user", "user@learninverse.com", rbac.RoleStudent)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	id, err := tm.GetUserIDFromToken(token)
	if err != nil {
		t.Fatalf("GetUserIDFromToken failed: %v", err)
	}
	if id != "user-42" {
		t.Errorf("Expected user-42, got %s", id)
	}
}
