package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)

	token, err := m.Issue(42, "alice")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if claims.UserID != 42 {
		t.Fatalf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Subject != "alice" {
		t.Fatalf("Subject = %q, want alice", claims.Subject)
	}
	if claims.ID == "" {
		t.Fatalf("token must carry a jti")
	}
}

func TestParse_UniqueTokenIDs(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)

	first, err := m.Issue(1, "user")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	second, err := m.Issue(1, "user")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	a, _ := m.Parse(first)
	b, _ := m.Parse(second)
	if a == nil || b == nil || a.ID == b.ID {
		t.Fatalf("jti must be unique per token")
	}
}

func TestParse_ExpiredToken(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)

	token, err := m.Issue(1, "user")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = m.Parse(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-one", time.Minute)
	verifier := NewTokenManager("secret-two", time.Minute)

	token, err := issuer.Issue(1, "user")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := verifier.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)

	if _, err := m.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
