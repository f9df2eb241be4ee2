package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newService(t *testing.T, secret string, ttl time.Duration) *TokenService {
	t.Helper()
	s, err := NewTokenService(secret, ttl)
	if err != nil {
		t.Fatalf("NewTokenService error: %v", err)
	}
	return s
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	s := newService(t, "super-secret", 0)
	tok, err := s.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	got, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got != "user-123" {
		t.Fatalf("user id mismatch: got %q want %q", got, "user-123")
	}
}

func TestVerify_NoExpiryByDefault(t *testing.T) {
	t.Parallel()

	s := newService(t, "k", 0)
	tok, err := s.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(10 * 365 * 24 * time.Hour) }
	if _, err := s.Verify(tok); err != nil {
		t.Fatalf("token without ttl should stay valid, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	s := newService(t, "k", time.Minute)
	tok, err := s.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := s.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := newService(t, "right-secret", 0).Issue("u2")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := newService(t, "wrong-secret", 0).Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	t.Parallel()

	s := newService(t, "k", 0)
	tok, err := s.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	parts := strings.Split(tok, ".")
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "admin"}).SignedString([]byte("other"))
	if err != nil {
		t.Fatalf("sign forged: %v", err)
	}
	// forged payload with the original signature
	tampered := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	if _, err := s.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	s := newService(t, "k", 0)
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		if _, err := s.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	s := newService(t, "k", 0)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: "u1"}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS512 token, got %v", err)
	}
}

func TestVerify_MissingUserID(t *testing.T) {
	t.Parallel()

	s := newService(t, "k", 0)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewTokenService_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenService("  ", 0); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewTokenService("k", -time.Second); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
}
