package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	m := NewTokenManager([]byte("super-secret"), time.Hour)

	tok, err := m.Issue(42)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	userID, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if userID != 42 {
		t.Fatalf("userID mismatch: got %d want 42", userID)
	}
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	m := NewTokenManager([]byte("secret"), -time.Second)

	tok, err := m.Issue(1)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = m.Verify(tok)
	if err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected expiry to be detectable behind ErrInvalidToken, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenManager([]byte("right-secret"), time.Hour)
	verifier := NewTokenManager([]byte("wrong-secret"), time.Hour)

	tok, err := issuer.Issue(7)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = verifier.Verify(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered signature, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	m := NewTokenManager([]byte("k"), time.Hour)

	for _, tok := range []string{"", "garbage", "not.a.jwt"} {
		if _, err := m.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	t.Parallel()

	m := NewTokenManager([]byte("secret"), time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 9,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	if _, err := m.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}
