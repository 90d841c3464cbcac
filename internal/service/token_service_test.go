package service

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestKeypair(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}

func TestTokenService_IssueVerify(t *testing.T) {
	key := newTestKeypair(t)
	issuer := NewTokenIssuer(key, 7*24*time.Hour)
	verifier := NewTokenVerifier(&key.PublicKey)

	issued, err := issuer.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(issued.Token, "Bearer ") {
		t.Fatalf("expected bearer prefix, got %q", issued.Token)
	}
	if remaining := time.Until(issued.ExpiresAt); remaining < 6*24*time.Hour {
		t.Fatalf("expected roughly 7 days of validity, got %v", remaining)
	}

	claims, err := verifier.Verify(issued.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u1" {
		t.Fatalf("unexpected subject: %q", claims.Subject)
	}
}

func TestTokenService_VerifyWithoutBearerPrefix(t *testing.T) {
	key := newTestKeypair(t)
	issuer := NewTokenIssuer(key, time.Hour)
	verifier := NewTokenVerifier(&key.PublicKey)

	issued, err := issuer.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	raw := strings.TrimPrefix(issued.Token, "Bearer ")
	if _, err := verifier.Verify(raw); err != nil {
		t.Fatalf("verify without prefix: %v", err)
	}
}

func TestTokenService_RejectsExpiredToken(t *testing.T) {
	key := newTestKeypair(t)
	verifier := NewTokenVerifier(&key.PublicKey)

	now := time.Now().UTC()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "account-api",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := verifier.Verify(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_RejectsForeignKey(t *testing.T) {
	key := newTestKeypair(t)
	otherKey := newTestKeypair(t)
	issuer := NewTokenIssuer(otherKey, time.Hour)
	verifier := NewTokenVerifier(&key.PublicKey)

	issued, err := issuer.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(issued.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign signature, got %v", err)
	}
}

func TestTokenService_RejectsMalformedToken(t *testing.T) {
	key := newTestKeypair(t)
	verifier := NewTokenVerifier(&key.PublicKey)

	for _, token := range []string{"", "Bearer ", "Bearer garbage", "not.a.jwt"} {
		if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("token %q: expected ErrTokenMalformed, got %v", token, err)
		}
	}
}

func TestTokenService_RejectsWrongIssuer(t *testing.T) {
	key := newTestKeypair(t)
	verifier := NewTokenVerifier(&key.PublicKey)

	now := time.Now().UTC()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "other-service",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := verifier.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong issuer, got %v", err)
	}
}

func TestTokenService_RejectsHMACSignedToken(t *testing.T) {
	key := newTestKeypair(t)
	verifier := NewTokenVerifier(&key.PublicKey)

	now := time.Now().UTC()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "account-api",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := verifier.Verify(signed); err == nil {
		t.Fatalf("expected verification to fail for HS256 token")
	}
}

func TestTokenService_IssueRejectsEmptySubject(t *testing.T) {
	key := newTestKeypair(t)
	issuer := NewTokenIssuer(key, time.Hour)

	if _, err := issuer.Issue(""); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("expected ErrEmptySubject, got %v", err)
	}
	if _, err := issuer.Issue("   "); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("expected ErrEmptySubject for blank user id, got %v", err)
	}
}
