package auth

import (
	"testing"
	"time"

	"github.com/Junhyukkkk/anondocs-server/internal/common"
	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
)

var testUser = &models.User{
	ID:       42,
	Email:    "user@test.com",
	Nickname: "User42",
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("secret")

	token, err := GenerateToken(testUser, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	p, err := ParsePrincipal(token, secret)
	if err != nil {
		t.Fatalf("ParsePrincipal: %v", err)
	}
	if p.ID != testUser.ID || p.Email != testUser.Email || p.Nickname != testUser.Nickname {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	secret := []byte("secret")

	token, err := GenerateToken(testUser, secret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ParsePrincipal(token, secret); err != common.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestWrongKeyRejected(t *testing.T) {
	token, err := GenerateToken(testUser, []byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ParsePrincipal(token, []byte("other")); err != common.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	if _, err := ParsePrincipal("not-a-jwt", []byte("secret")); err != common.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPrincipalFromBearer(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateToken(testUser, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := PrincipalFromBearer("Bearer "+token, secret); err != nil {
		t.Fatalf("valid bearer header rejected: %v", err)
	}

	if _, err := PrincipalFromBearer(token, secret); err != common.ErrorInvalidAuthHeader {
		t.Fatalf("expected ErrorInvalidAuthHeader, got %v", err)
	}

	if _, err := PrincipalFromBearer("", secret); err != common.ErrorInvalidAuthHeader {
		t.Fatalf("expected ErrorInvalidAuthHeader for empty header, got %v", err)
	}
}
