package util

import (
	"errors"
	"testing"
	"time"
)

func TestTokenManager_IssueVerify(t *testing.T) {
	m := NewTokenManager("secret", "flowtasks", time.Hour)
	token, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Subject != "user-1" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != "flowtasks" {
		t.Errorf("Issuer = %q, want flowtasks", claims.Issuer)
	}
}

func TestTokenManager_DefaultTTL(t *testing.T) {
	if got := NewTokenManager("s", "", 0).TTL(); got != DefaultTokenTTL {
		t.Errorf("TTL() = %v, want %v", got, DefaultTokenTTL)
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, _ := NewTokenManager("secret", "", time.Hour).Issue("user-1")
	if _, err := NewTokenManager("other", "", time.Hour).Verify(token); err == nil {
		t.Error("Verify() with wrong secret error = nil, want error")
	}
}

func TestTokenManager_WrongIssuer(t *testing.T) {
	token, _ := NewTokenManager("secret", "someone-else", time.Hour).Issue("user-1")
	if _, err := NewTokenManager("secret", "flowtasks", time.Hour).Verify(token); err == nil {
		t.Error("Verify() with foreign issuer error = nil, want error")
	}
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("secret", "", time.Nanosecond)
	token, _ := m.Issue("user-1")
	time.Sleep(1100 * time.Millisecond)
	if _, err := m.Verify(token); err == nil {
		t.Error("Verify() with expired token error = nil, want error")
	}
}

func TestTokenManager_Garbage(t *testing.T) {
	if _, err := NewTokenManager("secret", "", time.Hour).Verify("not-a-jwt"); err == nil {
		t.Error("Verify(garbage) error = nil, want error")
	}
}

func TestTokenManager_EmptySecret(t *testing.T) {
	m := NewTokenManager("", "", time.Hour)
	if _, err := m.Issue("user-1"); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("Issue() error = %v, want ErrEmptySecret", err)
	}
	if _, err := m.Verify("x"); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("Verify() error = %v, want ErrEmptySecret", err)
	}
}
