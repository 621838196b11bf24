package auth

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, err := m.GenerateToken("u1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "u1")
	}
}

func TestParseTokenRejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, _ := m.GenerateToken("u1")

	if _, err := NewManager("other", time.Hour).ParseToken(token); err == nil {
		t.Error("expected error for wrong secret")
	}

	expired, _ := NewManager("secret", -time.Minute).GenerateToken("u1")
	if _, err := m.ParseToken(expired); err == nil {
		t.Error("expected error for expired token")
	}

	if _, err := m.ParseToken("not-a-token"); err == nil {
		t.Error("expected error for garbage")
	}
}

func TestPasswordHash(t *testing.T) {
	m := NewManager("secret", time.Hour)
	hash, err := m.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := m.ComparePassword(hash, "hunter22"); err != nil {
		t.Errorf("compare correct password: %v", err)
	}
	if err := m.ComparePassword(hash, "wrong"); err == nil {
		t.Error("expected mismatch for wrong password")
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		target string
		want   string
		ok     bool
	}{
		{"bearer header", "Bearer abc", "/", "abc", true},
		{"lowercase scheme", "bearer abc", "/", "abc", true},
		{"wrong scheme", "Basic abc", "/", "", false},
		{"query param", "", "/ws?token=xyz", "xyz", true},
		{"header wins", "Bearer abc", "/ws?token=xyz", "abc", true},
		{"missing", "", "/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, ok := TokenFromRequest(r)
			if got != tt.want || ok != tt.ok {
				t.Errorf("TokenFromRequest = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}
