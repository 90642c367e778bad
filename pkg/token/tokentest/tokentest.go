// Package tokentest issues signed tokens for tests.
package tokentest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Key signs every token issued by this package. The client never verifies it.
var Key = []byte("breakfast-test-signing-key")

// Spec describes the claims of a test token. Zero fields are omitted.
type Spec struct {
	Subject   string
	UserID    any
	CPF       string
	Name      string
	Role      string
	Roles     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Sign returns an HS256 token for s.
func Sign(tb testing.TB, s Spec) string {
	tb.Helper()
	claims := jwt.MapClaims{}
	if s.Subject != "" {
		claims["sub"] = s.Subject
	}
	if s.UserID != nil {
		claims["uid"] = s.UserID
	}
	if s.CPF != "" {
		claims["cpf"] = s.CPF
	}
	if s.Name != "" {
		claims["name"] = s.Name
	}
	if s.Role != "" {
		claims["role"] = s.Role
	}
	if s.Roles != "" {
		claims["roles"] = s.Roles
	}
	if !s.IssuedAt.IsZero() {
		claims["iat"] = s.IssuedAt.Unix()
	}
	if !s.ExpiresAt.IsZero() {
		claims["exp"] = s.ExpiresAt.Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(Key)
	if err != nil {
		tb.Fatalf("tokentest.Sign: %v", err)
	}
	return signed
}

// Valid returns a token for subject and role that expires in one hour.
func Valid(tb testing.TB, subject, role string) string {
	tb.Helper()
	now := time.Now()
	return Sign(tb, Spec{Subject: subject, Role: role, IssuedAt: now, ExpiresAt: now.Add(time.Hour)})
}

// Expired returns a token for subject and role that expired ten seconds ago.
func Expired(tb testing.TB, subject, role string) string {
	tb.Helper()
	now := time.Now()
	return Sign(tb, Spec{Subject: subject, Role: role, IssuedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-10 * time.Second)})
}
