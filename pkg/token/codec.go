// Package token decodes the bearer tokens issued by the identity service.
//
// Decoding happens locally and never verifies the signature: the client holds no key.
// It only extracts the claims a session needs and rejects tokens that cannot back one.
package token

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sulwork/breakfast/pkg/domain"
)

// Claims is the validated claim set of a bearer token.
type Claims struct {
	Subject   string
	UserID    string
	CPF       string
	Name      string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time // zero only when decoded with AllowMissingExpiry
}

// HasExpiry reports whether the token carries an expiry claim.
func (c Claims) HasExpiry() bool {
	return !c.ExpiresAt.IsZero()
}

// TTL returns the remaining lifetime at now. Tokens without expiry report a negative duration.
func (c Claims) TTL(now time.Time) time.Duration {
	if !c.HasExpiry() {
		return -1
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Identity builds the principal described by the claims. Tokens issued by the backend
// carry the CPF as subject, so the subject fills whichever of ID and CPF is missing.
func (c Claims) Identity() domain.Identity {
	id := domain.Identity{
		ID:   c.UserID,
		CPF:  c.CPF,
		Name: c.Name,
		Role: c.Role,
	}
	if id.ID == "" {
		id.ID = c.Subject
	}
	if id.CPF == "" {
		id.CPF = c.Subject
	}
	return id
}

// wireClaims mirrors the JSON payload. uid may be a number or a string.
type wireClaims struct {
	UID   any    `json:"uid,omitempty"`
	CPF   string `json:"cpf,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	Roles string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type options struct {
	allowMissingExpiry bool
}

// Option tunes Decode.
type Option func(*options)

// AllowMissingExpiry accepts tokens without an exp claim and treats them as never expiring.
func AllowMissingExpiry() Option {
	return func(o *options) { o.allowMissingExpiry = true }
}

var parser = jwt.NewParser()

// Decode parses raw into Claims. Failures are always *DecodeError.
func Decode(raw string, opts ...Option) (Claims, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if strings.Count(raw, ".") != 2 {
		return Claims{}, decodeErr(Malformed, errors.New("expected three segments"))
	}

	var wc wireClaims
	if _, _, err := parser.ParseUnverified(raw, &wc); err != nil {
		return Claims{}, decodeErr(Malformed, err)
	}
	if strings.TrimSpace(wc.Subject) == "" {
		return Claims{}, decodeErr(Malformed, errors.New("missing subject"))
	}

	role, err := resolveRole(wc.Role, wc.Roles)
	if err != nil {
		return Claims{}, decodeErr(UnknownRole, err)
	}

	c := Claims{
		Subject: wc.Subject,
		UserID:  uidString(wc.UID),
		CPF:     domain.SanitizeCPF(wc.CPF),
		Name:    wc.Name,
		Role:    role,
	}
	if wc.IssuedAt != nil {
		c.IssuedAt = wc.IssuedAt.Time
	}
	if wc.ExpiresAt != nil {
		c.ExpiresAt = wc.ExpiresAt.Time
	} else if !o.allowMissingExpiry {
		return Claims{}, decodeErr(MissingExpiry, nil)
	}
	return c, nil
}

// IsExpired reports whether the claims are expired at now. Expiry is inclusive.
func IsExpired(c Claims, now time.Time) bool {
	if !c.HasExpiry() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}

// resolveRole prefers the single role claim; otherwise it picks the highest-privilege
// entry of the comma-joined roles claim.
func resolveRole(role, roles string) (domain.Role, error) {
	if role != "" {
		return domain.ParseRole(role)
	}
	if strings.TrimSpace(roles) == "" {
		return "", errors.New("no role claim")
	}
	var best domain.Role
	for _, part := range strings.Split(roles, ",") {
		r, err := domain.ParseRole(part)
		if err != nil {
			return "", err
		}
		if r.Rank() > best.Rank() {
			best = r
		}
	}
	return best, nil
}

func uidString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}
