// Package session owns the client's single authoritative session.
//
// The Manager is the only writer of session state and of the session store. Every
// transition goes through Restore, Login, Logout or CheckExpiry; readers get value
// snapshots.
package session

import (
	"fmt"

	"github.com/sulwork/breakfast/pkg/domain"
)

// Status is the coarse session state observed by route guards.
type Status int

const (
	Restoring Status = iota
	Authenticated
	Unauthenticated
)

func (s Status) String() string {
	switch s {
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Session is a snapshot of the session state.
type Session struct {
	Identity *domain.Identity
	Token    string
	Status   Status
	Error    string // last login failure shown to the user; empty otherwise
}

// IsAuthenticated reports whether the snapshot holds a live identity.
func (s Session) IsAuthenticated() bool {
	return s.Status == Authenticated && s.Identity != nil && s.Token != ""
}

// HasRole reports whether the snapshot is authenticated with role r.
func (s Session) HasRole(r domain.Role) bool {
	return s.IsAuthenticated() && s.Identity.Role == r
}

func (s Session) clone() Session {
	if s.Identity != nil {
		id := *s.Identity
		s.Identity = &id
	}
	return s
}
