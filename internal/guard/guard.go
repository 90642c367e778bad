// Package guard decides whether a view may render for the current session.
//
// Decisions are pure values; the UI layer turns them into navigation.
package guard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sulwork/breakfast/internal/session"
	"github.com/sulwork/breakfast/pkg/domain"
)

// Kind is the outcome of a guard evaluation.
type Kind int

const (
	// Pending holds rendering: neither the view nor a redirect until the session resolves.
	Pending Kind = iota
	Allow
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Decision is what a guard tells the UI to do.
type Decision struct {
	Kind Kind
	To   string // redirect target
	From string // location to return to after login; set only on login redirects
}

func (d Decision) String() string {
	if d.Kind != Redirect {
		return d.Kind.String()
	}
	if d.From != "" {
		return fmt.Sprintf("redirect %s (from %s)", d.To, d.From)
	}
	return "redirect " + d.To
}

// Paths names the two redirect targets.
type Paths struct {
	Login   string
	Landing string
}

// DefaultPaths are used when a Paths field is empty.
var DefaultPaths = Paths{Login: "/login", Landing: "/home"}

func (p Paths) withDefaults() Paths {
	if p.Login == "" {
		p.Login = DefaultPaths.Login
	}
	if p.Landing == "" {
		p.Landing = DefaultPaths.Landing
	}
	return p
}

// Requirement is a capability a view demands of the session.
type Requirement interface {
	evaluate(s session.Session, p Paths, location string) Decision
	fmt.Stringer
}

type public struct{}

// Public lets any session through, including one still restoring.
func Public() Requirement { return public{} }

func (public) evaluate(session.Session, Paths, string) Decision { return Decision{Kind: Allow} }
func (public) String() string                                   { return "public" }

type requireAuth struct{}

// RequireAuth admits any authenticated identity.
func RequireAuth() Requirement { return requireAuth{} }

func (requireAuth) evaluate(s session.Session, p Paths, location string) Decision {
	switch {
	case s.Status == session.Restoring:
		return Decision{Kind: Pending}
	case s.IsAuthenticated():
		return Decision{Kind: Allow}
	}
	return toLogin(p, location)
}

func (requireAuth) String() string { return "auth" }

type requireRole struct {
	role domain.Role
}

// RequireRole admits authenticated identities carrying role. Authenticated identities
// with another role go to the landing page, never to login.
func RequireRole(role domain.Role) Requirement { return requireRole{role: role} }

func (r requireRole) evaluate(s session.Session, p Paths, location string) Decision {
	switch {
	case s.Status == session.Restoring:
		return Decision{Kind: Pending}
	case !s.IsAuthenticated():
		return toLogin(p, location)
	case s.Identity.Role != r.role:
		return Decision{Kind: Redirect, To: p.Landing}
	}
	return Decision{Kind: Allow}
}

func (r requireRole) String() string { return "role:" + r.role.String() }

func toLogin(p Paths, location string) Decision {
	d := Decision{Kind: Redirect, To: p.Login}
	if location != "" && location != p.Login {
		d.From = location
	}
	return d
}

// Evaluate applies req to s using DefaultPaths.
func Evaluate(s session.Session, req Requirement, location string) Decision {
	return req.evaluate(s, DefaultPaths, location)
}

// Source provides session snapshots. *session.Manager satisfies it.
type Source interface {
	Session() session.Session
}

// Guard evaluates requirements against a live session source.
type Guard struct {
	src   Source
	paths Paths
}

// New returns a Guard reading src. Empty paths fall back to DefaultPaths.
func New(src Source, paths Paths) *Guard {
	return &Guard{src: src, paths: paths.withDefaults()}
}

// Paths returns the redirect targets in use.
func (g *Guard) Paths() Paths { return g.paths }

// Check evaluates req against the current session for a navigation to location.
func (g *Guard) Check(req Requirement, location string) Decision {
	return req.evaluate(g.src.Session(), g.paths, location)
}

// ReturnTo picks where to go after a successful login: the captured location when
// there is one, the landing page otherwise.
func (g *Guard) ReturnTo(from string) string {
	if from == "" || from == g.paths.Login {
		return g.paths.Landing
	}
	return from
}

// Route binds a path to a requirement.
type Route struct {
	Path        string
	Requirement Requirement
}

// Router resolves locations through a route table. Unknown paths require authentication.
type Router struct {
	guard  *Guard
	routes map[string]Requirement
}

// NewRouter builds a Router over g.
func NewRouter(g *Guard, routes ...Route) *Router {
	r := &Router{guard: g, routes: make(map[string]Requirement, len(routes)+1)}
	r.routes[g.paths.Login] = Public()
	for _, rt := range routes {
		r.routes[cleanPath(rt.Path)] = rt.Requirement
	}
	return r
}

// Requirement returns the requirement for location.
func (r *Router) Requirement(location string) Requirement {
	if req, ok := r.routes[cleanPath(location)]; ok {
		return req
	}
	return RequireAuth()
}

// Resolve decides navigation to location for the current session.
func (r *Router) Resolve(location string) Decision {
	return r.guard.Check(r.Requirement(location), location)
}

// Guard returns the underlying guard.
func (r *Router) Guard() *Guard { return r.guard }

func cleanPath(p string) string {
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}
	if p != "/" {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}
