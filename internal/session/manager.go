package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sulwork/breakfast/internal/store"
	"github.com/sulwork/breakfast/pkg/client"
	"github.com/sulwork/breakfast/pkg/domain"
	"github.com/sulwork/breakfast/pkg/token"
)

// IdentityService performs the network side of login and logout.
// *client.Client satisfies it.
type IdentityService interface {
	Login(ctx context.Context, cpf, password string) (*client.LoginResponse, error)
	Logout(ctx context.Context, token string) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger. Tokens and passwords are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDecodeOptions passes options to token.Decode on restore and login.
func WithDecodeOptions(opts ...token.Option) Option {
	return func(m *Manager) { m.decodeOpts = append(m.decodeOpts, opts...) }
}

// Manager is the session state machine: Restoring -> Authenticated | Unauthenticated.
type Manager struct {
	store      store.Store
	identity   IdentityService
	now        func() time.Time
	logger     *slog.Logger
	decodeOpts []token.Option

	mu      sync.RWMutex
	state   Session
	claims  token.Claims
	busy    string // name of the in-flight mutating op
	closed  bool
	subs    map[int]func(Session)
	nextSub int
}

// New creates a Manager in the Restoring state. Call Restore once at startup.
func New(st store.Store, identity IdentityService, opts ...Option) *Manager {
	m := &Manager{
		store:    st,
		identity: identity,
		now:      time.Now,
		logger:   slog.New(slog.DiscardHandler),
		state:    Session{Status: Restoring},
		subs:     make(map[int]func(Session)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns a snapshot of the current state.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// Status returns the current status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Status
}

// IsAuthenticated reports whether the session is Authenticated.
func (m *Manager) IsAuthenticated() bool {
	return m.Session().IsAuthenticated()
}

// HasRole reports whether the session is Authenticated with role r.
func (m *Manager) HasRole(r domain.Role) bool {
	return m.Session().HasRole(r)
}

// Token returns the bearer token of an authenticated session, or "".
// Pass it to client.WithTokenSource to authorize outbound requests.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Status != Authenticated {
		return ""
	}
	return m.state.Token
}

// ExpiresAt returns the expiry of the current token, zero when there is none.
func (m *Manager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Status != Authenticated {
		return time.Time{}
	}
	return m.claims.ExpiresAt
}

// Subscribe registers fn to receive a snapshot after every transition.
// fn runs on the goroutine that caused the transition.
func (m *Manager) Subscribe(fn func(Session)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Close disposes the manager. Later mutations fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.subs = make(map[int]func(Session))
	m.mu.Unlock()
}

// Restore resolves the Restoring state from the store without touching the network.
// Unreadable, malformed or expired records end Unauthenticated; the last two are cleared.
// Only ErrBusy and ErrClosed are returned. Calling Restore after it resolved is a no-op.
func (m *Manager) Restore(ctx context.Context) error {
	release, err := m.begin("restore")
	if err != nil {
		return err
	}
	defer release()

	if m.Status() != Restoring {
		return nil
	}

	raw, err := m.store.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		m.logger.Debug("no stored session")
		m.transition(Session{Status: Unauthenticated}, token.Claims{})
		return nil
	}
	if err != nil {
		m.logger.Warn("session store unreadable", slog.String("error", err.Error()))
		m.transition(Session{Status: Unauthenticated}, token.Claims{})
		return nil
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		m.discard(ctx, "stored session record unreadable", err)
		return nil
	}
	claims, err := token.Decode(rec.Token, m.decodeOpts...)
	if err != nil {
		m.discard(ctx, "stored token rejected", err)
		return nil
	}
	if token.IsExpired(claims, m.now()) {
		m.discard(ctx, "stored token expired", nil)
		return nil
	}

	id := claims.Identity()
	m.transition(Session{Identity: &id, Token: rec.Token, Status: Authenticated}, claims)
	m.logger.Debug("session restored",
		slog.String("subject", claims.Subject),
		slog.String("role", claims.Role.String()),
		slog.Time("expires_at", claims.ExpiresAt))
	return nil
}

// discard clears the store and resolves to Unauthenticated.
func (m *Manager) discard(ctx context.Context, reason string, cause error) {
	attrs := []any{slog.String("reason", reason)}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	m.logger.Info("discarding stored session", attrs...)
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.logger.Warn("clear session store", slog.String("error", err.Error()))
	}
	m.transition(Session{Status: Unauthenticated}, token.Claims{})
}

// Login authenticates against the identity service. On success the token is validated,
// persisted, and the session becomes Authenticated with the identity the token carries.
// On failure the status and the store are unchanged and an *AuthError is returned.
// If ctx is cancelled before the call completes, the outcome is discarded and ctx.Err()
// is returned.
func (m *Manager) Login(ctx context.Context, cpf, password string) error {
	release, err := m.begin("login")
	if err != nil {
		return err
	}
	defer release()

	cpf = domain.SanitizeCPF(cpf)
	if cpf == "" || password == "" {
		ae := authErr(InvalidInput, "", nil)
		m.setError(ae.Message)
		return ae
	}

	attempt := uuid.NewString()
	log := m.logger.With(slog.String("attempt", attempt))
	log.Debug("login started")

	resp, err := m.identity.Login(ctx, cpf, password)
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Debug("login abandoned", slog.String("error", ctxErr.Error()))
		return ctxErr
	}
	if err != nil {
		ae := classify(err)
		log.Warn("login failed", slog.String("kind", ae.Kind.String()), slog.String("error", err.Error()))
		m.setError(ae.Message)
		return ae
	}

	id, claims, ae := m.accept(resp)
	if ae != nil {
		log.Warn("login response rejected", slog.String("kind", ae.Kind.String()), slog.String("error", ae.Error()))
		m.setError(ae.Message)
		return ae
	}

	tok := bareToken(resp.Token)
	rec, err := encodeRecord(tok, m.now())
	if err != nil {
		ae := authErr(StorageUnavailable, "", err)
		m.setError(ae.Message)
		return ae
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Debug("login abandoned before persist", slog.String("error", ctxErr.Error()))
		return ctxErr
	}
	if err := m.store.Save(ctx, rec); err != nil {
		ae := authErr(StorageUnavailable, "", err)
		log.Warn("persist session", slog.String("error", err.Error()))
		m.setError(ae.Message)
		return ae
	}

	m.transition(Session{Identity: &id, Token: tok, Status: Authenticated}, claims)
	log.Info("logged in", slog.String("id", id.ID), slog.String("role", id.Role.String()))
	return nil
}

// accept validates a successful login response. The session identity is the one the
// token carries, so a later restore yields the same principal. When the service also
// returns a user, it must name the same principal and role as the token.
func (m *Manager) accept(resp *client.LoginResponse) (domain.Identity, token.Claims, *AuthError) {
	if resp == nil || resp.Token == "" {
		return domain.Identity{}, token.Claims{}, authErr(ServerError, "", errors.New("empty token"))
	}
	claims, err := token.Decode(resp.Token, m.decodeOpts...)
	if err != nil {
		return domain.Identity{}, token.Claims{}, authErr(ServerError, "", err)
	}
	if token.IsExpired(claims, m.now()) {
		return domain.Identity{}, token.Claims{}, authErr(ServerError, "", errors.New("token already expired"))
	}
	id := claims.Identity()
	if resp.User == nil {
		return id, claims, nil
	}

	user := *resp.User
	role, err := domain.ParseRole(string(user.Role))
	if err != nil {
		return domain.Identity{}, token.Claims{}, authErr(ServerError, "", err)
	}
	if role != id.Role {
		return domain.Identity{}, token.Claims{}, authErr(ServerError, "",
			errors.New("user role does not match token role"))
	}
	if user.ID != "" && user.ID != id.ID {
		return domain.Identity{}, token.Claims{}, authErr(ServerError, "",
			fmt.Errorf("user id %q does not match token principal %q", user.ID, id.ID))
	}
	if cpf := domain.SanitizeCPF(user.CPF); cpf != "" && cpf != domain.SanitizeCPF(id.CPF) {
		return domain.Identity{}, token.Claims{}, authErr(ServerError, "",
			errors.New("user cpf does not match token cpf"))
	}
	return id, claims, nil
}

// classify maps an identity service failure to an *AuthError. Only failures where no
// reply arrived count as network trouble.
func classify(err error) *AuthError {
	switch {
	case client.IsStatus(err, http.StatusBadRequest), client.IsStatus(err, http.StatusUnauthorized),
		client.IsStatus(err, http.StatusForbidden), client.IsStatus(err, http.StatusNotFound):
		return authErr(InvalidCredentials, "", err)
	case client.IsHTTPError(err), errors.Is(err, client.ErrBadResponse):
		return authErr(ServerError, "", err)
	}
	return authErr(NetworkUnavailable, "", err)
}

// Logout ends the session. The local session always ends: the store is cleared and the
// state reset before the best-effort remote call, whose failure is only logged.
// Only ErrBusy and ErrClosed are returned.
func (m *Manager) Logout(ctx context.Context) error {
	release, err := m.begin("logout")
	if err != nil {
		return err
	}
	defer release()

	m.mu.RLock()
	tok := m.state.Token
	m.mu.RUnlock()

	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.logger.Warn("clear session store", slog.String("error", err.Error()))
	}
	m.transition(Session{Status: Unauthenticated}, token.Claims{})

	if tok != "" && m.identity != nil {
		if err := m.identity.Logout(ctx, tok); err != nil {
			m.logger.Info("remote logout failed", slog.String("error", err.Error()))
		}
	}
	m.logger.Debug("logged out")
	return nil
}

// CheckExpiry tears the session down if its token has expired and reports whether it did.
// It is skipped while another operation is in flight.
func (m *Manager) CheckExpiry(ctx context.Context) bool {
	release, err := m.begin("expire")
	if err != nil {
		return false
	}
	defer release()

	m.mu.RLock()
	expired := m.state.Status == Authenticated && token.IsExpired(m.claims, m.now())
	m.mu.RUnlock()
	if !expired {
		return false
	}
	m.discard(ctx, "token expired during session", nil)
	return true
}

// begin marks a mutating op as in flight. The returned func ends it.
func (m *Manager) begin(op string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.busy != "" {
		m.logger.Debug("operation rejected", slog.String("op", op), slog.String("in_flight", m.busy))
		return nil, ErrBusy
	}
	m.busy = op
	return func() {
		m.mu.Lock()
		m.busy = ""
		m.mu.Unlock()
	}, nil
}

func (m *Manager) transition(next Session, claims token.Claims) {
	m.mu.Lock()
	prev := m.state.Status
	m.state = next
	m.claims = claims
	snap := m.state.clone()
	subs := m.subscribers()
	m.mu.Unlock()

	if prev != next.Status {
		m.logger.Debug("session transition", slog.String("from", prev.String()), slog.String("to", next.Status.String()))
	}
	for _, fn := range subs {
		fn(snap)
	}
}

// setError records a login failure message without changing the status.
func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.state.Error = msg
	snap := m.state.clone()
	subs := m.subscribers()
	m.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// subscribers must be called with mu held.
func (m *Manager) subscribers() []func(Session) {
	subs := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}
