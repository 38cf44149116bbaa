// Package session owns the console's identity: it restores the bearer token
// from the session store at startup, adopts new tokens on login, tears the
// session down on logout and notifies listeners of every transition.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/asset-console/internal/domain"
	"github.com/spec-kit/asset-console/internal/events"
	"github.com/spec-kit/asset-console/internal/store"
	"github.com/spec-kit/asset-console/internal/token"
)

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (string, error)
}

// Decoder extracts claims from a bearer token.
type Decoder interface {
	Decode(raw string) (token.Claims, error)
}

// Manager is the single owner of session state. All methods are safe for
// concurrent use; transitions are committed atomically.
type Manager struct {
	store      store.Store
	auth       Authenticator
	codec      Decoder
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	// commit serializes store mutations with the state change they belong to.
	commit sync.Mutex

	mu       sync.RWMutex
	state    domain.State
	identity *domain.Identity
	token    string
	started  bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithDecoder replaces the default token codec.
func WithDecoder(d Decoder) Option {
	return func(m *Manager) {
		if d != nil {
			m.codec = d
		}
	}
}

// WithDispatcher shares an existing dispatcher.
func WithDispatcher(d events.Dispatcher) Option {
	return func(m *Manager) {
		if d != nil {
			m.dispatcher = d
		}
	}
}

// NewManager builds an uninitialized manager.
func NewManager(st store.Store, auth Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store:      st,
		auth:       auth,
		codec:      token.NewCodec(),
		dispatcher: events.NewInMemoryDispatcher(),
		logger:     zap.NewNop(),
		now:        time.Now,
		state:      domain.StateUninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize restores the session from the store. It runs once per manager;
// later calls return immediately. Every failure settles the session as
// anonymous, so Initialize never reports an error.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.state = domain.StateRestoring
	m.mu.Unlock()
	m.publish(ctx, events.EventRestoring, domain.StateUninitialized, domain.StateRestoring, nil)

	m.commit.Lock()
	raw, claims, ok := m.restore(ctx)
	m.mu.Lock()
	if ok {
		id := claims.Identity()
		m.identity, m.token, m.state = &id, raw, domain.StateAuthenticated
	} else {
		m.identity, m.token, m.state = nil, "", domain.StateAnonymous
	}
	to, id := m.state, m.identity
	m.mu.Unlock()
	m.commit.Unlock()

	m.publish(ctx, events.EventRestored, domain.StateRestoring, to, id)
}

// restore reads and validates the stored token. Any rejected value is cleared
// from the store.
func (m *Manager) restore(ctx context.Context) (string, token.Claims, bool) {
	raw, found, err := m.store.Read(ctx)
	switch {
	case err != nil:
		m.logger.Warn("session store unreadable; starting anonymous", zap.Error(err))
	case !found:
		m.logger.Debug("no stored session")
	default:
		claims, err := m.codec.Decode(raw)
		if err == nil && claims.ValidAt(m.now()) {
			return raw, claims, true
		}
		if err != nil {
			m.logger.Info("discarding undecodable stored token", zap.Error(err))
		} else {
			m.logger.Info("discarding expired stored token", zap.Time("expires_at", claims.ExpiresAt))
		}
	}

	m.clearStore(ctx)
	return "", token.Claims{}, false
}

// Login authenticates against the auth endpoint and adopts the returned
// token. Endpoint errors are returned unchanged and leave the session as it
// was. Login is refused with ErrNotSettled until Initialize has settled the
// session, so a restore can never overwrite a completed login. Callers must
// not run two logins concurrently.
func (m *Manager) Login(ctx context.Context, creds domain.Credentials) error {
	if !m.State().Settled() {
		return ErrNotSettled
	}

	raw, err := m.auth.Login(ctx, creds)
	if err != nil {
		return err
	}

	claims, err := m.codec.Decode(raw)
	if err != nil {
		m.logger.Error("auth endpoint returned undecodable token", zap.Error(err))
		return &SessionError{Op: "login", Err: err}
	}
	if !claims.ValidAt(m.now()) {
		m.logger.Error("auth endpoint returned expired token", zap.Time("expires_at", claims.ExpiresAt))
		return &SessionError{Op: "login", Err: errors.New("token already expired")}
	}

	id := claims.Identity()
	m.commit.Lock()
	if err := m.store.Write(ctx, raw); err != nil {
		m.logger.Warn("session not persisted; identity kept in memory", zap.Error(err))
	}
	m.mu.Lock()
	from := m.state
	m.identity, m.token, m.state = &id, raw, domain.StateAuthenticated
	m.mu.Unlock()
	m.commit.Unlock()

	m.publish(ctx, events.EventLoggedIn, from, domain.StateAuthenticated, &id)
	return nil
}

// Logout clears the store and discards the identity. Without an
// authenticated session it does nothing: an anonymous session never holds a
// stored token, and before restoration has settled the store belongs to
// Initialize.
func (m *Manager) Logout(ctx context.Context) {
	if !m.IsAuthenticated() {
		return
	}
	m.commit.Lock()
	m.mu.Lock()
	if m.state != domain.StateAuthenticated {
		m.mu.Unlock()
		m.commit.Unlock()
		return
	}
	m.identity, m.token, m.state = nil, "", domain.StateAnonymous
	m.mu.Unlock()
	m.clearStore(ctx)
	m.commit.Unlock()

	m.publish(ctx, events.EventLoggedOut, domain.StateAuthenticated, domain.StateAnonymous, nil)
}

// State returns the current lifecycle state.
func (m *Manager) State() domain.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentIdentity returns the identity while authenticated.
func (m *Manager) CurrentIdentity() (domain.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != domain.StateAuthenticated || m.identity == nil {
		return domain.Identity{}, false
	}
	return *m.identity, true
}

// IsAuthenticated reports whether a valid identity is held.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == domain.StateAuthenticated
}

// IsPrivileged reports whether the identity holds the ADMIN role.
func (m *Manager) IsPrivileged() bool {
	id, ok := m.CurrentIdentity()
	return ok && id.Role.Privileged()
}

// Token returns the bearer token for downstream API calls, or "" when anonymous.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != domain.StateAuthenticated {
		return ""
	}
	return m.token
}

// Subscribe registers a listener for every committed transition. Listeners run
// synchronously, in registration order, after the transition is visible.
func (m *Manager) Subscribe(handler events.EventHandler) (unsubscribe func()) {
	return m.dispatcher.SubscribeAll(handler)
}

func (m *Manager) clearStore(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("failed to clear session store", zap.Error(err))
	}
}

func (m *Manager) publish(ctx context.Context, typ events.EventType, from, to domain.State, id *domain.Identity) {
	event := events.Event{
		Type:      typ,
		From:      from,
		To:        to,
		Timestamp: m.now(),
	}
	if id != nil {
		copied := *id
		event.Identity = &copied
	}
	if err := m.dispatcher.Publish(ctx, event); err != nil {
		m.logger.Warn("session listener failed", zap.String("event", string(typ)), zap.Error(err))
	}
}
