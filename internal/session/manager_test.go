package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/asset-console/internal/authclient"
	"github.com/spec-kit/asset-console/internal/domain"
	"github.com/spec-kit/asset-console/internal/events"
	"github.com/spec-kit/asset-console/internal/store"
	"github.com/spec-kit/asset-console/internal/token"
)

var fixedNow = time.Unix(1_760_000_000, 0)

func clock() time.Time { return fixedNow }

func mint(t *testing.T, subject, role string, exp time.Time) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  exp.Unix(),
	}).SignedString([]byte("endpoint-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

type fakeAuth struct {
	mu    sync.Mutex
	token string
	err   error
	calls int
}

func (f *fakeAuth) Login(_ context.Context, _ domain.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.token, f.err
}

// brokenStore fails every operation as if storage were disabled.
type brokenStore struct{}

func (brokenStore) Read(context.Context) (string, bool, error) {
	return "", false, &store.UnavailableError{Op: "read", Err: errors.New("disabled")}
}
func (brokenStore) Write(context.Context, string) error {
	return &store.UnavailableError{Op: "write", Err: errors.New("quota exceeded")}
}
func (brokenStore) Clear(context.Context) error {
	return &store.UnavailableError{Op: "clear", Err: errors.New("disabled")}
}

func newManager(t *testing.T, st store.Store, auth Authenticator) *Manager {
	t.Helper()
	if auth == nil {
		auth = &fakeAuth{err: errors.New("unexpected login")}
	}
	return NewManager(st, auth, WithClock(clock))
}

func seed(t *testing.T, st store.Store, raw string) {
	t.Helper()
	if err := st.Write(context.Background(), raw); err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

func assertStoreEmpty(t *testing.T, st store.Store) {
	t.Helper()
	if raw, ok, err := st.Read(context.Background()); err != nil || ok {
		t.Fatalf("expected empty store, got %q ok=%v err=%v", raw, ok, err)
	}
}

func TestNewManagerStartsUninitialized(t *testing.T) {
	m := newManager(t, store.NewMemory(), nil)
	if m.State() != domain.StateUninitialized {
		t.Fatalf("unexpected state %s", m.State())
	}
	if m.IsAuthenticated() || m.IsPrivileged() {
		t.Fatal("uninitialized manager must not be authenticated")
	}
	if _, ok := m.CurrentIdentity(); ok {
		t.Fatal("uninitialized manager must not expose an identity")
	}
}

func TestInitializeRestoresValidAdminToken(t *testing.T) {
	st := store.NewMemory()
	raw := mint(t, "admin@example.com", "ADMIN", fixedNow.Add(time.Hour))
	seed(t, st, raw)

	m := newManager(t, st, nil)
	m.Initialize(context.Background())

	id, ok := m.CurrentIdentity()
	if !ok {
		t.Fatal("expected restored identity")
	}
	if id != (domain.Identity{SubjectID: "admin@example.com", Role: domain.RoleAdmin}) {
		t.Fatalf("unexpected identity %+v", id)
	}
	if !m.IsAuthenticated() || !m.IsPrivileged() {
		t.Fatal("expected authenticated admin")
	}
	if m.Token() != raw {
		t.Fatal("expected restored bearer token")
	}
	if stored, ok, _ := st.Read(context.Background()); !ok || stored != raw {
		t.Fatal("valid token must stay in the store")
	}
}

func TestInitializeRestoresEmployeeRole(t *testing.T) {
	st := store.NewMemory()
	seed(t, st, mint(t, "employee@example.com", "EMPLOYEE", fixedNow.Add(time.Minute)))

	m := newManager(t, st, nil)
	m.Initialize(context.Background())

	id, ok := m.CurrentIdentity()
	if !ok || id.Role != domain.RoleEmployee {
		t.Fatalf("expected employee identity, got %+v ok=%v", id, ok)
	}
	if m.IsPrivileged() {
		t.Fatal("employee must not be privileged")
	}
}

func TestInitializeDiscardsInvalidTokens(t *testing.T) {
	cases := map[string]string{
		"expired an hour ago": mint(t, "user@example.com", "EMPLOYEE", fixedNow.Add(-time.Hour)),
		"expires right now":   mint(t, "user@example.com", "EMPLOYEE", fixedNow),
		"garbage":             "invalid.token",
		"unknown role":        mint(t, "user@example.com", "AUDITOR", fixedNow.Add(time.Hour)),
		"plain text":          "hello",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			st := store.NewMemory()
			seed(t, st, raw)

			m := newManager(t, st, nil)
			m.Initialize(context.Background())

			if m.State() != domain.StateAnonymous {
				t.Fatalf("expected ANONYMOUS, got %s", m.State())
			}
			if _, ok := m.CurrentIdentity(); ok {
				t.Fatal("expected no identity")
			}
			if m.Token() != "" {
				t.Fatal("expected no bearer token")
			}
			assertStoreEmpty(t, st)

			again := newManager(t, st, nil)
			again.Initialize(context.Background())
			if again.State() != domain.StateAnonymous {
				t.Fatalf("second restore: expected ANONYMOUS, got %s", again.State())
			}
			assertStoreEmpty(t, st)
		})
	}
}

func TestInitializeWithEmptyStore(t *testing.T) {
	st := store.NewMemory()
	m := newManager(t, st, nil)
	m.Initialize(context.Background())

	if m.State() != domain.StateAnonymous {
		t.Fatalf("expected ANONYMOUS, got %s", m.State())
	}
	assertStoreEmpty(t, st)
}

func TestInitializeDegradesWhenStoreUnavailable(t *testing.T) {
	m := newManager(t, brokenStore{}, nil)
	m.Initialize(context.Background())

	if m.State() != domain.StateAnonymous {
		t.Fatalf("expected ANONYMOUS, got %s", m.State())
	}
}

func TestInitializeRunsOnce(t *testing.T) {
	st := store.NewMemory()
	m := newManager(t, st, nil)
	m.Initialize(context.Background())

	seed(t, st, mint(t, "admin@example.com", "ADMIN", fixedNow.Add(time.Hour)))
	m.Initialize(context.Background())

	if m.State() != domain.StateAnonymous {
		t.Fatalf("second Initialize must not restore again, got %s", m.State())
	}
}

func TestInitializePublishesRestoringThenRestored(t *testing.T) {
	st := store.NewMemory()
	seed(t, st, mint(t, "admin@example.com", "ADMIN", fixedNow.Add(time.Hour)))
	m := newManager(t, st, nil)

	var seen []events.Event
	var statesDuring []domain.State
	m.Subscribe(func(_ context.Context, e events.Event) error {
		seen = append(seen, e)
		statesDuring = append(statesDuring, m.State())
		return nil
	})
	m.Initialize(context.Background())

	if len(seen) != 2 {
		t.Fatalf("expected 2 events, got %d", len(seen))
	}
	if seen[0].Type != events.EventRestoring || statesDuring[0] != domain.StateRestoring {
		t.Fatalf("first event should be restoring, got %+v (state %s)", seen[0], statesDuring[0])
	}
	if seen[1].Type != events.EventRestored || seen[1].To != domain.StateAuthenticated || statesDuring[1] != domain.StateAuthenticated {
		t.Fatalf("second event should report restored session, got %+v (state %s)", seen[1], statesDuring[1])
	}
	if seen[1].Identity == nil || seen[1].Identity.SubjectID != "admin@example.com" {
		t.Fatalf("restored event should carry the identity, got %+v", seen[1].Identity)
	}
}

func TestLoginAdoptsIdentityAndPersists(t *testing.T) {
	st := store.NewMemory()
	raw := mint(t, "e@x.com", "EMPLOYEE", fixedNow.Add(time.Hour))
	m := newManager(t, st, &fakeAuth{token: raw})
	m.Initialize(context.Background())

	var got []events.Event
	m.Subscribe(func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})

	if err := m.Login(context.Background(), domain.Credentials{SubjectID: "e@x.com", Secret: "good"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	id, ok := m.CurrentIdentity()
	if !ok || id.SubjectID != "e@x.com" || id.Role != domain.RoleEmployee {
		t.Fatalf("unexpected identity %+v ok=%v", id, ok)
	}
	if stored, ok, _ := st.Read(context.Background()); !ok || stored != raw {
		t.Fatal("expected token persisted")
	}
	if len(got) != 1 || got[0].Type != events.EventLoggedIn || got[0].From != domain.StateAnonymous {
		t.Fatalf("expected one logged-in event from ANONYMOUS, got %+v", got)
	}
}

func TestLoginReplacesPreviousIdentity(t *testing.T) {
	st := store.NewMemory()
	seed(t, st, mint(t, "employee@example.com", "EMPLOYEE", fixedNow.Add(time.Hour)))
	adminToken := mint(t, "admin@example.com", "ADMIN", fixedNow.Add(time.Hour))
	m := newManager(t, st, &fakeAuth{token: adminToken})
	m.Initialize(context.Background())

	if err := m.Login(context.Background(), domain.Credentials{SubjectID: "admin@example.com", Secret: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !m.IsPrivileged() {
		t.Fatal("expected admin identity after login")
	}
	if stored, _, _ := st.Read(context.Background()); stored != adminToken {
		t.Fatal("expected admin token to replace the stored one")
	}
}

func TestLoginInvalidCredentialsLeavesSessionUntouched(t *testing.T) {
	st := store.NewMemory()
	cause := &authclient.InvalidCredentialsError{Status: 401, Message: "Invalid email or password"}
	m := newManager(t, st, &fakeAuth{err: cause})
	m.Initialize(context.Background())

	published := 0
	m.Subscribe(func(context.Context, events.Event) error {
		published++
		return nil
	})

	err := m.Login(context.Background(), domain.Credentials{SubjectID: "e@x.com", Secret: "bad"})
	if err != cause {
		t.Fatalf("expected collaborator error unchanged, got %v", err)
	}
	if m.State() != domain.StateAnonymous {
		t.Fatalf("expected ANONYMOUS, got %s", m.State())
	}
	if published != 0 {
		t.Fatalf("expected no notifications, got %d", published)
	}
	assertStoreEmpty(t, st)
}

func TestLoginFailureKeepsExistingSession(t *testing.T) {
	st := store.NewMemory()
	raw := mint(t, "admin@example.com", "ADMIN", fixedNow.Add(time.Hour))
	seed(t, st, raw)
	m := newManager(t, st, &fakeAuth{err: &authclient.TransportError{Err: errors.New("connection refused")}})
	m.Initialize(context.Background())

	err := m.Login(context.Background(), domain.Credentials{SubjectID: "admin@example.com", Secret: "x"})
	if !errors.Is(err, authclient.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !m.IsPrivileged() || m.Token() != raw {
		t.Fatal("failed login must not disturb the current session")
	}
}

func TestLoginUndecodableTokenIsSessionError(t *testing.T) {
	st := store.NewMemory()
	m := newManager(t, st, &fakeAuth{token: "not-a-jwt"})
	m.Initialize(context.Background())

	err := m.Login(context.Background(), domain.Credentials{SubjectID: "e@x.com", Secret: "x"})
	if !errors.Is(err, ErrSession) {
		t.Fatalf("expected ErrSession, got %v", err)
	}
	if !errors.Is(err, token.ErrMalformed) {
		t.Fatalf("expected malformed cause, got %v", err)
	}
	if m.IsAuthenticated() {
		t.Fatal("must stay anonymous")
	}
	assertStoreEmpty(t, st)
}

func TestLoginExpiredTokenIsSessionError(t *testing.T) {
	st := store.NewMemory()
	m := newManager(t, st, &fakeAuth{token: mint(t, "e@x.com", "EMPLOYEE", fixedNow.Add(-time.Second))})
	m.Initialize(context.Background())

	if err := m.Login(context.Background(), domain.Credentials{SubjectID: "e@x.com", Secret: "x"}); !errors.Is(err, ErrSession) {
		t.Fatalf("expected ErrSession, got %v", err)
	}
	assertStoreEmpty(t, st)
}

func TestLoginSucceedsWhenPersistenceFails(t *testing.T) {
	m := newManager(t, brokenStore{}, &fakeAuth{token: mint(t, "admin@example.com", "ADMIN", fixedNow.Add(time.Hour))})
	m.Initialize(context.Background())

	if err := m.Login(context.Background(), domain.Credentials{SubjectID: "admin@example.com", Secret: "x"}); err != nil {
		t.Fatalf("login should survive storage failure: %v", err)
	}
	if !m.IsPrivileged() {
		t.Fatal("expected in-memory admin identity")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	st := store.NewMemory()
	seed(t, st, mint(t, "admin@example.com", "ADMIN", fixedNow.Add(time.Hour)))
	m := newManager(t, st, nil)
	m.Initialize(context.Background())

	var got []events.Event
	m.Subscribe(func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})

	m.Logout(context.Background())

	if m.State() != domain.StateAnonymous || m.IsAuthenticated() || m.IsPrivileged() {
		t.Fatalf("expected anonymous after logout, got %s", m.State())
	}
	if _, ok := m.CurrentIdentity(); ok {
		t.Fatal("identity must be discarded")
	}
	assertStoreEmpty(t, st)
	if len(got) != 1 || got[0].Type != events.EventLoggedOut || got[0].Identity != nil {
		t.Fatalf("expected one logged-out event, got %+v", got)
	}

	m.Logout(context.Background())
	if len(got) != 1 {
		t.Fatalf("logout while anonymous must not publish, got %d events", len(got))
	}
}

func TestLogoutIgnoresStorageFailure(t *testing.T) {
	m := newManager(t, brokenStore{}, &fakeAuth{token: mint(t, "a@x.com", "ADMIN", fixedNow.Add(time.Hour))})
	m.Initialize(context.Background())
	if err := m.Login(context.Background(), domain.Credentials{SubjectID: "a@x.com", Secret: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	m.Logout(context.Background())
	if m.IsAuthenticated() {
		t.Fatal("logout must always succeed")
	}
}

func TestLogoutBeforeInitializeDoesNothing(t *testing.T) {
	st := store.NewMemory()
	raw := mint(t, "admin@example.com", "ADMIN", fixedNow.Add(time.Hour))
	seed(t, st, raw)
	m := newManager(t, st, nil)

	m.Logout(context.Background())
	if m.State() != domain.StateUninitialized {
		t.Fatalf("unexpected state %s", m.State())
	}
	m.Initialize(context.Background())
	if !m.IsAuthenticated() {
		t.Fatal("early logout must not have erased the stored session")
	}
}

func TestLoginLogoutCycleIsIdempotent(t *testing.T) {
	st := store.NewMemory()
	auth := &fakeAuth{token: mint(t, "admin@example.com", "ADMIN", fixedNow.Add(time.Hour))}
	m := newManager(t, st, auth)
	m.Initialize(context.Background())

	for i := 0; i < 5; i++ {
		if err := m.Login(context.Background(), domain.Credentials{SubjectID: "admin@example.com", Secret: "x"}); err != nil {
			t.Fatalf("cycle %d login: %v", i, err)
		}
		m.Logout(context.Background())

		if _, ok := m.CurrentIdentity(); ok {
			t.Fatalf("cycle %d: identity should be none", i)
		}
		assertStoreEmpty(t, st)
	}
	if auth.calls != 5 {
		t.Fatalf("expected 5 endpoint calls, got %d", auth.calls)
	}
}

func TestRestoredIdentityMirrorsTokenClaims(t *testing.T) {
	cases := []struct {
		subject string
		role    string
	}{
		{"admin@example.com", "ADMIN"},
		{"employee@example.com", "EMPLOYEE"},
		{"someone+tag@example.org", "EMPLOYEE"},
	}
	for _, tc := range cases {
		st := store.NewMemory()
		raw := mint(t, tc.subject, tc.role, fixedNow.Add(time.Hour))
		seed(t, st, raw)

		claims, err := token.NewCodec().Decode(raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}

		m := newManager(t, st, nil)
		m.Initialize(context.Background())
		id, ok := m.CurrentIdentity()
		if !ok {
			t.Fatalf("%s: expected identity", tc.subject)
		}
		if id.SubjectID != claims.Subject || id.Role != claims.Role {
			t.Fatalf("identity %+v does not match claims %+v", id, claims)
		}
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	m := newManager(t, store.NewMemory(), nil)
	calls := 0
	unsubscribe := m.Subscribe(func(context.Context, events.Event) error {
		calls++
		return nil
	})
	unsubscribe()

	m.Initialize(context.Background())
	if calls != 0 {
		t.Fatalf("expected no calls after unsubscribe, got %d", calls)
	}
}

func TestConcurrentReadersNeverSeeHalfUpdatedSession(t *testing.T) {
	st := store.NewMemory()
	m := newManager(t, st, &fakeAuth{token: mint(t, "admin@example.com", "ADMIN", fixedNow.Add(time.Hour))})
	m.Initialize(context.Background())

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				id, ok := m.CurrentIdentity()
				if ok && id.SubjectID == "" {
					t.Error("observed identity without subject")
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		if err := m.Login(context.Background(), domain.Credentials{SubjectID: "admin@example.com", Secret: "x"}); err != nil {
			t.Fatalf("login: %v", err)
		}
		m.Logout(context.Background())
	}
	close(done)
	wg.Wait()
}

// gatedStore blocks Read until released so tests can act while the session is
// still restoring.
type gatedStore struct {
	*store.Memory
	reading chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{Memory: store.NewMemory(), reading: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) Read(ctx context.Context) (string, bool, error) {
	raw, ok, err := g.Memory.Read(ctx)
	close(g.reading)
	<-g.release
	return raw, ok, err
}

func TestLoginRefusedWhileRestoring(t *testing.T) {
	st := newGatedStore()
	raw := mint(t, "e@x.com", "EMPLOYEE", fixedNow.Add(time.Hour))
	auth := &fakeAuth{token: raw}
	m := newManager(t, st, auth)

	if err := m.Login(context.Background(), domain.Credentials{SubjectID: "e@x.com", Secret: "x"}); !errors.Is(err, ErrNotSettled) {
		t.Fatalf("login before initialize: expected ErrNotSettled, got %v", err)
	}

	restored := make(chan struct{})
	go func() {
		m.Initialize(context.Background())
		close(restored)
	}()
	<-st.reading

	if m.State() != domain.StateRestoring {
		t.Fatalf("expected RESTORING, got %s", m.State())
	}
	if err := m.Login(context.Background(), domain.Credentials{SubjectID: "e@x.com", Secret: "x"}); !errors.Is(err, ErrNotSettled) {
		t.Fatalf("login while restoring: expected ErrNotSettled, got %v", err)
	}
	if auth.calls != 0 {
		t.Fatalf("auth endpoint must not be called before the session settles, got %d calls", auth.calls)
	}

	close(st.release)
	<-restored
	if m.State() != domain.StateAnonymous {
		t.Fatalf("expected ANONYMOUS after restore, got %s", m.State())
	}

	if err := m.Login(context.Background(), domain.Credentials{SubjectID: "e@x.com", Secret: "x"}); err != nil {
		t.Fatalf("login after restore: %v", err)
	}
	m.Initialize(context.Background())
	if id, ok := m.CurrentIdentity(); !ok || id.SubjectID != "e@x.com" {
		t.Fatalf("login must survive a repeated Initialize, got %+v ok=%v", id, ok)
	}
	if stored, ok, _ := st.Memory.Read(context.Background()); !ok || stored != raw {
		t.Fatal("stored token must survive a repeated Initialize")
	}
}

// countingStore records Clear calls.
type countingStore struct {
	*store.Memory
	clears int
}

func (c *countingStore) Clear(ctx context.Context) error {
	c.clears++
	return c.Memory.Clear(ctx)
}

func TestLogoutWhileAnonymousIsNoOp(t *testing.T) {
	st := &countingStore{Memory: store.NewMemory()}
	m := newManager(t, st, nil)
	m.Initialize(context.Background())
	before := st.clears

	published := 0
	m.Subscribe(func(context.Context, events.Event) error {
		published++
		return nil
	})

	m.Logout(context.Background())
	if st.clears != before {
		t.Fatalf("logout while anonymous must not touch the store, got %d extra clears", st.clears-before)
	}
	if published != 0 || m.State() != domain.StateAnonymous {
		t.Fatalf("logout while anonymous: published=%d state=%s", published, m.State())
	}
}
