package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/apiclient"
	"github.com/HARIOM-JHA01/addmy-partner/geo"
	"github.com/HARIOM-JHA01/addmy-partner/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeo struct {
	loc geo.Location
	err error
}

func (f fakeGeo) Locate(context.Context, string) (geo.Location, error) { return f.loc, f.err }

type backend struct {
	profileStatus int
	profileGate   chan struct{}
	loginBody     map[string]any
	loginStatus   int
	lastLogin     apiclient.LoginRequest
	profileCalls  atomic.Int32
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/partner/profile":
		b.profileCalls.Add(1)
		if b.profileGate != nil {
			<-b.profileGate
		}
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Invalid token"})
			return
		}
		if b.profileStatus != 0 {
			w.WriteHeader(b.profileStatus)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "p1", "name": "Alice"},
		})
	case "/partner/telegram-login":
		json.NewDecoder(r.Body).Decode(&b.lastLogin)
		if b.loginStatus != 0 {
			w.WriteHeader(b.loginStatus)
		}
		json.NewEncoder(w).Encode(b.loginBody)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestManager(t *testing.T, b *backend, g geo.Locator) (*Manager, TokenStore) {
	t.Helper()
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)

	client, err := apiclient.New(apiclient.Config{BaseURL: server.URL}, nil)
	require.NoError(t, err)

	store := NewMemoryStore()
	return NewManager(Deps{Tokens: store, Client: client, Geo: g, InitTimeout: 5 * time.Second}), store
}

func TestNewSessionIsUninitialized(t *testing.T) {
	m, _ := newTestManager(t, &backend{}, nil)
	snap := m.New().Snapshot()
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.Partner)
	assert.False(t, snap.Authenticated())
}

func TestStartupWithoutToken(t *testing.T) {
	b := &backend{}
	m, _ := newTestManager(t, b, nil)

	snap := m.New().Await(context.Background(), time.Second)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Partner)
	assert.Zero(t, b.profileCalls.Load())
}

func TestStartupWithValidToken(t *testing.T) {
	m, store := newTestManager(t, &backend{}, nil)
	s := m.New()
	require.NoError(t, store.Set(context.Background(), Key(s.ID()), "good-token"))

	snap := s.Await(context.Background(), time.Second)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Partner)
	assert.Equal(t, "Alice", snap.Partner.Name)
}

func TestStartupWithRejectedToken(t *testing.T) {
	m, store := newTestManager(t, &backend{}, nil)
	s := m.New()
	require.NoError(t, store.Set(context.Background(), Key(s.ID()), "stale-token"))

	snap := s.Await(context.Background(), time.Second)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Partner)

	tok, err := store.Get(context.Background(), Key(s.ID()))
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestStartupBackendFailureDiscardsToken(t *testing.T) {
	m, store := newTestManager(t, &backend{profileStatus: http.StatusInternalServerError}, nil)
	s := m.New()
	require.NoError(t, store.Set(context.Background(), Key(s.ID()), "good-token"))

	snap := s.Await(context.Background(), time.Second)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Partner)
	tok, _ := store.Get(context.Background(), Key(s.ID()))
	assert.Empty(t, tok)
}

func TestAwaitTimesOutWhileLoading(t *testing.T) {
	gate := make(chan struct{})
	m, store := newTestManager(t, &backend{profileGate: gate}, nil)
	defer close(gate)

	s := m.New()
	require.NoError(t, store.Set(context.Background(), Key(s.ID()), "good-token"))

	snap := s.Await(context.Background(), 20*time.Millisecond)
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.Partner)
}

func TestLoginPersistsToken(t *testing.T) {
	b := &backend{loginBody: map[string]any{
		"success": true,
		"message": "Login successful",
		"data": map[string]any{
			"token":   "good-token",
			"partner": map[string]any{"id": "p1", "name": "Alice", "userCredits": 10},
		},
	}}
	m, store := newTestManager(t, b, fakeGeo{loc: geo.Location{Country: "Singapore", CountryCode: "SG"}})
	s := m.New()
	s.Await(context.Background(), time.Second)

	resp, err := s.Login(context.Background(), Claim{ExternalID: "77", DisplayName: "Alice Lee", Handle: "alice"})
	require.NoError(t, err)
	assert.Contains(t, string(resp.Raw), "Login successful")

	tok, err := store.Get(context.Background(), Key(s.ID()))
	require.NoError(t, err)
	assert.Equal(t, "good-token", tok)

	snap := s.Snapshot()
	require.NotNil(t, snap.Partner)
	assert.Equal(t, "p1", snap.Partner.ID)
	assert.True(t, snap.Authenticated())

	assert.Equal(t, apiclient.LoginRequest{
		TGID: "77", Name: "Alice Lee", Username: "alice", TelegramUsername: "alice",
		Country: "Singapore", CountryCode: "SG",
	}, b.lastLogin)
}

func TestLoginSurvivesGeoFailure(t *testing.T) {
	b := &backend{loginBody: map[string]any{
		"success": true,
		"data":    map[string]any{"token": "good-token", "partner": map[string]any{"id": "p1"}},
	}}
	m, _ := newTestManager(t, b, fakeGeo{err: errors.New("timeout")})
	s := m.New()

	_, err := s.Login(context.Background(), Claim{ExternalID: "1", Handle: "tg_1"})
	require.NoError(t, err)
	assert.Empty(t, b.lastLogin.Country)
	assert.Empty(t, b.lastLogin.CountryCode)
}

func TestLoginRejected(t *testing.T) {
	b := &backend{
		loginStatus: http.StatusForbidden,
		loginBody:   map[string]any{"success": false, "message": "Partner account is suspended"},
	}
	m, store := newTestManager(t, b, nil)
	s := m.New()
	s.Await(context.Background(), time.Second)

	_, err := s.Login(context.Background(), Claim{ExternalID: "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoginFailed))
	assert.Equal(t, "Partner account is suspended", apiclient.MessageOf(err, "Login failed"))

	tok, _ := store.Get(context.Background(), Key(s.ID()))
	assert.Empty(t, tok)
	assert.Nil(t, s.Snapshot().Partner)
}

func TestLoginWithoutToken(t *testing.T) {
	b := &backend{loginBody: map[string]any{"success": true, "data": map[string]any{"partner": map[string]any{"id": "p1"}}}}
	m, _ := newTestManager(t, b, nil)

	_, err := m.New().Login(context.Background(), Claim{ExternalID: "1"})
	assert.True(t, errors.Is(err, ErrLoginFailed))
}

func TestLogoutFromAnyState(t *testing.T) {
	m, store := newTestManager(t, &backend{}, nil)
	ctx := context.Background()

	uninitialized := m.New()
	authenticated := m.New()
	require.NoError(t, store.Set(ctx, Key(authenticated.ID()), "good-token"))
	require.NotNil(t, authenticated.Await(ctx, time.Second).Partner)

	for _, s := range []*Session{uninitialized, authenticated} {
		s.Logout(ctx)
		snap := s.Snapshot()
		assert.Nil(t, snap.Partner)
		assert.False(t, snap.Loading)
		tok, _ := store.Get(ctx, Key(s.ID()))
		assert.Empty(t, tok)
	}
}

func TestLogoutWinsOverLateStartup(t *testing.T) {
	gate := make(chan struct{})
	m, store := newTestManager(t, &backend{profileGate: gate}, nil)
	ctx := context.Background()

	s := m.New()
	require.NoError(t, store.Set(ctx, Key(s.ID()), "good-token"))
	s.Start()
	s.Logout(ctx)
	close(gate)

	assert.Never(t, func() bool { return s.Snapshot().Partner != nil }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestUnauthorizedExpiresSession(t *testing.T) {
	m, store := newTestManager(t, &backend{}, nil)
	ctx := context.Background()

	s := m.New()
	require.NoError(t, store.Set(ctx, Key(s.ID()), "good-token"))
	require.NotNil(t, s.Await(ctx, time.Second).Partner)

	// token rotated server-side
	require.NoError(t, store.Set(ctx, Key(s.ID()), "revoked-token"))
	_, err := s.API().Profile(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apiclient.ErrUnauthorized))

	assert.Nil(t, s.Snapshot().Partner)
	tok, _ := store.Get(ctx, Key(s.ID()))
	assert.Empty(t, tok)
}

func TestUpdatePartner(t *testing.T) {
	m, _ := newTestManager(t, &backend{}, nil)
	s := m.New()
	s.Await(context.Background(), time.Second)

	s.UpdatePartner(models.Partner{ID: "p2", Name: "Bob"})
	snap := s.Snapshot()
	require.NotNil(t, snap.Partner)
	assert.Equal(t, "Bob", snap.Partner.Name)

	// snapshots are copies
	snap.Partner.Name = "changed"
	assert.Equal(t, "Bob", s.Snapshot().Partner.Name)
}

func TestFlashes(t *testing.T) {
	m, _ := newTestManager(t, &backend{}, nil)
	s := m.New()
	s.AddFlash("success", "Saved")
	s.AddFlash("error", "Oops")

	assert.Equal(t, []Flash{{"success", "Saved"}, {"error", "Oops"}}, s.PopFlashes())
	assert.Empty(t, s.PopFlashes())
}

// gatedStore blocks Set until release is closed.
type gatedStore struct {
	*MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Set(ctx context.Context, key, token string) error {
	close(g.entered)
	<-g.release
	return g.MemoryStore.Set(ctx, key, token)
}

func TestSnapshotNotBlockedBySlowTokenStore(t *testing.T) {
	b := &backend{loginBody: map[string]any{
		"success": true,
		"data": map[string]any{
			"token":   "good-token",
			"partner": map[string]any{"id": "p1", "name": "Alice"},
		},
	}}
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)
	client, err := apiclient.New(apiclient.Config{BaseURL: server.URL}, nil)
	require.NoError(t, err)

	store := &gatedStore{MemoryStore: NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(Deps{Tokens: store, Client: client, InitTimeout: 5 * time.Second})
	s := m.New()
	s.Await(context.Background(), time.Second)

	loggedIn := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), Claim{ExternalID: "77"})
		loggedIn <- err
	}()
	<-store.entered

	snapped := make(chan Snapshot, 1)
	go func() { snapped <- s.Snapshot() }()
	select {
	case snap := <-snapped:
		assert.False(t, snap.Authenticated())
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked while the token was being persisted")
	}

	close(store.release)
	require.NoError(t, <-loggedIn)
	assert.True(t, s.Snapshot().Authenticated())
}
