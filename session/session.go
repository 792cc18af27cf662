// Package session is the single source of truth for which partner is signed
// in to a browser session.
//
// A Session starts Uninitialized (loading, no partner). Start validates any
// persisted token once in the background and settles into Anonymous or
// Authenticated. Login and Logout move between the settled states at any time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/apiclient"
	"github.com/HARIOM-JHA01/addmy-partner/geo"
	"github.com/HARIOM-JHA01/addmy-partner/models"
	"go.uber.org/zap"
)

var ErrLoginFailed = errors.New("session: login failed")

// Claim is the identity a caller presents to Login.
type Claim struct {
	ExternalID  string
	DisplayName string
	Handle      string
	Email       string
	ClientIP    string
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Partner *models.Partner
	Loading bool
}

func (s Snapshot) Authenticated() bool { return !s.Loading && s.Partner != nil }

type Flash struct {
	Kind    string // info, success, error
	Message string
}

// Deps are shared by every session of a Manager.
type Deps struct {
	Tokens      TokenStore
	Client      *apiclient.Client
	Geo         geo.Locator
	Log         *zap.Logger
	InitTimeout time.Duration
}

type Session struct {
	id   string
	deps *Deps
	log  *zap.Logger

	// storeMu orders token writes; gen only changes while it is held.
	// mu guards the state below and is never held across store calls.
	storeMu sync.Mutex

	mu       sync.Mutex
	partner  *models.Partner
	loading  bool
	started  bool
	gen      uint64 // bumped by Login/Logout so a late startup result is dropped
	ready    chan struct{}
	flashes  []Flash
	lastSeen time.Time
}

func newSession(id string, deps *Deps, now time.Time) *Session {
	return &Session{
		id:       id,
		deps:     deps,
		log:      deps.Log.With(zap.String("session", shortID(id))),
		loading:  true,
		ready:    make(chan struct{}),
		lastSeen: now,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) key() string { return Key(s.id) }

// Token implements apiclient.TokenSource.
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.deps.Tokens.Get(ctx, s.key())
}

// API returns the backend adapter bound to this session's token. A 401 from
// the backend expires the session.
func (s *Session) API() *apiclient.API {
	return s.deps.Client.Bind(s, s.Expire)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{Loading: s.loading}
	if s.partner != nil {
		p := *s.partner
		snap.Partner = &p
	}
	return snap
}

// Start runs the startup validation once. It is detached from the caller's
// context so an aborted request does not leave the session half-initialized.
func (s *Session) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	gen := s.gen
	s.mu.Unlock()

	go s.initialize(gen)
}

// Await starts the session if needed and waits up to wait for it to settle.
func (s *Session) Await(ctx context.Context, wait time.Duration) Snapshot {
	s.Start()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-s.ready:
	case <-timer.C:
	case <-ctx.Done():
	}
	return s.Snapshot()
}

func (s *Session) initialize(gen uint64) {
	timeout := s.deps.InitTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	token, err := s.Token(ctx)
	if err != nil {
		s.log.Error("read persisted token", zap.Error(err))
		s.settle(gen, nil)
		return
	}
	if token == "" {
		s.settle(gen, nil)
		return
	}

	partner, err := s.deps.Client.Bind(s, nil).Profile(ctx)
	if err != nil {
		// A rejected token is discarded silently.
		s.log.Info("persisted token rejected", zap.Error(err))
		s.storeMu.Lock()
		if s.generation() == gen {
			if err := s.deps.Tokens.Delete(ctx, s.key()); err != nil {
				s.log.Error("discard token", zap.Error(err))
			}
		}
		s.storeMu.Unlock()
		s.settle(gen, nil)
		return
	}
	s.settle(gen, partner)
}

func (s *Session) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Session) settle(gen uint64, partner *models.Partner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.partner = partner
	}
	s.loading = false
	s.closeReadyLocked()
}

func (s *Session) closeReadyLocked() {
	select {
	case <-s.ready:
	default:
		close(s.ready)
	}
}

// Login runs the combined login/registration request and returns the raw
// backend response; telling a new registration from a returning partner is
// left to the caller.
func (s *Session) Login(ctx context.Context, c Claim) (*apiclient.LoginResponse, error) {
	var loc geo.Location
	if s.deps.Geo != nil {
		l, err := s.deps.Geo.Locate(ctx, c.ClientIP)
		if err != nil {
			s.log.Debug("geo lookup failed", zap.Error(err))
		} else {
			loc = l
		}
	}

	resp, err := s.API().TelegramLogin(ctx, apiclient.LoginRequest{
		TGID:             c.ExternalID,
		Name:             c.DisplayName,
		Username:         c.Handle,
		Email:            c.Email,
		TelegramUsername: c.Handle,
		Country:          loc.Country,
		CountryCode:      loc.CountryCode,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: backend returned no token", ErrLoginFailed)
	}

	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	if err := s.deps.Tokens.Set(ctx, s.key(), resp.Token); err != nil {
		return nil, fmt.Errorf("%w: persist token: %w", ErrLoginFailed, err)
	}
	p := resp.Partner
	s.mu.Lock()
	s.partner = &p
	s.loading = false
	s.started = true
	s.gen++
	s.closeReadyLocked()
	s.mu.Unlock()

	s.log.Info("partner logged in", zap.String("partner", p.ID))
	return resp, nil
}

// Logout discards the persisted token and clears the partner from any state.
func (s *Session) Logout(ctx context.Context) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	s.mu.Lock()
	s.gen++
	s.partner = nil
	s.loading = false
	s.started = true
	s.closeReadyLocked()
	s.mu.Unlock()

	if err := s.deps.Tokens.Delete(ctx, s.key()); err != nil {
		s.log.Error("delete token on logout", zap.Error(err))
	}
}

// Expire is called when the backend rejects the token mid-session.
func (s *Session) Expire(ctx context.Context) {
	s.log.Warn("backend rejected session token, signing out")
	s.Logout(ctx)
}

// UpdatePartner replaces the cached partner snapshot.
func (s *Session) UpdatePartner(p models.Partner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partner = &p
}

func (s *Session) AddFlash(kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes = append(s.flashes, Flash{Kind: kind, Message: message})
}

// PopFlashes returns and clears pending flash messages.
func (s *Session) PopFlashes() []Flash {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.flashes
	s.flashes = nil
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
