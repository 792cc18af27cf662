package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/apiclient"
	"github.com/HARIOM-JHA01/addmy-partner/auth"
	"github.com/HARIOM-JHA01/addmy-partner/config"
	"github.com/HARIOM-JHA01/addmy-partner/middleware"
	"github.com/HARIOM-JHA01/addmy-partner/session"
	"github.com/HARIOM-JHA01/addmy-partner/views"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const goodToken = "good-token"

type backendCall struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// fakeBackend answers "METHOD /path" routes and records every call.
type fakeBackend struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  []backendCall
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, backendCall{
		Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone(), Body: string(body),
	})
	h, ok := b.routes[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "no route"})
		return
	}
	h(w, r)
}

func (b *fakeBackend) on(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
}

func (b *fakeBackend) callsTo(path string) []backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []backendCall
	for _, c := range b.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func okJSON(data any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
	}
}

func failJSON(status int, body map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body["success"] = false
		writeJSON(w, status, body)
	}
}

type harness struct {
	t       *testing.T
	cfg     *config.Config
	backend *fakeBackend
	store   *session.MemoryStore
	router  *gin.Engine
	cookie  *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t: t,
		cfg: &config.Config{
			SessionSecret:        "test-secret",
			SessionCookie:        "partner_session",
			SessionInitWait:      2 * time.Second,
			PageSize:             10,
			TelegramDevMode:      true,
			DevTelegramID:        42,
			TelegramBotToken:     "123:ABC",
			InitDataMaxAge:       time.Hour,
			DepositWalletAddress: "TXYZwallet&123",
			DepositNetwork:       "USDT (TRC-20)",
		},
		backend: &fakeBackend{routes: map[string]http.HandlerFunc{}},
		store:   session.NewMemoryStore(),
	}

	h.backend.on(http.MethodGet, "/partner/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+goodToken {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"id": "p1", "name": "Alice Partner", "username": "alice", "tgid": "42",
			"userCredits": 5, "availableUserCredits": 5,
		}})
	})

	server := httptest.NewServer(h.backend)
	t.Cleanup(server.Close)

	client, err := apiclient.New(apiclient.Config{BaseURL: server.URL}, nil)
	require.NoError(t, err)
	mgr := session.NewManager(session.Deps{Tokens: h.store, Client: client})

	tmpl, err := views.Load()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	p := NewPortal(h.cfg, nil)
	limiter := middleware.NewRateLimiter(100, time.Minute, nil)
	p.Register(r,
		middleware.Sessions(mgr, middleware.CookieConfig{Name: h.cfg.SessionCookie, Secret: h.cfg.SessionSecret, MaxAge: time.Hour}, zap.NewNop()),
		middleware.RequireAuth(h.cfg.SessionInitWait),
		limiter.Middleware(p.LoginThrottled),
	)
	h.router = r
	return h
}

// signIn gives the harness a session whose persisted token the backend accepts.
func (h *harness) signIn(sid string) {
	h.t.Helper()
	value, err := auth.SignSessionID(h.cfg.SessionSecret, sid, time.Hour)
	require.NoError(h.t, err)
	h.cookie = &http.Cookie{Name: h.cfg.SessionCookie, Value: value}
	require.NoError(h.t, h.store.Set(context.Background(), session.Key(sid), goodToken))
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	return h.do(http.MethodGet, path, nil)
}

func (h *harness) post(path string, form url.Values) *httptest.ResponseRecorder {
	return h.do(http.MethodPost, path, form)
}

func (h *harness) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == h.cfg.SessionCookie {
			h.cookie = &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	return w
}

func (h *harness) token(sid string) string {
	tok, err := h.store.Get(context.Background(), session.Key(sid))
	require.NoError(h.t, err)
	return tok
}
