// Package apiclient talks to the partner REST backend. Every response follows
// the {success, data, message} envelope.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/monitoring"
	"go.uber.org/zap"
)

// ErrUnauthorized is returned when the backend rejects the bearer token.
var ErrUnauthorized = errors.New("apiclient: unauthorized")

// Envelope is the uniform backend response body.
type Envelope struct {
	Success         bool            `json:"success"`
	Data            json.RawMessage `json:"data,omitempty"`
	Message         string          `json:"message,omitempty"`
	RequiresPayment bool            `json:"requiresPayment,omitempty"`

	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"-"`
}

// Decode unmarshals the data member into v.
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return errors.New("apiclient: response has no data")
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("apiclient: decode data: %w", err)
	}
	return nil
}

// APIError is a business failure reported by the backend (success:false or a
// non-2xx status).
type APIError struct {
	StatusCode      int
	Message         string
	RequiresPayment bool
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error (%d)", e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// MessageOf returns the backend message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// RequiresPayment reports whether err tells the caller to buy credits first.
func RequiresPayment(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.RequiresPayment
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client holds the transport shared by every session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("apiclient: invalid base URL: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		log:        log.Named("apiclient"),
	}, nil
}

// TokenSource yields the persisted bearer token, or "" when there is none.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// API is a Client bound to one session's token.
type API struct {
	client         *Client
	tokens         TokenSource
	onUnauthorized func(context.Context)
}

// Bind returns an API that attaches the token from src to every request and
// calls onUnauthorized when the backend answers 401.
func (c *Client) Bind(src TokenSource, onUnauthorized func(context.Context)) *API {
	return &API{client: c, tokens: src, onUnauthorized: onUnauthorized}
}

type request struct {
	method   string
	endpoint string // metrics label
	path     string
	query    url.Values
	body     any
	headers  map[string]string
}

// Get issues a GET against path and returns the decoded envelope.
func (a *API) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return a.do(ctx, request{method: http.MethodGet, endpoint: path, path: path, query: query})
}

// Post issues a POST with a JSON body and returns the decoded envelope.
func (a *API) Post(ctx context.Context, path string, body any, headers map[string]string) (*Envelope, error) {
	return a.do(ctx, request{method: http.MethodPost, endpoint: path, path: path, body: body, headers: headers})
}

func (a *API) do(ctx context.Context, r request) (*Envelope, error) {
	env, err := a.send(ctx, r)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrUnauthorized):
		outcome = "unauthorized"
		if a.onUnauthorized != nil {
			a.onUnauthorized(ctx)
		}
	case err != nil:
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			outcome = "rejected"
		} else {
			outcome = "transport_error"
		}
	}
	monitoring.BackendRequestsTotal.WithLabelValues(r.endpoint, outcome).Inc()
	return env, err
}

func (a *API) send(ctx context.Context, r request) (*Envelope, error) {
	target := a.client.baseURL + "/" + strings.TrimPrefix(r.path, "/")
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if a.tokens != nil {
		token, err := a.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("apiclient: read token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := a.client.httpClient.Do(req)
	if err != nil {
		a.client.log.Warn("backend request failed",
			zap.String("method", r.method), zap.String("path", r.path), zap.Error(err))
		return nil, fmt.Errorf("apiclient: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("apiclient: read response: %w", err)
	}

	var env Envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || decodeErr == nil && !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
			apiErr.RequiresPayment = env.RequiresPayment
		}
		a.client.log.Debug("backend rejected request",
			zap.String("method", r.method), zap.String("path", r.path),
			zap.Int("status", resp.StatusCode), zap.String("message", apiErr.Message))
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("apiclient: decode envelope: %w", decodeErr)
	}
	env.Raw = raw
	return &env, nil
}
