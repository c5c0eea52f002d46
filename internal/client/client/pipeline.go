package client

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
	"sync"
	"time"

	"github.com/dmitrijs2005/salonmate/internal/client/models"
	"github.com/dmitrijs2005/salonmate/internal/common"
	"github.com/dmitrijs2005/salonmate/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const maxErrorBodySize = 1 << 20

// SessionStore is the part of session.Store the pipeline depends on.
type SessionStore interface {
	Session() models.Session
	UpdateAccessToken(ctx context.Context, usedRefreshToken, accessToken, refreshToken string) error
	ClearIfCurrent(ctx context.Context, refreshToken string) error
}

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*models.TokenRefresh, error)
}

type Pipeline struct {
	baseURL *url.URL
	http    *http.Client
	store   SessionStore
	logger  logging.Logger
	now     func() time.Time

	mu        sync.RWMutex
	refresher Refresher

	flight singleflight.Group
}

type Option func(*Pipeline)

func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.http = c }
}

func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.http = &http.Client{Timeout: d} }
}

func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithRefresher(r Refresher) Option {
	return func(p *Pipeline) { p.refresher = r }
}

// New creates a Pipeline for the API rooted at baseURL.
func New(baseURL string, store SessionStore, opts ...Option) (*Pipeline, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	p := &Pipeline{
		baseURL: u,
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
		logger:  logging.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// SetRefresher registers the component that performs token refreshes. The
// auth gateway is built on top of the pipeline, so it is wired after New.
func (p *Pipeline) SetRefresher(r Refresher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refresher = r
}

func (p *Pipeline) getRefresher() Refresher {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refresher
}

// Do sends body (JSON-encoded when non-nil) and decodes the response into out
// (when non-nil). A 204 leaves out untouched.
func (p *Pipeline) Do(ctx context.Context, method, path string, body, out any) error {
	_, err := p.do(ctx, method, path, body, out)
	return err
}

func (p *Pipeline) Get(ctx context.Context, path string, out any) error {
	return p.Do(ctx, http.MethodGet, path, nil, out)
}

func (p *Pipeline) Post(ctx context.Context, path string, body, out any) error {
	return p.Do(ctx, http.MethodPost, path, body, out)
}

func (p *Pipeline) Put(ctx context.Context, path string, body, out any) error {
	return p.Do(ctx, http.MethodPut, path, body, out)
}

func (p *Pipeline) Patch(ctx context.Context, path string, body, out any) error {
	return p.Do(ctx, http.MethodPatch, path, body, out)
}

func (p *Pipeline) Delete(ctx context.Context, path string, out any) error {
	return p.Do(ctx, http.MethodDelete, path, nil, out)
}

// Request is the typed form of Do. It returns nil, nil for a 204 response.
func Request[T any](ctx context.Context, p *Pipeline, method, path string, body any) (*T, error) {
	out := new(T)
	present, err := p.do(ctx, method, path, body, out)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return out, nil
}

func (p *Pipeline) do(ctx context.Context, method, path string, body, out any) (bool, error) {
	target, err := p.resolve(path)
	if err != nil {
		return false, err
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return false, fmt.Errorf("encode request body: %w", err)
		}
	}

	refreshable := p.refreshable(target)
	sess := p.store.Session()
	token := sess.AccessToken
	if !p.sameOrigin(target) {
		token = ""
	}

	if refreshable && sess.IsAuthenticated && p.expired(token) {
		p.logger.Debug(ctx, "access token expired locally, refreshing before send")
		if token, err = p.refresh(ctx, token); err != nil {
			return false, err
		}
	}

	present, err := p.send(ctx, method, target, payload, token, refreshable, out)
	if !errors.Is(err, ErrCredentialExpired) {
		return present, err
	}

	fresh, rerr := p.recoverCredential(ctx, token, err)
	if rerr != nil {
		return false, rerr
	}
	return p.send(ctx, method, target, payload, fresh, refreshable, out)
}

// resolve passes absolute URLs through and joins relative paths to the base URL.
func (p *Pipeline) resolve(path string) (*url.URL, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		u, err := url.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("parse url %q: %w", path, err)
		}
		return u, nil
	}

	rel, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	u := *p.baseURL
	u.Path = p.baseURL.Path + "/" + strings.TrimLeft(rel.Path, "/")
	u.RawPath = ""
	u.RawQuery = rel.RawQuery
	return &u, nil
}

// sameOrigin reports whether target is served by the configured authority.
// Only such requests carry the access token.
func (p *Pipeline) sameOrigin(target *url.URL) bool {
	return target.Scheme == p.baseURL.Scheme && target.Host == p.baseURL.Host
}

// refreshable reports whether a 401 from target means an expired credential.
// Endpoints that create or refresh a session answer 401 for bad input instead.
func (p *Pipeline) refreshable(target *url.URL) bool {
	if !p.sameOrigin(target) {
		return false
	}
	rel := "/" + strings.Trim(strings.TrimPrefix(target.Path, p.baseURL.Path), "/")
	switch {
	case rel == "/auth/refresh", rel == "/auth/login", rel == "/auth/signup":
		return false
	case rel == "/auth/oauth", strings.HasPrefix(rel, "/auth/oauth/"):
		return false
	}
	return true
}

func (p *Pipeline) send(ctx context.Context, method string, target *url.URL, payload []byte, token string, refreshable bool, out any) (bool, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	start := p.now()
	resp, err := p.http.Do(req)
	if err != nil {
		p.logger.Warn(ctx, "request failed", "method", method, "url", target.Redacted(), "request_id", requestID, "error", err)
		return false, &TransportError{Method: method, URL: target.Redacted(), Err: err}
	}
	defer resp.Body.Close()

	p.logger.Debug(ctx, "request done",
		"method", method,
		"url", target.Redacted(),
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", p.now().Sub(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := parseStatusError(resp)
		se.credentialExpired = refreshable && resp.StatusCode == http.StatusUnauthorized
		return false, se
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("decode response of %s %s: %w", method, target.Redacted(), err)
	}
	return true, nil
}

// errorBody covers the error shapes the API produces:
// {"message","code"}, {"error":{"code","message"}}, {"error":"..."} and {"detail":"..."}.
type errorBody struct {
	Message string          `json:"message"`
	Code    any             `json:"code"`
	Error   json.RawMessage `json:"error"`
	Detail  any             `json:"detail"`
}

func parseStatusError(resp *http.Response) *StatusError {
	se := &StatusError{Status: resp.StatusCode}

	var eb errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBodySize)).Decode(&eb); err == nil {
		se.Message = eb.Message
		se.Code = codeString(eb.Code)

		if len(eb.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
				Code    any    `json:"code"`
			}
			var flat string
			switch {
			case json.Unmarshal(eb.Error, &nested) == nil:
				if se.Message == "" {
					se.Message = nested.Message
				}
				if se.Code == "" {
					se.Code = codeString(nested.Code)
				}
			case json.Unmarshal(eb.Error, &flat) == nil && se.Message == "":
				se.Message = flat
			}
		}
		if detail, ok := eb.Detail.(string); ok && se.Message == "" {
			se.Message = detail
		}
	}

	if se.Message == "" {
		se.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return se
}

func codeString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return fmt.Sprintf("%g", c)
	default:
		return fmt.Sprint(c)
	}
}
