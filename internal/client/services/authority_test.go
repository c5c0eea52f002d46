package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/salonmate/internal/client/client"
	"github.com/dmitrijs2005/salonmate/internal/client/models"
	"github.com/dmitrijs2005/salonmate/internal/client/repositories/kv"
	"github.com/dmitrijs2005/salonmate/internal/client/session"
	"github.com/stretchr/testify/require"
)

// fakeAuthority is an in-process stand-in for the SalonMate API.
type fakeAuthority struct {
	srv *httptest.Server

	mu      sync.Mutex
	access  string
	refresh string
	user    models.User

	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
	meCalls      atomic.Int32
	rejected     atomic.Int32

	// refreshGate, when set, holds /auth/refresh until closed.
	refreshGate chan struct{}
	failRefresh bool
	failLogout  bool
	rotate      bool
}

func newFakeAuthority(t *testing.T) *fakeAuthority {
	t.Helper()
	fa := &fakeAuthority{
		user: models.User{ID: "u1", Email: "a@b.com", Name: "Mina"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", fa.login)
	mux.HandleFunc("POST /api/v1/auth/signup", fa.signup)
	mux.HandleFunc("POST /api/v1/auth/refresh", fa.refreshToken)
	mux.HandleFunc("POST /api/v1/auth/logout", fa.authed(fa.logout))
	mux.HandleFunc("GET /api/v1/auth/me", fa.authed(fa.me))
	mux.HandleFunc("GET /api/v1/auth/oauth/providers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.OAuthProviders{Providers: []string{"google", "kakao", "naver"}})
	})
	mux.HandleFunc("GET /api/v1/auth/oauth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("provider") != "google" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Unsupported provider"})
			return
		}
		writeJSON(w, http.StatusOK, models.OAuthURL{AuthURL: "https://accounts.google.com/o/oauth2/auth?state=xyz"})
	})
	mux.HandleFunc("POST /api/v1/auth/oauth/{provider}/callback", fa.oauthCallback)
	mux.HandleFunc("GET /api/v1/reviews", fa.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"items": {"r1", "r2"}})
	}))

	fa.srv = httptest.NewServer(mux)
	t.Cleanup(fa.srv.Close)
	return fa
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (fa *fakeAuthority) issue(access, refresh string) {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	fa.access, fa.refresh = access, refresh
}

// set mutates behaviour flags under the lock the handlers read them with.
func (fa *fakeAuthority) set(fn func(fa *fakeAuthority)) {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	fn(fa)
}

// expire invalidates the current access token server-side.
func (fa *fakeAuthority) expire() {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	fa.access = "revoked"
}

func (fa *fakeAuthority) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fa.mu.Lock()
		want := "Bearer " + fa.access
		fa.mu.Unlock()
		if r.Header.Get("Authorization") != want {
			fa.rejected.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token expired", "code": "TOKEN_EXPIRED"})
			return
		}
		next(w, r)
	}
}

func (fa *fakeAuthority) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Email != "a@b.com" || req.Password != "x" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password", "code": "INVALID_CREDENTIALS"})
		return
	}
	fa.issue("tok1", "ref1")
	writeJSON(w, http.StatusOK, models.AuthResult{User: fa.user, AccessToken: "tok1", RefreshToken: "ref1", ExpiresIn: 3600})
}

func (fa *fakeAuthority) signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Email == "taken@salon.kr" {
		writeJSON(w, http.StatusConflict, map[string]any{"error": map[string]string{"code": "EMAIL_EXISTS", "message": "Email already registered"}})
		return
	}
	u := models.User{ID: "u2", Email: req.Email, Name: req.Name}
	fa.mu.Lock()
	fa.user = u
	fa.mu.Unlock()
	fa.issue("tok-s", "ref-s")
	writeJSON(w, http.StatusCreated, models.AuthResult{User: u, AccessToken: "tok-s", RefreshToken: "ref-s", ExpiresIn: 3600})
}

func (fa *fakeAuthority) refreshToken(w http.ResponseWriter, r *http.Request) {
	fa.refreshCalls.Add(1)
	fa.mu.Lock()
	gate := fa.refreshGate
	fa.mu.Unlock()
	if gate != nil {
		<-gate
	}

	var req models.RefreshTokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.failRefresh || req.RefreshToken != fa.refresh {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid refresh token"})
		return
	}
	res := models.TokenRefresh{AccessToken: "tok2", ExpiresIn: 3600}
	fa.access = "tok2"
	if fa.rotate {
		res.RefreshToken = "ref2"
		fa.refresh = "ref2"
	}
	writeJSON(w, http.StatusOK, res)
}

func (fa *fakeAuthority) logout(w http.ResponseWriter, r *http.Request) {
	fa.logoutCalls.Add(1)
	fa.mu.Lock()
	fail := fa.failLogout
	fa.mu.Unlock()
	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
		return
	}
	writeJSON(w, http.StatusOK, models.Message{Message: "Logged out"})
}

func (fa *fakeAuthority) me(w http.ResponseWriter, r *http.Request) {
	fa.meCalls.Add(1)
	fa.mu.Lock()
	u := fa.user
	fa.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (fa *fakeAuthority) oauthCallback(w http.ResponseWriter, r *http.Request) {
	var req models.OAuthCallbackRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if r.PathValue("provider") != "google" || req.Code != "abc" || req.State != "xyz" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid OAuth state"})
		return
	}
	fa.issue("tok2", "ref2")
	writeJSON(w, http.StatusOK, models.AuthResult{User: fa.user, AccessToken: "tok2", RefreshToken: "ref2", ExpiresIn: 3600})
}

type harness struct {
	authority *fakeAuthority
	store     *session.Store
	api       *client.Pipeline
	gateway   AuthGateway
	sessions  SessionService
}

// newHarness wires the real store, pipeline and gateway against fakeAuthority.
func newHarness(t *testing.T) *harness {
	t.Helper()
	fa := newFakeAuthority(t)
	store := session.Open(context.Background(), kv.NewMemoryRepository())

	api, err := client.New(strings.TrimSuffix(fa.srv.URL, "/")+"/api/v1", store, client.WithHTTPClient(fa.srv.Client()))
	require.NoError(t, err)

	gw := NewAuthGateway(api)
	api.SetRefresher(gw)

	return &harness{
		authority: fa,
		store:     store,
		api:       api,
		gateway:   gw,
		sessions:  NewSessionService(gw, store, nil),
	}
}
