// Package services contains the application services of the SalonMate client:
// the auth gateway that talks to the remote authority and the session
// use-cases that combine it with the local session store.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/salonmate/internal/client/client"
	"github.com/dmitrijs2005/salonmate/internal/client/models"
)

// AuthGateway defines the remote authentication operations.
//
// Contract:
//   - every payload is validated first; rejections wrap ErrValidation and
//     never reach the network.
//   - no method mutates local state. Callers write results into the session store.
//   - transport and status failures are returned as classified by client.Pipeline.
//
// AuthGateway satisfies client.Refresher.
type AuthGateway interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenRefresh, error)
	Logout(ctx context.Context) error
	ListOAuthProviders(ctx context.Context) ([]string, error)
	GetOAuthURL(ctx context.Context, provider string) (string, error)
	ExchangeOAuthCode(ctx context.Context, provider, code, state string) (*models.AuthResult, error)
	Me(ctx context.Context) (*models.User, error)
}

type authGateway struct {
	api *client.Pipeline
}

var _ client.Refresher = (*authGateway)(nil)

// NewAuthGateway constructs an AuthGateway on top of the request pipeline.
func NewAuthGateway(api *client.Pipeline) AuthGateway {
	return &authGateway{api: api}
}

func (g *authGateway) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error) {
	if err := validateSignup(req); err != nil {
		return nil, err
	}
	return g.authResult(ctx, "/auth/signup", req)
}

func (g *authGateway) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	if err := validateLogin(req); err != nil {
		return nil, err
	}
	return g.authResult(ctx, "/auth/login", req)
}

// Refresh exchanges refreshToken for a new access token. The authority may
// also rotate the refresh token.
func (g *authGateway) Refresh(ctx context.Context, refreshToken string) (*models.TokenRefresh, error) {
	req := models.RefreshTokenRequest{RefreshToken: refreshToken}
	if err := checkStruct(req); err != nil {
		return nil, err
	}
	res, err := client.Request[models.TokenRefresh](ctx, g.api, http.MethodPost, "/auth/refresh", req)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if res == nil || res.AccessToken == "" {
		return nil, fmt.Errorf("refresh: empty response")
	}
	return res, nil
}

func (g *authGateway) Logout(ctx context.Context) error {
	var msg models.Message
	if err := g.api.Post(ctx, "/auth/logout", nil, &msg); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (g *authGateway) ListOAuthProviders(ctx context.Context) ([]string, error) {
	res, err := client.Request[models.OAuthProviders](ctx, g.api, http.MethodGet, "/auth/oauth/providers", nil)
	if err != nil {
		return nil, fmt.Errorf("list oauth providers: %w", err)
	}
	if res == nil {
		return nil, nil
	}
	return res.Providers, nil
}

func (g *authGateway) GetOAuthURL(ctx context.Context, provider string) (string, error) {
	if err := validateProvider(provider); err != nil {
		return "", err
	}
	res, err := client.Request[models.OAuthURL](ctx, g.api, http.MethodGet, "/auth/oauth/"+url.PathEscape(provider), nil)
	if err != nil {
		return "", fmt.Errorf("get oauth url: %w", err)
	}
	if res == nil || res.AuthURL == "" {
		return "", fmt.Errorf("get oauth url: empty authUrl")
	}
	return res.AuthURL, nil
}

func (g *authGateway) ExchangeOAuthCode(ctx context.Context, provider, code, state string) (*models.AuthResult, error) {
	if err := validateProvider(provider); err != nil {
		return nil, err
	}
	req := models.OAuthCallbackRequest{Code: code, State: state}
	if err := checkStruct(req); err != nil {
		return nil, err
	}
	return g.authResult(ctx, "/auth/oauth/"+url.PathEscape(provider)+"/callback", req)
}

// Me returns the user the current access token belongs to.
func (g *authGateway) Me(ctx context.Context) (*models.User, error) {
	u, err := client.Request[models.User](ctx, g.api, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	if u == nil || u.ID == "" {
		return nil, fmt.Errorf("me: empty response")
	}
	return u, nil
}

func (g *authGateway) authResult(ctx context.Context, path string, body any) (*models.AuthResult, error) {
	res, err := client.Request[models.AuthResult](ctx, g.api, http.MethodPost, path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if res == nil || res.User.ID == "" || res.AccessToken == "" || res.RefreshToken == "" {
		return nil, fmt.Errorf("%s: incomplete auth response", path)
	}
	return res, nil
}
