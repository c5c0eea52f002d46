package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/salonmate/internal/client/client"
	"github.com/dmitrijs2005/salonmate/internal/client/models"
	"github.com/dmitrijs2005/salonmate/internal/client/session"
	"github.com/dmitrijs2005/salonmate/internal/logging"
)

const (
	defaultAuthenticatedRoute = "/dashboard"
	defaultLoginRoute         = "/login"

	msgBeginFailed    = "Could not start social sign-in. Please try again."
	msgMissingCode    = "Sign-in was cancelled or the link is incomplete: missing authorization code."
	msgExchangeFailed = "Social sign-in failed. Please try again."
)

// Gateway is the subset of services.AuthGateway the controller calls.
type Gateway interface {
	GetOAuthURL(ctx context.Context, provider string) (string, error)
	ExchangeOAuthCode(ctx context.Context, provider, code, state string) (*models.AuthResult, error)
}

// SessionWriter receives the session produced by a successful exchange.
type SessionWriter interface {
	SetAuthenticated(ctx context.Context, user models.User, accessToken, refreshToken string) error
}

// Navigator moves the user agent: Redirect leaves the application for an
// external URL, Navigate switches to an in-app route.
type Navigator interface {
	Redirect(ctx context.Context, url string) error
	Navigate(ctx context.Context, route string) error
}

type Controller struct {
	gateway Gateway
	store   SessionWriter
	nav     Navigator
	logger  logging.Logger
	now     func() time.Time

	authenticatedRoute string
	loginRoute         string
}

type Option func(*Controller)

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithRoutes overrides where the user is sent after success and where
// failure pages point back to.
func WithRoutes(authenticated, login string) Option {
	return func(c *Controller) {
		if authenticated != "" {
			c.authenticatedRoute = authenticated
		}
		if login != "" {
			c.loginRoute = login
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(gateway Gateway, store SessionWriter, nav Navigator, opts ...Option) *Controller {
	c := &Controller{
		gateway:            gateway,
		store:              store,
		nav:                nav,
		logger:             logging.Nop(),
		now:                time.Now,
		authenticatedRoute: defaultAuthenticatedRoute,
		loginRoute:         defaultLoginRoute,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LoginRoute is where failed flows offer to send the user back to.
func (c *Controller) LoginRoute() string { return c.loginRoute }

// Begin starts a flow for provider and redirects to its authorization URL.
// On success the returned flow is AwaitingCallback.
func (c *Controller) Begin(ctx context.Context, provider string) *Flow {
	f := newFlow(provider, c.now)
	f.to(Initiated)

	authURL, err := c.gateway.GetOAuthURL(ctx, provider)
	if err != nil {
		c.logger.Warn(ctx, "oauth url request failed", "provider", provider, "error", err)
		f.fail(err, client.Message(err, msgBeginFailed))
		return f
	}
	f.AuthURL = authURL

	if err := c.nav.Redirect(ctx, authURL); err != nil {
		c.logger.Warn(ctx, "oauth redirect failed", "provider", provider, "error", err)
		f.fail(fmt.Errorf("redirect: %w", err), msgBeginFailed)
		return f
	}

	f.to(AwaitingCallback)
	c.logger.Info(ctx, "oauth flow started", "provider", provider)
	return f
}

// Complete processes one callback landing. Every call runs a fresh flow;
// the exchange is attempted at most once and never retried.
func (c *Controller) Complete(ctx context.Context, provider string, query url.Values) *Flow {
	f := newFlow(provider, c.now)
	f.to(AwaitingCallback)

	ex := models.OAuthExchange{
		Provider: provider,
		Code:     query.Get("code"),
		State:    query.Get("state"),
	}
	if !ex.Complete() {
		msg := msgMissingCode
		if desc := providerError(query); desc != "" {
			msg = desc
		}
		c.logger.Warn(ctx, "oauth callback without code and state", "provider", provider, "provider_error", query.Get("error"))
		f.fail(ErrOAuthParameterMissing, msg)
		return f
	}

	f.to(Exchanging)
	res, err := c.gateway.ExchangeOAuthCode(ctx, ex.Provider, ex.Code, ex.State)
	if err != nil {
		msg := client.Message(err, msgExchangeFailed)
		c.logger.Warn(ctx, "oauth exchange failed", "provider", provider, "error", err)
		f.fail(&OAuthExchangeFailedError{Provider: provider, Message: msg, Err: err}, msg)
		return f
	}

	if err := c.store.SetAuthenticated(ctx, res.User, res.AccessToken, res.RefreshToken); err != nil {
		if !errors.Is(err, session.ErrPersist) {
			f.fail(&OAuthExchangeFailedError{Provider: provider, Message: msgExchangeFailed, Err: err}, msgExchangeFailed)
			return f
		}
		// the session is live for this process, only the snapshot is missing
		c.logger.Warn(ctx, "oauth session not persisted", "error", err)
	}

	f.to(Authenticated)
	c.logger.Info(ctx, "oauth sign-in complete", "provider", provider, "user_id", res.User.ID)

	if err := c.nav.Navigate(ctx, c.authenticatedRoute); err != nil {
		c.logger.Warn(ctx, "navigation after oauth failed", "route", c.authenticatedRoute, "error", err)
	}
	return f
}

// providerError formats the error a provider reports when the user denies
// consent ("error" and "error_description" parameters).
func providerError(q url.Values) string {
	code := q.Get("error")
	if code == "" {
		return ""
	}
	if desc := q.Get("error_description"); desc != "" {
		return fmt.Sprintf("Sign-in failed: %s (%s)", desc, code)
	}
	return fmt.Sprintf("Sign-in failed: %s", code)
}
