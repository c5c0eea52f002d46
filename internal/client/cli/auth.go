package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/salonmate/internal/client/client"
	"github.com/dmitrijs2005/salonmate/internal/client/models"
	"github.com/dmitrijs2005/salonmate/internal/client/oauth"
	"github.com/dmitrijs2005/salonmate/internal/client/services"
	"github.com/dmitrijs2005/salonmate/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// describe turns a command failure into the line shown to the user: the
// remote message when there is one, otherwise fallback.
func describe(err error, fallback string) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return err.Error()
	case errors.Is(err, client.ErrSessionExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable. Check your connection and try again."
	}
	return client.Message(err, fallback)
}

// Signup prompts for the account and shop details and creates the account.
// On success the new session is stored and the user is logged in.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.output())
	if err != nil {
		return err
	}
	password, err := getPassword(a.output())
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	name, err := getSimpleText(a.reader, "Enter your name", a.output())
	if err != nil {
		return err
	}
	shopName, err := getSimpleText(a.reader, "Enter shop name (optional)", a.output())
	if err != nil {
		return err
	}
	shopType, err := getSimpleText(a.reader, "Enter shop type: nail, hair, skin, lash (optional)", a.output())
	if err != nil {
		return err
	}

	sess, err := a.sessions.Signup(ctx, models.SignupRequest{
		Email:    email,
		Password: string(password),
		Name:     name,
		ShopName: shopName,
		ShopType: models.ShopType(strings.ToLower(shopType)),
	})
	if err != nil {
		a.println("Signup failed:", describe(err, "Could not create the account."))
		return err
	}

	a.printf("Welcome, %s!\n", displayName(sess.User))
	return nil
}

// Login prompts for credentials and signs in.
//
// The password is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.output())
	if err != nil {
		return err
	}
	password, err := getPassword(a.output())
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.sessions.Login(ctx, models.LoginRequest{Email: email, Password: string(password)})
	if err != nil {
		a.println("Login failed:", describe(err, "Invalid email or password."))
		return err
	}

	a.printf("Logged in as %s\n", displayName(sess.User))
	return nil
}

// Logout ends the session locally even if the server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		a.println("Logout failed:", err)
		return err
	}
	a.println("Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	sess := a.store.Session()
	if !sess.IsAuthenticated {
		a.println("Not logged in")
		return nil
	}
	a.printf("%s <%s> (id %s)\n", sess.User.Name, sess.User.Email, sess.User.ID)
	return nil
}

func (a *App) Providers(ctx context.Context) error {
	providers, err := a.gateway.ListOAuthProviders(ctx)
	if err != nil {
		a.println("Could not load providers:", describe(err, "Unknown error."))
		return err
	}
	if len(providers) == 0 {
		a.println("No social sign-in providers are configured")
		return nil
	}
	a.println("Providers:", strings.Join(providers, ", "))
	return nil
}

// OAuth starts social sign-in with provider.
func (a *App) OAuth(ctx context.Context, provider string) error {
	f := a.flows.Begin(ctx, provider)
	if f.Err() != nil {
		a.println("Social sign-in failed:", f.Message())
		return f.Err()
	}

	if a.callbackURL != "" {
		a.printf("Waiting for the browser to return to %s%s\n", a.callbackURL, provider)
	} else {
		a.println("After signing in, paste the address you were redirected to:")
		a.println("  callback <url>")
	}
	return nil
}

// Callback completes social sign-in from a pasted redirect URL of the form
// .../auth/callback/<provider>?code=...&state=...
func (a *App) Callback(ctx context.Context, raw string) error {
	provider, query, err := parseCallbackURL(raw)
	if err != nil {
		a.println("Invalid callback address:", err)
		return err
	}
	f := a.flows.Complete(ctx, provider, query)
	a.reportFlow(f)
	return f.Err()
}

func (a *App) reportFlow(f *oauth.Flow) {
	if f.State() == oauth.Authenticated {
		a.printf("Signed in with %s as %s\n", f.Provider, displayName(a.store.Session().User))
		return
	}
	a.println("Social sign-in failed:", f.Message())
	a.printf("Try again from %s (type 'login' or 'oauth <provider>')\n", a.flows.LoginRoute())
}

// Get performs an authenticated GET and prints the JSON response.
func (a *App) Get(ctx context.Context, path string) error {
	var body json.RawMessage
	if err := a.api.Get(ctx, path, &body); err != nil {
		a.println("Request failed:", describe(err, fmt.Sprintf("GET %s failed.", path)))
		return err
	}
	if len(body) == 0 {
		a.println("(no content)")
		return nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		a.println(string(body))
		return nil
	}
	a.println(pretty.String())
	return nil
}

func parseCallbackURL(raw string) (string, url.Values, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", nil, err
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) < 2 || segs[len(segs)-2] != "callback" || segs[len(segs)-1] == "" {
		return "", nil, fmt.Errorf("expected a path ending in /callback/<provider>, got %q", u.Path)
	}
	return segs[len(segs)-1], u.Query(), nil
}
