package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/dmitrijs2005/salonmate/internal/client/client"
	"github.com/dmitrijs2005/salonmate/internal/client/config"
	"github.com/dmitrijs2005/salonmate/internal/client/models"
	"github.com/dmitrijs2005/salonmate/internal/client/oauth"
	"github.com/dmitrijs2005/salonmate/internal/client/repositories/kv"
	"github.com/dmitrijs2005/salonmate/internal/client/services"
	"github.com/dmitrijs2005/salonmate/internal/client/session"
	"github.com/dmitrijs2005/salonmate/internal/filex"
	"github.com/dmitrijs2005/salonmate/internal/logging"
)

// sessionReader is the read side of session.Store.
type sessionReader interface {
	Session() models.Session
}

// getter is the part of client.Pipeline the "get" command needs.
type getter interface {
	Get(ctx context.Context, path string, out any) error
}

// oauthFlows is the part of oauth.Controller the CLI drives.
type oauthFlows interface {
	Begin(ctx context.Context, provider string) *oauth.Flow
	Complete(ctx context.Context, provider string, query url.Values) *oauth.Flow
	LoginRoute() string
}

type App struct {
	config   *config.Config
	sessions services.SessionService
	gateway  services.AuthGateway
	flows    oauthFlows
	store    sessionReader
	api      getter
	logger   logging.Logger

	// callbackHandler serves oauth redirects when CallbackAddr is set.
	callbackHandler http.Handler
	callbackURL     string

	db     *sql.DB
	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local session database and wires the client stack.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}

	db, err := kv.Open(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}
	repo := kv.NewSQLiteRepository(db)

	opts := []session.Option{session.WithLogger(logger)}
	if c.StorageSecret != "" {
		sealer, err := session.LoadSealer(ctx, repo, c.StorageSecret)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("session sealer: %w", err)
		}
		opts = append(opts, session.WithSealer(sealer))
	}
	store := session.Open(ctx, repo, opts...)

	api, err := client.New(c.APIBaseURL, store,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(logger),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	gw := services.NewAuthGateway(api)
	api.SetRefresher(gw)

	nav := newTerminalNavigator(os.Stdout)
	ctrl := oauth.NewController(gw, store, nav,
		oauth.WithLogger(logger),
		oauth.WithRoutes(c.AuthenticatedRoute, c.LoginRoute),
	)

	a := &App{
		config:   c,
		sessions: services.NewSessionService(gw, store, logger),
		gateway:  gw,
		flows:    ctrl,
		store:    store,
		api:      api,
		logger:   logger,
		db:       db,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	a.callbackHandler = ctrl.CallbackHandler(a.reportFlow)

	store.Subscribe(func(s models.Session) {
		logger.Debug(context.Background(), "session changed", "authenticated", s.IsAuthenticated)
	})

	return a, nil
}

// Run validates the restored session, starts the callback listener when
// configured, and blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	if sess, err := a.sessions.Initialize(ctx); err != nil {
		a.logger.Warn(ctx, "could not validate restored session", "error", err)
	} else if sess.IsAuthenticated {
		a.printf("Welcome back, %s\n", displayName(sess.User))
	}

	if a.config != nil && a.config.CallbackAddr != "" {
		if err := a.StartCallbackServer(ctx, a.config.CallbackAddr); err != nil {
			a.logger.Warn(ctx, "oauth callback listener not started", "addr", a.config.CallbackAddr, "error", err)
		}
	}

	a.Root(ctx)
}

func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "closing database", "error", err)
		}
	}
}

// StartCallbackServer serves oauth.CallbackPattern on addr until ctx ends.
func (a *App) StartCallbackServer(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           a.callbackHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.callbackURL = "http://" + ln.Addr().String() + "/auth/callback/"

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(ctx, "oauth callback listener stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info(ctx, "oauth callback listener started", "url", a.callbackURL)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.store != nil && a.store.Session().IsAuthenticated
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.output(), format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.output(), args...)
}

func (a *App) output() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

func displayName(u *models.User) string {
	switch {
	case u == nil:
		return ""
	case u.Name != "":
		return u.Name
	default:
		return u.Email
	}
}
