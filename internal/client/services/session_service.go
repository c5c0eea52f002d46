package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/salonmate/internal/client/client"
	"github.com/dmitrijs2005/salonmate/internal/client/models"
	"github.com/dmitrijs2005/salonmate/internal/logging"
)

// SessionWriter is the part of session.Store the use-cases write through.
type SessionWriter interface {
	Session() models.Session
	SetAuthenticated(ctx context.Context, user models.User, accessToken, refreshToken string) error
	Clear(ctx context.Context) error
}

// SessionService combines AuthGateway calls with session store updates.
type SessionService interface {
	Login(ctx context.Context, req models.LoginRequest) (models.Session, error)
	Signup(ctx context.Context, req models.SignupRequest) (models.Session, error)
	Logout(ctx context.Context) error
	Initialize(ctx context.Context) (models.Session, error)
}

type sessionService struct {
	gateway AuthGateway
	store   SessionWriter
	logger  logging.Logger
}

func NewSessionService(gateway AuthGateway, store SessionWriter, logger logging.Logger) SessionService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &sessionService{gateway: gateway, store: store, logger: logger}
}

func (s *sessionService) Login(ctx context.Context, req models.LoginRequest) (models.Session, error) {
	res, err := s.gateway.Login(ctx, req)
	if err != nil {
		return models.Session{}, err
	}
	return s.establish(ctx, res)
}

func (s *sessionService) Signup(ctx context.Context, req models.SignupRequest) (models.Session, error) {
	res, err := s.gateway.Signup(ctx, req)
	if err != nil {
		return models.Session{}, err
	}
	return s.establish(ctx, res)
}

// establish writes a fresh AuthResult into the store. A persistence failure
// is reported but the session stays usable for this process.
func (s *sessionService) establish(ctx context.Context, res *models.AuthResult) (models.Session, error) {
	err := s.store.SetAuthenticated(ctx, res.User, res.AccessToken, res.RefreshToken)
	if err != nil {
		sess := s.store.Session()
		if !sess.IsAuthenticated || sess.AccessToken != res.AccessToken {
			return models.Session{}, fmt.Errorf("store session: %w", err)
		}
		s.logger.Warn(ctx, "session not persisted", "error", err)
	}
	s.logger.Info(ctx, "signed in", "user_id", res.User.ID)
	return s.store.Session(), nil
}

// Logout notifies the authority and always clears the local session, even
// when the remote call fails.
func (s *sessionService) Logout(ctx context.Context) error {
	if !s.store.Session().IsAuthenticated {
		return s.store.Clear(ctx)
	}
	if err := s.gateway.Logout(ctx); err != nil {
		s.logger.Warn(ctx, "remote logout failed, clearing local session anyway", "error", err)
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info(ctx, "signed out")
	return nil
}

// Initialize validates a restored session against the authority.
//
// An expired session that cannot be refreshed ends up cleared by the
// pipeline and is reported as an empty session with no error. A transport
// failure keeps the restored session so the client can work offline.
func (s *sessionService) Initialize(ctx context.Context) (models.Session, error) {
	sess := s.store.Session()
	if !sess.IsAuthenticated {
		return sess, nil
	}

	user, err := s.gateway.Me(ctx)
	switch {
	case err == nil:
		if user.ID != sess.User.ID {
			s.logger.Warn(ctx, "restored session belongs to another user, clearing")
			if cerr := s.store.Clear(ctx); cerr != nil {
				return models.Session{}, fmt.Errorf("clear session: %w", cerr)
			}
			return models.Session{}, nil
		}
		cur := s.store.Session()
		if cur.IsAuthenticated && !sameProfile(*cur.User, *user) {
			// profile fields may have changed server-side
			if err := s.store.SetAuthenticated(ctx, *user, cur.AccessToken, cur.RefreshToken); err != nil {
				s.logger.Warn(ctx, "updating restored user failed", "error", err)
			}
		}
		return s.store.Session(), nil
	case errors.Is(err, client.ErrSessionExpired):
		s.logger.Info(ctx, "restored session expired")
		return s.store.Session(), nil
	case errors.Is(err, client.ErrUnauthorized):
		// rejected even after a refresh
		s.logger.Warn(ctx, "restored session rejected, clearing", "error", err)
		if cerr := s.store.Clear(ctx); cerr != nil {
			return models.Session{}, fmt.Errorf("clear session: %w", cerr)
		}
		return models.Session{}, nil
	case errors.Is(err, client.ErrUnavailable):
		s.logger.Warn(ctx, "authority unreachable, keeping restored session", "error", err)
		return s.store.Session(), nil
	default:
		return s.store.Session(), err
	}
}

func sameProfile(a, b models.User) bool {
	return a.ID == b.ID && a.Email == b.Email && a.Name == b.Name && a.CreatedAt.Equal(b.CreatedAt)
}
