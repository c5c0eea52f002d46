package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/salonmate/internal/client/models"
	"github.com/dmitrijs2005/salonmate/internal/client/repositories/kv"
	"github.com/dmitrijs2005/salonmate/internal/common"
	"github.com/dmitrijs2005/salonmate/internal/logging"
)

var (
	// ErrIncompleteSession rejects SetAuthenticated calls missing the user or a token.
	ErrIncompleteSession = errors.New("incomplete session")
	// ErrNotAuthenticated is returned by UpdateAccessToken when there is no session to update.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStaleSession is returned when the session changed since the caller read it.
	ErrStaleSession = errors.New("session changed")
	// ErrPersist wraps failures of the durable write. The in-memory value is updated regardless.
	ErrPersist = errors.New("persist session")

	errCorruptSnapshot = errors.New("corrupt session snapshot")
	errNoChange        = errors.New("no change")
)

// Sealer protects the snapshot at rest. *cryptox.Sealer satisfies it.
type Sealer interface {
	Seal(plaintext []byte) []byte
	Open(sealed []byte) ([]byte, error)
}

type Store struct {
	current atomic.Pointer[models.Session]

	// writeMu serializes mutate+persist+notify.
	writeMu sync.Mutex

	repo   kv.Repository
	sealer Sealer
	logger logging.Logger

	subsMu sync.Mutex
	subs   map[int]func(models.Session)
	nextID int
}

type Option func(*Store)

func WithSealer(s Sealer) Option {
	return func(st *Store) { st.sealer = s }
}

func WithLogger(l logging.Logger) Option {
	return func(st *Store) { st.logger = l }
}

// Open builds a Store over repo and restores the persisted snapshot.
func Open(ctx context.Context, repo kv.Repository, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		logger: logging.Nop(),
		subs:   make(map[int]func(models.Session)),
	}
	for _, o := range opts {
		o(s)
	}
	s.current.Store(&models.Session{})
	s.Restore(ctx)
	return s
}

// Session returns a copy of the current value.
func (s *Store) Session() models.Session {
	return s.current.Load().Clone()
}

// SetAuthenticated replaces the whole session with user and both tokens.
func (s *Store) SetAuthenticated(ctx context.Context, user models.User, accessToken, refreshToken string) error {
	if user.ID == "" || accessToken == "" || refreshToken == "" {
		return ErrIncompleteSession
	}
	next := models.Session{
		User:            &user,
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		IsAuthenticated: true,
	}
	return s.mutate(ctx, func(models.Session) (models.Session, error) { return next, nil })
}

// Clear resets the session to empty. Calling it repeatedly is harmless.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func(models.Session) (models.Session, error) { return models.Session{}, nil })
}

// UpdateAccessToken swaps the access token of the session that still holds
// usedRefreshToken. A non-empty refreshToken also replaces the stored one
// (rotating authorities). If the session was cleared or replaced meanwhile it
// is left untouched and ErrNotAuthenticated or ErrStaleSession is returned.
func (s *Store) UpdateAccessToken(ctx context.Context, usedRefreshToken, accessToken, refreshToken string) error {
	if accessToken == "" || usedRefreshToken == "" {
		return ErrIncompleteSession
	}
	return s.mutate(ctx, func(prev models.Session) (models.Session, error) {
		if !prev.IsAuthenticated {
			return prev, ErrNotAuthenticated
		}
		if prev.RefreshToken != usedRefreshToken {
			return prev, ErrStaleSession
		}
		next := prev.Clone()
		next.AccessToken = accessToken
		if refreshToken != "" {
			next.RefreshToken = refreshToken
		}
		return next, nil
	})
}

// ClearIfCurrent clears the session only while it still holds refreshToken.
// An already empty session is left as is. A session that was replaced since
// yields ErrStaleSession and is kept.
func (s *Store) ClearIfCurrent(ctx context.Context, refreshToken string) error {
	return s.mutate(ctx, func(prev models.Session) (models.Session, error) {
		if !prev.IsAuthenticated {
			return prev, errNoChange
		}
		if prev.RefreshToken != refreshToken {
			return prev, ErrStaleSession
		}
		return models.Session{}, nil
	})
}

// Subscribe registers fn to be called with the new value after every
// mutation. fn runs on the mutating goroutine and must not mutate the store.
func (s *Store) Subscribe(fn func(models.Session)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

// Restore reloads the snapshot from the repository. Any failure leaves the
// empty session in place and is only logged.
func (s *Store) Restore(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	restored, err := s.load(ctx)
	if err != nil {
		s.logger.Warn(ctx, "discarding persisted session", "error", err)
		restored = models.Session{}
	}
	s.current.Store(&restored)
	if restored.IsAuthenticated {
		s.logger.Debug(ctx, "session restored", "user_id", restored.User.ID)
	}
}

func (s *Store) mutate(ctx context.Context, fn func(prev models.Session) (models.Session, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, err := fn(s.current.Load().Clone())
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	next.IsAuthenticated = next.Complete()
	s.current.Store(&next)

	persistErr := s.persist(ctx, next)
	if persistErr != nil {
		s.logger.Error(ctx, "session snapshot not saved", "error", persistErr)
	}

	s.notify(next)
	return persistErr
}

func (s *Store) persist(ctx context.Context, sess models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if s.sealer != nil {
		data = s.sealer.Seal(data)
	}
	if err := s.repo.Set(ctx, common.SessionStorageKey, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) (models.Session, error) {
	data, err := s.repo.Get(ctx, common.SessionStorageKey)
	if err != nil {
		return models.Session{}, err
	}
	if data == nil {
		return models.Session{}, nil
	}
	if s.sealer != nil {
		if data, err = s.sealer.Open(data); err != nil {
			return models.Session{}, fmt.Errorf("%w: %w", errCorruptSnapshot, err)
		}
	}
	return decodeSnapshot(data)
}

// decodeSnapshot accepts only the exact snapshot shape, and only when the
// stored flag agrees with the fields (all present or all absent).
func decodeSnapshot(data []byte) (models.Session, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var sess models.Session
	if err := dec.Decode(&sess); err != nil {
		return models.Session{}, fmt.Errorf("%w: %w", errCorruptSnapshot, err)
	}
	if dec.More() {
		return models.Session{}, errCorruptSnapshot
	}

	empty := sess.User == nil && sess.AccessToken == "" && sess.RefreshToken == ""
	switch {
	case sess.IsAuthenticated && sess.Complete() && sess.User.ID != "":
		return sess, nil
	case !sess.IsAuthenticated && empty:
		return models.Session{}, nil
	default:
		return models.Session{}, fmt.Errorf("%w: partial session", errCorruptSnapshot)
	}
}

func (s *Store) notify(sess models.Session) {
	s.subsMu.Lock()
	fns := make([]func(models.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(sess.Clone())
	}
}
