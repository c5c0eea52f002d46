package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/salonmate/internal/client/models"
	"github.com/dmitrijs2005/salonmate/internal/client/repositories/kv"
	"github.com/dmitrijs2005/salonmate/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() models.User {
	return models.User{
		ID:        "u1",
		Email:     "a@b.com",
		Name:      "Ahn",
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

type failingRepo struct {
	kv.Repository
	setErr error
	getErr error
}

func (f *failingRepo) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Repository.Set(ctx, key, value)
}

func (f *failingRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Repository.Get(ctx, key)
}

func TestOpen_EmptyRepository(t *testing.T) {
	s := Open(context.Background(), kv.NewMemoryRepository())

	got := s.Session()
	assert.Equal(t, models.Session{}, got)
	assert.False(t, got.IsAuthenticated)
}

func TestSetAuthenticated(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())

	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))

	got := s.Session()
	require.True(t, got.IsAuthenticated)
	assert.Equal(t, "u1", got.User.ID)
	assert.Equal(t, "tok1", got.AccessToken)
	assert.Equal(t, "ref1", got.RefreshToken)
}

func TestSetAuthenticated_RejectsIncomplete(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())

	require.ErrorIs(t, s.SetAuthenticated(ctx, testUser(), "", "ref1"), ErrIncompleteSession)
	require.ErrorIs(t, s.SetAuthenticated(ctx, testUser(), "tok1", ""), ErrIncompleteSession)
	require.ErrorIs(t, s.SetAuthenticated(ctx, models.User{}, "tok1", "ref1"), ErrIncompleteSession)

	assert.Equal(t, models.Session{}, s.Session())
}

func TestSetAuthenticated_OverwritesPrevious(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())

	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))
	other := models.User{ID: "u2", Email: "c@d.com"}
	require.NoError(t, s.SetAuthenticated(ctx, other, "tok2", "ref2"))

	got := s.Session()
	assert.Equal(t, "u2", got.User.ID)
	assert.Equal(t, "tok2", got.AccessToken)
	assert.Equal(t, "ref2", got.RefreshToken)
}

func TestClear_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())
	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))

	require.NoError(t, s.Clear(ctx))
	once := s.Session()
	require.NoError(t, s.Clear(ctx))
	twice := s.Session()

	assert.Equal(t, models.Session{}, once)
	assert.Equal(t, once, twice)
}

func TestUpdateAccessToken(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())
	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))

	require.NoError(t, s.UpdateAccessToken(ctx, "ref1", "tok2", ""))

	got := s.Session()
	assert.True(t, got.IsAuthenticated)
	assert.Equal(t, "tok2", got.AccessToken)
	assert.Equal(t, "ref1", got.RefreshToken, "refresh token untouched when not rotated")
	assert.Equal(t, "u1", got.User.ID)
}

func TestUpdateAccessToken_RotatesRefreshToken(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())
	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))

	require.NoError(t, s.UpdateAccessToken(ctx, "ref1", "tok2", "ref2"))

	got := s.Session()
	assert.Equal(t, "tok2", got.AccessToken)
	assert.Equal(t, "ref2", got.RefreshToken)
}

func TestUpdateAccessToken_WithoutSession(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())

	require.ErrorIs(t, s.UpdateAccessToken(ctx, "ref1", "tok2", ""), ErrNotAuthenticated)
	assert.Equal(t, models.Session{}, s.Session(), "a token without a user must never appear")
}

func TestUpdateAccessToken_ReplacedSessionUntouched(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())
	require.NoError(t, s.SetAuthenticated(ctx, models.User{ID: "u2"}, "tokB", "refB"))

	require.ErrorIs(t, s.UpdateAccessToken(ctx, "ref1", "u1-refreshed", "ref1b"), ErrStaleSession)

	got := s.Session()
	assert.Equal(t, "u2", got.User.ID)
	assert.Equal(t, "tokB", got.AccessToken)
	assert.Equal(t, "refB", got.RefreshToken)
}

func TestClearIfCurrent(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())

	require.NoError(t, s.ClearIfCurrent(ctx, "ref1"), "empty session stays empty")

	require.NoError(t, s.SetAuthenticated(ctx, models.User{ID: "u2"}, "tokB", "refB"))
	require.ErrorIs(t, s.ClearIfCurrent(ctx, "ref1"), ErrStaleSession)
	assert.Equal(t, "tokB", s.Session().AccessToken)

	require.NoError(t, s.ClearIfCurrent(ctx, "refB"))
	assert.Equal(t, models.Session{}, s.Session())
}

func TestSession_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())
	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))

	got := s.Session()
	got.User.ID = "mutated"
	got.AccessToken = "mutated"

	again := s.Session()
	assert.Equal(t, "u1", again.User.ID)
	assert.Equal(t, "tok1", again.AccessToken)
}

func TestInvariant_RandomOperationSequences(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		repo := kv.NewMemoryRepository()
		s := Open(ctx, repo)

		for step := 0; step < 40; step++ {
			switch rng.Intn(4) {
			case 0:
				_ = s.SetAuthenticated(ctx, testUser(), fmt.Sprintf("tok%d", step), fmt.Sprintf("ref%d", step))
			case 1:
				_ = s.Clear(ctx)
			case 2:
				_ = s.UpdateAccessToken(ctx, s.Session().RefreshToken, fmt.Sprintf("tok%d", step), "")
			case 3:
				_ = s.SetAuthenticated(ctx, testUser(), "", "")
			}

			got := s.Session()
			complete := got.User != nil && got.AccessToken != "" && got.RefreshToken != ""
			require.Equal(t, complete, got.IsAuthenticated, "round %d step %d: %+v", round, step, got)
			if !got.IsAuthenticated {
				require.Equal(t, models.Session{}, got, "round %d step %d", round, step)
			}

			reopened := Open(ctx, repo).Session()
			require.Empty(t, cmp.Diff(got, reopened), "round %d step %d", round, step)
		}
	}
}

func TestConcurrentReadersNeverSeePartialState(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got := s.Session()
				if got.IsAuthenticated != got.Complete() {
					t.Errorf("observed partial session: %+v", got)
					return
				}
				if got.IsAuthenticated && got.User.ID != "u-"+got.AccessToken {
					t.Errorf("token %q paired with user %q", got.AccessToken, got.User.ID)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		tok := fmt.Sprintf("t%d", i)
		if i%3 == 0 {
			_ = s.Clear(ctx)
			continue
		}
		_ = s.SetAuthenticated(ctx, models.User{ID: "u-" + tok}, tok, "r"+tok)
	}
	close(stop)
	wg.Wait()
}

func TestRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "session.db")

	db, err := kv.Open(ctx, dsn)
	require.NoError(t, err)
	s := Open(ctx, kv.NewSQLiteRepository(db))
	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))
	before := s.Session()
	require.NoError(t, db.Close())

	db, err = kv.Open(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	after := Open(ctx, kv.NewSQLiteRepository(db)).Session()
	assert.Empty(t, cmp.Diff(before, after))
}

func TestRestore_CorruptOrForeignDataYieldsEmptySession(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "garbage", data: "\x00\x01not json"},
		{name: "truncated", data: `{"user":{"id":"u1"},"accessToken":"tok`},
		{name: "foreign shape", data: `{"state":{"user":null},"version":0}`},
		{name: "partial: token without user", data: `{"user":null,"accessToken":"tok1","refreshToken":"ref1","isAuthenticated":true}`},
		{name: "partial: flag false with tokens", data: `{"user":{"id":"u1"},"accessToken":"tok1","refreshToken":"ref1","isAuthenticated":false}`},
		{name: "trailing data", data: `{"user":null,"accessToken":"","refreshToken":"","isAuthenticated":false} {}`},
		{name: "array", data: `[]`},
		{name: "user without id", data: `{"user":{},"accessToken":"tok1","refreshToken":"ref1","isAuthenticated":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := kv.NewMemoryRepository()
			require.NoError(t, repo.Set(ctx, common.SessionStorageKey, []byte(tt.data)))

			var s *Store
			require.NotPanics(t, func() { s = Open(ctx, repo) })
			assert.Equal(t, models.Session{}, s.Session())
		})
	}
}

func TestRestore_CorruptAfterPersist(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemoryRepository()
	s := Open(ctx, repo)
	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))

	raw, err := repo.Get(ctx, common.SessionStorageKey)
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, common.SessionStorageKey, raw[:len(raw)/2]))

	assert.Equal(t, models.Session{}, Open(ctx, repo).Session())
}

func TestRestore_RepositoryErrorYieldsEmptySession(t *testing.T) {
	repo := &failingRepo{Repository: kv.NewMemoryRepository(), getErr: errors.New("disk gone")}

	s := Open(context.Background(), repo)
	assert.Equal(t, models.Session{}, s.Session())
}

func TestMutation_PersistFailureStillUpdatesMemory(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{Repository: kv.NewMemoryRepository()}
	s := Open(ctx, repo)
	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))

	repo.setErr = errors.New("read-only")
	err := s.Clear(ctx)

	require.ErrorIs(t, err, ErrPersist)
	assert.False(t, s.Session().IsAuthenticated)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemoryRepository())

	var seen []bool
	unsubscribe := s.Subscribe(func(sess models.Session) {
		seen = append(seen, sess.IsAuthenticated)
	})

	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))
	require.NoError(t, s.Clear(ctx))
	unsubscribe()
	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))

	assert.Equal(t, []bool{true, false}, seen)
}

func TestSealedSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemoryRepository()

	sealer, err := LoadSealer(ctx, repo, "passphrase")
	require.NoError(t, err)

	s := Open(ctx, repo, WithSealer(sealer))
	require.NoError(t, s.SetAuthenticated(ctx, testUser(), "tok1", "ref1"))

	raw, err := repo.Get(ctx, common.SessionStorageKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok1", "tokens must not be stored in clear text")

	again, err := LoadSealer(ctx, repo, "passphrase")
	require.NoError(t, err)
	restored := Open(ctx, repo, WithSealer(again)).Session()
	assert.Equal(t, "tok1", restored.AccessToken)

	wrong, err := LoadSealer(ctx, repo, "other")
	require.NoError(t, err)
	assert.Equal(t, models.Session{}, Open(ctx, repo, WithSealer(wrong)).Session())
}
