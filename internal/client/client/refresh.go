package client

import (
	"context"
	"errors"
	"fmt"
)

const refreshKey = "refresh"

// recoverCredential handles a 401 received while using usedToken and returns
// the token to retry with.
func (p *Pipeline) recoverCredential(ctx context.Context, usedToken string, cause error) (string, error) {
	sess := p.store.Session()

	if !sess.IsAuthenticated {
		if usedToken == "" {
			// anonymous call: there is no credential to refresh.
			return "", cause
		}
		// cleared while we were in flight: a failed refresh or a logout.
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, cause)
	}

	if sess.AccessToken != usedToken {
		// another caller already refreshed
		return sess.AccessToken, nil
	}

	return p.refresh(ctx, usedToken)
}

// refresh runs at most one refresh at a time. Callers arriving while a
// refresh is in flight wait for that same outcome.
func (p *Pipeline) refresh(ctx context.Context, staleToken string) (string, error) {
	ch := p.flight.DoChan(refreshKey, func() (any, error) {
		// detached so one caller's cancellation does not fail every waiter
		return p.runRefresh(context.WithoutCancel(ctx), staleToken)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *Pipeline) runRefresh(ctx context.Context, staleToken string) (string, error) {
	sess := p.store.Session()
	if !sess.IsAuthenticated {
		return "", ErrSessionExpired
	}
	if sess.AccessToken != staleToken {
		return sess.AccessToken, nil
	}

	refresher := p.getRefresher()
	if refresher == nil {
		return "", p.expire(ctx, sess.RefreshToken, errors.New("no refresher configured"))
	}

	p.logger.Info(ctx, "refreshing access token", "user_id", sess.User.ID)

	res, err := refresher.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return "", p.expire(ctx, sess.RefreshToken, err)
	}
	if res == nil || res.AccessToken == "" {
		return "", p.expire(ctx, sess.RefreshToken, errors.New("refresh returned no access token"))
	}

	// applied only to the session the refresh started from; a logout or a
	// new login while the call was in flight wins.
	if err := p.store.UpdateAccessToken(ctx, sess.RefreshToken, res.AccessToken, res.RefreshToken); err != nil {
		if p.store.Session().AccessToken != res.AccessToken {
			p.logger.Warn(ctx, "session changed during refresh, discarding token", "error", err)
			return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		p.logger.Warn(ctx, "refreshed token not persisted", "error", err)
	}

	p.logger.Debug(ctx, "access token refreshed", "expires_in", res.ExpiresIn, "rotated", res.RefreshToken != "")
	return res.AccessToken, nil
}

// expire clears the session after a failed refresh, unless it was replaced
// by another login in the meantime.
func (p *Pipeline) expire(ctx context.Context, refreshToken string, cause error) error {
	p.logger.Warn(ctx, "refresh failed, clearing session", "error", cause)
	if err := p.store.ClearIfCurrent(ctx, refreshToken); err != nil {
		p.logger.Error(ctx, "clearing session after failed refresh", "error", err)
	}
	return fmt.Errorf("%w: %w", ErrSessionExpired, cause)
}
