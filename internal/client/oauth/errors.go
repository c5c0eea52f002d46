package oauth

import (
	"errors"
	"fmt"
)

// ErrOAuthParameterMissing means the callback landed without both code and state.
var ErrOAuthParameterMissing = errors.New("missing authorization code")

// OAuthExchangeFailedError is a rejected code exchange. Message is the
// authority's message when it sent one.
type OAuthExchangeFailedError struct {
	Provider string
	Message  string
	Err      error
}

func (e *OAuthExchangeFailedError) Error() string {
	return fmt.Sprintf("oauth exchange with %s failed: %s", e.Provider, e.Message)
}

func (e *OAuthExchangeFailedError) Unwrap() error { return e.Err }
