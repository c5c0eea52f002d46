// Package client is the authenticated HTTP pipeline every SalonMate feature
// talks to the API through.
//
// # Overview
//
// A Pipeline resolves request paths against the configured base URL, attaches
// JSON headers, a request ID and the bearer credential of the current
// session, and decodes JSON responses. A 204 response is an absent value.
//
// # Refresh coordination
//
// A 401 from any endpoint outside the auth-initiation set (/auth/refresh,
// /auth/login, /auth/signup, /auth/oauth/...) means the access token expired.
// The pipeline then runs the registered Refresher through a single-flight
// group, so concurrent callers share one refresh call and its outcome, writes
// the new token into the session and retries the request once. A failed
// refresh clears the session and yields ErrSessionExpired. Access tokens that
// are JWTs with an "exp" claim in the past are refreshed before sending.
//
// # Error Handling
//
// Failures are *TransportError (no response, matches ErrUnavailable) or
// *StatusError (non-2xx, matches ErrUnauthorized for 401/403). Use errors.Is
// and errors.As.
package client
