// Package common contains shared constants and helpers used across
// SalonMate client components.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme prefixes the access token in the Authorization header.
	BearerScheme = "Bearer"

	// RequestIDHeaderName correlates a client request with server logs.
	RequestIDHeaderName = "X-Request-ID"

	// SessionStorageKey is the fixed namespace key of the persisted session snapshot.
	SessionStorageKey = "auth-storage"

	// SessionSaltStorageKey holds the per-database salt used to seal the snapshot.
	SessionSaltStorageKey = "auth-storage.salt"
)
