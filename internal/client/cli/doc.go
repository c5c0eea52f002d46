// Package cli provides the interactive SalonMate command-line client.
//
// It wires configuration, the local session database, the request pipeline,
// the auth services and the OAuth controller, then runs a REPL. On start the
// restored session is validated against the API (refreshing it if needed).
//
// Key features:
//   - Signup / Login / Logout, with the session persisted between runs
//   - Social sign-in: "oauth <provider>" prints the provider URL; the redirect
//     comes back through the loopback callback listener (when configured) or
//     is pasted with "callback <url>"
//   - whoami, providers
//   - get <path>: an authenticated GET through the request pipeline
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
