// Package session owns the client-held authentication state.
//
// A Store holds exactly one models.Session. Every mutation replaces the whole
// value (user and both tokens move together) and writes a JSON snapshot to a
// kv.Repository under common.SessionStorageKey. Open restores that snapshot
// before the store is handed to anyone; an absent, corrupt or partial snapshot
// yields the empty session.
//
// Reads are lock-free and never wait for I/O. Writers are serialized, so the
// last mutation to complete wins in full.
package session
