// Package kv implements the durable key/value capability the session store
// persists into. Get returns (nil, nil) for absent keys.
package kv

import "context"

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
