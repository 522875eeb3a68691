// Package kvstore defines the generic key-value boundary the client's local
// persistence sits behind, and its sqlite implementation. Higher layers never
// see SQL; they see opaque keys and byte values.
package kvstore

import "context"

// Store is the local key-value persistence boundary.
//
// Contract:
//   - Get returns common.ErrorNotFound (wrapped) when the key is absent.
//   - Set upserts; a returned error means the write did not happen.
//   - Remove is a no-op for absent keys.
//   - Keys returns every stored key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
