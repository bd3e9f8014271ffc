// Package metadata is the client's local key-value store. It keeps what must
// survive a restart, such as the refresh token and the last used email.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyRefreshToken = "refresh_token"
	KeyLastEmail    = "last_email"
)

// Repository stores opaque values by key. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
