// Package credentials defines the durable key/value persistence behind a session: the access token,
// the refresh token and the serialized user profile.
package credentials

import "context"

// Fixed keys of the three durable entries.
const (
	KeyAccessToken  = "token"
	KeyRefreshToken = "refreshToken"
	KeyUserInfo     = "userInfo"
)

// Store is a string key/value persistence that survives process restarts.
//
// Read of a missing key reports ok=false with a nil error; errors are reserved for backend
// failures. Values are stored as given, callers serialize and deserialize. Remove of a missing key
// is a no-op.
type Store interface {
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	Write(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Closer is implemented by stores holding an open file handle or database pool.
type Closer interface {
	Close() error
}

// Keys lists every key a session persists.
func Keys() []string {
	return []string{KeyAccessToken, KeyRefreshToken, KeyUserInfo}
}
