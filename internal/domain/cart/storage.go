package cart

import "context"

// DefaultStorageKey is the key prefix under which carts are persisted
const DefaultStorageKey = "trendstepCart"

// Storage is a string-keyed store holding one serialized cart per key.
// Get reports found=false for an absent key without error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// StorageKey scopes the cart key to a storefront session
func StorageKey(prefix, sessionID string) string {
	if prefix == "" {
		prefix = DefaultStorageKey
	}
	if sessionID == "" {
		return prefix
	}
	return prefix + ":" + sessionID
}
