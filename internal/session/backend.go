package session

import "context"

// Backend is the durable key-value storage behind a Manager. Set and
// Delete must apply all of their keys atomically.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}
