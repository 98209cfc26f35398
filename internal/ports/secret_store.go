package ports

import "context"

// SecretStore persists opaque secret values (the bearer credential) outside
// normal process memory so they survive between invocations.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
