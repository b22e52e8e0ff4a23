// Package storage defines the persistence interfaces for the Takaro MCP server.
package storage

import "context"

// Manager provides access to the storage backends.
// Implementations can be swapped (BadgerDB now, something else later).
type Manager interface {
	KeyValueStorage() KeyValueStorage
	Close() error
}

// KeyValueStorage provides basic key-value operations. The OpenAPI document
// cache is the primary consumer.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}
