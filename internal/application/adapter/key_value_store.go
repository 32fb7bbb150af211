// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import "context"

// Documents maps a key, relative to the store namespace, to its raw JSON
// document. A nil value in an update deletes the key.
type Documents map[string][]byte

// KeyValueStore is a namespaced document store. Every key lives under the
// store's namespace and nothing outside it is ever read or written.
type KeyValueStore interface {
	// Namespace returns the prefix shared by every key of the store.
	Namespace() string

	// Get returns the documents stored under keys. Absent keys are omitted.
	Get(ctx context.Context, keys ...string) (Documents, error)

	// Update atomically reads keys, passes them to fn and writes the
	// documents fn returns. Nothing is written when fn fails.
	Update(ctx context.Context, keys []string, fn func(current Documents) (Documents, error)) error

	// Keys lists the relative keys present in the namespace.
	Keys(ctx context.Context) ([]string, error)

	// Clear deletes every key of the namespace and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}
