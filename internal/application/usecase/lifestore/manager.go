package lifestore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/application/validation"
)

// Factory opens the key/value store backing a namespace.
type Factory func(namespace string) (adapter.KeyValueStore, error)

// Manager hands out one Store per namespace and disposes them.
type Manager struct {
	factory Factory
	opts    Options

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager creates a manager. opts is applied to every store it opens.
func NewManager(factory Factory, opts Options) *Manager {
	return &Manager{
		factory: factory,
		opts:    opts,
		stores:  make(map[string]*Store),
	}
}

// Open returns the store of namespace, creating it on first use.
func (m *Manager) Open(namespace string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[namespace]; ok {
		return s, nil
	}
	kv, err := m.factory(namespace)
	if err != nil {
		return nil, err
	}
	s := New(kv, m.opts)
	m.stores[namespace] = s
	return s, nil
}

// Dispose closes the handle of namespace. The data is kept.
func (m *Manager) Dispose(namespace string) {
	m.mu.Lock()
	s, ok := m.stores[namespace]
	delete(m.stores, namespace)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Destroy clears every document of namespace and disposes its handle.
func (m *Manager) Destroy(ctx context.Context, namespace string) error {
	s, err := m.Open(namespace)
	if err != nil {
		return err
	}
	if err := s.Clear(ctx); err != nil {
		return err
	}
	m.Dispose(namespace)
	return nil
}

// Close disposes every open handle.
func (m *Manager) Close() {
	m.mu.Lock()
	stores := m.stores
	m.stores = make(map[string]*Store)
	m.mu.Unlock()

	for _, s := range stores {
		s.Close()
	}
}

// UserStores maps API users to their store namespace.
type UserStores struct {
	manager *Manager
	prefix  string
}

// NewUserStores creates the per-user view of a manager. Namespaces are
// "<prefix>:<user id>".
func NewUserStores(manager *Manager, prefix string) *UserStores {
	return &UserStores{manager: manager, prefix: prefix}
}

// Namespace returns the namespace of userID.
func (u *UserStores) Namespace(userID uuid.UUID) string {
	return u.prefix + ":" + userID.String()
}

// Open returns the store of userID.
func (u *UserStores) Open(userID uuid.UUID) (*Store, error) {
	return u.manager.Open(u.Namespace(userID))
}

// Provision names the identity of a new user's store.
func (u *UserStores) Provision(ctx context.Context, userID uuid.UUID, name string) error {
	s, err := u.Open(userID)
	if err != nil {
		return err
	}
	_, err = s.UpdateIdentity(ctx, validation.IdentityUpdate{Name: &name})
	return err
}

// Release closes the open handle of userID. The data is kept.
func (u *UserStores) Release(userID uuid.UUID) {
	u.manager.Dispose(u.Namespace(userID))
}

// Destroy clears the store of userID.
func (u *UserStores) Destroy(ctx context.Context, userID uuid.UUID) error {
	return u.manager.Destroy(ctx, u.Namespace(userID))
}
