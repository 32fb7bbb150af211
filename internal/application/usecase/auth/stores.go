package auth

import (
	"context"

	"github.com/google/uuid"
)

// UserStores creates and removes the local store that belongs to a user.
type UserStores interface {
	Provision(ctx context.Context, userID uuid.UUID, name string) error
	Destroy(ctx context.Context, userID uuid.UUID) error
}

// Sessions drops what the server keeps open for a signed-out user: the
// sync engine and the store handle. The user's data stays.
type Sessions interface {
	Release(userID uuid.UUID)
}
