package identity

import "context"

// Repository defines the interface for identity data access
type Repository interface {
	// UpsertMany creates or updates identities by ID. A connection keeps a single identity.
	UpsertMany(ctx context.Context, identities []*Identity) ([]*Identity, error)

	// GetByID retrieves an identity. Returns ErrIdentityNotFound when absent.
	GetByID(ctx context.Context, id string) (*Identity, error)

	// GetByConnectionID retrieves the identity of a connection. Returns ErrIdentityNotFound when absent.
	GetByConnectionID(ctx context.Context, connectionID string) (*Identity, error)
}
