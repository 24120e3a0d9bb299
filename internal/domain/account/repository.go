package account

import "context"

// Repository defines the interface for account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// UpsertMany creates or updates accounts by ID in one transaction and
	// returns the saved rows in input order
	UpsertMany(ctx context.Context, accounts []*Account) ([]*Account, error)

	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id string) (*Account, error)

	// ListByConnectionID retrieves all accounts of a connection
	ListByConnectionID(ctx context.Context, connectionID string) ([]*Account, error)
}
