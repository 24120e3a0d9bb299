package connection

import "context"

// Repository defines the interface for connection data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Upsert creates or replaces a connection keyed by its provider id
	Upsert(ctx context.Context, c *Connection) (*Connection, error)

	// GetByID retrieves a connection. Returns ErrConnectionNotFound when absent.
	GetByID(ctx context.Context, id string) (*Connection, error)

	// UpdateStatus changes only the status of an existing connection
	UpdateStatus(ctx context.Context, id, status string) (*Connection, error)

	// Delete removes a connection and, through the store's cascades, everything it owns
	Delete(ctx context.Context, id string) error

	List(ctx context.Context) ([]*Connection, error)
}
