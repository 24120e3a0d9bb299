package bill

import "context"

// Repository defines the interface for credit card bill data access
type Repository interface {
	// UpsertMany creates or updates bills by ID in one transaction
	UpsertMany(ctx context.Context, bills []*Bill) ([]*Bill, error)

	// GetByID retrieves a bill by its ID
	GetByID(ctx context.Context, id string) (*Bill, error)

	// ListByAccountID retrieves the bills of a credit account, most recent due date first
	ListByAccountID(ctx context.Context, accountID string) ([]*Bill, error)
}
