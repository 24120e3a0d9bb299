package transaction

import (
	"context"
)

// Repository defines the interface for transaction data access
type Repository interface {
	// UpsertMany creates or updates transactions by ID in one transaction.
	// Re-upserting an unchanged transaction leaves its business columns untouched.
	UpsertMany(ctx context.Context, txs []*Transaction) ([]*Transaction, error)
	GetByID(ctx context.Context, id string) (*Transaction, error)
	ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*Transaction, error)
	// ListByAccountIDs returns the most recent transactions across several accounts
	ListByAccountIDs(ctx context.Context, accountIDs []string, limit int) ([]*Transaction, error)
}
