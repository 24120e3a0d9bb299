package investment

import "context"

// Repository defines the interface for investment data access
type Repository interface {
	UpsertMany(ctx context.Context, investments []*Investment) ([]*Investment, error)
	GetByID(ctx context.Context, id string) (*Investment, error)
	ListByConnectionID(ctx context.Context, connectionID string) ([]*Investment, error)
}

// TransactionRepository defines the interface for investment transaction data access
type TransactionRepository interface {
	UpsertMany(ctx context.Context, txs []*Transaction) ([]*Transaction, error)
	GetByID(ctx context.Context, id string) (*Transaction, error)
	ListByInvestmentID(ctx context.Context, investmentID string) ([]*Transaction, error)
}
