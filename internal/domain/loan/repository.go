package loan

import "context"

// Repository defines the interface for loan data access
type Repository interface {
	UpsertMany(ctx context.Context, loans []*Loan) ([]*Loan, error)
	GetByID(ctx context.Context, id string) (*Loan, error)
	ListByConnectionID(ctx context.Context, connectionID string) ([]*Loan, error)
}
