package openfinance

import (
	"context"
)

// ClientInterface defines the methods required from the Open Finance API client
type ClientInterface interface {
	FetchConnection(ctx context.Context, itemID string) (*Item, error)
	FetchAccounts(ctx context.Context, itemID string) ([]Account, error)
	FetchTransactions(ctx context.Context, accountID string) ([]Transaction, error)
	FetchInvestments(ctx context.Context, itemID string) ([]Investment, error)
	FetchInvestmentTransactions(ctx context.Context, investmentID string) ([]InvestmentTransaction, error)
	FetchLoans(ctx context.Context, itemID string) ([]Loan, error)
	FetchCreditCardBills(ctx context.Context, accountID string) ([]Bill, error)
	FetchIdentity(ctx context.Context, itemID string) (*Identity, error) // ErrNotFound when the item has no identity
	CreateConnectToken(ctx context.Context, req ConnectTokenRequest) (*ConnectToken, error)
	DeleteConnection(ctx context.Context, itemID string) error
}
