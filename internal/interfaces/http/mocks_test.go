package http

import (
	"context"

	"finsync/internal/domain/account"
	"finsync/internal/domain/bill"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/identity"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/loan"
	"finsync/internal/domain/openfinance"
	"finsync/internal/domain/transaction"
	"finsync/internal/domain/webhook"
	ofclient "finsync/internal/infrastructure/openfinance"
)

// MockConnectionRepo implements connection.Repository for testing
type MockConnectionRepo struct {
	UpsertFunc       func(ctx context.Context, c *connection.Connection) (*connection.Connection, error)
	GetByIDFunc      func(ctx context.Context, id string) (*connection.Connection, error)
	UpdateStatusFunc func(ctx context.Context, id, status string) (*connection.Connection, error)
	DeleteFunc       func(ctx context.Context, id string) error
	ListFunc         func(ctx context.Context) ([]*connection.Connection, error)
}

func (m *MockConnectionRepo) Upsert(ctx context.Context, c *connection.Connection) (*connection.Connection, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, c)
	}
	return c, nil
}

func (m *MockConnectionRepo) GetByID(ctx context.Context, id string) (*connection.Connection, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &connection.Connection{ID: id, Status: connection.StatusUpdated}, nil
}

func (m *MockConnectionRepo) UpdateStatus(ctx context.Context, id, status string) (*connection.Connection, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return &connection.Connection{ID: id, Status: status}, nil
}

func (m *MockConnectionRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockConnectionRepo) List(ctx context.Context) ([]*connection.Connection, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// MockAccountRepo implements account.Repository for testing
type MockAccountRepo struct {
	GetByIDFunc            func(ctx context.Context, id string) (*account.Account, error)
	ListByConnectionIDFunc func(ctx context.Context, connectionID string) ([]*account.Account, error)
}

func (m *MockAccountRepo) UpsertMany(ctx context.Context, accounts []*account.Account) ([]*account.Account, error) {
	return accounts, nil
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &account.Account{ID: id}, nil
}

func (m *MockAccountRepo) ListByConnectionID(ctx context.Context, connectionID string) ([]*account.Account, error) {
	if m.ListByConnectionIDFunc != nil {
		return m.ListByConnectionIDFunc(ctx, connectionID)
	}
	return nil, nil
}

// MockTransactionRepo implements transaction.Repository for testing
type MockTransactionRepo struct {
	ListByAccountIDFunc  func(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error)
	ListByAccountIDsFunc func(ctx context.Context, accountIDs []string, limit int) ([]*transaction.Transaction, error)
}

func (m *MockTransactionRepo) UpsertMany(ctx context.Context, txs []*transaction.Transaction) ([]*transaction.Transaction, error) {
	return txs, nil
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	return nil, transaction.ErrTransactionNotFound
}

func (m *MockTransactionRepo) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
	if m.ListByAccountIDFunc != nil {
		return m.ListByAccountIDFunc(ctx, accountID, limit, offset)
	}
	return nil, nil
}

func (m *MockTransactionRepo) ListByAccountIDs(ctx context.Context, accountIDs []string, limit int) ([]*transaction.Transaction, error) {
	if m.ListByAccountIDsFunc != nil {
		return m.ListByAccountIDsFunc(ctx, accountIDs, limit)
	}
	return nil, nil
}

// MockBillRepo implements bill.Repository for testing
type MockBillRepo struct {
	ListByAccountIDFunc func(ctx context.Context, accountID string) ([]*bill.Bill, error)
}

func (m *MockBillRepo) UpsertMany(ctx context.Context, bills []*bill.Bill) ([]*bill.Bill, error) {
	return bills, nil
}

func (m *MockBillRepo) GetByID(ctx context.Context, id string) (*bill.Bill, error) {
	return nil, bill.ErrBillNotFound
}

func (m *MockBillRepo) ListByAccountID(ctx context.Context, accountID string) ([]*bill.Bill, error) {
	if m.ListByAccountIDFunc != nil {
		return m.ListByAccountIDFunc(ctx, accountID)
	}
	return nil, nil
}

// MockInvestmentRepo implements investment.Repository for testing
type MockInvestmentRepo struct {
	ListByConnectionIDFunc func(ctx context.Context, connectionID string) ([]*investment.Investment, error)
}

func (m *MockInvestmentRepo) UpsertMany(ctx context.Context, in []*investment.Investment) ([]*investment.Investment, error) {
	return in, nil
}

func (m *MockInvestmentRepo) GetByID(ctx context.Context, id string) (*investment.Investment, error) {
	return nil, investment.ErrInvestmentNotFound
}

func (m *MockInvestmentRepo) ListByConnectionID(ctx context.Context, connectionID string) ([]*investment.Investment, error) {
	if m.ListByConnectionIDFunc != nil {
		return m.ListByConnectionIDFunc(ctx, connectionID)
	}
	return nil, nil
}

// MockLoanRepo implements loan.Repository for testing
type MockLoanRepo struct {
	ListByConnectionIDFunc func(ctx context.Context, connectionID string) ([]*loan.Loan, error)
}

func (m *MockLoanRepo) UpsertMany(ctx context.Context, in []*loan.Loan) ([]*loan.Loan, error) {
	return in, nil
}

func (m *MockLoanRepo) GetByID(ctx context.Context, id string) (*loan.Loan, error) {
	return nil, loan.ErrLoanNotFound
}

func (m *MockLoanRepo) ListByConnectionID(ctx context.Context, connectionID string) ([]*loan.Loan, error) {
	if m.ListByConnectionIDFunc != nil {
		return m.ListByConnectionIDFunc(ctx, connectionID)
	}
	return nil, nil
}

// MockIdentityRepo implements identity.Repository for testing
type MockIdentityRepo struct {
	GetByConnectionIDFunc func(ctx context.Context, connectionID string) (*identity.Identity, error)
}

func (m *MockIdentityRepo) UpsertMany(ctx context.Context, in []*identity.Identity) ([]*identity.Identity, error) {
	return in, nil
}

func (m *MockIdentityRepo) GetByID(ctx context.Context, id string) (*identity.Identity, error) {
	return nil, identity.ErrIdentityNotFound
}

func (m *MockIdentityRepo) GetByConnectionID(ctx context.Context, connectionID string) (*identity.Identity, error) {
	if m.GetByConnectionIDFunc != nil {
		return m.GetByConnectionIDFunc(ctx, connectionID)
	}
	return nil, identity.ErrIdentityNotFound
}

// MockEventRouter implements EventRouter for testing
type MockEventRouter struct {
	HandleFunc func(ctx context.Context, env *webhook.Envelope) error
	handled    []*webhook.Envelope
}

func (m *MockEventRouter) Handle(ctx context.Context, env *webhook.Envelope) error {
	m.handled = append(m.handled, env)
	if m.HandleFunc != nil {
		return m.HandleFunc(ctx, env)
	}
	return nil
}

// MockSyncer implements ConnectionSyncer for testing
type MockSyncer struct {
	RefreshConnectionFunc func(ctx context.Context, connectionID string) (*connection.Connection, *openfinance.SyncResult, error)
}

func (m *MockSyncer) RefreshConnection(ctx context.Context, connectionID string) (*connection.Connection, *openfinance.SyncResult, error) {
	if m.RefreshConnectionFunc != nil {
		return m.RefreshConnectionFunc(ctx, connectionID)
	}
	return &connection.Connection{ID: connectionID}, &openfinance.SyncResult{ConnectionID: connectionID}, nil
}

// MockProvider implements ProviderConnections for testing
type MockProvider struct {
	CreateConnectTokenFunc func(ctx context.Context, req ofclient.ConnectTokenRequest) (*ofclient.ConnectToken, error)
	DeleteConnectionFunc   func(ctx context.Context, itemID string) error
}

func (m *MockProvider) CreateConnectToken(ctx context.Context, req ofclient.ConnectTokenRequest) (*ofclient.ConnectToken, error) {
	if m.CreateConnectTokenFunc != nil {
		return m.CreateConnectTokenFunc(ctx, req)
	}
	return &ofclient.ConnectToken{AccessToken: "token"}, nil
}

func (m *MockProvider) DeleteConnection(ctx context.Context, itemID string) error {
	if m.DeleteConnectionFunc != nil {
		return m.DeleteConnectionFunc(ctx, itemID)
	}
	return nil
}
