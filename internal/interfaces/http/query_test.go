package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"finsync/internal/domain/account"
	"finsync/internal/domain/bill"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/identity"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/loan"
	"finsync/internal/domain/transaction"
)

func newTestQueryHandler(repos QueryRepositories) *QueryHandler {
	if repos.Connections == nil {
		repos.Connections = &MockConnectionRepo{}
	}
	if repos.Accounts == nil {
		repos.Accounts = &MockAccountRepo{}
	}
	if repos.Transactions == nil {
		repos.Transactions = &MockTransactionRepo{}
	}
	if repos.Bills == nil {
		repos.Bills = &MockBillRepo{}
	}
	if repos.Investments == nil {
		repos.Investments = &MockInvestmentRepo{}
	}
	if repos.Loans == nil {
		repos.Loans = &MockLoanRepo{}
	}
	if repos.Identities == nil {
		repos.Identities = &MockIdentityRepo{}
	}
	return NewQueryHandler(repos)
}

func doQuery(handler http.HandlerFunc, target, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

var missingConnection = &MockConnectionRepo{
	GetByIDFunc: func(ctx context.Context, id string) (*connection.Connection, error) {
		return nil, connection.ErrConnectionNotFound
	},
}

var missingAccount = &MockAccountRepo{
	GetByIDFunc: func(ctx context.Context, id string) (*account.Account, error) {
		return nil, account.ErrAccountNotFound
	},
}

func TestQueryHandler_UnknownConnection(t *testing.T) {
	h := newTestQueryHandler(QueryRepositories{Connections: missingConnection})

	endpoints := map[string]http.HandlerFunc{
		"accounts":     h.HandleListAccounts,
		"transactions": h.HandleListConnectionTransactions,
		"investments":  h.HandleListInvestments,
		"loans":        h.HandleListLoans,
		"identity":     h.HandleGetIdentity,
	}

	for name, handler := range endpoints {
		t.Run(name, func(t *testing.T) {
			rec := doQuery(handler, "/api/connections/nope/"+name, "nope")
			if rec.Code != http.StatusNotFound {
				t.Errorf("expected status 404, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "Connection not found") {
				t.Errorf("unexpected body %s", rec.Body.String())
			}
		})
	}
}

func TestQueryHandler_UnknownAccount(t *testing.T) {
	h := newTestQueryHandler(QueryRepositories{Accounts: missingAccount})

	for name, handler := range map[string]http.HandlerFunc{
		"transactions": h.HandleListTransactions,
		"bills":        h.HandleListBills,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doQuery(handler, "/api/accounts/nope/"+name, "nope")
			if rec.Code != http.StatusNotFound {
				t.Errorf("expected status 404, got %d", rec.Code)
			}
		})
	}
}

func TestHandleListAccounts_EmptyIsArray(t *testing.T) {
	h := newTestQueryHandler(QueryRepositories{})

	rec := doQuery(h.HandleListAccounts, "/api/connections/conn-1/accounts", "conn-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("expected [], got %s", got)
	}
}

func TestHandleListAccounts_StoreFailure(t *testing.T) {
	h := newTestQueryHandler(QueryRepositories{
		Accounts: &MockAccountRepo{
			ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*account.Account, error) {
				return nil, errors.New("database down")
			},
		},
	})

	rec := doQuery(h.HandleListAccounts, "/api/connections/conn-1/accounts", "conn-1")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}

func TestHandleListTransactions_Pagination(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		wantLimit      int
		wantOffset     int
	}{
		{name: "Defaults", query: "", expectedStatus: http.StatusOK, wantLimit: 100, wantOffset: 0},
		{name: "Explicit", query: "?limit=20&offset=40", expectedStatus: http.StatusOK, wantLimit: 20, wantOffset: 40},
		{name: "Capped", query: "?limit=10000", expectedStatus: http.StatusOK, wantLimit: 500, wantOffset: 0},
		{name: "Zero limit", query: "?limit=0", expectedStatus: http.StatusBadRequest},
		{name: "Negative offset", query: "?offset=-1", expectedStatus: http.StatusBadRequest},
		{name: "Not a number", query: "?limit=abc", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit, gotOffset int
			h := newTestQueryHandler(QueryRepositories{
				Transactions: &MockTransactionRepo{
					ListByAccountIDFunc: func(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
						gotLimit, gotOffset = limit, offset
						return []*transaction.Transaction{{ID: "tx-1", AccountID: accountID}}, nil
					},
				},
			})

			rec := doQuery(h.HandleListTransactions, "/api/accounts/acc-1/transactions"+tt.query, "acc-1")
			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("expected limit=%d offset=%d, got limit=%d offset=%d", tt.wantLimit, tt.wantOffset, gotLimit, gotOffset)
			}
		})
	}
}

func TestHandleListConnectionTransactions(t *testing.T) {
	var gotIDs []string
	var gotLimit int
	h := newTestQueryHandler(QueryRepositories{
		Accounts: &MockAccountRepo{
			ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*account.Account, error) {
				return []*account.Account{{ID: "acc-1"}, {ID: "acc-2"}}, nil
			},
		},
		Transactions: &MockTransactionRepo{
			ListByAccountIDsFunc: func(ctx context.Context, accountIDs []string, limit int) ([]*transaction.Transaction, error) {
				gotIDs, gotLimit = accountIDs, limit
				return []*transaction.Transaction{{ID: "tx-2", AccountID: "acc-2"}, {ID: "tx-1", AccountID: "acc-1"}}, nil
			},
		},
	})

	rec := doQuery(h.HandleListConnectionTransactions, "/api/connections/conn-1/transactions?limit=50", "conn-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !reflect.DeepEqual(gotIDs, []string{"acc-1", "acc-2"}) {
		t.Errorf("unexpected account ids %v", gotIDs)
	}
	if gotLimit != 50 {
		t.Errorf("expected limit 50, got %d", gotLimit)
	}

	var txs []transaction.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&txs); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(txs) != 2 || txs[0].ID != "tx-2" {
		t.Errorf("unexpected transactions %+v", txs)
	}
}

func TestHandleListBills(t *testing.T) {
	h := newTestQueryHandler(QueryRepositories{
		Bills: &MockBillRepo{
			ListByAccountIDFunc: func(ctx context.Context, accountID string) ([]*bill.Bill, error) {
				return []*bill.Bill{{ID: "bill-1", AccountID: accountID}}, nil
			},
		},
	})

	rec := doQuery(h.HandleListBills, "/api/accounts/acc-1/bills", "acc-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var bills []bill.Bill
	if err := json.NewDecoder(rec.Body).Decode(&bills); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(bills) != 1 || bills[0].AccountID != "acc-1" {
		t.Errorf("unexpected bills %+v", bills)
	}
}

func TestHandleListInvestmentsAndLoans(t *testing.T) {
	h := newTestQueryHandler(QueryRepositories{
		Investments: &MockInvestmentRepo{
			ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*investment.Investment, error) {
				return []*investment.Investment{{ID: "inv-1", ConnectionID: connectionID, Name: "CDB"}}, nil
			},
		},
		Loans: &MockLoanRepo{
			ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*loan.Loan, error) {
				return nil, nil
			},
		},
	})

	rec := doQuery(h.HandleListInvestments, "/api/connections/conn-1/investments", "conn-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"inv-1"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	rec = doQuery(h.HandleListLoans, "/api/connections/conn-1/loans", "conn-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("expected [], got %s", got)
	}
}

func TestHandleGetIdentity(t *testing.T) {
	name := "Maria Silva"
	tests := []struct {
		name           string
		repo           *MockIdentityRepo
		expectedStatus int
	}{
		{
			name: "Found",
			repo: &MockIdentityRepo{
				GetByConnectionIDFunc: func(ctx context.Context, connectionID string) (*identity.Identity, error) {
					return &identity.Identity{ID: "id-1", ConnectionID: connectionID, FullName: &name}, nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "No identity for connection",
			repo:           &MockIdentityRepo{},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Store failure",
			repo: &MockIdentityRepo{
				GetByConnectionIDFunc: func(ctx context.Context, connectionID string) (*identity.Identity, error) {
					return nil, errors.New("decrypt failed")
				},
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestQueryHandler(QueryRepositories{Identities: tt.repo})

			rec := doQuery(h.HandleGetIdentity, "/api/connections/conn-1/identity", "conn-1")
			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}
