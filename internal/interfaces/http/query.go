package http

import (
	"errors"
	"log"
	"net/http"

	"finsync/internal/domain/account"
	"finsync/internal/domain/bill"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/identity"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/loan"
	"finsync/internal/domain/transaction"
)

// QueryRepositories are the stores the read endpoints serve from.
type QueryRepositories struct {
	Connections  connection.Repository
	Accounts     account.Repository
	Transactions transaction.Repository
	Bills        bill.Repository
	Investments  investment.Repository
	Loans        loan.Repository
	Identities   identity.Repository
}

// QueryHandler serves the stored snapshot. It never calls the provider.
type QueryHandler struct {
	repos QueryRepositories
}

func NewQueryHandler(repos QueryRepositories) *QueryHandler {
	return &QueryHandler{repos: repos}
}

// requireConnection writes a 404 and returns false when the connection is not stored.
func (h *QueryHandler) requireConnection(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := h.repos.Connections.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, connection.ErrConnectionNotFound) {
			writeError(w, http.StatusNotFound, "Connection not found")
		} else {
			log.Printf("Error getting connection %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "Failed to get connection")
		}
		return "", false
	}
	return id, true
}

func (h *QueryHandler) requireAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := h.repos.Accounts.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "Account not found")
		} else {
			log.Printf("Error getting account %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "Failed to get account")
		}
		return "", false
	}
	return id, true
}

// HandleListAccounts handles GET /api/connections/{id}/accounts
func (h *QueryHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	connectionID, ok := h.requireConnection(w, r)
	if !ok {
		return
	}

	accounts, err := h.repos.Accounts.ListByConnectionID(r.Context(), connectionID)
	if err != nil {
		log.Printf("Error listing accounts for connection %s: %v", connectionID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(accounts))
}

// HandleListConnectionTransactions handles GET /api/connections/{id}/transactions,
// newest first across every account of the connection.
func (h *QueryHandler) HandleListConnectionTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _, ok := pagination(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	connectionID, ok := h.requireConnection(w, r)
	if !ok {
		return
	}

	accounts, err := h.repos.Accounts.ListByConnectionID(r.Context(), connectionID)
	if err != nil {
		log.Printf("Error listing accounts for connection %s: %v", connectionID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}

	txs, err := h.repos.Transactions.ListByAccountIDs(r.Context(), ids, limit)
	if err != nil {
		log.Printf("Error listing transactions for connection %s: %v", connectionID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(txs))
}

// HandleListTransactions handles GET /api/accounts/{id}/transactions?limit=&offset=
func (h *QueryHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit or offset")
		return
	}
	accountID, ok := h.requireAccount(w, r)
	if !ok {
		return
	}

	txs, err := h.repos.Transactions.ListByAccountID(r.Context(), accountID, limit, offset)
	if err != nil {
		log.Printf("Error listing transactions for account %s: %v", accountID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(txs))
}

// HandleListBills handles GET /api/accounts/{id}/bills
func (h *QueryHandler) HandleListBills(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.requireAccount(w, r)
	if !ok {
		return
	}

	bills, err := h.repos.Bills.ListByAccountID(r.Context(), accountID)
	if err != nil {
		log.Printf("Error listing bills for account %s: %v", accountID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list bills")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(bills))
}

// HandleListInvestments handles GET /api/connections/{id}/investments
func (h *QueryHandler) HandleListInvestments(w http.ResponseWriter, r *http.Request) {
	connectionID, ok := h.requireConnection(w, r)
	if !ok {
		return
	}

	investments, err := h.repos.Investments.ListByConnectionID(r.Context(), connectionID)
	if err != nil {
		log.Printf("Error listing investments for connection %s: %v", connectionID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list investments")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(investments))
}

// HandleListLoans handles GET /api/connections/{id}/loans
func (h *QueryHandler) HandleListLoans(w http.ResponseWriter, r *http.Request) {
	connectionID, ok := h.requireConnection(w, r)
	if !ok {
		return
	}

	loans, err := h.repos.Loans.ListByConnectionID(r.Context(), connectionID)
	if err != nil {
		log.Printf("Error listing loans for connection %s: %v", connectionID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list loans")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(loans))
}

// HandleGetIdentity handles GET /api/connections/{id}/identity
func (h *QueryHandler) HandleGetIdentity(w http.ResponseWriter, r *http.Request) {
	connectionID, ok := h.requireConnection(w, r)
	if !ok {
		return
	}

	id, err := h.repos.Identities.GetByConnectionID(r.Context(), connectionID)
	if errors.Is(err, identity.ErrIdentityNotFound) {
		writeError(w, http.StatusNotFound, "Identity not found")
		return
	}
	if err != nil {
		log.Printf("Error getting identity for connection %s: %v", connectionID, err)
		writeError(w, http.StatusInternalServerError, "Failed to get identity")
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// nonNil makes empty lists encode as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
