package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finsync/internal/domain/account"
)

var accountColumns = []string{
	"id", "connection_id", "type", "subtype", "number", "name", "marketing_name", "owner",
	"tax_number", "balance", "currency_code", "bank_data", "credit_data",
}

var accountUpsertQuery = upsertQuery("accounts", accountColumns)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// UpsertMany creates or updates accounts in one transaction
func (r *AccountRepository) UpsertMany(ctx context.Context, accounts []*account.Account) ([]*account.Account, error) {
	saved, err := upsertAll(ctx, r.db, accounts, func(a *account.Account) string { return a.ID }, func(q querier, a *account.Account) (*account.Account, error) {
		return r.upsert(ctx, q, a)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert accounts: %w", err)
	}
	return saved, nil
}

func (r *AccountRepository) upsert(ctx context.Context, q querier, a *account.Account) (*account.Account, error) {
	bankData, err := jsonbParam(a.BankData)
	if err != nil {
		return nil, err
	}
	creditData, err := jsonbParam(a.CreditData)
	if err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, accountUpsertQuery,
		a.ID, a.ConnectionID, a.Type, a.Subtype, a.Number, a.Name, a.MarketingName, a.Owner,
		a.TaxNumber, a.Balance, a.CurrencyCode, bankData, creditData,
	)

	saved, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", a.ID, err)
	}
	return saved, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT ` + selectColumns(accountColumns) + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// ListByConnectionID retrieves all accounts of a connection
func (r *AccountRepository) ListByConnectionID(ctx context.Context, connectionID string) ([]*account.Account, error) {
	query := `SELECT ` + selectColumns(accountColumns) + ` FROM accounts WHERE connection_id = $1 ORDER BY type, name`

	rows, err := r.db.QueryContext(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var acc account.Account
	var bankData, creditData []byte

	err := row.Scan(
		&acc.ID, &acc.ConnectionID, &acc.Type, &acc.Subtype, &acc.Number, &acc.Name,
		&acc.MarketingName, &acc.Owner, &acc.TaxNumber, &acc.Balance, &acc.CurrencyCode,
		&bankData, &creditData, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(bankData) > 0 {
		acc.BankData = &account.BankData{}
		if err := scanJSONB(bankData, acc.BankData); err != nil {
			return nil, err
		}
	}
	if len(creditData) > 0 {
		acc.CreditData = &account.CreditData{}
		if err := scanJSONB(creditData, acc.CreditData); err != nil {
			return nil, err
		}
	}

	acc.CreatedAt = utc(acc.CreatedAt)
	acc.UpdatedAt = utc(acc.UpdatedAt)
	return &acc, nil
}
