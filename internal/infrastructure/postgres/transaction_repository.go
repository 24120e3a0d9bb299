package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"finsync/internal/domain/account"
	"finsync/internal/domain/transaction"
)

var transactionColumns = []string{
	"id", "account_id", "description", "description_raw", "currency_code", "amount",
	"amount_in_account_currency", "date", "category", "category_id", "balance",
	"provider_code", "status", "type", "credit_card_metadata", "merchant",
}

var transactionUpsertQuery = upsertQuery("transactions", transactionColumns)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// UpsertMany creates or updates transactions in one transaction. A transaction whose
// account is not stored fails with account.ErrAccountNotFound.
func (r *TransactionRepository) UpsertMany(ctx context.Context, txs []*transaction.Transaction) ([]*transaction.Transaction, error) {
	saved, err := upsertAll(ctx, r.db, txs, func(t *transaction.Transaction) string { return t.ID }, func(q querier, t *transaction.Transaction) (*transaction.Transaction, error) {
		return r.upsert(ctx, q, t)
	})
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("failed to upsert transactions: %w", account.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert transactions: %w", err)
	}
	return saved, nil
}

func (r *TransactionRepository) upsert(ctx context.Context, q querier, t *transaction.Transaction) (*transaction.Transaction, error) {
	metadata, err := jsonbParam(t.CreditCardMetadata)
	if err != nil {
		return nil, err
	}
	merchant, err := jsonbParam(t.Merchant)
	if err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, transactionUpsertQuery,
		t.ID, t.AccountID, t.Description, t.DescriptionRaw, t.CurrencyCode, t.Amount,
		t.AmountInAccountCurrency, t.Date, t.Category, t.CategoryID, t.Balance,
		t.ProviderCode, t.Status, t.Type, metadata, merchant,
	)

	saved, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	return saved, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	query := `SELECT ` + selectColumns(transactionColumns) + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + selectColumns(transactionColumns) + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY date DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (r *TransactionRepository) ListByAccountIDs(ctx context.Context, accountIDs []string, limit int) ([]*transaction.Transaction, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + selectColumns(transactionColumns) + `
		FROM transactions
		WHERE account_id = ANY($1)
		ORDER BY date DESC, id
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(accountIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by accounts: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*transaction.Transaction, error) {
	var txs []*transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var t transaction.Transaction
	var metadata, merchant []byte

	err := row.Scan(
		&t.ID, &t.AccountID, &t.Description, &t.DescriptionRaw, &t.CurrencyCode, &t.Amount,
		&t.AmountInAccountCurrency, &t.Date, &t.Category, &t.CategoryID, &t.Balance,
		&t.ProviderCode, &t.Status, &t.Type, &metadata, &merchant,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		t.CreditCardMetadata = &transaction.CreditCardMetadata{}
		if err := scanJSONB(metadata, t.CreditCardMetadata); err != nil {
			return nil, err
		}
	}
	if len(merchant) > 0 {
		t.Merchant = &transaction.Merchant{}
		if err := scanJSONB(merchant, t.Merchant); err != nil {
			return nil, err
		}
	}

	t.Date = utc(t.Date)
	t.CreatedAt = utc(t.CreatedAt)
	t.UpdatedAt = utc(t.UpdatedAt)
	return &t, nil
}
