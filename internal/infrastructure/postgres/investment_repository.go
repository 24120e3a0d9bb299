package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finsync/internal/domain/investment"
)

var investmentColumns = []string{
	"id", "connection_id", "name", "code", "isin", "number", "type", "subtype", "currency_code",
	"balance", "amount", "value", "quantity", "taxes", "amount_profit", "amount_original",
	"annual_rate", "last_month_rate", "last_twelve_months_rate", "rate", "rate_type",
	"date", "due_date", "issue_date", "issuer", "owner", "status",
}

var investmentUpsertQuery = upsertQuery("investments", investmentColumns)

var investmentTransactionColumns = []string{
	"id", "investment_id", "type", "movement_type", "description", "quantity", "value",
	"amount", "net_amount", "date", "trade_date", "brokerage_number", "expenses",
}

var investmentTransactionUpsertQuery = upsertQuery("investment_transactions", investmentTransactionColumns)

// InvestmentRepository implements investment.Repository for PostgreSQL
type InvestmentRepository struct {
	db *DB
}

func NewInvestmentRepository(db *DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) UpsertMany(ctx context.Context, investments []*investment.Investment) ([]*investment.Investment, error) {
	saved, err := upsertAll(ctx, r.db, investments, func(i *investment.Investment) string { return i.ID }, func(q querier, i *investment.Investment) (*investment.Investment, error) {
		row := q.QueryRowContext(ctx, investmentUpsertQuery,
			i.ID, i.ConnectionID, i.Name, i.Code, i.ISIN, i.Number, i.Type, i.Subtype, i.CurrencyCode,
			i.Balance, i.Amount, i.Value, i.Quantity, i.Taxes, i.AmountProfit, i.AmountOriginal,
			i.AnnualRate, i.LastMonthRate, i.LastTwelveMonthsRate, i.Rate, i.RateType,
			i.Date, i.DueDate, i.IssueDate, i.Issuer, i.Owner, i.Status,
		)
		saved, err := scanInvestment(row)
		if err != nil {
			return nil, fmt.Errorf("investment %s: %w", i.ID, err)
		}
		return saved, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert investments: %w", err)
	}
	return saved, nil
}

func (r *InvestmentRepository) GetByID(ctx context.Context, id string) (*investment.Investment, error) {
	query := `SELECT ` + selectColumns(investmentColumns) + ` FROM investments WHERE id = $1`

	i, err := scanInvestment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, investment.ErrInvestmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return i, nil
}

func (r *InvestmentRepository) ListByConnectionID(ctx context.Context, connectionID string) ([]*investment.Investment, error) {
	query := `SELECT ` + selectColumns(investmentColumns) + ` FROM investments WHERE connection_id = $1 ORDER BY type, name`

	rows, err := r.db.QueryContext(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	var investments []*investment.Investment
	for rows.Next() {
		i, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investments: %w", err)
	}
	return investments, nil
}

func scanInvestment(row rowScanner) (*investment.Investment, error) {
	var i investment.Investment
	err := row.Scan(
		&i.ID, &i.ConnectionID, &i.Name, &i.Code, &i.ISIN, &i.Number, &i.Type, &i.Subtype, &i.CurrencyCode,
		&i.Balance, &i.Amount, &i.Value, &i.Quantity, &i.Taxes, &i.AmountProfit, &i.AmountOriginal,
		&i.AnnualRate, &i.LastMonthRate, &i.LastTwelveMonthsRate, &i.Rate, &i.RateType,
		&i.Date, &i.DueDate, &i.IssueDate, &i.Issuer, &i.Owner, &i.Status,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	i.Date = utcPtr(i.Date)
	i.DueDate = utcPtr(i.DueDate)
	i.IssueDate = utcPtr(i.IssueDate)
	i.CreatedAt = utc(i.CreatedAt)
	i.UpdatedAt = utc(i.UpdatedAt)
	return &i, nil
}

// InvestmentTransactionRepository implements investment.TransactionRepository for PostgreSQL
type InvestmentTransactionRepository struct {
	db *DB
}

func NewInvestmentTransactionRepository(db *DB) *InvestmentTransactionRepository {
	return &InvestmentTransactionRepository{db: db}
}

func (r *InvestmentTransactionRepository) UpsertMany(ctx context.Context, txs []*investment.Transaction) ([]*investment.Transaction, error) {
	saved, err := upsertAll(ctx, r.db, txs, func(t *investment.Transaction) string { return t.ID }, func(q querier, t *investment.Transaction) (*investment.Transaction, error) {
		expenses, err := jsonbParam(t.Expenses)
		if err != nil {
			return nil, err
		}

		row := q.QueryRowContext(ctx, investmentTransactionUpsertQuery,
			t.ID, t.InvestmentID, t.Type, t.MovementType, t.Description, t.Quantity, t.Value,
			t.Amount, t.NetAmount, t.Date, t.TradeDate, t.BrokerageNumber, expenses,
		)
		saved, err := scanInvestmentTransaction(row)
		if err != nil {
			return nil, fmt.Errorf("investment transaction %s: %w", t.ID, err)
		}
		return saved, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert investment transactions: %w", err)
	}
	return saved, nil
}

func (r *InvestmentTransactionRepository) GetByID(ctx context.Context, id string) (*investment.Transaction, error) {
	query := `SELECT ` + selectColumns(investmentTransactionColumns) + ` FROM investment_transactions WHERE id = $1`

	t, err := scanInvestmentTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, investment.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment transaction: %w", err)
	}
	return t, nil
}

func (r *InvestmentTransactionRepository) ListByInvestmentID(ctx context.Context, investmentID string) ([]*investment.Transaction, error) {
	query := `
		SELECT ` + selectColumns(investmentTransactionColumns) + `
		FROM investment_transactions
		WHERE investment_id = $1
		ORDER BY date DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, investmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investment transactions: %w", err)
	}
	defer rows.Close()

	var txs []*investment.Transaction
	for rows.Next() {
		t, err := scanInvestmentTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment transactions: %w", err)
	}
	return txs, nil
}

func scanInvestmentTransaction(row rowScanner) (*investment.Transaction, error) {
	var t investment.Transaction
	var expenses []byte

	err := row.Scan(
		&t.ID, &t.InvestmentID, &t.Type, &t.MovementType, &t.Description, &t.Quantity, &t.Value,
		&t.Amount, &t.NetAmount, &t.Date, &t.TradeDate, &t.BrokerageNumber, &expenses,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(expenses) > 0 {
		t.Expenses = &investment.Expenses{}
		if err := scanJSONB(expenses, t.Expenses); err != nil {
			return nil, err
		}
	}

	t.Date = utc(t.Date)
	t.TradeDate = utcPtr(t.TradeDate)
	t.CreatedAt = utc(t.CreatedAt)
	t.UpdatedAt = utc(t.UpdatedAt)
	return &t, nil
}
