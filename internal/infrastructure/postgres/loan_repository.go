package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finsync/internal/domain/loan"
)

var loanColumns = []string{
	"id", "connection_id", "contract_number", "ipoc_code", "product_name", "type", "date",
	"contract_date", "settlement_date", "due_date", "contract_amount", "currency_code",
	"installment_periodicity", "cet", "interest_rates", "warranties", "installments",
}

var loanUpsertQuery = upsertQuery("loans", loanColumns)

type LoanRepository struct {
	db *DB
}

func NewLoanRepository(db *DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) UpsertMany(ctx context.Context, loans []*loan.Loan) ([]*loan.Loan, error) {
	saved, err := upsertAll(ctx, r.db, loans, func(l *loan.Loan) string { return l.ID }, func(q querier, l *loan.Loan) (*loan.Loan, error) {
		return r.upsert(ctx, q, l)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert loans: %w", err)
	}
	return saved, nil
}

func (r *LoanRepository) upsert(ctx context.Context, q querier, l *loan.Loan) (*loan.Loan, error) {
	rates, err := jsonbParam(l.InterestRates)
	if err != nil {
		return nil, err
	}
	warranties, err := jsonbParam(l.Warranties)
	if err != nil {
		return nil, err
	}
	installments, err := jsonbParam(l.Installments)
	if err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, loanUpsertQuery,
		l.ID, l.ConnectionID, l.ContractNumber, l.IPOCCode, l.ProductName, l.Type, l.Date,
		l.ContractDate, l.SettlementDate, l.DueDate, l.ContractAmount, l.CurrencyCode,
		l.InstallmentPeriodicity, l.CET, rates, warranties, installments,
	)

	saved, err := scanLoan(row)
	if err != nil {
		return nil, fmt.Errorf("loan %s: %w", l.ID, err)
	}
	return saved, nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.Loan, error) {
	query := `SELECT ` + selectColumns(loanColumns) + ` FROM loans WHERE id = $1`

	l, err := scanLoan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, loan.ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return l, nil
}

func (r *LoanRepository) ListByConnectionID(ctx context.Context, connectionID string) ([]*loan.Loan, error) {
	query := `SELECT ` + selectColumns(loanColumns) + ` FROM loans WHERE connection_id = $1 ORDER BY contract_date DESC NULLS LAST, id`

	rows, err := r.db.QueryContext(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []*loan.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loans: %w", err)
	}
	return loans, nil
}

func scanLoan(row rowScanner) (*loan.Loan, error) {
	var l loan.Loan
	var rates, warranties, installments []byte

	err := row.Scan(
		&l.ID, &l.ConnectionID, &l.ContractNumber, &l.IPOCCode, &l.ProductName, &l.Type, &l.Date,
		&l.ContractDate, &l.SettlementDate, &l.DueDate, &l.ContractAmount, &l.CurrencyCode,
		&l.InstallmentPeriodicity, &l.CET, &rates, &warranties, &installments,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := scanJSONB(rates, &l.InterestRates); err != nil {
		return nil, err
	}
	if err := scanJSONB(warranties, &l.Warranties); err != nil {
		return nil, err
	}
	if len(installments) > 0 {
		l.Installments = &loan.Installments{}
		if err := scanJSONB(installments, l.Installments); err != nil {
			return nil, err
		}
	}

	l.Date = utcPtr(l.Date)
	l.ContractDate = utcPtr(l.ContractDate)
	l.SettlementDate = utcPtr(l.SettlementDate)
	l.DueDate = utcPtr(l.DueDate)
	l.CreatedAt = utc(l.CreatedAt)
	l.UpdatedAt = utc(l.UpdatedAt)
	return &l, nil
}
