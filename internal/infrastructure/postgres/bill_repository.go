package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finsync/internal/domain/bill"
)

var billColumns = []string{
	"id", "account_id", "due_date", "total_amount", "total_amount_currency_code",
	"minimum_payment_amount", "allows_installments", "finance_charges",
}

var billUpsertQuery = upsertQuery("credit_card_bills", billColumns)

type BillRepository struct {
	db *DB
}

func NewBillRepository(db *DB) *BillRepository {
	return &BillRepository{db: db}
}

func (r *BillRepository) UpsertMany(ctx context.Context, bills []*bill.Bill) ([]*bill.Bill, error) {
	saved, err := upsertAll(ctx, r.db, bills, func(b *bill.Bill) string { return b.ID }, func(q querier, b *bill.Bill) (*bill.Bill, error) {
		charges, err := jsonbParam(b.FinanceCharges)
		if err != nil {
			return nil, err
		}

		row := q.QueryRowContext(ctx, billUpsertQuery,
			b.ID, b.AccountID, b.DueDate, b.TotalAmount, b.TotalAmountCurrencyCode,
			b.MinimumPaymentAmount, b.AllowsInstallments, charges,
		)
		saved, err := scanBill(row)
		if err != nil {
			return nil, fmt.Errorf("bill %s: %w", b.ID, err)
		}
		return saved, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert bills: %w", err)
	}
	return saved, nil
}

func (r *BillRepository) GetByID(ctx context.Context, id string) (*bill.Bill, error) {
	query := `SELECT ` + selectColumns(billColumns) + ` FROM credit_card_bills WHERE id = $1`

	b, err := scanBill(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bill.ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return b, nil
}

func (r *BillRepository) ListByAccountID(ctx context.Context, accountID string) ([]*bill.Bill, error) {
	query := `
		SELECT ` + selectColumns(billColumns) + `
		FROM credit_card_bills
		WHERE account_id = $1
		ORDER BY due_date DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*bill.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bills: %w", err)
	}
	return bills, nil
}

func scanBill(row rowScanner) (*bill.Bill, error) {
	var b bill.Bill
	var charges []byte

	err := row.Scan(
		&b.ID, &b.AccountID, &b.DueDate, &b.TotalAmount, &b.TotalAmountCurrencyCode,
		&b.MinimumPaymentAmount, &b.AllowsInstallments, &charges,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := scanJSONB(charges, &b.FinanceCharges); err != nil {
		return nil, err
	}

	b.DueDate = utc(b.DueDate)
	b.CreatedAt = utc(b.CreatedAt)
	b.UpdatedAt = utc(b.UpdatedAt)
	return &b, nil
}
