package bill

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrBillNotFound = errors.New("bill not found")
)

// FinanceCharge is an interest, late fee or IOF charge on a bill
type FinanceCharge struct {
	Type           string              `json:"type"`
	Amount         decimal.NullDecimal `json:"amount"`
	CurrencyCode   *string             `json:"currencyCode,omitempty"`
	AdditionalInfo *string             `json:"additionalInfo,omitempty"`
}

// Bill represents a credit card bill domain entity. Only CREDIT accounts have bills.
type Bill struct {
	ID                      string              `json:"id"` // Provider's bill ID (UUID string)
	AccountID               string              `json:"accountId"`
	DueDate                 time.Time           `json:"dueDate"`
	TotalAmount             decimal.Decimal     `json:"totalAmount"`
	TotalAmountCurrencyCode string              `json:"totalAmountCurrencyCode"`
	MinimumPaymentAmount    decimal.NullDecimal `json:"minimumPaymentAmount"`
	AllowsInstallments      *bool               `json:"allowsInstallments,omitempty"`
	FinanceCharges          []FinanceCharge     `json:"financeCharges"`
	CreatedAt               time.Time           `json:"createdAt"`
	UpdatedAt               time.Time           `json:"updatedAt"`
}
