package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Account types (from Open Finance API)
const (
	TypeBank           = "BANK"
	TypeCredit         = "CREDIT"
	TypePaymentAccount = "PAYMENT_ACCOUNT"
)

var accountTypes = map[string]struct{}{
	TypeBank:           {},
	TypeCredit:         {},
	TypePaymentAccount: {},
}

// Domain errors
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidAccountType = errors.New("invalid account type")
)

// BankData holds checking/savings specific balances
type BankData struct {
	TransferNumber               *string             `json:"transferNumber,omitempty"`
	ClosingBalance               decimal.NullDecimal `json:"closingBalance"`
	AutomaticallyInvestedBalance decimal.NullDecimal `json:"automaticallyInvestedBalance"`
}

// CreditData holds the credit card limits and brand of a CREDIT account
type CreditData struct {
	Level                  *string             `json:"level,omitempty"`
	Brand                  *string             `json:"brand,omitempty"`
	Status                 *string             `json:"status,omitempty"`
	BalanceCloseDate       *time.Time          `json:"balanceCloseDate,omitempty"`
	BalanceDueDate         *time.Time          `json:"balanceDueDate,omitempty"`
	AvailableCreditLimit   decimal.NullDecimal `json:"availableCreditLimit"`
	BalanceForeignCurrency decimal.NullDecimal `json:"balanceForeignCurrency"`
	MinimumPayment         decimal.NullDecimal `json:"minimumPayment"`
	CreditLimit            decimal.NullDecimal `json:"creditLimit"`
}

// Account represents a financial account domain entity
type Account struct {
	ID            string          `json:"id"` // Provider's account ID
	ConnectionID  string          `json:"connectionId"`
	Type          string          `json:"type"`
	Subtype       string          `json:"subtype"`
	Number        string          `json:"number"`
	Name          string          `json:"name"`
	MarketingName *string         `json:"marketingName,omitempty"`
	Owner         *string         `json:"owner,omitempty"`
	TaxNumber     *string         `json:"taxNumber,omitempty"`
	Balance       decimal.Decimal `json:"balance"` // signed
	CurrencyCode  string          `json:"currencyCode"`
	BankData      *BankData       `json:"bankData,omitempty"`
	CreditData    *CreditData     `json:"creditData,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// IsCredit reports whether the account is a credit card account and therefore has bills.
func (a *Account) IsCredit() bool {
	return a.Type == TypeCredit
}

// IsValidAccountType checks if the provided account type is valid.
func IsValidAccountType(t string) bool {
	_, ok := accountTypes[t]
	return ok
}
