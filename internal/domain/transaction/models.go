package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses
const (
	StatusPosted  = "POSTED"
	StatusPending = "PENDING"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// CreditCardMetadata carries installment data for card purchases
type CreditCardMetadata struct {
	InstallmentNumber *int                `json:"installmentNumber,omitempty"`
	TotalInstallments *int                `json:"totalInstallments,omitempty"`
	TotalAmount       decimal.NullDecimal `json:"totalAmount"`
	PurchaseDate      *time.Time          `json:"purchaseDate,omitempty"`
	PayeeMCC          *int                `json:"payeeMCC,omitempty"`
	CardNumber        *string             `json:"cardNumber,omitempty"`
	BillID            *string             `json:"billId,omitempty"`
}

type Merchant struct {
	Name         string  `json:"name"`
	BusinessName *string `json:"businessName,omitempty"`
	CNPJ         *string `json:"cnpj,omitempty"`
	Category     *string `json:"category,omitempty"`
}

type Transaction struct {
	ID                      string              `json:"id"` // Provider's transaction id (UUID string)
	AccountID               string              `json:"accountId"`
	Description             string              `json:"description"`
	DescriptionRaw          *string             `json:"descriptionRaw,omitempty"`
	CurrencyCode            string              `json:"currencyCode"`
	Amount                  decimal.Decimal     `json:"amount"` // signed
	AmountInAccountCurrency decimal.NullDecimal `json:"amountInAccountCurrency"`
	Date                    time.Time           `json:"date"`
	Category                *string             `json:"category,omitempty"`
	CategoryID              *string             `json:"categoryId,omitempty"`
	Balance                 decimal.NullDecimal `json:"balance"`
	ProviderCode            *string             `json:"providerCode,omitempty"`
	Status                  string              `json:"status"` // "PENDING" or "POSTED"
	Type                    string              `json:"type"`   // "DEBIT" or "CREDIT"
	CreditCardMetadata      *CreditCardMetadata `json:"creditCardMetadata,omitempty"`
	Merchant                *Merchant           `json:"merchant,omitempty"`
	CreatedAt               time.Time           `json:"createdAt"`
	UpdatedAt               time.Time           `json:"updatedAt"`
}
