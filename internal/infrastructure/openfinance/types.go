package openfinance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// timestampLayouts are tried in order when the provider sends a timestamp as a string.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a provider timestamp. The API sends either an ISO-8601 string
// (in a handful of layouts) or a numeric epoch in milliseconds.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts null, strings in any of timestampLayouts and epoch milliseconds.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse timestamp %s: %w", data, err)
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON renders the timestamp as RFC3339 in UTC, or null when unset.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// ParseTimestamp parses a provider timestamp string.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s'", s)
}

// PageResponse is the paged envelope used by every list endpoint.
type PageResponse[T any] struct {
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
	Page       int `json:"page"`
	Results    []T `json:"results"`
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Code            int    `json:"code"`
	CodeDescription string `json:"codeDescription"`
	Message         string `json:"message"`
}

// Connector identifies the financial institution behind an item.
type Connector struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	ImageURL     string `json:"imageUrl"`
	PrimaryColor string `json:"primaryColor"`
	Country      string `json:"country"`
}

// ItemError is the last error reported by the provider for an item.
type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Item is the provider's representation of a connection.
type Item struct {
	ID              string     `json:"id"`
	Connector       Connector  `json:"connector"`
	Status          string     `json:"status"`
	ExecutionStatus string     `json:"executionStatus"`
	ClientUserID    *string    `json:"clientUserId"`
	Error           *ItemError `json:"error"`
	CreatedAt       Timestamp  `json:"createdAt"`
	UpdatedAt       Timestamp  `json:"updatedAt"`
	LastUpdatedAt   Timestamp  `json:"lastUpdatedAt"`
}

// BankData represents bank-specific account data
type BankData struct {
	TransferNumber               *string             `json:"transferNumber"`
	ClosingBalance               decimal.NullDecimal `json:"closingBalance"`
	AutomaticallyInvestedBalance decimal.NullDecimal `json:"automaticallyInvestedBalance"`
}

// CreditData represents credit card-specific account data
type CreditData struct {
	Level                  *string             `json:"level"`
	Brand                  *string             `json:"brand"`
	Status                 *string             `json:"status"`
	BalanceCloseDate       Timestamp           `json:"balanceCloseDate"`
	BalanceDueDate         Timestamp           `json:"balanceDueDate"`
	AvailableCreditLimit   decimal.NullDecimal `json:"availableCreditLimit"`
	BalanceForeignCurrency decimal.NullDecimal `json:"balanceForeignCurrency"`
	MinimumPayment         decimal.NullDecimal `json:"minimumPayment"`
	CreditLimit            decimal.NullDecimal `json:"creditLimit"`
}

// Account represents an account from the Open Finance API
type Account struct {
	ID            string          `json:"id"`
	ItemID        string          `json:"itemId"`
	Type          string          `json:"type"`
	Subtype       string          `json:"subtype"`
	Number        string          `json:"number"`
	Name          string          `json:"name"`
	MarketingName *string         `json:"marketingName"`
	Owner         *string         `json:"owner"`
	TaxNumber     *string         `json:"taxNumber"`
	Balance       decimal.Decimal `json:"balance"`
	CurrencyCode  string          `json:"currencyCode"`
	BankData      *BankData       `json:"bankData"`
	CreditData    *CreditData     `json:"creditData"`
}

// CreditCardMetadata carries installment data for card purchases.
type CreditCardMetadata struct {
	InstallmentNumber *int                `json:"installmentNumber"`
	TotalInstallments *int                `json:"totalInstallments"`
	TotalAmount       decimal.NullDecimal `json:"totalAmount"`
	PurchaseDate      Timestamp           `json:"purchaseDate"`
	PayeeMCC          *int                `json:"payeeMCC"`
	CardNumber        *string             `json:"cardNumber"`
	BillID            *string             `json:"billId"`
}

// Merchant is the enriched counterpart of a card transaction.
type Merchant struct {
	Name         string  `json:"name"`
	BusinessName *string `json:"businessName"`
	CNPJ         *string `json:"cnpj"`
	Category     *string `json:"category"`
}

// Transaction represents a transaction from the Open Finance API
type Transaction struct {
	ID                      string              `json:"id"`
	AccountID               string              `json:"accountId"`
	Description             string              `json:"description"`
	DescriptionRaw          *string             `json:"descriptionRaw"`
	CurrencyCode            string              `json:"currencyCode"`
	Amount                  decimal.Decimal     `json:"amount"`
	AmountInAccountCurrency decimal.NullDecimal `json:"amountInAccountCurrency"`
	Date                    Timestamp           `json:"date"`
	Category                *string             `json:"category"`
	CategoryID              *string             `json:"categoryId"`
	Balance                 decimal.NullDecimal `json:"balance"`
	ProviderCode            *string             `json:"providerCode"`
	Status                  string              `json:"status"`
	Type                    string              `json:"type"`
	CreditCardMetadata      *CreditCardMetadata `json:"creditCardMetadata"`
	Merchant                *Merchant           `json:"merchant"`
}

// Investment represents an investment position.
type Investment struct {
	ID                   string              `json:"id"`
	ItemID               string              `json:"itemId"`
	Name                 string              `json:"name"`
	Code                 *string             `json:"code"`
	ISIN                 *string             `json:"isin"`
	Number               *string             `json:"number"`
	Type                 string              `json:"type"`
	Subtype              *string             `json:"subtype"`
	CurrencyCode         string              `json:"currencyCode"`
	Balance              decimal.Decimal     `json:"balance"`
	Amount               decimal.NullDecimal `json:"amount"`
	Value                decimal.NullDecimal `json:"value"`
	Quantity             decimal.NullDecimal `json:"quantity"`
	Taxes                decimal.NullDecimal `json:"taxes"`
	Taxes2               decimal.NullDecimal `json:"taxes2"`
	AmountProfit         decimal.NullDecimal `json:"amountProfit"`
	AmountWithdrawal     decimal.NullDecimal `json:"amountWithdrawal"`
	AmountOriginal       decimal.NullDecimal `json:"amountOriginal"`
	AnnualRate           decimal.NullDecimal `json:"annualRate"`
	LastMonthRate        decimal.NullDecimal `json:"lastMonthRate"`
	LastTwelveMonthsRate decimal.NullDecimal `json:"lastTwelveMonthsRate"`
	Rate                 decimal.NullDecimal `json:"rate"`
	RateType             *string             `json:"rateType"`
	Date                 Timestamp           `json:"date"`
	DueDate              Timestamp           `json:"dueDate"`
	IssueDate            Timestamp           `json:"issueDate"`
	Issuer               *string             `json:"issuer"`
	Owner                *string             `json:"owner"`
	Status               *string             `json:"status"`
}

// InvestmentExpenses breaks down the costs of an investment movement.
type InvestmentExpenses struct {
	ServiceTax       decimal.NullDecimal `json:"serviceTax"`
	BrokerageFee     decimal.NullDecimal `json:"brokerageFee"`
	IncomeTax        decimal.NullDecimal `json:"incomeTax"`
	Other            decimal.NullDecimal `json:"other"`
	Tax              decimal.NullDecimal `json:"tax"`
	CustodyFee       decimal.NullDecimal `json:"custodyFee"`
	StockExchangeFee decimal.NullDecimal `json:"stockExchangeFee"`
	SettlementFee    decimal.NullDecimal `json:"settlementFee"`
}

// InvestmentTransaction is a movement on an investment position.
type InvestmentTransaction struct {
	ID              string              `json:"id"`
	Type            *string             `json:"type"`
	MovementType    *string             `json:"movementType"`
	Description     *string             `json:"description"`
	Quantity        decimal.NullDecimal `json:"quantity"`
	Value           decimal.NullDecimal `json:"value"`
	Amount          decimal.NullDecimal `json:"amount"`
	NetAmount       decimal.NullDecimal `json:"netAmount"`
	Date            Timestamp           `json:"date"`
	TradeDate       Timestamp           `json:"tradeDate"`
	BrokerageNumber *string             `json:"brokerageNumber"`
	Expenses        *InvestmentExpenses `json:"expenses"`
}

// LoanInterestRate is one of the contracted interest rates of a loan.
type LoanInterestRate struct {
	TaxType                    *string             `json:"taxType"`
	InterestRateType           *string             `json:"interestRateType"`
	TaxPeriodicity             *string             `json:"taxPeriodicity"`
	Calculation                *string             `json:"calculation"`
	ReferentialRateIndexerType *string             `json:"referentialRateIndexerType"`
	PreFixedRate               decimal.NullDecimal `json:"preFixedRate"`
	PostFixedRate              decimal.NullDecimal `json:"postFixedRate"`
	AdditionalInfo             *string             `json:"additionalInfo"`
}

// LoanWarranty is a collateral attached to a loan contract.
type LoanWarranty struct {
	CurrencyCode *string             `json:"currencyCode"`
	Type         *string             `json:"type"`
	Subtype      *string             `json:"subtype"`
	Amount       decimal.NullDecimal `json:"amount"`
}

// LoanBalloonPayment is a non-regular installment.
type LoanBalloonPayment struct {
	DueDate      Timestamp           `json:"dueDate"`
	CurrencyCode *string             `json:"currencyCode"`
	Amount       decimal.NullDecimal `json:"amount"`
}

// LoanInstallments summarizes the installment plan of a loan.
type LoanInstallments struct {
	TypeNumberOfInstallments  *string              `json:"typeNumberOfInstallments"`
	TotalNumberOfInstallments *int                 `json:"totalNumberOfInstallments"`
	TypeContractRemaining     *string              `json:"typeContractRemaining"`
	ContractRemainingNumber   *int                 `json:"contractRemainingNumber"`
	PaidInstallments          *int                 `json:"paidInstallments"`
	DueInstallments           *int                 `json:"dueInstallments"`
	PastDueInstallments       *int                 `json:"pastDueInstallments"`
	BalloonPayments           []LoanBalloonPayment `json:"balloonPayments"`
}

// Loan represents a loan contract.
type Loan struct {
	ID                     string              `json:"id"`
	ItemID                 string              `json:"itemId"`
	ContractNumber         *string             `json:"contractNumber"`
	IPOCCode               *string             `json:"ipocCode"`
	ProductName            string              `json:"productName"`
	Type                   *string             `json:"type"`
	Date                   Timestamp           `json:"date"`
	ContractDate           Timestamp           `json:"contractDate"`
	SettlementDate         Timestamp           `json:"settlementDate"`
	DueDate                Timestamp           `json:"dueDate"`
	ContractAmount         decimal.NullDecimal `json:"contractAmount"`
	CurrencyCode           string              `json:"currencyCode"`
	InstallmentPeriodicity *string             `json:"installmentPeriodicity"`
	CET                    decimal.NullDecimal `json:"CET"`
	InterestRates          []LoanInterestRate  `json:"interestRates"`
	Warranties             []LoanWarranty      `json:"warranties"`
	Installments           *LoanInstallments   `json:"installments"`
}

// BillFinanceCharge is a charge applied to a credit card bill.
type BillFinanceCharge struct {
	Type           string              `json:"type"`
	Amount         decimal.NullDecimal `json:"amount"`
	CurrencyCode   *string             `json:"currencyCode"`
	AdditionalInfo *string             `json:"additionalInfo"`
}

// Bill represents a credit card bill
type Bill struct {
	ID                      string              `json:"id"`
	DueDate                 Timestamp           `json:"dueDate"`
	TotalAmount             decimal.Decimal     `json:"totalAmount"`
	TotalAmountCurrencyCode string              `json:"totalAmountCurrencyCode"`
	MinimumPaymentAmount    decimal.NullDecimal `json:"minimumPaymentAmount"`
	AllowsInstallments      *bool               `json:"allowsInstallments"`
	FinanceCharges          []BillFinanceCharge `json:"financeCharges"`
}

// IdentityAddress is a postal address of the identity owner.
type IdentityAddress struct {
	FullAddress    *string `json:"fullAddress"`
	PrimaryAddress *string `json:"primaryAddress"`
	City           *string `json:"city"`
	PostalCode     *string `json:"postalCode"`
	State          *string `json:"state"`
	Country        *string `json:"country"`
	Type           *string `json:"type"`
}

// IdentityContact is a typed phone number or email.
type IdentityContact struct {
	Type  *string `json:"type"`
	Value string  `json:"value"`
}

// IdentityRelation links the owner to another person.
type IdentityRelation struct {
	Type     *string `json:"type"`
	Name     *string `json:"name"`
	Document *string `json:"document"`
}

// Identity is the account holder data returned for an item.
type Identity struct {
	ID                string             `json:"id"`
	ItemID            string             `json:"itemId"`
	FullName          *string            `json:"fullName"`
	CompanyName       *string            `json:"companyName"`
	Document          *string            `json:"document"`
	DocumentType      *string            `json:"documentType"`
	TaxNumber         *string            `json:"taxNumber"`
	BirthDate         Timestamp          `json:"birthDate"`
	JobTitle          *string            `json:"jobTitle"`
	EstablishmentCode *string            `json:"establishmentCode"`
	EstablishmentName *string            `json:"establishmentName"`
	Addresses         []IdentityAddress  `json:"addresses"`
	PhoneNumbers      []IdentityContact  `json:"phoneNumbers"`
	Emails            []IdentityContact  `json:"emails"`
	Relations         []IdentityRelation `json:"relations"`
	CreatedAt         Timestamp          `json:"createdAt"`
	UpdatedAt         Timestamp          `json:"updatedAt"`
}

// ConnectTokenRequest asks the provider for a widget token.
type ConnectTokenRequest struct {
	ItemID  string               `json:"itemId,omitempty"`
	Options *ConnectTokenOptions `json:"options,omitempty"`
}

// ConnectTokenOptions are optional connect token settings.
type ConnectTokenOptions struct {
	ClientUserID string `json:"clientUserId,omitempty"`
	WebhookURL   string `json:"webhookUrl,omitempty"`
}

// ConnectToken is the token handed to the linking widget.
type ConnectToken struct {
	AccessToken string `json:"accessToken"`
}
