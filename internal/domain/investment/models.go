package investment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Investment statuses
const (
	StatusActive          = "ACTIVE"
	StatusPending         = "PENDING"
	StatusTotalWithdrawal = "TOTAL_WITHDRAWAL"
)

// Investment transaction types
const (
	TransactionTypeBuy          = "BUY"
	TransactionTypeSell         = "SELL"
	TransactionTypeTax          = "TAX"
	TransactionTypeTransfer     = "TRANSFER"
	TransactionTypeInterest     = "INTEREST"
	TransactionTypeAmortization = "AMORTIZATION"
)

// Domain errors
var (
	ErrInvestmentNotFound  = errors.New("investment not found")
	ErrTransactionNotFound = errors.New("investment transaction not found")
)

// Investment is a position (fund, fixed income, equity...) held through a connection.
// Amount, value and quantity are not reported for every product type.
type Investment struct {
	ID                   string              `json:"id"`
	ConnectionID         string              `json:"connectionId"`
	Name                 string              `json:"name"`
	Code                 *string             `json:"code,omitempty"`
	ISIN                 *string             `json:"isin,omitempty"`
	Number               *string             `json:"number,omitempty"`
	Type                 string              `json:"type"`
	Subtype              *string             `json:"subtype,omitempty"`
	CurrencyCode         string              `json:"currencyCode"`
	Balance              decimal.Decimal     `json:"balance"`
	Amount               decimal.NullDecimal `json:"amount"`
	Value                decimal.NullDecimal `json:"value"`
	Quantity             decimal.NullDecimal `json:"quantity"`
	Taxes                decimal.NullDecimal `json:"taxes"`
	AmountProfit         decimal.NullDecimal `json:"amountProfit"`
	AmountOriginal       decimal.NullDecimal `json:"amountOriginal"`
	AnnualRate           decimal.NullDecimal `json:"annualRate"`
	LastMonthRate        decimal.NullDecimal `json:"lastMonthRate"`
	LastTwelveMonthsRate decimal.NullDecimal `json:"lastTwelveMonthsRate"`
	Rate                 decimal.NullDecimal `json:"rate"`
	RateType             *string             `json:"rateType,omitempty"`
	Date                 *time.Time          `json:"date,omitempty"`
	DueDate              *time.Time          `json:"dueDate,omitempty"`
	IssueDate            *time.Time          `json:"issueDate,omitempty"`
	Issuer               *string             `json:"issuer,omitempty"`
	Owner                *string             `json:"owner,omitempty"`
	Status               string              `json:"status"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

// Expenses breaks down the costs of a movement
type Expenses struct {
	ServiceTax       decimal.NullDecimal `json:"serviceTax"`
	BrokerageFee     decimal.NullDecimal `json:"brokerageFee"`
	IncomeTax        decimal.NullDecimal `json:"incomeTax"`
	Other            decimal.NullDecimal `json:"other"`
	Tax              decimal.NullDecimal `json:"tax"`
	CustodyFee       decimal.NullDecimal `json:"custodyFee"`
	StockExchangeFee decimal.NullDecimal `json:"stockExchangeFee"`
	SettlementFee    decimal.NullDecimal `json:"settlementFee"`
}

// Transaction is a movement on an investment. TradeDate may differ from the settlement Date.
type Transaction struct {
	ID              string              `json:"id"`
	InvestmentID    string              `json:"investmentId"`
	Type            string              `json:"type"`
	MovementType    *string             `json:"movementType,omitempty"`
	Description     *string             `json:"description,omitempty"`
	Quantity        decimal.NullDecimal `json:"quantity"`
	Value           decimal.NullDecimal `json:"value"`
	Amount          decimal.NullDecimal `json:"amount"`
	NetAmount       decimal.NullDecimal `json:"netAmount"`
	Date            time.Time           `json:"date"`
	TradeDate       *time.Time          `json:"tradeDate,omitempty"`
	BrokerageNumber *string             `json:"brokerageNumber,omitempty"`
	Expenses        *Expenses           `json:"expenses,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}
