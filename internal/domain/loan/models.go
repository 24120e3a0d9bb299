package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrLoanNotFound = errors.New("loan not found")

type InterestRate struct {
	TaxType                    *string             `json:"taxType,omitempty"`
	InterestRateType           *string             `json:"interestRateType,omitempty"`
	TaxPeriodicity             *string             `json:"taxPeriodicity,omitempty"`
	Calculation                *string             `json:"calculation,omitempty"`
	ReferentialRateIndexerType *string             `json:"referentialRateIndexerType,omitempty"`
	PreFixedRate               decimal.NullDecimal `json:"preFixedRate"`
	PostFixedRate              decimal.NullDecimal `json:"postFixedRate"`
	AdditionalInfo             *string             `json:"additionalInfo,omitempty"`
}

type Warranty struct {
	CurrencyCode *string             `json:"currencyCode,omitempty"`
	Type         *string             `json:"type,omitempty"`
	Subtype      *string             `json:"subtype,omitempty"`
	Amount       decimal.NullDecimal `json:"amount"`
}

type BalloonPayment struct {
	DueDate      *time.Time          `json:"dueDate,omitempty"`
	CurrencyCode *string             `json:"currencyCode,omitempty"`
	Amount       decimal.NullDecimal `json:"amount"`
}

// Installments summarizes the payment plan of a contract
type Installments struct {
	TypeNumberOfInstallments  *string          `json:"typeNumberOfInstallments,omitempty"`
	TotalNumberOfInstallments *int             `json:"totalNumberOfInstallments,omitempty"`
	TypeContractRemaining     *string          `json:"typeContractRemaining,omitempty"`
	ContractRemainingNumber   *int             `json:"contractRemainingNumber,omitempty"`
	PaidInstallments          *int             `json:"paidInstallments,omitempty"`
	DueInstallments           *int             `json:"dueInstallments,omitempty"`
	PastDueInstallments       *int             `json:"pastDueInstallments,omitempty"`
	BalloonPayments           []BalloonPayment `json:"balloonPayments,omitempty"`
}

// Loan is a loan or financing contract. Rates, warranties and installments are
// persisted as structured documents.
type Loan struct {
	ID                     string              `json:"id"`
	ConnectionID           string              `json:"connectionId"`
	ContractNumber         *string             `json:"contractNumber,omitempty"`
	IPOCCode               *string             `json:"ipocCode,omitempty"`
	ProductName            string              `json:"productName"`
	Type                   *string             `json:"type,omitempty"`
	Date                   *time.Time          `json:"date,omitempty"`
	ContractDate           *time.Time          `json:"contractDate,omitempty"`
	SettlementDate         *time.Time          `json:"settlementDate,omitempty"`
	DueDate                *time.Time          `json:"dueDate,omitempty"`
	ContractAmount         decimal.NullDecimal `json:"contractAmount"`
	CurrencyCode           string              `json:"currencyCode"`
	InstallmentPeriodicity *string             `json:"installmentPeriodicity,omitempty"`
	CET                    decimal.NullDecimal `json:"cet"`
	InterestRates          []InterestRate      `json:"interestRates"`
	Warranties             []Warranty          `json:"warranties"`
	Installments           *Installments       `json:"installments,omitempty"`
	CreatedAt              time.Time           `json:"createdAt"`
	UpdatedAt              time.Time           `json:"updatedAt"`
}
