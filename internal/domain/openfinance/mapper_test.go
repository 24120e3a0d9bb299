package openfinance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/domain/connection"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/transaction"
	ofclient "finsync/internal/infrastructure/openfinance"
)

func strPtr(s string) *string { return &s }

func TestMapperDefaults(t *testing.T) {
	acc := MapAccount(ofclient.Account{ID: "a1", Type: "BANK"}, "conn-1")
	assert.Equal(t, DefaultCurrency, acc.CurrencyCode)
	assert.Equal(t, "conn-1", acc.ConnectionID)
	assert.Nil(t, acc.BankData)
	assert.Nil(t, acc.CreditData)
	assert.Nil(t, acc.MarketingName)

	tx := MapTransaction(ofclient.Transaction{ID: "t1"}, "a1")
	assert.Equal(t, transaction.StatusPosted, tx.Status)
	assert.Equal(t, DefaultCurrency, tx.CurrencyCode)
	assert.Nil(t, tx.Category)

	pending := MapTransaction(ofclient.Transaction{ID: "t2", Status: transaction.StatusPending}, "a1")
	assert.Equal(t, transaction.StatusPending, pending.Status)

	inv := MapInvestment(ofclient.Investment{ID: "i1"}, "conn-1")
	assert.Equal(t, investment.StatusActive, inv.Status)
	assert.False(t, inv.Amount.Valid)
	assert.False(t, inv.Quantity.Valid)

	invTx := MapInvestmentTransaction(ofclient.InvestmentTransaction{ID: "it1"}, "i1")
	assert.Equal(t, investment.TransactionTypeTransfer, invTx.Type)
	assert.Nil(t, invTx.TradeDate)

	buy := MapInvestmentTransaction(ofclient.InvestmentTransaction{ID: "it2", Type: strPtr("BUY")}, "i1")
	assert.Equal(t, investment.TransactionTypeBuy, buy.Type)

	l := MapLoan(ofclient.Loan{ID: "l1"}, "conn-1")
	assert.Equal(t, DefaultCurrency, l.CurrencyCode)
	assert.Nil(t, l.Installments)
	assert.Nil(t, l.InterestRates)

	b := MapCreditCardBill(ofclient.Bill{ID: "b1"}, "c1")
	assert.Equal(t, DefaultCurrency, b.TotalAmountCurrencyCode)
	assert.Equal(t, "c1", b.AccountID)
}

func TestMapConnection(t *testing.T) {
	var item ofclient.Item
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "conn-1",
		"status": "LOGIN_ERROR",
		"executionStatus": "INVALID_CREDENTIALS",
		"connector": {"id": 201, "name": "Itaú", "imageUrl": "https://x/itau.svg", "primaryColor": "EC7000"},
		"error": {"code": "INVALID_CREDENTIALS", "message": "wrong password"},
		"createdAt": "2024-03-01T12:00:00.123456789Z",
		"updatedAt": 1709294400000
	}`), &item))

	c := MapConnection(item)
	assert.Equal(t, "conn-1", c.ID)
	assert.Equal(t, connection.StatusLoginError, c.Status)
	assert.Equal(t, 201, c.ConnectorID)
	assert.Equal(t, "Itaú", c.ConnectorName)
	require.NotNil(t, c.ErrorCode)
	assert.Equal(t, "INVALID_CREDENTIALS", *c.ErrorCode)
	require.NotNil(t, c.ProviderCreatedAt)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 123456000, time.UTC), *c.ProviderCreatedAt)
	require.NotNil(t, c.ProviderUpdatedAt)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), *c.ProviderUpdatedAt)
	assert.Nil(t, c.LastUpdatedAt)
	assert.Nil(t, c.ClientUserID)
}

func TestCanonicalTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{name: "null", input: `null`, want: nil},
		{name: "empty string", input: `""`, want: nil},
		{name: "date only", input: `"2024-05-10"`, want: ptrTime(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))},
		{name: "offset", input: `"2024-05-10T09:30:00-03:00"`, want: ptrTime(time.Date(2024, 5, 10, 12, 30, 0, 0, time.UTC))},
		{name: "space separated", input: `"2024-05-10 09:30:00"`, want: ptrTime(time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC))},
		{name: "epoch millis", input: `1715333400000`, want: ptrTime(time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts ofclient.Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			got := CanonicalTime(ts)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestMapAccount_CreditData(t *testing.T) {
	var a ofclient.Account
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "c1",
		"type": "CREDIT",
		"subtype": "CREDIT_CARD",
		"balance": -1234.56,
		"currencyCode": "BRL",
		"creditData": {"brand": "VISA", "creditLimit": 5000, "availableCreditLimit": 3765.44, "balanceDueDate": "2024-06-10"}
	}`), &a))

	acc := MapAccount(a, "conn-1")
	assert.True(t, acc.IsCredit())
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("-1234.56")))
	require.NotNil(t, acc.CreditData)
	assert.Equal(t, "VISA", *acc.CreditData.Brand)
	assert.True(t, acc.CreditData.CreditLimit.Valid)
	assert.True(t, acc.CreditData.CreditLimit.Decimal.Equal(decimal.NewFromInt(5000)))
	assert.False(t, acc.CreditData.MinimumPayment.Valid)
	require.NotNil(t, acc.CreditData.BalanceDueDate)
	assert.Nil(t, acc.CreditData.BalanceCloseDate)
}

func TestMapIdentity_NestedLists(t *testing.T) {
	src := ofclient.Identity{
		ID:           "id1",
		FullName:     strPtr("Maria Silva"),
		Document:     strPtr("123.456.789-00"),
		PhoneNumbers: []ofclient.IdentityContact{{Type: strPtr("Personal"), Value: "+55 11 99999-0000"}},
		Emails:       []ofclient.IdentityContact{{Value: "maria@example.com"}},
		Addresses:    []ofclient.IdentityAddress{{City: strPtr("São Paulo")}},
	}

	id := MapIdentity(src, "conn-1")
	assert.Equal(t, "conn-1", id.ConnectionID)
	require.Len(t, id.PhoneNumbers, 1)
	assert.Equal(t, "+55 11 99999-0000", id.PhoneNumbers[0].Value)
	require.Len(t, id.Emails, 1)
	assert.Nil(t, id.Emails[0].Type)
	require.Len(t, id.Addresses, 1)
	assert.Equal(t, "São Paulo", *id.Addresses[0].City)
	assert.Nil(t, id.Relations)
	assert.Nil(t, id.BirthDate)
}

func TestMapLoan_NestedPayload(t *testing.T) {
	total := 48
	src := ofclient.Loan{
		ID:            "l1",
		ProductName:   "Crédito pessoal",
		InterestRates: []ofclient.LoanInterestRate{{TaxType: strPtr("NOMINAL")}},
		Warranties:    []ofclient.LoanWarranty{{Type: strPtr("CESSAO_DIREITOS_CREDITORIOS")}},
		Installments: &ofclient.LoanInstallments{
			TotalNumberOfInstallments: &total,
			BalloonPayments:           []ofclient.LoanBalloonPayment{{Amount: decimal.NewNullDecimal(decimal.NewFromInt(1000))}},
		},
	}

	l := MapLoan(src, "conn-1")
	require.Len(t, l.InterestRates, 1)
	require.Len(t, l.Warranties, 1)
	require.NotNil(t, l.Installments)
	assert.Equal(t, 48, *l.Installments.TotalNumberOfInstallments)
	require.Len(t, l.Installments.BalloonPayments, 1)
	assert.Nil(t, l.Installments.BalloonPayments[0].DueDate)
}
