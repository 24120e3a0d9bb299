package openfinance

import (
	"time"

	"finsync/internal/domain/account"
	"finsync/internal/domain/bill"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/identity"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/loan"
	"finsync/internal/domain/transaction"
	ofclient "finsync/internal/infrastructure/openfinance"
)

// DefaultCurrency is used when the provider omits a currency code.
const DefaultCurrency = "BRL"

// CanonicalTime converts a provider timestamp to UTC at microsecond precision, the
// resolution the store keeps. Returns nil for an absent timestamp.
func CanonicalTime(ts ofclient.Timestamp) *time.Time {
	if ts.IsZero() {
		return nil
	}
	t := canonical(ts.Time)
	return &t
}

func canonical(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func timeOrZero(ts ofclient.Timestamp) time.Time {
	if ts.IsZero() {
		return time.Time{}
	}
	return canonical(ts.Time)
}

func currencyOrDefault(code string) string {
	if code == "" {
		return DefaultCurrency
	}
	return code
}

// MapConnection maps a provider item to a connection.
func MapConnection(item ofclient.Item) *connection.Connection {
	c := &connection.Connection{
		ID:                    item.ID,
		ConnectorID:           item.Connector.ID,
		ConnectorName:         item.Connector.Name,
		ConnectorImageURL:     item.Connector.ImageURL,
		ConnectorPrimaryColor: item.Connector.PrimaryColor,
		Status:                item.Status,
		ExecutionStatus:       item.ExecutionStatus,
		ClientUserID:          item.ClientUserID,
		ProviderCreatedAt:     CanonicalTime(item.CreatedAt),
		ProviderUpdatedAt:     CanonicalTime(item.UpdatedAt),
		LastUpdatedAt:         CanonicalTime(item.LastUpdatedAt),
	}
	if item.Error != nil {
		code, message := item.Error.Code, item.Error.Message
		c.ErrorCode = &code
		c.ErrorMessage = &message
	}
	return c
}

// MapAccount maps a provider account owned by connectionID.
func MapAccount(a ofclient.Account, connectionID string) *account.Account {
	acc := &account.Account{
		ID:            a.ID,
		ConnectionID:  connectionID,
		Type:          a.Type,
		Subtype:       a.Subtype,
		Number:        a.Number,
		Name:          a.Name,
		MarketingName: a.MarketingName,
		Owner:         a.Owner,
		TaxNumber:     a.TaxNumber,
		Balance:       a.Balance,
		CurrencyCode:  currencyOrDefault(a.CurrencyCode),
	}

	if a.BankData != nil {
		acc.BankData = &account.BankData{
			TransferNumber:               a.BankData.TransferNumber,
			ClosingBalance:               a.BankData.ClosingBalance,
			AutomaticallyInvestedBalance: a.BankData.AutomaticallyInvestedBalance,
		}
	}

	if a.CreditData != nil {
		acc.CreditData = &account.CreditData{
			Level:                  a.CreditData.Level,
			Brand:                  a.CreditData.Brand,
			Status:                 a.CreditData.Status,
			BalanceCloseDate:       CanonicalTime(a.CreditData.BalanceCloseDate),
			BalanceDueDate:         CanonicalTime(a.CreditData.BalanceDueDate),
			AvailableCreditLimit:   a.CreditData.AvailableCreditLimit,
			BalanceForeignCurrency: a.CreditData.BalanceForeignCurrency,
			MinimumPayment:         a.CreditData.MinimumPayment,
			CreditLimit:            a.CreditData.CreditLimit,
		}
	}

	return acc
}

// MapTransaction maps a provider transaction of accountID.
func MapTransaction(t ofclient.Transaction, accountID string) *transaction.Transaction {
	status := t.Status
	if status == "" {
		status = transaction.StatusPosted
	}

	tx := &transaction.Transaction{
		ID:                      t.ID,
		AccountID:               accountID,
		Description:             t.Description,
		DescriptionRaw:          t.DescriptionRaw,
		CurrencyCode:            currencyOrDefault(t.CurrencyCode),
		Amount:                  t.Amount,
		AmountInAccountCurrency: t.AmountInAccountCurrency,
		Date:                    timeOrZero(t.Date),
		Category:                t.Category,
		CategoryID:              t.CategoryID,
		Balance:                 t.Balance,
		ProviderCode:            t.ProviderCode,
		Status:                  status,
		Type:                    t.Type,
	}

	if m := t.CreditCardMetadata; m != nil {
		tx.CreditCardMetadata = &transaction.CreditCardMetadata{
			InstallmentNumber: m.InstallmentNumber,
			TotalInstallments: m.TotalInstallments,
			TotalAmount:       m.TotalAmount,
			PurchaseDate:      CanonicalTime(m.PurchaseDate),
			PayeeMCC:          m.PayeeMCC,
			CardNumber:        m.CardNumber,
			BillID:            m.BillID,
		}
	}

	if m := t.Merchant; m != nil {
		tx.Merchant = &transaction.Merchant{
			Name:         m.Name,
			BusinessName: m.BusinessName,
			CNPJ:         m.CNPJ,
			Category:     m.Category,
		}
	}

	return tx
}

// MapInvestment maps a provider investment owned by connectionID.
func MapInvestment(i ofclient.Investment, connectionID string) *investment.Investment {
	status := investment.StatusActive
	if i.Status != nil && *i.Status != "" {
		status = *i.Status
	}

	return &investment.Investment{
		ID:                   i.ID,
		ConnectionID:         connectionID,
		Name:                 i.Name,
		Code:                 i.Code,
		ISIN:                 i.ISIN,
		Number:               i.Number,
		Type:                 i.Type,
		Subtype:              i.Subtype,
		CurrencyCode:         currencyOrDefault(i.CurrencyCode),
		Balance:              i.Balance,
		Amount:               i.Amount,
		Value:                i.Value,
		Quantity:             i.Quantity,
		Taxes:                i.Taxes,
		AmountProfit:         i.AmountProfit,
		AmountOriginal:       i.AmountOriginal,
		AnnualRate:           i.AnnualRate,
		LastMonthRate:        i.LastMonthRate,
		LastTwelveMonthsRate: i.LastTwelveMonthsRate,
		Rate:                 i.Rate,
		RateType:             i.RateType,
		Date:                 CanonicalTime(i.Date),
		DueDate:              CanonicalTime(i.DueDate),
		IssueDate:            CanonicalTime(i.IssueDate),
		Issuer:               i.Issuer,
		Owner:                i.Owner,
		Status:               status,
	}
}

// MapInvestmentTransaction maps a movement of investmentID.
func MapInvestmentTransaction(t ofclient.InvestmentTransaction, investmentID string) *investment.Transaction {
	txType := investment.TransactionTypeTransfer
	if t.Type != nil && *t.Type != "" {
		txType = *t.Type
	}

	tx := &investment.Transaction{
		ID:              t.ID,
		InvestmentID:    investmentID,
		Type:            txType,
		MovementType:    t.MovementType,
		Description:     t.Description,
		Quantity:        t.Quantity,
		Value:           t.Value,
		Amount:          t.Amount,
		NetAmount:       t.NetAmount,
		Date:            timeOrZero(t.Date),
		TradeDate:       CanonicalTime(t.TradeDate),
		BrokerageNumber: t.BrokerageNumber,
	}

	if e := t.Expenses; e != nil {
		tx.Expenses = &investment.Expenses{
			ServiceTax:       e.ServiceTax,
			BrokerageFee:     e.BrokerageFee,
			IncomeTax:        e.IncomeTax,
			Other:            e.Other,
			Tax:              e.Tax,
			CustodyFee:       e.CustodyFee,
			StockExchangeFee: e.StockExchangeFee,
			SettlementFee:    e.SettlementFee,
		}
	}

	return tx
}

// MapLoan maps a provider loan owned by connectionID.
func MapLoan(l ofclient.Loan, connectionID string) *loan.Loan {
	out := &loan.Loan{
		ID:                     l.ID,
		ConnectionID:           connectionID,
		ContractNumber:         l.ContractNumber,
		IPOCCode:               l.IPOCCode,
		ProductName:            l.ProductName,
		Type:                   l.Type,
		Date:                   CanonicalTime(l.Date),
		ContractDate:           CanonicalTime(l.ContractDate),
		SettlementDate:         CanonicalTime(l.SettlementDate),
		DueDate:                CanonicalTime(l.DueDate),
		ContractAmount:         l.ContractAmount,
		CurrencyCode:           currencyOrDefault(l.CurrencyCode),
		InstallmentPeriodicity: l.InstallmentPeriodicity,
		CET:                    l.CET,
	}

	for _, r := range l.InterestRates {
		out.InterestRates = append(out.InterestRates, loan.InterestRate{
			TaxType:                    r.TaxType,
			InterestRateType:           r.InterestRateType,
			TaxPeriodicity:             r.TaxPeriodicity,
			Calculation:                r.Calculation,
			ReferentialRateIndexerType: r.ReferentialRateIndexerType,
			PreFixedRate:               r.PreFixedRate,
			PostFixedRate:              r.PostFixedRate,
			AdditionalInfo:             r.AdditionalInfo,
		})
	}

	for _, w := range l.Warranties {
		out.Warranties = append(out.Warranties, loan.Warranty{
			CurrencyCode: w.CurrencyCode,
			Type:         w.Type,
			Subtype:      w.Subtype,
			Amount:       w.Amount,
		})
	}

	if in := l.Installments; in != nil {
		out.Installments = &loan.Installments{
			TypeNumberOfInstallments:  in.TypeNumberOfInstallments,
			TotalNumberOfInstallments: in.TotalNumberOfInstallments,
			TypeContractRemaining:     in.TypeContractRemaining,
			ContractRemainingNumber:   in.ContractRemainingNumber,
			PaidInstallments:          in.PaidInstallments,
			DueInstallments:           in.DueInstallments,
			PastDueInstallments:       in.PastDueInstallments,
		}
		for _, bp := range in.BalloonPayments {
			out.Installments.BalloonPayments = append(out.Installments.BalloonPayments, loan.BalloonPayment{
				DueDate:      CanonicalTime(bp.DueDate),
				CurrencyCode: bp.CurrencyCode,
				Amount:       bp.Amount,
			})
		}
	}

	return out
}

// MapCreditCardBill maps a bill of the credit account accountID.
func MapCreditCardBill(b ofclient.Bill, accountID string) *bill.Bill {
	out := &bill.Bill{
		ID:                      b.ID,
		AccountID:               accountID,
		DueDate:                 timeOrZero(b.DueDate),
		TotalAmount:             b.TotalAmount,
		TotalAmountCurrencyCode: currencyOrDefault(b.TotalAmountCurrencyCode),
		MinimumPaymentAmount:    b.MinimumPaymentAmount,
		AllowsInstallments:      b.AllowsInstallments,
	}

	for _, fc := range b.FinanceCharges {
		out.FinanceCharges = append(out.FinanceCharges, bill.FinanceCharge{
			Type:           fc.Type,
			Amount:         fc.Amount,
			CurrencyCode:   fc.CurrencyCode,
			AdditionalInfo: fc.AdditionalInfo,
		})
	}

	return out
}

// MapIdentity maps the identity of connectionID.
func MapIdentity(i ofclient.Identity, connectionID string) *identity.Identity {
	out := &identity.Identity{
		ID:                i.ID,
		ConnectionID:      connectionID,
		FullName:          i.FullName,
		CompanyName:       i.CompanyName,
		Document:          i.Document,
		DocumentType:      i.DocumentType,
		TaxNumber:         i.TaxNumber,
		BirthDate:         CanonicalTime(i.BirthDate),
		JobTitle:          i.JobTitle,
		EstablishmentCode: i.EstablishmentCode,
		EstablishmentName: i.EstablishmentName,
	}

	for _, a := range i.Addresses {
		out.Addresses = append(out.Addresses, identity.Address{
			FullAddress:    a.FullAddress,
			PrimaryAddress: a.PrimaryAddress,
			City:           a.City,
			PostalCode:     a.PostalCode,
			State:          a.State,
			Country:        a.Country,
			Type:           a.Type,
		})
	}
	out.PhoneNumbers = mapContacts(i.PhoneNumbers)
	out.Emails = mapContacts(i.Emails)
	for _, r := range i.Relations {
		out.Relations = append(out.Relations, identity.Relation{
			Type:     r.Type,
			Name:     r.Name,
			Document: r.Document,
		})
	}

	return out
}

func mapContacts(in []ofclient.IdentityContact) []identity.Contact {
	if in == nil {
		return nil
	}
	out := make([]identity.Contact, 0, len(in))
	for _, c := range in {
		out = append(out, identity.Contact{Type: c.Type, Value: c.Value})
	}
	return out
}
