// Package openfinance provides domain services for syncing financial data
package openfinance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"finsync/internal/domain/account"
	"finsync/internal/domain/bill"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/identity"
	"finsync/internal/domain/investment"
	"finsync/internal/domain/loan"
	"finsync/internal/domain/transaction"
	ofclient "finsync/internal/infrastructure/openfinance"
)

// DefaultConcurrency bounds the per-account and per-investment fan-out when none is configured.
const DefaultConcurrency = 4

// Entity names used in branch errors and metrics
const (
	EntityAccounts               = "accounts"
	EntityTransactions           = "transactions"
	EntityBills                  = "bills"
	EntityInvestments            = "investments"
	EntityInvestmentTransactions = "investment_transactions"
	EntityLoans                  = "loans"
	EntityIdentity               = "identity"
)

var (
	syncTracer        = otel.Tracer("finsync/sync")
	syncMeter         = otel.Meter("finsync/sync")
	syncDuration, _   = syncMeter.Float64Histogram("sync.duration", metric.WithDescription("Sync pass duration in seconds"), metric.WithUnit("s"))
	branchFailures, _ = syncMeter.Int64Counter("sync.branch.failures", metric.WithDescription("Isolated sync branch failures by entity"))
)

// BranchError is a failure isolated to one branch of a sync pass.
type BranchError struct {
	Entity   string
	ParentID string // connection, account or investment the branch ran for
	Err      error
}

func (e BranchError) Error() string {
	return fmt.Sprintf("%s sync failed for %s: %v", e.Entity, e.ParentID, e.Err)
}

func (e BranchError) Unwrap() error {
	return e.Err
}

func (e BranchError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Entity   string `json:"entity"`
		ParentID string `json:"parentId"`
		Message  string `json:"message"`
	}{e.Entity, e.ParentID, e.Err.Error()})
}

// SyncResult contains the results of a sync pass
type SyncResult struct {
	ConnectionID           string        `json:"connectionId"`
	NoAccounts             bool          `json:"noAccounts"`
	Accounts               int           `json:"accounts"`
	Transactions           int           `json:"transactions"`
	Bills                  int           `json:"bills"`
	Investments            int           `json:"investments"`
	InvestmentTransactions int           `json:"investmentTransactions"`
	Loans                  int           `json:"loans"`
	IdentityFound          bool          `json:"identityFound"`
	AccountsWithBills      []string      `json:"accountsWithBills"` // credit accounts whose bills were fetched, even when empty
	Errors                 []BranchError `json:"errors"`

	mu sync.Mutex
}

func (r *SyncResult) addTransactions(n int) {
	r.mu.Lock()
	r.Transactions += n
	r.mu.Unlock()
}

func (r *SyncResult) addBills(accountID string, n int) {
	r.mu.Lock()
	r.Bills += n
	r.AccountsWithBills = append(r.AccountsWithBills, accountID)
	r.mu.Unlock()
}

func (r *SyncResult) addInvestmentTransactions(n int) {
	r.mu.Lock()
	r.InvestmentTransactions += n
	r.mu.Unlock()
}

func (r *SyncResult) addError(e BranchError) {
	r.mu.Lock()
	r.Errors = append(r.Errors, e)
	r.mu.Unlock()
}

// HasErrors reports whether any isolated branch failed.
func (r *SyncResult) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Errors) > 0
}

// Repositories groups the stores a sync pass writes to.
type Repositories struct {
	Connections            connection.Repository
	Accounts               account.Repository
	Transactions           transaction.Repository
	Bills                  bill.Repository
	Investments            investment.Repository
	InvestmentTransactions investment.TransactionRepository
	Loans                  loan.Repository
	Identities             identity.Repository
}

// SyncService reconciles the provider's view of a connection into the store.
type SyncService struct {
	client      ofclient.ClientInterface
	repos       Repositories
	concurrency int
}

// NewSyncService creates a new sync service. concurrency bounds how many accounts
// (or investments) are synced at the same time within one pass.
func NewSyncService(client ofclient.ClientInterface, repos Repositories, concurrency int) *SyncService {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &SyncService{
		client:      client,
		repos:       repos,
		concurrency: concurrency,
	}
}

// SyncConnection runs a full sync pass for a connection.
//
// Accounts are a hard dependency: failing to fetch or save them fails the pass and
// nothing else is synced. Transactions and bills are isolated per account;
// investments, loans and identity are isolated from each other. Isolated failures
// are logged and recorded in the result, never returned.
func (s *SyncService) SyncConnection(ctx context.Context, connectionID string) (*SyncResult, error) {
	ctx, span := syncTracer.Start(ctx, "sync.connection",
		trace.WithAttributes(
			attribute.String("connection.id", connectionID),
			attribute.String("sync.mode", "full"),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		syncDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("sync.mode", "full")))
	}()

	result := &SyncResult{ConnectionID: connectionID}
	log.Printf("Connection %s: Starting sync", connectionID)

	if err := s.syncAccounts(ctx, result, true); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("Connection %s: Sync aborted: %v", connectionID, err)
		return result, err
	}

	s.syncInvestments(ctx, result)
	s.syncLoans(ctx, result)
	s.syncIdentity(ctx, result)

	span.SetAttributes(attribute.Int("sync.branch_errors", len(result.Errors)))
	log.Printf("Connection %s: Sync complete - Accounts: %d, Transactions: %d, Bills: %d, Investments: %d, Loans: %d, Identity: %t, Errors: %d",
		connectionID, result.Accounts, result.Transactions, result.Bills, result.Investments, result.Loans, result.IdentityFound, len(result.Errors))

	return result, nil
}

// RefreshConnection stores the provider's current view of a connection and then
// runs a full sync pass. Returns ofclient.ErrNotFound when the provider no longer
// knows the connection.
func (s *SyncService) RefreshConnection(ctx context.Context, connectionID string) (*connection.Connection, *SyncResult, error) {
	item, err := s.client.FetchConnection(ctx, connectionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch connection %s: %w", connectionID, err)
	}

	conn, err := s.repos.Connections.Upsert(ctx, MapConnection(*item))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to save connection %s: %w", connectionID, err)
	}

	result, err := s.SyncConnection(ctx, conn.ID)
	return conn, result, err
}

// SyncAccountsOnly refreshes accounts and their transactions. Bills, investments,
// loans and identity are left alone.
func (s *SyncService) SyncAccountsOnly(ctx context.Context, connectionID string) (*SyncResult, error) {
	ctx, span := syncTracer.Start(ctx, "sync.connection",
		trace.WithAttributes(
			attribute.String("connection.id", connectionID),
			attribute.String("sync.mode", "accounts"),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		syncDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("sync.mode", "accounts")))
	}()

	result := &SyncResult{ConnectionID: connectionID}
	if err := s.syncAccounts(ctx, result, false); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	log.Printf("Connection %s: Accounts sync complete - Accounts: %d, Transactions: %d, Errors: %d",
		connectionID, result.Accounts, result.Transactions, len(result.Errors))
	return result, nil
}

// SyncAccountTransactions fetches and upserts the transactions of a single stored account.
// Returns account.ErrAccountNotFound when the account has never been synced.
func (s *SyncService) SyncAccountTransactions(ctx context.Context, accountID string) (int, error) {
	ctx, span := syncTracer.Start(ctx, "sync.account_transactions",
		trace.WithAttributes(attribute.String("account.id", accountID)),
	)
	defer span.End()

	if _, err := s.repos.Accounts.GetByID(ctx, accountID); err != nil {
		return 0, fmt.Errorf("failed to load account %s: %w", accountID, err)
	}

	n, err := s.upsertTransactions(ctx, accountID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	log.Printf("Account %s: Synced %d transactions", accountID, n)
	return n, nil
}

func (s *SyncService) syncAccounts(ctx context.Context, result *SyncResult, withBills bool) error {
	connectionID := result.ConnectionID

	apiAccounts, err := s.client.FetchAccounts(ctx, connectionID)
	if err != nil {
		branchFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", EntityAccounts)))
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}

	if len(apiAccounts) == 0 {
		result.NoAccounts = true
		log.Printf("Connection %s: No accounts found", connectionID)
		return nil
	}

	mapped := make([]*account.Account, 0, len(apiAccounts))
	for _, a := range apiAccounts {
		mapped = append(mapped, MapAccount(a, connectionID))
	}

	saved, err := s.repos.Accounts.UpsertMany(ctx, mapped)
	if err != nil {
		branchFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", EntityAccounts)))
		return fmt.Errorf("failed to upsert accounts: %w", err)
	}
	result.Accounts = len(saved)
	log.Printf("Connection %s: Saved %d accounts", connectionID, len(saved))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, acc := range saved {
		g.Go(func() error {
			n, err := s.upsertTransactions(ctx, acc.ID)
			if err != nil {
				s.recordFailure(ctx, result, EntityTransactions, acc.ID, err)
			} else {
				result.addTransactions(n)
			}

			if withBills && acc.IsCredit() {
				n, err := s.upsertBills(ctx, acc.ID)
				if err != nil {
					s.recordFailure(ctx, result, EntityBills, acc.ID, err)
				} else {
					result.addBills(acc.ID, n)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *SyncService) upsertTransactions(ctx context.Context, accountID string) (int, error) {
	apiTxs, err := s.client.FetchTransactions(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	if len(apiTxs) == 0 {
		return 0, nil
	}

	mapped := make([]*transaction.Transaction, 0, len(apiTxs))
	for _, t := range apiTxs {
		mapped = append(mapped, MapTransaction(t, accountID))
	}

	saved, err := s.repos.Transactions.UpsertMany(ctx, mapped)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert transactions: %w", err)
	}
	return len(saved), nil
}

func (s *SyncService) upsertBills(ctx context.Context, accountID string) (int, error) {
	apiBills, err := s.client.FetchCreditCardBills(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch bills: %w", err)
	}
	if len(apiBills) == 0 {
		return 0, nil
	}

	mapped := make([]*bill.Bill, 0, len(apiBills))
	for _, b := range apiBills {
		mapped = append(mapped, MapCreditCardBill(b, accountID))
	}

	saved, err := s.repos.Bills.UpsertMany(ctx, mapped)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert bills: %w", err)
	}
	return len(saved), nil
}

func (s *SyncService) syncInvestments(ctx context.Context, result *SyncResult) {
	connectionID := result.ConnectionID

	apiInvestments, err := s.client.FetchInvestments(ctx, connectionID)
	if err != nil {
		s.recordFailure(ctx, result, EntityInvestments, connectionID, fmt.Errorf("failed to fetch investments: %w", err))
		return
	}
	if len(apiInvestments) == 0 {
		return
	}

	mapped := make([]*investment.Investment, 0, len(apiInvestments))
	for _, i := range apiInvestments {
		mapped = append(mapped, MapInvestment(i, connectionID))
	}

	saved, err := s.repos.Investments.UpsertMany(ctx, mapped)
	if err != nil {
		s.recordFailure(ctx, result, EntityInvestments, connectionID, fmt.Errorf("failed to upsert investments: %w", err))
		return
	}
	result.Investments = len(saved)

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, inv := range saved {
		g.Go(func() error {
			n, err := s.upsertInvestmentTransactions(ctx, inv.ID)
			if err != nil {
				s.recordFailure(ctx, result, EntityInvestmentTransactions, inv.ID, err)
				return nil
			}
			result.addInvestmentTransactions(n)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *SyncService) upsertInvestmentTransactions(ctx context.Context, investmentID string) (int, error) {
	apiTxs, err := s.client.FetchInvestmentTransactions(ctx, investmentID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch investment transactions: %w", err)
	}
	if len(apiTxs) == 0 {
		return 0, nil
	}

	mapped := make([]*investment.Transaction, 0, len(apiTxs))
	for _, t := range apiTxs {
		mapped = append(mapped, MapInvestmentTransaction(t, investmentID))
	}

	saved, err := s.repos.InvestmentTransactions.UpsertMany(ctx, mapped)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert investment transactions: %w", err)
	}
	return len(saved), nil
}

func (s *SyncService) syncLoans(ctx context.Context, result *SyncResult) {
	connectionID := result.ConnectionID

	apiLoans, err := s.client.FetchLoans(ctx, connectionID)
	if err != nil {
		s.recordFailure(ctx, result, EntityLoans, connectionID, fmt.Errorf("failed to fetch loans: %w", err))
		return
	}
	if len(apiLoans) == 0 {
		return
	}

	mapped := make([]*loan.Loan, 0, len(apiLoans))
	for _, l := range apiLoans {
		mapped = append(mapped, MapLoan(l, connectionID))
	}

	saved, err := s.repos.Loans.UpsertMany(ctx, mapped)
	if err != nil {
		s.recordFailure(ctx, result, EntityLoans, connectionID, fmt.Errorf("failed to upsert loans: %w", err))
		return
	}
	result.Loans = len(saved)
}

func (s *SyncService) syncIdentity(ctx context.Context, result *SyncResult) {
	connectionID := result.ConnectionID

	apiIdentity, err := s.client.FetchIdentity(ctx, connectionID)
	if errors.Is(err, ofclient.ErrNotFound) {
		log.Printf("Connection %s: No identity available", connectionID)
		return
	}
	if err != nil {
		s.recordFailure(ctx, result, EntityIdentity, connectionID, fmt.Errorf("failed to fetch identity: %w", err))
		return
	}

	if _, err := s.repos.Identities.UpsertMany(ctx, []*identity.Identity{MapIdentity(*apiIdentity, connectionID)}); err != nil {
		s.recordFailure(ctx, result, EntityIdentity, connectionID, fmt.Errorf("failed to upsert identity: %w", err))
		return
	}
	result.IdentityFound = true
}

func (s *SyncService) recordFailure(ctx context.Context, result *SyncResult, entity, parentID string, err error) {
	log.Printf("Connection %s: %s sync failed for %s: %v", result.ConnectionID, entity, parentID, err)
	branchFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", entity)))
	result.addError(BranchError{Entity: entity, ParentID: parentID, Err: err})
}
