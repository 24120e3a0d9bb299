package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"finsync/internal/domain/openfinance"
	"finsync/internal/infrastructure/crypto"
	ofclient "finsync/internal/infrastructure/openfinance"
	"finsync/internal/infrastructure/postgres"
	"finsync/internal/shared/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Timeout time.Duration
}

// NewRootCommand creates the root command for the admin CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "finsync admin - management commands for the sync engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Minute, "timeout for the whole operation (e.g. 5m, 1h)")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewSyncAccountsCommand(opts))
	cmd.AddCommand(NewSyncAllCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// app is the subset of the API wiring the admin commands need.
type app struct {
	cfg  *config.Config
	db   *postgres.DB
	sync *openfinance.SyncService
	repo openfinance.Repositories
}

func newApp(withProvider bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	a := &app{cfg: cfg, db: db}
	if !withProvider {
		return a, nil
	}

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	client, err := ofclient.NewClient(ofclient.ClientConfig{
		ClientID:     cfg.Provider.ClientID,
		ClientSecret: cfg.Provider.ClientSecret,
		BaseURL:      cfg.Provider.BaseURL,
		Timeout:      cfg.Provider.Timeout,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}

	a.repo = openfinance.Repositories{
		Connections:            postgres.NewConnectionRepository(db),
		Accounts:               postgres.NewAccountRepository(db),
		Transactions:           postgres.NewTransactionRepository(db),
		Bills:                  postgres.NewBillRepository(db),
		Investments:            postgres.NewInvestmentRepository(db),
		InvestmentTransactions: postgres.NewInvestmentTransactionRepository(db),
		Loans:                  postgres.NewLoanRepository(db),
		Identities:             postgres.NewIdentityRepository(db, encryptor),
	}
	a.sync = openfinance.NewSyncService(client, a.repo, cfg.Sync.Concurrency)
	return a, nil
}

func (a *app) Close() {
	a.db.Close()
}

func withTimeout(cmd *cobra.Command, opts *RootOptions) (context.Context, context.CancelFunc) {
	if opts.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), opts.Timeout)
}
