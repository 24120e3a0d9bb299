package main

import (
	"context"
	"fmt"
	"log"

	"finsync/internal/domain/openfinance"
	"finsync/internal/domain/webhook"
	"finsync/internal/infrastructure/crypto"
	"finsync/internal/infrastructure/firebase"
	ofclient "finsync/internal/infrastructure/openfinance"
	"finsync/internal/infrastructure/postgres"
	"finsync/internal/infrastructure/postgres/listener"
	httphandlers "finsync/internal/interfaces/http"
	"finsync/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// StatusListener pushes connection status changes; nil without Firebase.
	StatusListener *listener.StatusListener

	// Handlers
	WebhookHandler    *httphandlers.WebhookHandler
	ConnectionHandler *httphandlers.ConnectionHandler
	QueryHandler      *httphandlers.QueryHandler
	HealthHandler     *httphandlers.HealthHandler
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	repos := openfinance.Repositories{
		Connections:            postgres.NewConnectionRepository(db),
		Accounts:               postgres.NewAccountRepository(db),
		Transactions:           postgres.NewTransactionRepository(db),
		Bills:                  postgres.NewBillRepository(db),
		Investments:            postgres.NewInvestmentRepository(db),
		InvestmentTransactions: postgres.NewInvestmentTransactionRepository(db),
		Loans:                  postgres.NewLoanRepository(db),
		Identities:             postgres.NewIdentityRepository(db, encryptor),
	}

	ofClient, err := ofclient.NewClient(ofclient.ClientConfig{
		ClientID:     cfg.Provider.ClientID,
		ClientSecret: cfg.Provider.ClientSecret,
		BaseURL:      cfg.Provider.BaseURL,
		Timeout:      cfg.Provider.Timeout,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize provider client: %w", err)
	}

	syncService := openfinance.NewSyncService(ofClient, repos, cfg.Sync.Concurrency)

	decoder, err := webhook.NewDecoder()
	if err != nil {
		db.Close()
		return nil, err
	}

	// Status pushes are optional and driven by the connections trigger, not the router
	var statusListener *listener.StatusListener
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Printf("Warning: Failed to initialize Firebase, status notifications disabled: %v", err)
		} else {
			statusListener = listener.NewStatusListener(cfg.Database.ConnectionString(), repos.Connections, fcm)
			statusListener.Start(ctx)
			log.Println("Firebase status notifications enabled")
		}
	}

	router := webhook.NewRouter(ofClient, repos.Connections, syncService, nil)

	return &Dependencies{
		DB:                db,
		StatusListener:    statusListener,
		WebhookHandler:    httphandlers.NewWebhookHandler(decoder, router, cfg.Sync.RequestTimeout),
		ConnectionHandler: httphandlers.NewConnectionHandler(syncService, ofClient, repos.Connections, cfg.Sync.RequestTimeout),
		QueryHandler: httphandlers.NewQueryHandler(httphandlers.QueryRepositories{
			Connections:  repos.Connections,
			Accounts:     repos.Accounts,
			Transactions: repos.Transactions,
			Bills:        repos.Bills,
			Investments:  repos.Investments,
			Loans:        repos.Loans,
			Identities:   repos.Identities,
		}),
		HealthHandler: httphandlers.NewHealthHandler(db),
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.StatusListener != nil {
		d.StatusListener.Stop()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
