package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"finsync/internal/domain/openfinance"
	"finsync/internal/interfaces/scheduler"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <connection-id>",
		Short: "Refresh a connection from the provider and run a full sync",
		Example: `  admin sync 7f3c2a10-4d1e-4b8e-9a55-0d2c1f6e8b90
  admin sync 7f3c2a10-4d1e-4b8e-9a55-0d2c1f6e8b90 --timeout=5m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := withTimeout(cmd, rootOpts)
			defer cancel()

			conn, result, err := a.sync.RefreshConnection(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Connection %s (%s): %s\n", conn.ID, conn.ConnectorName, conn.Status)
			printResult(cmd, result)
			return nil
		},
	}
}

// NewSyncAccountsCommand creates the sync-accounts command.
func NewSyncAccountsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-accounts <connection-id>",
		Short: "Sync only accounts and their transactions for a stored connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := withTimeout(cmd, rootOpts)
			defer cancel()

			result, err := a.sync.SyncAccountsOnly(ctx, args[0])
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}
}

// SyncAllOptions holds flags for the sync-all command.
type SyncAllOptions struct {
	*RootOptions
	Workers  int
	JobDelay time.Duration
}

// NewSyncAllCommand creates the sync-all command.
func NewSyncAllCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncAllOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync-all",
		Short: "Run a full sync for every stored connection",
		Example: `  admin sync-all
  admin sync-all --workers=8 --job-delay=2s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncAll(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "number of connections synced concurrently (default SCHEDULER_WORKERS)")
	cmd.Flags().DurationVar(&opts.JobDelay, "job-delay", -1, "pause per worker between connections (default SCHEDULER_JOB_DELAY)")

	return cmd
}

func runSyncAll(cmd *cobra.Command, opts *SyncAllOptions) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := withTimeout(cmd, opts.RootOptions)
	defer cancel()

	workers := opts.Workers
	if workers <= 0 {
		workers = a.cfg.Scheduler.WorkerCount
	}
	jobDelay := opts.JobDelay
	if jobDelay < 0 {
		jobDelay = a.cfg.Scheduler.JobDelay
	}

	jobs, err := scheduler.ConnectionSyncJobs(ctx, a.repo.Connections, a.sync)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No connections to sync")
		return nil
	}

	log.Printf("Syncing %d connections with %d workers", len(jobs), workers)

	pool := scheduler.NewWorkerPool(workers, jobDelay, 0, a.cfg.Scheduler.QueueSize)
	pool.Start()
	submitted := pool.SubmitBatch(ctx, jobs)
	pool.Shutdown()

	stats := pool.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d/%d connections: %d succeeded, %d failed\n",
		stats.Succeeded+stats.Failed, len(jobs), stats.Succeeded, stats.Failed)

	if submitted < len(jobs) {
		return fmt.Errorf("only %d of %d connections were queued: %w", submitted, len(jobs), ctx.Err())
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d connections failed to sync", stats.Failed)
	}
	return nil
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := withTimeout(cmd, rootOpts)
			defer cancel()

			if err := a.db.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
			return nil
		},
	}
}

func printResult(cmd *cobra.Command, result *openfinance.SyncResult) {
	out := cmd.OutOrStdout()
	if result.NoAccounts {
		fmt.Fprintln(out, "Provider reported no accounts; nothing else was synced")
		return
	}
	fmt.Fprintf(out, "Accounts: %d\nTransactions: %d\nBills: %d (accounts %v)\nInvestments: %d (%d transactions)\nLoans: %d\nIdentity: %v\n",
		result.Accounts, result.Transactions, result.Bills, result.AccountsWithBills,
		result.Investments, result.InvestmentTransactions, result.Loans, result.IdentityFound)
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  error: %v\n", e)
	}
}
