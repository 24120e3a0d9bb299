package scheduler

import (
	"context"
	"fmt"
	"log"

	"finsync/internal/domain/connection"
	"finsync/internal/domain/openfinance"
)

// ConnectionRefresher refreshes a connection from the provider and runs a full sync pass.
type ConnectionRefresher interface {
	RefreshConnection(ctx context.Context, connectionID string) (*connection.Connection, *openfinance.SyncResult, error)
}

// ConnectionSyncJob runs a full sync for one stored connection.
type ConnectionSyncJob struct {
	connectionID string
	syncer       ConnectionRefresher
}

func NewConnectionSyncJob(connectionID string, syncer ConnectionRefresher) *ConnectionSyncJob {
	return &ConnectionSyncJob{
		connectionID: connectionID,
		syncer:       syncer,
	}
}

// Execute fails when the pass fails or any isolated branch failed, so the job is
// counted as failed in the pool stats.
func (j *ConnectionSyncJob) Execute(ctx context.Context) error {
	conn, result, err := j.syncer.RefreshConnection(ctx, j.connectionID)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if len(result.Errors) > 0 {
		log.Printf("Connection %s: Sync completed with errors: Status=%s, Accounts=%d, Transactions=%d, Errors=%d",
			j.connectionID, conn.Status, result.Accounts, result.Transactions, len(result.Errors))
		return fmt.Errorf("sync completed with %d errors", len(result.Errors))
	}

	log.Printf("Connection %s: Sync completed: Status=%s, Accounts=%d, Transactions=%d, Bills=%d, Investments=%d, Loans=%d",
		j.connectionID, conn.Status, result.Accounts, result.Transactions, result.Bills, result.Investments, result.Loans)
	return nil
}

func (j *ConnectionSyncJob) ConnectionID() string {
	return j.connectionID
}

func (j *ConnectionSyncJob) Description() string {
	return fmt.Sprintf("Full sync for connection %s", j.connectionID)
}

// ConnectionSyncJobs builds one ConnectionSyncJob per stored connection.
func ConnectionSyncJobs(ctx context.Context, connections connection.Repository, syncer ConnectionRefresher) ([]Job, error) {
	conns, err := connections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	jobs := make([]Job, 0, len(conns))
	for _, c := range conns {
		jobs = append(jobs, NewConnectionSyncJob(c.ID, syncer))
	}
	return jobs, nil
}
