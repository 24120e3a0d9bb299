package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finsync/internal/domain/connection"
)

var connectionColumns = []string{
	"id", "connector_id", "connector_name", "connector_image_url", "connector_primary_color",
	"status", "execution_status", "client_user_id", "error_code", "error_message",
	"provider_created_at", "provider_updated_at", "last_updated_at",
}

var connectionUpsertQuery = upsertQuery("connections", connectionColumns)

// ConnectionRepository implements the connection.Repository interface for PostgreSQL
type ConnectionRepository struct {
	db *DB
}

// NewConnectionRepository creates a new PostgreSQL connection repository
func NewConnectionRepository(db *DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// Upsert creates or replaces a connection
func (r *ConnectionRepository) Upsert(ctx context.Context, c *connection.Connection) (*connection.Connection, error) {
	row := r.db.QueryRowContext(ctx, connectionUpsertQuery,
		c.ID, c.ConnectorID, c.ConnectorName, c.ConnectorImageURL, c.ConnectorPrimaryColor,
		c.Status, c.ExecutionStatus, c.ClientUserID, c.ErrorCode, c.ErrorMessage,
		c.ProviderCreatedAt, c.ProviderUpdatedAt, c.LastUpdatedAt,
	)

	saved, err := scanConnection(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert connection: %w", err)
	}
	return saved, nil
}

// GetByID retrieves a connection by its ID
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*connection.Connection, error) {
	query := `SELECT ` + selectColumns(connectionColumns) + ` FROM connections WHERE id = $1`

	c, err := scanConnection(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, connection.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return c, nil
}

// UpdateStatus changes the status column only
func (r *ConnectionRepository) UpdateStatus(ctx context.Context, id, status string) (*connection.Connection, error) {
	if !connection.IsValidStatus(status) {
		return nil, connection.ErrInvalidStatus
	}

	query := `
		UPDATE connections
		SET status = $2,
		    updated_at = CASE WHEN status IS DISTINCT FROM $2 THEN NOW() ELSE updated_at END
		WHERE id = $1
		RETURNING ` + selectColumns(connectionColumns)

	c, err := scanConnection(r.db.QueryRowContext(ctx, query, id, status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, connection.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update connection status: %w", err)
	}
	return c, nil
}

// Delete removes a connection. Accounts, transactions, bills, investments, loans and
// identity go with it through ON DELETE CASCADE.
func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return connection.ErrConnectionNotFound
	}
	return nil
}

// List returns every stored connection
func (r *ConnectionRepository) List(ctx context.Context) ([]*connection.Connection, error) {
	query := `SELECT ` + selectColumns(connectionColumns) + ` FROM connections ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var connections []*connection.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}
	return connections, nil
}

func scanConnection(row rowScanner) (*connection.Connection, error) {
	var c connection.Connection
	err := row.Scan(
		&c.ID, &c.ConnectorID, &c.ConnectorName, &c.ConnectorImageURL, &c.ConnectorPrimaryColor,
		&c.Status, &c.ExecutionStatus, &c.ClientUserID, &c.ErrorCode, &c.ErrorMessage,
		&c.ProviderCreatedAt, &c.ProviderUpdatedAt, &c.LastUpdatedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.ProviderCreatedAt = utcPtr(c.ProviderCreatedAt)
	c.ProviderUpdatedAt = utcPtr(c.ProviderUpdatedAt)
	c.LastUpdatedAt = utcPtr(c.LastUpdatedAt)
	c.CreatedAt = utc(c.CreatedAt)
	c.UpdatedAt = utc(c.UpdatedAt)
	return &c, nil
}
