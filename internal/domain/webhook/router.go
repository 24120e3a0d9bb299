// Package webhook dispatches provider webhook events to the sync engine.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"finsync/internal/domain/account"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/openfinance"
	ofclient "finsync/internal/infrastructure/openfinance"
)

var (
	webhookMeter     = otel.Meter("finsync/webhook")
	webhookEvents, _ = webhookMeter.Int64Counter("webhook.events", metric.WithDescription("Webhook events by event name and outcome"))
)

// Syncer is the part of the sync service the router drives.
type Syncer interface {
	SyncConnection(ctx context.Context, connectionID string) (*openfinance.SyncResult, error)
	SyncAccountTransactions(ctx context.Context, accountID string) (int, error)
}

// ConnectionFetcher loads the provider's current view of a connection.
type ConnectionFetcher interface {
	FetchConnection(ctx context.Context, itemID string) (*ofclient.Item, error)
}

// Notifier tells the owner of a connection that its status changed.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, c *connection.Connection) error
}

// Router dispatches envelopes by event name. It keeps no state between events and does
// not deduplicate redeliveries.
type Router struct {
	client      ConnectionFetcher
	connections connection.Repository
	syncer      Syncer
	notifier    Notifier
}

// NewRouter creates a new router. notifier may be nil.
func NewRouter(client ConnectionFetcher, connections connection.Repository, syncer Syncer, notifier Notifier) *Router {
	return &Router{
		client:      client,
		connections: connections,
		syncer:      syncer,
		notifier:    notifier,
	}
}

// Handle dispatches one event. Handler errors are returned to the caller so the
// provider can redeliver; unknown events are logged and accepted.
func (r *Router) Handle(ctx context.Context, env *Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}

	log.Printf("Webhook %s: Received %s", env.EventID, env.Event)

	err := r.dispatch(ctx, env)

	outcome := "success"
	if err != nil {
		outcome = "error"
		log.Printf("Webhook %s: Failed to handle %s: %v", env.EventID, env.Event, err)
	}
	webhookEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", env.Event),
		attribute.String("outcome", outcome),
	))
	return err
}

func (r *Router) dispatch(ctx context.Context, env *Envelope) error {
	switch env.Event {
	case EventItemCreated, EventItemUpdated, EventItemLoginSucceeded:
		return r.withConnectionID(env, func(id string) error { return r.refreshConnection(ctx, env, id) })
	case EventItemError:
		return r.withConnectionID(env, func(id string) error {
			return r.patchStatus(ctx, env, id, connection.StatusLoginError)
		})
	case EventItemWaitingUserInput:
		return r.withConnectionID(env, func(id string) error {
			return r.patchStatus(ctx, env, id, connection.StatusWaitingUserInput)
		})
	case EventItemDeleted:
		return r.withConnectionID(env, func(id string) error { return r.deleteConnection(ctx, env, id) })
	case EventTransactionsCreated, EventTransactionsUpdated:
		return r.syncTransactions(ctx, env)
	case EventTransactionsDeleted:
		return r.transactionsDeleted(env)
	default:
		log.Printf("Webhook %s: Warning - ignoring unknown event %q", env.EventID, env.Event)
		return nil
	}
}

func (r *Router) withConnectionID(env *Envelope, fn func(id string) error) error {
	id := env.ConnectionID()
	if id == "" {
		return fmt.Errorf("%w: %s without a connection id", ErrInvalidEnvelope, env.Event)
	}
	return fn(id)
}

// refreshConnection stores the provider's current connection record and runs a full sync.
func (r *Router) refreshConnection(ctx context.Context, env *Envelope, connectionID string) error {
	item, err := r.client.FetchConnection(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("failed to fetch connection %s: %w", connectionID, err)
	}

	if _, err := r.connections.Upsert(ctx, openfinance.MapConnection(*item)); err != nil {
		return fmt.Errorf("failed to upsert connection %s: %w", connectionID, err)
	}

	result, err := r.syncer.SyncConnection(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("failed to sync connection %s: %w", connectionID, err)
	}

	log.Printf("Webhook %s: Connection %s synced with %d branch errors", env.EventID, connectionID, len(result.Errors))
	return nil
}

func (r *Router) patchStatus(ctx context.Context, env *Envelope, connectionID, status string) error {
	if _, err := r.connections.GetByID(ctx, connectionID); err != nil {
		if errors.Is(err, connection.ErrConnectionNotFound) {
			log.Printf("Webhook %s: Connection %s not stored, ignoring %s", env.EventID, connectionID, env.Event)
			return nil
		}
		return fmt.Errorf("failed to load connection %s: %w", connectionID, err)
	}

	updated, err := r.connections.UpdateStatus(ctx, connectionID, status)
	if err != nil {
		if errors.Is(err, connection.ErrConnectionNotFound) {
			// deleted between the load and the update
			return nil
		}
		return fmt.Errorf("failed to update status of connection %s: %w", connectionID, err)
	}

	log.Printf("Webhook %s: Connection %s status set to %s", env.EventID, connectionID, status)

	if r.notifier != nil {
		if err := r.notifier.NotifyStatusChange(ctx, updated); err != nil {
			log.Printf("Webhook %s: Failed to notify status change of connection %s: %v", env.EventID, connectionID, err)
		}
	}
	return nil
}

func (r *Router) deleteConnection(ctx context.Context, env *Envelope, connectionID string) error {
	if err := r.connections.Delete(ctx, connectionID); err != nil {
		if errors.Is(err, connection.ErrConnectionNotFound) {
			log.Printf("Webhook %s: Connection %s already deleted", env.EventID, connectionID)
			return nil
		}
		return fmt.Errorf("failed to delete connection %s: %w", connectionID, err)
	}

	log.Printf("Webhook %s: Connection %s deleted", env.EventID, connectionID)
	return nil
}

// syncTransactions refreshes a single account when the event names one. Otherwise, or when
// the account was never stored, it refreshes the whole connection so a connection missing
// from the store is created before its accounts.
func (r *Router) syncTransactions(ctx context.Context, env *Envelope) error {
	if accountID := env.AccountIDOrEmpty(); accountID != "" {
		n, err := r.syncer.SyncAccountTransactions(ctx, accountID)
		if err == nil {
			log.Printf("Webhook %s: Account %s synced %d transactions", env.EventID, accountID, n)
			return nil
		}
		if !errors.Is(err, account.ErrAccountNotFound) || env.ConnectionID() == "" {
			return fmt.Errorf("failed to sync transactions of account %s: %w", accountID, err)
		}
		log.Printf("Webhook %s: Account %s not stored, refreshing the connection", env.EventID, accountID)
	}

	return r.withConnectionID(env, func(id string) error {
		return r.refreshConnection(ctx, env, id)
	})
}

func (r *Router) transactionsDeleted(env *Envelope) error {
	// Deleted transactions are accepted and left in place: the store has no notion of a
	// removed transaction yet.
	// TODO: add a deleted_at column to transactions and soft-delete env.TransactionIDs here.
	log.Printf("Webhook %s: Ignoring deletion of %d transactions", env.EventID, len(env.TransactionIDs))
	return nil
}
