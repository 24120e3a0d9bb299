// Package listener turns PostgreSQL notifications into connection status pushes.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/lib/pq"

	"finsync/internal/domain/connection"
)

const (
	// ChannelName is the NOTIFY channel the connections trigger publishes on.
	ChannelName       = "connection_status_changed"
	reconnectInterval = 5 * time.Second
	pingInterval      = 90 * time.Second
	notifyTimeout     = 10 * time.Second
)

// StatusNotification is the payload of a connection_status_changed notification.
type StatusNotification struct {
	ConnectionID string `json:"connection_id"`
	Status       string `json:"status"`
}

// Notifier delivers a status change to the connection's owner.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, c *connection.Connection) error
}

// StatusListener listens for connection status changes written by any process
// (webhooks, explicit syncs, the admin CLI) and forwards them to a Notifier.
type StatusListener struct {
	connStr     string
	connections connection.Repository
	notifier    Notifier
	shutdownCh  chan struct{}
	done        chan struct{}
}

func NewStatusListener(connStr string, connections connection.Repository, notifier Notifier) *StatusListener {
	return &StatusListener{
		connStr:     connStr,
		connections: connections,
		notifier:    notifier,
		shutdownCh:  make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start begins listening in a background goroutine.
func (l *StatusListener) Start(ctx context.Context) {
	go l.listen(ctx)
	log.Println("Connection status listener started")
}

// Stop shuts the listener down and waits for it to exit.
func (l *StatusListener) Stop() {
	close(l.shutdownCh)
	<-l.done
	log.Println("Connection status listener stopped")
}

func (l *StatusListener) listen(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		default:
			l.connectAndListen(ctx)
		}

		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(reconnectInterval):
			log.Println("Reconnecting to PostgreSQL for status notifications...")
		}
	}
}

func (l *StatusListener) connectAndListen(ctx context.Context) {
	listener := pq.NewListener(l.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			log.Println("Connected to PostgreSQL notification channel")
		case pq.ListenerEventDisconnected:
			log.Printf("Disconnected from PostgreSQL notification channel: %v", err)
		case pq.ListenerEventReconnected:
			log.Println("Reconnected to PostgreSQL notification channel")
		case pq.ListenerEventConnectionAttemptFailed:
			log.Printf("Notification channel connection attempt failed: %v", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(ChannelName); err != nil {
		log.Printf("Failed to listen on channel %s: %v", ChannelName, err)
		return
	}

	log.Printf("Listening on channel: %s", ChannelName)

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n == nil {
				// pq sends nil after a reconnect; changes during the gap are lost
				continue
			}
			l.handle(context.Background(), n.Extra)
		case <-time.After(pingInterval):
			go func() {
				if err := listener.Ping(); err != nil {
					log.Printf("Listener ping failed: %v", err)
				}
			}()
		}
	}
}

// handle parses one payload and notifies the owner with the stored connection.
func (l *StatusListener) handle(ctx context.Context, payload string) {
	var n StatusNotification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		log.Printf("Failed to parse status notification payload: %v", err)
		return
	}
	if n.ConnectionID == "" {
		log.Printf("Status notification without connection id: %s", payload)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	conn, err := l.connections.GetByID(ctx, n.ConnectionID)
	if errors.Is(err, connection.ErrConnectionNotFound) {
		// deleted before the notification was handled
		return
	}
	if err != nil {
		log.Printf("Connection %s: Failed to load for status notification: %v", n.ConnectionID, err)
		return
	}

	if err := l.notifier.NotifyStatusChange(ctx, conn); err != nil {
		log.Printf("Connection %s: Failed to notify status %s: %v", n.ConnectionID, conn.Status, err)
		return
	}
	log.Printf("Connection %s: Notified status %s", n.ConnectionID, conn.Status)
}
