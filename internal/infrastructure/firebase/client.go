package firebase

import (
	"context"
	"fmt"
	"log"
	"regexp"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"finsync/internal/domain/connection"
)

// TopicPrefix is prepended to the connection id to form the FCM topic devices subscribe to.
const TopicPrefix = "connection-"

var invalidTopicChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.~%]`)

type messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Client implements webhook.Notifier using Firebase Cloud Messaging
type Client struct {
	msgClient messenger
}

// NewClient initializes a Firebase app and returns an FCM client.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging client: %w", err)
	}

	return &Client{msgClient: msgClient}, nil
}

// Topic returns the FCM topic for a connection.
func Topic(connectionID string) string {
	return TopicPrefix + invalidTopicChars.ReplaceAllString(connectionID, "_")
}

// NotifyStatusChange publishes a data-only message with the connection's new status.
// A nil client is a no-op so notifications stay optional.
func (c *Client) NotifyStatusChange(ctx context.Context, conn *connection.Connection) error {
	if c == nil || conn == nil {
		return nil
	}

	data := map[string]string{
		"type":         "connection_status",
		"connectionId": conn.ID,
		"status":       conn.Status,
	}
	if conn.ErrorCode != nil {
		data["errorCode"] = *conn.ErrorCode
	}

	msg := &messaging.Message{
		Topic: Topic(conn.ID),
		Data:  data,
	}

	id, err := c.msgClient.Send(ctx, msg)
	if err != nil {
		if messaging.IsInvalidArgument(err) {
			return fmt.Errorf("invalid FCM message for connection %s: %w", conn.ID, err)
		}
		return fmt.Errorf("failed to send FCM message: %w", err)
	}

	log.Printf("Connection %s: Status %s notified (message %s)", conn.ID, conn.Status, id)
	return nil
}
