package connection

import (
	"errors"
	"time"
)

// Connection statuses reported by the provider
const (
	StatusCreated          = "CREATED"
	StatusUpdating         = "UPDATING"
	StatusUpdated          = "UPDATED"
	StatusWaitingUserInput = "WAITING_USER_INPUT"
	StatusLoginError       = "LOGIN_ERROR"
	StatusOutdated         = "OUTDATED"
)

var statuses = map[string]struct{}{
	StatusCreated:          {},
	StatusUpdating:         {},
	StatusUpdated:          {},
	StatusWaitingUserInput: {},
	StatusLoginError:       {},
	StatusOutdated:         {},
}

// Domain errors
var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrInvalidStatus      = errors.New("invalid connection status")
)

// Connection is a user's link to one financial institution (the provider's "item").
type Connection struct {
	ID                    string     `json:"id"`
	ConnectorID           int        `json:"connectorId"`
	ConnectorName         string     `json:"connectorName"`
	ConnectorImageURL     string     `json:"connectorImageUrl"`
	ConnectorPrimaryColor string     `json:"connectorPrimaryColor"`
	Status                string     `json:"status"`
	ExecutionStatus       string     `json:"executionStatus"`
	ClientUserID          *string    `json:"clientUserId,omitempty"`
	ErrorCode             *string    `json:"errorCode,omitempty"`
	ErrorMessage          *string    `json:"errorMessage,omitempty"`
	ProviderCreatedAt     *time.Time `json:"providerCreatedAt,omitempty"`
	ProviderUpdatedAt     *time.Time `json:"providerUpdatedAt,omitempty"`
	LastUpdatedAt         *time.Time `json:"lastUpdatedAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// IsValidStatus checks if the provided status is a known connection status.
func IsValidStatus(s string) bool {
	_, ok := statuses[s]
	return ok
}
