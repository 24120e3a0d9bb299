package webhook

import (
	"errors"
	"fmt"
	"strings"
)

// Provider event names
const (
	EventItemCreated          = "item/created"
	EventItemUpdated          = "item/updated"
	EventItemLoginSucceeded   = "item/login_succeeded"
	EventItemError            = "item/error"
	EventItemWaitingUserInput = "item/waiting_user_input"
	EventItemDeleted          = "item/deleted"
	EventTransactionsCreated  = "transactions/created"
	EventTransactionsUpdated  = "transactions/updated"
	EventTransactionsDeleted  = "transactions/deleted"
)

// ErrInvalidEnvelope is returned for envelopes that cannot be dispatched.
var ErrInvalidEnvelope = errors.New("invalid webhook envelope")

// Envelope is an inbound provider event.
type Envelope struct {
	Event          string         `json:"event"`
	EventID        string         `json:"eventId"`
	ItemID         string         `json:"itemId,omitempty"`
	ID             string         `json:"id,omitempty"`
	AccountID      string         `json:"accountId,omitempty"`
	TransactionIDs []string       `json:"transactionIds,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

// Validate checks the fields every event must carry.
func (e *Envelope) Validate() error {
	if strings.TrimSpace(e.Event) == "" {
		return fmt.Errorf("%w: event is required", ErrInvalidEnvelope)
	}
	if strings.TrimSpace(e.EventID) == "" {
		return fmt.Errorf("%w: eventId is required", ErrInvalidEnvelope)
	}
	return nil
}

// ConnectionID resolves the connection the event refers to. The provider is not
// consistent about where it puts it, so the first non-empty of itemId, data.itemId,
// data.item_id and id wins.
func (e *Envelope) ConnectionID() string {
	if id := strings.TrimSpace(e.ItemID); id != "" {
		return id
	}
	if id := e.dataString("itemId"); id != "" {
		return id
	}
	if id := e.dataString("item_id"); id != "" {
		return id
	}
	return strings.TrimSpace(e.ID)
}

// AccountIDOrEmpty resolves the account of a transactions event from accountId or
// data.accountId. Empty means the account is unknown.
func (e *Envelope) AccountIDOrEmpty() string {
	if id := strings.TrimSpace(e.AccountID); id != "" {
		return id
	}
	return e.dataString("accountId")
}

func (e *Envelope) dataString(key string) string {
	if e.Data == nil {
		return ""
	}
	s, _ := e.Data[key].(string)
	return strings.TrimSpace(s)
}
