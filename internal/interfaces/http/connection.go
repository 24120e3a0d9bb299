package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"finsync/internal/domain/connection"
	"finsync/internal/domain/openfinance"
	ofclient "finsync/internal/infrastructure/openfinance"
)

// ConnectionSyncer refreshes a connection from the provider and syncs it.
type ConnectionSyncer interface {
	RefreshConnection(ctx context.Context, connectionID string) (*connection.Connection, *openfinance.SyncResult, error)
}

// ProviderConnections is the part of the provider client the connection endpoints use.
type ProviderConnections interface {
	CreateConnectToken(ctx context.Context, req ofclient.ConnectTokenRequest) (*ofclient.ConnectToken, error)
	DeleteConnection(ctx context.Context, itemID string) error
}

type ConnectionHandler struct {
	syncer      ConnectionSyncer
	provider    ProviderConnections
	connections connection.Repository
	timeout     time.Duration
}

func NewConnectionHandler(syncer ConnectionSyncer, provider ProviderConnections, connections connection.Repository, timeout time.Duration) *ConnectionHandler {
	return &ConnectionHandler{
		syncer:      syncer,
		provider:    provider,
		connections: connections,
		timeout:     timeout,
	}
}

type SyncResponse struct {
	Connection *connection.Connection  `json:"connection"`
	Result     *openfinance.SyncResult `json:"result"`
}

type ConnectTokenRequest struct {
	ItemID       string `json:"itemId"`
	ClientUserID string `json:"clientUserId"`
	WebhookURL   string `json:"webhookUrl"`
}

// HandleSync handles POST /api/connections/{id}/sync
func (h *ConnectionHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	connectionID := r.PathValue("id")
	if connectionID == "" {
		writeError(w, http.StatusBadRequest, "Connection ID is required")
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	conn, result, err := h.syncer.RefreshConnection(ctx, connectionID)
	if err != nil {
		if errors.Is(err, ofclient.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Connection not found at provider")
			return
		}
		log.Printf("Connection %s: Explicit sync failed: %v", connectionID, err)
		writeError(w, http.StatusInternalServerError, "Failed to sync connection")
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{Connection: conn, Result: result})
}

// HandleConnectToken handles POST /api/connect-token. An itemId puts the widget in
// update mode for an existing connection.
func (h *ConnectionHandler) HandleConnectToken(w http.ResponseWriter, r *http.Request) {
	var req ConnectTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tokenReq := ofclient.ConnectTokenRequest{ItemID: req.ItemID}
	if req.ClientUserID != "" || req.WebhookURL != "" {
		tokenReq.Options = &ofclient.ConnectTokenOptions{
			ClientUserID: req.ClientUserID,
			WebhookURL:   req.WebhookURL,
		}
	}

	token, err := h.provider.CreateConnectToken(r.Context(), tokenReq)
	if err != nil {
		log.Printf("Error creating connect token: %v", err)
		writeError(w, http.StatusBadGateway, "Failed to create connect token")
		return
	}

	writeJSON(w, http.StatusCreated, token)
}

// HandleDelete handles DELETE /api/connections/{id}. The provider is told first so a
// failure there leaves the stored snapshot in place.
func (h *ConnectionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	connectionID := r.PathValue("id")
	if connectionID == "" {
		writeError(w, http.StatusBadRequest, "Connection ID is required")
		return
	}

	providerErr := h.provider.DeleteConnection(r.Context(), connectionID)
	if providerErr != nil && !errors.Is(providerErr, ofclient.ErrNotFound) {
		log.Printf("Connection %s: Provider delete failed: %v", connectionID, providerErr)
		writeError(w, http.StatusBadGateway, "Failed to delete connection at provider")
		return
	}

	err := h.connections.Delete(r.Context(), connectionID)
	switch {
	case errors.Is(err, connection.ErrConnectionNotFound) && providerErr != nil:
		writeError(w, http.StatusNotFound, "Connection not found")
		return
	case err != nil && !errors.Is(err, connection.ErrConnectionNotFound):
		log.Printf("Connection %s: Store delete failed: %v", connectionID, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete connection")
		return
	}

	log.Printf("Connection %s: Deleted", connectionID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet handles GET /api/connections/{id}
func (h *ConnectionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	conn, err := h.connections.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, connection.ErrConnectionNotFound) {
		writeError(w, http.StatusNotFound, "Connection not found")
		return
	}
	if err != nil {
		log.Printf("Error getting connection %s: %v", r.PathValue("id"), err)
		writeError(w, http.StatusInternalServerError, "Failed to get connection")
		return
	}
	writeJSON(w, http.StatusOK, conn)
}
