package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finsync/internal/domain/connection"
	"finsync/internal/domain/openfinance"
	ofclient "finsync/internal/infrastructure/openfinance"
)

func newConnectionRequest(method, target, id string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.SetPathValue("id", id)
	return req
}

func TestHandleSync(t *testing.T) {
	tests := []struct {
		name           string
		syncErr        error
		expectedStatus int
	}{
		{name: "Success", expectedStatus: http.StatusOK},
		{name: "Unknown at provider", syncErr: fmt.Errorf("failed to fetch item: %w", ofclient.ErrNotFound), expectedStatus: http.StatusNotFound},
		{name: "Sync failure", syncErr: errors.New("database down"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &MockSyncer{
				RefreshConnectionFunc: func(ctx context.Context, connectionID string) (*connection.Connection, *openfinance.SyncResult, error) {
					if tt.syncErr != nil {
						return nil, nil, tt.syncErr
					}
					return &connection.Connection{ID: connectionID, Status: connection.StatusUpdated},
						&openfinance.SyncResult{ConnectionID: connectionID, Accounts: 2, Transactions: 7}, nil
				},
			}
			handler := NewConnectionHandler(syncer, &MockProvider{}, &MockConnectionRepo{}, time.Second)

			rec := httptest.NewRecorder()
			handler.HandleSync(rec, newConnectionRequest(http.MethodPost, "/api/connections/conn-1/sync", "conn-1", nil))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp struct {
				Connection connection.Connection `json:"connection"`
				Result     struct {
					Accounts     int `json:"accounts"`
					Transactions int `json:"transactions"`
				} `json:"result"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Connection.ID != "conn-1" || resp.Result.Accounts != 2 || resp.Result.Transactions != 7 {
				t.Errorf("unexpected response %+v", resp)
			}
		})
	}
}

func TestHandleSync_MissingID(t *testing.T) {
	handler := NewConnectionHandler(&MockSyncer{}, &MockProvider{}, &MockConnectionRepo{}, 0)

	rec := httptest.NewRecorder()
	handler.HandleSync(rec, newConnectionRequest(http.MethodPost, "/api/connections//sync", "", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleConnectToken(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		providerErr    error
		expectedStatus int
		check          func(t *testing.T, req ofclient.ConnectTokenRequest)
	}{
		{
			name:           "Empty body",
			expectedStatus: http.StatusCreated,
			check: func(t *testing.T, req ofclient.ConnectTokenRequest) {
				if req.ItemID != "" || req.Options != nil {
					t.Errorf("expected bare request, got %+v", req)
				}
			},
		},
		{
			name:           "Update mode with options",
			body:           `{"itemId":"conn-1","clientUserId":"user-7","webhookUrl":"https://example.com/hook"}`,
			expectedStatus: http.StatusCreated,
			check: func(t *testing.T, req ofclient.ConnectTokenRequest) {
				if req.ItemID != "conn-1" {
					t.Errorf("expected itemId conn-1, got %q", req.ItemID)
				}
				if req.Options == nil || req.Options.ClientUserID != "user-7" || req.Options.WebhookURL != "https://example.com/hook" {
					t.Errorf("unexpected options %+v", req.Options)
				}
			},
		},
		{
			name:           "Invalid body",
			body:           `{"itemId":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Provider failure",
			providerErr:    errors.New("provider unavailable"),
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *ofclient.ConnectTokenRequest
			provider := &MockProvider{
				CreateConnectTokenFunc: func(ctx context.Context, req ofclient.ConnectTokenRequest) (*ofclient.ConnectToken, error) {
					got = &req
					if tt.providerErr != nil {
						return nil, tt.providerErr
					}
					return &ofclient.ConnectToken{AccessToken: "tok-123"}, nil
				},
			}
			handler := NewConnectionHandler(&MockSyncer{}, provider, &MockConnectionRepo{}, 0)

			rec := httptest.NewRecorder()
			handler.HandleConnectToken(rec, httptest.NewRequest(http.MethodPost, "/api/connect-token", bytes.NewBufferString(tt.body)))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.check != nil {
				if got == nil {
					t.Fatal("expected provider to be called")
				}
				tt.check(t, *got)
			}
		})
	}
}

func TestHandleDelete(t *testing.T) {
	tests := []struct {
		name           string
		providerErr    error
		storeErr       error
		expectedStatus int
		expectStoreHit bool
	}{
		{name: "Deleted everywhere", expectedStatus: http.StatusNoContent, expectStoreHit: true},
		{name: "Already gone at provider", providerErr: ofclient.ErrNotFound, expectedStatus: http.StatusNoContent, expectStoreHit: true},
		{name: "Never stored locally", storeErr: connection.ErrConnectionNotFound, expectedStatus: http.StatusNoContent, expectStoreHit: true},
		{name: "Unknown everywhere", providerErr: ofclient.ErrNotFound, storeErr: connection.ErrConnectionNotFound, expectedStatus: http.StatusNotFound, expectStoreHit: true},
		{name: "Provider failure keeps snapshot", providerErr: errors.New("timeout"), expectedStatus: http.StatusBadGateway},
		{name: "Store failure", storeErr: errors.New("database down"), expectedStatus: http.StatusInternalServerError, expectStoreHit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storeHit := false
			provider := &MockProvider{
				DeleteConnectionFunc: func(ctx context.Context, itemID string) error {
					return tt.providerErr
				},
			}
			repo := &MockConnectionRepo{
				DeleteFunc: func(ctx context.Context, id string) error {
					storeHit = true
					return tt.storeErr
				},
			}
			handler := NewConnectionHandler(&MockSyncer{}, provider, repo, 0)

			rec := httptest.NewRecorder()
			handler.HandleDelete(rec, newConnectionRequest(http.MethodDelete, "/api/connections/conn-1", "conn-1", nil))

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if storeHit != tt.expectStoreHit {
				t.Errorf("expected store delete=%v, got %v", tt.expectStoreHit, storeHit)
			}
		})
	}
}

func TestHandleGetConnection(t *testing.T) {
	tests := []struct {
		name           string
		repoErr        error
		expectedStatus int
	}{
		{name: "Found", expectedStatus: http.StatusOK},
		{name: "Not found", repoErr: connection.ErrConnectionNotFound, expectedStatus: http.StatusNotFound},
		{name: "Store failure", repoErr: errors.New("database down"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockConnectionRepo{
				GetByIDFunc: func(ctx context.Context, id string) (*connection.Connection, error) {
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					return &connection.Connection{ID: id, Status: connection.StatusLoginError}, nil
				},
			}
			handler := NewConnectionHandler(&MockSyncer{}, &MockProvider{}, repo, 0)

			rec := httptest.NewRecorder()
			handler.HandleGet(rec, newConnectionRequest(http.MethodGet, "/api/connections/conn-1", "conn-1", nil))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var conn connection.Connection
			if err := json.NewDecoder(rec.Body).Decode(&conn); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if conn.Status != connection.StatusLoginError {
				t.Errorf("expected status LOGIN_ERROR, got %s", conn.Status)
			}
		})
	}
}
