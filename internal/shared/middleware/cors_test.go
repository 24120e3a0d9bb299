package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name            string
		allowedHosts    []string
		method          string
		path            string
		origin          string
		wantStatus      int
		wantNextCalled  bool
		wantAllowOrigin string
		wantCredentials string
		wantVary        string
	}{
		{
			name:            "no hosts configured answers any origin with wildcard",
			method:          http.MethodGet,
			path:            "/api/connections/conn-1",
			origin:          "https://dashboard.example.org",
			wantStatus:      http.StatusOK,
			wantNextCalled:  true,
			wantAllowOrigin: "*",
		},
		{
			name:            "no hosts configured never grants credentials",
			method:          http.MethodGet,
			path:            "/api/accounts/acc-1/transactions",
			wantStatus:      http.StatusOK,
			wantNextCalled:  true,
			wantAllowOrigin: "*",
		},
		{
			name:            "webhook from foreign origin bypasses the host list",
			allowedHosts:    []string{"app.finsync.io"},
			method:          http.MethodPost,
			path:            "/api/webhooks/provider",
			origin:          "https://hooks.provider.example",
			wantStatus:      http.StatusOK,
			wantNextCalled:  true,
			wantAllowOrigin: "*",
		},
		{
			name:            "listed origin is echoed with credentials",
			allowedHosts:    []string{"app.finsync.io"},
			method:          http.MethodGet,
			path:            "/api/connections/conn-1/accounts",
			origin:          "https://app.finsync.io",
			wantStatus:      http.StatusOK,
			wantNextCalled:  true,
			wantAllowOrigin: "https://app.finsync.io",
			wantCredentials: "true",
			wantVary:        "Origin",
		},
		{
			name:            "listed hostname matches an origin with a port",
			allowedHosts:    []string{"localhost"},
			method:          http.MethodGet,
			path:            "/health",
			origin:          "http://localhost:5173",
			wantStatus:      http.StatusOK,
			wantNextCalled:  true,
			wantAllowOrigin: "http://localhost:5173",
			wantCredentials: "true",
			wantVary:        "Origin",
		},
		{
			name:         "unlisted origin is rejected before the handler",
			allowedHosts: []string{"app.finsync.io"},
			method:       http.MethodDelete,
			path:         "/api/connections/conn-1",
			origin:       "https://attacker.example",
			wantStatus:   http.StatusForbidden,
		},
		{
			name:           "server to server call without origin passes untouched",
			allowedHosts:   []string{"app.finsync.io"},
			method:         http.MethodPost,
			path:           "/api/connections/conn-1/sync",
			wantStatus:     http.StatusOK,
			wantNextCalled: true,
		},
		{
			name:            "preflight from listed origin short-circuits",
			allowedHosts:    []string{"app.finsync.io"},
			method:          http.MethodOptions,
			path:            "/api/connect-token",
			origin:          "https://app.finsync.io",
			wantStatus:      http.StatusNoContent,
			wantAllowOrigin: "https://app.finsync.io",
			wantCredentials: "true",
			wantVary:        "Origin",
		},
		{
			name:         "preflight from unlisted origin is rejected",
			allowedHosts: []string{"app.finsync.io"},
			method:       http.MethodOptions,
			path:         "/api/connect-token",
			origin:       "https://attacker.example",
			wantStatus:   http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()

			CORS(tt.allowedHosts)(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if nextCalled != tt.wantNextCalled {
				t.Errorf("next called = %v, want %v", nextCalled, tt.wantNextCalled)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllowOrigin)
			}
			if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredentials {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCredentials)
			}
			if got := rr.Header().Get("Vary"); got != tt.wantVary {
				t.Errorf("Vary = %q, want %q", got, tt.wantVary)
			}
		})
	}
}

func TestCORS_AllowedMethodsCoverRoutes(t *testing.T) {
	handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/connections/conn-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, DELETE, OPTIONS" {
		t.Errorf("Allow-Methods = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization, X-Request-Id" {
		t.Errorf("Allow-Headers = %q", got)
	}
}

func TestIsOriginAllowed(t *testing.T) {
	hosts := []string{"app.finsync.io", " Admin.Finsync.io ", "localhost:8080"}

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.finsync.io", true},
		{"https://APP.finsync.io:443", true},
		{"https://admin.finsync.io", true},
		{"http://localhost:8080", true},
		{"http://localhost:3000", false},
		{"https://eu.app.finsync.io", false},
		{"app.finsync.io", false},
		{"null", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := isOriginAllowed(tt.origin, hosts); got != tt.want {
				t.Errorf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
