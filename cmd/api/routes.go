package main

import (
	"log"
	"net/http"

	"finsync/internal/shared/config"
	"finsync/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", deps.HealthHandler.HandleHealth)

	// Provider webhooks
	mux.HandleFunc("POST /api/webhooks/provider", deps.WebhookHandler.HandleProviderWebhook)

	// Connections
	mux.HandleFunc("POST /api/connect-token", deps.ConnectionHandler.HandleConnectToken)
	mux.HandleFunc("GET /api/connections/{id}", deps.ConnectionHandler.HandleGet)
	mux.HandleFunc("DELETE /api/connections/{id}", deps.ConnectionHandler.HandleDelete)
	mux.HandleFunc("POST /api/connections/{id}/sync", deps.ConnectionHandler.HandleSync)

	// Stored snapshot
	mux.HandleFunc("GET /api/connections/{id}/accounts", deps.QueryHandler.HandleListAccounts)
	mux.HandleFunc("GET /api/connections/{id}/transactions", deps.QueryHandler.HandleListConnectionTransactions)
	mux.HandleFunc("GET /api/connections/{id}/investments", deps.QueryHandler.HandleListInvestments)
	mux.HandleFunc("GET /api/connections/{id}/loans", deps.QueryHandler.HandleListLoans)
	mux.HandleFunc("GET /api/connections/{id}/identity", deps.QueryHandler.HandleGetIdentity)
	mux.HandleFunc("GET /api/accounts/{id}/transactions", deps.QueryHandler.HandleListTransactions)
	mux.HandleFunc("GET /api/accounts/{id}/bills", deps.QueryHandler.HandleListBills)

	// Tracing sits inside Logging so the request id is set before the span starts
	handler := middleware.Tracing(mux)
	handler = middleware.CORS(cfg.Server.AllowedHosts)(handler)
	handler = middleware.Logging(handler)
	if cfg.Telemetry.Enabled {
		// otelhttp picks up the caller's trace context so request spans join it
		handler = middleware.Telemetry("finsync.http")(handler)
	}

	if cfg.TLS.Enabled {
		handler = middleware.HSTS(handler)
		log.Println("TLS security middleware enabled (HSTS)")
	}

	return handler
}
