package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"finsync/internal/shared/config"
	"finsync/internal/shared/middleware"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Handler      http.Handler
	Addr         string
	TLSEnabled   bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
	AllowedHosts []string
	// WriteTimeout must outlast the longest sync request.
	WriteTimeout time.Duration
}

// StartServers creates and starts the main server and optional redirect server.
// Listener failures are sent on the returned channel.
func StartServers(scfg ServerConfig) (*http.Server, *http.Server, <-chan error) {
	errCh := make(chan error, 2)

	srv := &http.Server{
		Addr:         scfg.Addr,
		Handler:      scfg.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: scfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	var redirectSrv *http.Server

	if scfg.TLSEnabled && scfg.RedirectHTTP {
		redirectSrv = &http.Server{
			Addr:         ":80",
			Handler:      middleware.RedirectHTTPS(scfg.AllowedHosts),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Println("HTTP redirect server starting on :80")
			if err := redirectSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("HTTP redirect server error: %v", err)
			}
		}()
	}

	go func() {
		var err error
		if scfg.TLSEnabled {
			log.Printf("HTTPS server starting on %s", scfg.Addr)
			err = srv.ListenAndServeTLS(scfg.CertPath, scfg.KeyPath)
		} else {
			log.Printf("HTTP server starting on %s", scfg.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return srv, redirectSrv, errCh
}

// GracefulShutdown stops the redirect server and drains the main server.
func GracefulShutdown(srv, redirectSrv *http.Server, timeout time.Duration) {
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if redirectSrv != nil {
		if err := redirectSrv.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down HTTP redirect server: %v", err)
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down main server: %v", err)
	}

	log.Println("Server stopped")
}

// NewServerConfigFromConfig creates ServerConfig from application config.
func NewServerConfigFromConfig(handler http.Handler, cfg *config.Config) ServerConfig {
	writeTimeout := 15 * time.Second
	if cfg.Sync.RequestTimeout > 0 {
		writeTimeout = cfg.Sync.RequestTimeout + 5*time.Second
	}

	return ServerConfig{
		Handler:      handler,
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		TLSEnabled:   cfg.TLS.Enabled,
		CertPath:     cfg.TLS.CertPath,
		KeyPath:      cfg.TLS.KeyPath,
		RedirectHTTP: cfg.TLS.RedirectHTTP,
		AllowedHosts: cfg.Server.AllowedHosts,
		WriteTimeout: writeTimeout,
	}
}
