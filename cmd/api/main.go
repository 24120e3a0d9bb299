package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finsync/internal/shared/config"
	"finsync/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  getEnvironment(),
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				log.Printf("Error shutting down telemetry: %v", err)
			}
		}()
		log.Printf("Telemetry enabled (OTLP %s, metrics on :%s)", cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.MetricsPort)
	}

	deps, err := NewDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	handler := SetupRoutes(deps, cfg)
	srv, redirectSrv, errCh := StartServers(NewServerConfigFromConfig(handler, cfg))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		GracefulShutdown(srv, redirectSrv, 30*time.Second)
		return fmt.Errorf("server error: %w", err)
	}

	GracefulShutdown(srv, redirectSrv, 30*time.Second)
	return nil
}

func getEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}
