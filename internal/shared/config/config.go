package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Provider   ProviderConfig
	Sync       SyncConfig
	Encryption EncryptionConfig
	Scheduler  SchedulerConfig
	TLS        TLSConfig
	Firebase   FirebaseConfig
	Telemetry  TelemetryConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	AllowedHosts []string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration
}

type SyncConfig struct {
	// Concurrency bounds the per-account and per-investment fan-out of one pass.
	Concurrency int
	// RequestTimeout bounds webhook and sync requests handled over HTTP.
	RequestTimeout time.Duration
}

type EncryptionConfig struct {
	Key string
}

// SchedulerConfig sizes the worker pool used for batch syncs.
type SchedulerConfig struct {
	WorkerCount int
	QueueSize   int
	JobDelay    time.Duration
}

type TLSConfig struct {
	Enabled      bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
}

type FirebaseConfig struct {
	CredentialsFile string
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	MetricsPort  string
}

func Load() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	providerTimeout, err := time.ParseDuration(getEnv("PROVIDER_TIMEOUT", "180s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT: %w", err)
	}

	syncConcurrency, err := getIntEnv("SYNC_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	syncRequestTimeout, err := time.ParseDuration(getEnv("SYNC_REQUEST_TIMEOUT", "120s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_REQUEST_TIMEOUT: %w", err)
	}

	schedulerWorkers, err := getIntEnv("SCHEDULER_WORKERS", 5)
	if err != nil {
		return nil, err
	}
	schedulerQueueSize, err := getIntEnv("SCHEDULER_QUEUE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	schedulerJobDelay, err := time.ParseDuration(getEnv("SCHEDULER_JOB_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_JOB_DELAY: %w", err)
	}

	// Parse allowed hosts (comma-separated list)
	var allowedHosts []string
	for _, host := range strings.Split(getEnv("ALLOWED_HOSTS", ""), ",") {
		if host = strings.TrimSpace(host); host != "" {
			allowedHosts = append(allowedHosts, host)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Host:         getEnv("HOST", "0.0.0.0"),
			AllowedHosts: allowedHosts,
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "finsync"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "finsync"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Provider: ProviderConfig{
			ClientID:     getEnv("PROVIDER_CLIENT_ID", ""),
			ClientSecret: getEnv("PROVIDER_CLIENT_SECRET", ""),
			BaseURL:      getEnv("PROVIDER_BASE_URL", "https://api.pluggy.ai"),
			Timeout:      providerTimeout,
		},
		Sync: SyncConfig{
			Concurrency:    syncConcurrency,
			RequestTimeout: syncRequestTimeout,
		},
		Encryption: EncryptionConfig{
			Key: getEnv("ENCRYPTION_KEY", ""),
		},
		Scheduler: SchedulerConfig{
			WorkerCount: schedulerWorkers,
			QueueSize:   schedulerQueueSize,
			JobDelay:    schedulerJobDelay,
		},
		TLS: TLSConfig{
			Enabled:      getBoolEnv("TLS_ENABLED", false),
			CertPath:     getEnv("TLS_CERT_PATH", ""),
			KeyPath:      getEnv("TLS_KEY_PATH", ""),
			RedirectHTTP: getBoolEnv("TLS_REDIRECT_HTTP", false),
		},
		Firebase: FirebaseConfig{
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "finsync"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			MetricsPort:  getEnv("METRICS_PORT", "9090"),
		},
	}

	// Validate required fields
	if cfg.Provider.ClientID == "" || cfg.Provider.ClientSecret == "" {
		return nil, fmt.Errorf("PROVIDER_CLIENT_ID and PROVIDER_CLIENT_SECRET are required")
	}
	if cfg.Encryption.Key == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if len(cfg.Encryption.Key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes")
	}
	if cfg.Sync.Concurrency < 1 {
		return nil, fmt.Errorf("SYNC_CONCURRENCY must be at least 1")
	}
	if cfg.Scheduler.WorkerCount < 1 {
		return nil, fmt.Errorf("SCHEDULER_WORKERS must be at least 1")
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertPath == "" {
			return nil, fmt.Errorf("TLS_CERT_PATH is required when TLS_ENABLED=true")
		}
		if cfg.TLS.KeyPath == "" {
			return nil, fmt.Errorf("TLS_KEY_PATH is required when TLS_ENABLED=true")
		}
	}

	return cfg, nil
}

// ConnectionString returns DATABASE_URL when set, otherwise a key/value DSN.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
