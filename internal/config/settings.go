package config

import (
	"os"
	"strconv"
	"time"
)

// Config store backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Settings holds process settings read from the environment.
type Settings struct {
	Port         string
	Environment  string
	OTelEnabled  bool
	OTLPEndpoint string

	// OTelSampleRatio is the fraction of traces sampled (0 samples all).
	OTelSampleRatio float64

	// ConfigBackend selects the Store implementation: "file" or "postgres".
	ConfigBackend string

	// ConfigPath overrides DefaultPath for the file backend.
	ConfigPath string

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	// AdminJWTKey enables bearer auth on admin routes when set.
	AdminJWTKey string

	// SPARQLTimeout bounds every query sent by the API.
	SPARQLTimeout time.Duration

	// WorkerInterval is the period of the endpoint watchdog.
	WorkerInterval time.Duration

	PubSubProjectID    string
	PubSubSubscription string
}

// SettingsFromEnv creates Settings from environment variables.
func SettingsFromEnv() Settings {
	sparqlTimeout, err := time.ParseDuration(getEnvOrDefault("SPARQL_TIMEOUT", "30s"))
	if err != nil {
		sparqlTimeout = 30 * time.Second
	}
	workerInterval, err := time.ParseDuration(getEnvOrDefault("WORKER_INTERVAL", "5m"))
	if err != nil {
		workerInterval = 5 * time.Minute
	}
	otelEnabled, _ := strconv.ParseBool(getEnvOrDefault("OTEL_ENABLED", "false"))
	requireTLS, _ := strconv.ParseBool(os.Getenv("REQUIRE_TLS"))
	sampleRatio, _ := strconv.ParseFloat(getEnvOrDefault("OTEL_TRACES_SAMPLER_ARG", "0"), 64)

	return Settings{
		Port:               getEnvOrDefault("APP_PORT", "8080"),
		Environment:        getEnvOrDefault("APP_ENV", "development"),
		OTelEnabled:        otelEnabled,
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio:    sampleRatio,
		ConfigBackend:      getEnvOrDefault("CONFIG_BACKEND", BackendFile),
		ConfigPath:         os.Getenv("CONFIG_PATH"),
		RequireTLS:         requireTLS,
		AdminJWTKey:        os.Getenv("ADMIN_JWT_KEY"),
		SPARQLTimeout:      sparqlTimeout,
		WorkerInterval:     workerInterval,
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: os.Getenv("PUBSUB_SUBSCRIPTION"),
	}
}

// FileStore returns the file store selected by the settings.
func (s Settings) FileStore() (*FileStore, error) {
	if s.ConfigPath != "" {
		return NewFileStore(s.ConfigPath), nil
	}
	return NewDefaultFileStore()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
