package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	EnableClaimReconciler    bool
	EnableScheduleReconciler bool
	EnableLockReconciler     bool
	EnableOutboxRelay        bool

	WorkerPollInterval time.Duration
	ReconcileBatchSize int
	LedgerCheckTimeout time.Duration
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "tokenvault"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		EnableClaimReconciler:    envBool("ENABLE_CLAIM_RECONCILER", true),
		EnableScheduleReconciler: envBool("ENABLE_SCHEDULE_RECONCILER", true),
		EnableLockReconciler:     envBool("ENABLE_LOCK_RECONCILER", true),
		EnableOutboxRelay:        envBool("ENABLE_OUTBOX_RELAY", true),

		WorkerPollInterval: envDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		ReconcileBatchSize: envInt("RECONCILE_BATCH_SIZE", 100),
		LedgerCheckTimeout: envDuration("LEDGER_CHECK_TIMEOUT", 10*time.Second),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
