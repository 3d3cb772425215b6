package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	strs "bidrag/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr     string
	LogLevel string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// CustodyScope selects the cutoff for household-membership periods:
	// "case" (case-wide date) or "member" (the member's own date).
	CustodyScope string
	// KeepFutureOpenEnds leaves open-ended household-membership periods open
	// when the cutoff lies after today. Off by default: custody results then
	// depend on the day of the request and a restore is no longer exact.
	KeepFutureOpenEnds bool
	TxTimeout          time.Duration

	Storage StorageConfig
	Redis   RedisConfig
	Audit   AuditConfig
}

// StorageConfig selects the behandling store.
type StorageConfig struct {
	// Driver is one of "memory", "postgres" or "redis".
	Driver      string
	DatabaseURL string
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuditConfig selects the audit sink. Without brokers, events go to the
// Postgres outbox when Postgres is the store, and to memory otherwise. With
// both, Kafka is primary and the outbox takes over while Kafka is failing.
type AuditConfig struct {
	KafkaBrokers    []string
	KafkaTopic      string
	BreakerFailures int
	BreakerCooldown time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:               envOr("BIDRAG_ADDR", ":8080"),
		LogLevel:           envOr("LOG_LEVEL", "info"),
		JWTSigningKey:      jwtSigningKey,
		JWTIssuer:          envOr("JWT_ISSUER", "bidrag-local"),
		JWTAudience:        envOr("JWT_AUDIENCE", "bidrag-behandling"),
		CustodyScope:       envOr("CUSTODY_SCOPE", "case"),
		KeepFutureOpenEnds: os.Getenv("KEEP_FUTURE_OPEN_ENDS") == "true",
		TxTimeout:          durationOr("TX_TIMEOUT", 5*time.Second),
		Storage: StorageConfig{
			Driver:      envOr("STORAGE_DRIVER", "memory"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Audit: AuditConfig{
			KafkaBrokers:    strs.SplitHosts(os.Getenv("AUDIT_KAFKA_BROKERS")),
			KafkaTopic:      envOr("AUDIT_KAFKA_TOPIC", "bidrag.behandling.audit"),
			BreakerFailures: intOr("AUDIT_BREAKER_FAILURES", 5),
			BreakerCooldown: durationOr("AUDIT_BREAKER_COOLDOWN", 30*time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}
