// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides the loaded configuration to the fx graph.
var Module = fx.Provide(Load)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// TierCodes is the deployment-fixed tier ordering, lowest rank first.
	TierCodes []string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	// FiredStoreBackend selects the at-most-once witness store: "gorm" or "redis".
	FiredStoreBackend string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int

	LookupTimeout time.Duration

	DispatchWorkers     int
	DispatchQueueSize   int
	DispatchMaxAttempts int
	DispatchBaseBackoff time.Duration

	SubscriptionCacheTTL time.Duration

	// SubscriptionSweepInterval paces the lapse sweep job.
	SubscriptionSweepInterval time.Duration

	SeedDemoData bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "fangate"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		TierCodes: parseTierCodes(getenv("TIER_CODES", "basic,premium,vip,ultra")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "fangate"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		FiredStoreBackend: strings.ToLower(getenv("FIRED_STORE_BACKEND", "gorm")),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		RedisDB:           getenvInt("REDIS_DB", 0),

		LookupTimeout: getenvDuration("LOOKUP_TIMEOUT", 2*time.Second),

		DispatchWorkers:     getenvInt("DISPATCH_WORKERS", 4),
		DispatchQueueSize:   getenvInt("DISPATCH_QUEUE_SIZE", 1024),
		DispatchMaxAttempts: getenvInt("DISPATCH_MAX_ATTEMPTS", 5),
		DispatchBaseBackoff: getenvDuration("DISPATCH_BASE_BACKOFF", 500*time.Millisecond),

		SubscriptionCacheTTL: getenvDuration("SUBSCRIPTION_CACHE_TTL", 45*time.Second),

		SubscriptionSweepInterval: getenvDuration("SUBSCRIPTION_SWEEP_INTERVAL", time.Minute),

		SeedDemoData: getenvBool("SEED_DEMO_DATA", false),
	}
}

func parseTierCodes(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
