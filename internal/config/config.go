package config

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv          string
	HTTPPort        string
	GRPCPort        string
	MySQLDSN        string
	RedisAddr       string
	SessionTTL      time.Duration
	IdempotencyTTL  time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MigrateOnStart  bool
}

func Load() *Config {
	// Load .env file if exists
	godotenv.Load()

	return &Config{
		AppEnv:          getEnv("APP_ENV", "production"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		GRPCPort:        getEnv("GRPC_PORT", "50051"),
		MySQLDSN:        getEnv("MYSQL_DSN", buildDSN()),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		SessionTTL:      getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		IdempotencyTTL:  getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		MigrateOnStart:  getEnvAsBool("MIGRATE_ON_START", true),
	}
}

// buildDSN assembles a DSN from the DB_* variables. Times are parsed and
// kept in UTC.
func buildDSN() string {
	cfg := mysql.NewConfig()
	cfg.User = getEnv("DB_USER", "root")
	cfg.Passwd = getEnv("DB_PASS", "")
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(getEnv("DB_HOST", "localhost"), getEnv("DB_PORT", "3306"))
	cfg.DBName = getEnv("DB_NAME", "distributrack")
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
