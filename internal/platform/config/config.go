package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration. Everything comes from the
// environment so main stays lean and deployments stay twelve-factor.
type Server struct {
	Addr            string
	DatabaseURL     string
	RedisURL        string
	KafkaBrokers    string
	ActivityTopic   string
	JWTSigningKey   string
	JWTIssuer       string
	JWTAudience     string
	SMTPAddr        string
	SMTPFrom        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Pool limits for the shared *sql.DB. The pool is the only process-wide
	// shared resource; see the drain logic in cmd/server.
	DBMaxOpenConns int
	DBMaxIdleConns int
}

// AssetCacheTTL bounds how long a cached asset snapshot may be served before
// falling back to the database.
var AssetCacheTTL = 30 * time.Second

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := getEnv("STOCKROOM_ADDR", ":8080")

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:            addr,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		ActivityTopic:   getEnv("ACTIVITY_TOPIC", "stockroom.activity"),
		JWTSigningKey:   jwtSigningKey,
		JWTIssuer:       getEnv("JWT_ISSUER", "stockroom"),
		JWTAudience:     getEnv("JWT_AUDIENCE", "stockroom-api"),
		SMTPAddr:        os.Getenv("SMTP_ADDR"),
		SMTPFrom:        getEnv("SMTP_FROM", "noreply@stockroom.local"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		DBMaxOpenConns:  getInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:  getInt("DB_MAX_IDLE_CONNS", 5),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
