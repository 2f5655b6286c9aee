package config

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Server captures process-level configuration. Everything is read once at
// startup and injected; nothing reads the environment after FromEnv returns.
type Server struct {
	Addr        string
	MetricsAddr string

	// JWTSigningKey is the process-wide token signing secret. Rotating it
	// invalidates every outstanding session token.
	JWTSigningKey string
	TokenTTL      time.Duration

	// DatabaseURL selects the postgres stores when set; in-memory stores
	// otherwise (dev and tests).
	DatabaseURL string

	// RedisURL enables the server-side token revocation list when set. Left
	// empty, logout is purely client-side and tokens live until expiry.
	RedisURL string

	BcryptCost int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("GIVEBRIDGE_ADDR")
	if addr == "" {
		addr = ":5000"
	}
	metricsAddr := os.Getenv("GIVEBRIDGE_METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = ":9090"
	}

	signingKey := os.Getenv("SECRET_KEY")
	if signingKey == "" {
		// Use a default for development - must be overridden in production
		signingKey = "dev-secret-key-change-in-production"
	}

	tokenTTL := 5 * time.Hour
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			tokenTTL = d
		}
	}

	cost := bcrypt.DefaultCost
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= bcrypt.MinCost && n <= bcrypt.MaxCost {
			cost = n
		}
	}

	return Server{
		Addr:          addr,
		MetricsAddr:   metricsAddr,
		JWTSigningKey: signingKey,
		TokenTTL:      tokenTTL,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		BcryptCost:    cost,
	}
}
