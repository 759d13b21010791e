package config

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds process-wide settings. It is loaded once in main and
// injected; nothing else reads the environment after startup.
type Config struct {
	DatabaseURL string
	HTTPPort    string
	LogLevel    string
	JWTSecret   string
	TokenTTL    time.Duration
	BcryptCost  int
}

const defaultTokenTTL = 60 * time.Minute

// Load reads configuration from the environment. JWT_SECRET falls back to an
// insecure default and must be overridden in any real deployment.
func Load() Config {
	cfg := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPPort:    os.Getenv("HTTP_PORT"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenTTL:    defaultTokenTTL,
		BcryptCost:  bcrypt.DefaultCost,
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "supersecretkey"
	}
	if s := os.Getenv("JWT_EXPIRES_IN"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.TokenTTL = d
		}
	}
	if s := os.Getenv("BCRYPT_COST"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= bcrypt.MinCost && n <= bcrypt.MaxCost {
			cfg.BcryptCost = n
		}
	}
	return cfg
}
