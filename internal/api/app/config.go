package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/nidohq/nido/pkg/jwtx"
)

type Config struct {
	JWTSecret string // Required: HMAC secret for session and reset tokens
	Issuer    string // Optional: issuer claim for tokens (default: nido)

	StoreDriver string // Optional: store driver (mongo, mem) (default: mongo)
	MongoURI    string // Required for the mongo driver
	MongoDB     string // Optional: database name (default: nido)

	SessionTTL time.Duration // Optional: session token/cookie lifetime (default: 7 days)
	PepperFile string        // Optional: path to password pepper file (default: ./pepper)

	SMTPHost string // Optional: SMTP relay host; empty logs mail instead of sending
	SMTPPort string // Optional: SMTP relay port (default: 587)
	SMTPUser string // Optional: SMTP auth user
	SMTPPass string // Optional: SMTP auth password
	MailFrom string // Optional: sender on recovery mail (default: no-reply@<issuer>)

	FrontendOrigin string // Optional: base URL reset links point at (default: http://localhost:5173)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

var ErrMissingJWTSecret = errors.New("NIDO_JWT_SECRET is required")

func LoadConfig() (Config, error) {
	cfg := Config{
		JWTSecret:           os.Getenv("NIDO_JWT_SECRET"),
		Issuer:              getEnvOrDefault("NIDO_ISSUER", "nido"),
		StoreDriver:         getEnvOrDefault("NIDO_STORE", "mongo"),
		MongoURI:            getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:             getEnvOrDefault("MONGO_DB", "nido"),
		SessionTTL:          getEnvDurationOrDefault("NIDO_SESSION_TTL", jwtx.DefaultSessionTTL),
		PepperFile:          getEnvOrDefault("NIDO_PEPPER_FILE", "pepper"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:            os.Getenv("SMTP_USER"),
		SMTPPass:            os.Getenv("SMTP_PASS"),
		MailFrom:            getEnvOrDefault("MAIL_FROM", "no-reply@nido.local"),
		FrontendOrigin:      getEnvOrDefault("NIDO_FRONTEND_ORIGIN", "http://localhost:5173"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}
	return cfg, nil
}

// SecureCookie reports whether session cookies should carry the Secure
// attribute. Only dev runs over plain HTTP.
func (c Config) SecureCookie() bool {
	return c.Env != "dev"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
