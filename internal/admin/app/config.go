package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer        string // Optional: issuer claim for tokens (default: adminauth)
	JWTSecretFile string // Optional: path to file with the HS256 secret; ephemeral if unset
	DatabaseFile  string // Optional: path to SQLite database file (default: ./adminauth.db)
	PepperFile    string // Optional: path to pepper file for password hashing (default: ./pepper)

	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 30m)
	RefreshTokenTTL time.Duration // Optional: refresh token lifetime (default: 14 days)
	OTPTTL          time.Duration // Optional: one-time code lifetime (default: 10m)

	LockThreshold int           // Optional: failed attempts before lockout (default: 5)
	LockDuration  time.Duration // Optional: lockout duration (default: 30m)

	// Optional bootstrap credentials: when set and the admins table is
	// empty, a first super admin is seeded on startup.
	BootstrapEmail    string
	BootstrapPassword string
	BootstrapName     string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 15m)
}

func LoadConfig() Config {
	return Config{
		Issuer:        getEnvOrDefault("ADMIN_ISSUER", "adminauth"),
		JWTSecretFile: os.Getenv("ADMIN_JWT_SECRET_FILE"),
		DatabaseFile:  getEnvOrDefault("ADMIN_DATABASE_FILE", "adminauth.db"),
		PepperFile:    getEnvOrDefault("ADMIN_PEPPER_FILE", "pepper"),

		AccessTokenTTL:  getEnvDurationOrDefault("ADMIN_ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL: getEnvDurationOrDefault("ADMIN_REFRESH_TOKEN_TTL", 14*24*time.Hour),
		OTPTTL:          getEnvDurationOrDefault("ADMIN_OTP_TTL", 10*time.Minute),

		LockThreshold: getEnvIntOrDefault("ADMIN_LOCK_THRESHOLD", 5),
		LockDuration:  getEnvDurationOrDefault("ADMIN_LOCK_DURATION", 30*time.Minute),

		BootstrapEmail:    os.Getenv("ADMIN_BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("ADMIN_BOOTSTRAP_PASSWORD"),
		BootstrapName:     getEnvOrDefault("ADMIN_BOOTSTRAP_NAME", "Root Admin"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 15*time.Minute),
	}
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

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
