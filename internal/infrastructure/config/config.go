package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerPort int
	IssuerURL  string

	// Artifact store configuration
	StoreDriver   string
	SweepInterval time.Duration

	// Database configuration (postgres driver)
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Artifact lifetimes
	CodeTTL         time.Duration
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Signing configuration
	SigningKeyPath string

	// Login collaborator configuration
	LoginURL      string
	SessionSecret string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env from project root
	_ = godotenv.Load()

	codeTTL, err := time.ParseDuration(getEnv("CODE_TTL", "10m"))
	if err != nil {
		return nil, err
	}

	accessTTL, err := time.ParseDuration(getEnv("ACCESS_TOKEN_TTL", "1h"))
	if err != nil {
		return nil, err
	}

	refreshTTL, err := time.ParseDuration(getEnv("REFRESH_TOKEN_TTL", "720h"))
	if err != nil {
		return nil, err
	}

	sweepInterval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "5m"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort: getEnvInt("PORT", 8080),
		IssuerURL:  getEnv("ISSUER_URL", "http://localhost:8080"),

		StoreDriver:   getEnv("STORE_DRIVER", StoreDriverMemory),
		SweepInterval: sweepInterval,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "owner"),
		DBPassword: getEnv("DB_PASSWORD", "ownerTest"),
		DBName:     getEnv("DB_NAME", "authorization"),

		CodeTTL:         codeTTL,
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,

		SigningKeyPath: getEnv("SIGNING_KEY_PATH", ""),

		LoginURL:      getEnv("LOGIN_URL", "http://localhost:8080/login"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
	}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
