package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	// SQLite config
	SQLitePath   string
	DatabaseName string
	// Session and API token secrets
	SecretKey []byte
	JwtKey    []byte
	JwtTTL    int // hours
	// Login throttle, requests per second and burst per client IP
	LoginRateLimit float64
	LoginRateBurst int
	LogLevel       string
	LogFormat      string
}

// LoadConfig reads .env (when present) and the process environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	databaseName := getEnv("DATABASE_NAME", "watchlist")

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		// Default to a data directory in the current directory
		sqlitePath = filepath.Join("data", fmt.Sprintf("%s.db", databaseName))
	}

	secret := getEnv("SECRET_KEY", "dev")
	jwtSecret := getEnv("JWT_SECRET_KEY", secret)

	jwtTTL, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "24"))
	if err != nil || jwtTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL_HOURS must be a positive integer")
	}

	rateLimit, err := strconv.ParseFloat(getEnv("LOGIN_RATE_LIMIT", "1"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT must be a positive number")
	}

	rateBurst, err := strconv.Atoi(getEnv("LOGIN_RATE_BURST", "5"))
	if err != nil || rateBurst <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_BURST must be a positive integer")
	}

	return &Config{
		Port:           getEnv("PORT", "5000"),
		SQLitePath:     sqlitePath,
		DatabaseName:   databaseName,
		SecretKey:      []byte(secret),
		JwtKey:         []byte(jwtSecret),
		JwtTTL:         jwtTTL,
		LoginRateLimit: rateLimit,
		LoginRateBurst: rateBurst,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
