// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"finflow-requests/internal/notify"
	"finflow-requests/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	LogLevel   string
	DB         db.Config
	Redis      notify.RedisConfig

	JWTSecret          string
	CORSAllowedOrigins []string

	NotifyBuffer    int
	MaxBonusPercent decimal.Decimal
	PromoStrict     bool
}

// LoadConfig loads configuration from environment variables, after reading an
// optional .env file. It returns an error if any variable is missing or invalid.
func LoadConfig() (*AppConfig, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	notifyBuffer, err := getIntEnv("NOTIFY_BUFFER", 256)
	if err != nil {
		return nil, err
	}
	if notifyBuffer <= 0 {
		return nil, fmt.Errorf("invalid NOTIFY_BUFFER: must be positive")
	}

	maxBonus, err := decimal.NewFromString(getEnv("MAX_BONUS_PERCENT", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_BONUS_PERCENT: %w", err)
	}
	if maxBonus.IsNegative() {
		return nil, fmt.Errorf("invalid MAX_BONUS_PERCENT: must not be negative")
	}

	promoStrict, err := strconv.ParseBool(getEnv("PROMO_STRICT", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROMO_STRICT: %w", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	driver := getEnv("DB_DRIVER", db.DriverPostgres)
	if driver != db.DriverPostgres && driver != db.DriverSQLite {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want %s or %s", driver, db.DriverPostgres, db.DriverSQLite)
	}

	return &AppConfig{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		DB: db.Config{
			Driver:   driver,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "requestsdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			DSN:      getEnv("DB_DSN", "finflow.db"),
		},
		Redis: notify.RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		JWTSecret:          jwtSecret,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		NotifyBuffer:       notifyBuffer,
		MaxBonusPercent:    maxBonus,
		PromoStrict:        promoStrict,
	}, nil
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) (int, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
