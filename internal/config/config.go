// Package config reads service configuration from the environment, with a
// .env file picked up when present.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found", "error", err)
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// DatabaseURL builds the Postgres connection URL for the given service.
// Each service owns its own database, so the default name is per caller.
func DatabaseURL(defaultDBName string) string {
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "")
	dbName := getEnv("DB_NAME", defaultDBName)

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPassword, dbHost, dbPort, dbName)
}

func RedisAddr() string {
	return getEnv("REDIS_ADDR", "localhost:6379")
}

func HTTPAddr(defaultAddr string) string {
	return getEnv("HTTP_ADDR", defaultAddr)
}

// SchedulerBaseURL is where the wallet service reaches the scheduler API.
func SchedulerBaseURL() string {
	return getEnv("SCHEDULER_BASE_URL", "http://localhost:8081")
}

func TelegramBotToken() string {
	return os.Getenv("TELEGRAM_BOT_TOKEN")
}
