package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the relay server configuration.
type Config struct {
	Port       string
	Env        string
	LogLevel   string
	LogFile    string // empty disables the file copy of the log
	CorsOrigin string

	// MaxUsers is a soft cap: going past it is logged, never rejected.
	MaxUsers int
}

// Load reads configuration from environment variables, loading a .env
// file first when one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:       getEnv("PORT", "3000"),
		Env:        getEnv("ENV", getEnv("NODE_ENV", "development")),
		LogLevel:   strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:    os.Getenv("LOG_FILE"),
		CorsOrigin: getEnv("CORS_ORIGIN", "*"),
		MaxUsers:   getEnvInt("MAX_USERS", 50),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
