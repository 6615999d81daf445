package utils

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration read from the environment.
type Config struct {
	DatabaseURL string
	Driver      string
	SchemaFile  string
	LogLevel    string
	LogFormat   string
}

// LoadEnv loads .env into the environment when the file exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, continuing")
	}
}

// LoadConfig reads the configuration after loading .env.
func LoadConfig() Config {
	LoadEnv()
	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Driver:      os.Getenv("ROWMAP_DRIVER"),
		SchemaFile:  getenv("ROWMAP_SCHEMA", "schema.yaml"),
		LogLevel:    getenv("ROWMAP_LOG_LEVEL", "info"),
		LogFormat:   getenv("ROWMAP_LOG_FORMAT", "text"),
	}
}

// GetDatabaseURL returns DATABASE_URL or an error when it is unset.
func (c Config) GetDatabaseURL() (string, error) {
	if c.DatabaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL not set (in .env or environment)")
	}
	return c.DatabaseURL, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
