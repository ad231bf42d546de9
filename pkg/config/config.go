// Package config loads runtime configuration from the environment, with
// optional .env support for local development.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the storefront needs to run.
type Config struct {
	// DatabaseURL is the PostgreSQL connection URL.
	DatabaseURL string
	// RedisAddr enables the product cache when non-empty.
	RedisAddr string
}

// Load reads configuration from the environment. When APP_ENV is
// "local", a .env file is loaded first; a missing file is not an error.
func Load() *Config {
	if os.Getenv("APP_ENV") == "local" {
		if err := godotenv.Load(); err != nil {
			log.Printf("no .env file loaded: %v", err)
		}
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = "postgres://localhost:5432/storefront?sslmode=disable"
	}

	return &Config{
		DatabaseURL: databaseURL,
		RedisAddr:   os.Getenv("REDIS_ADDR"),
	}
}
