package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the process configuration, read from the environment with
// an optional .env file.
type Config struct {
	Addr           string
	JWTSecret      string
	ValkeyAddr     string
	BackendBaseURL string
	DemoMode       bool
	RemoteRefresh  time.Duration
}

func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[CONFIG] loading .env: %v", err)
	}

	cfg := Config{
		Addr:           getenv("ADDR", ":8080"),
		JWTSecret:      getenv("JWT_SECRET", "dev-secret-change-me"),
		ValkeyAddr:     os.Getenv("VALKEY_ADDR"),
		BackendBaseURL: os.Getenv("BACKEND_BASE_URL"),
		DemoMode:       getenv("DEMO_MODE", "true") == "true",
		RemoteRefresh:  30 * time.Second,
	}
	if v := os.Getenv("REMOTE_REFRESH"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RemoteRefresh = d
		} else {
			log.Printf("[CONFIG] invalid REMOTE_REFRESH %q: %v", v, err)
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
