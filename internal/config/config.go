package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, loaded once at startup.
type Config struct {
	DatabaseURL     string
	Port            string
	SessionSecret   string
	SearchIndexPath string
	Debug           bool
}

// Load reads .env (if present) and resolves settings from the environment.
func Load() *Config {
	// Missing .env is fine; env vars may come from the system.
	_ = godotenv.Load()

	return &Config{
		DatabaseURL:     getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=unihub port=5432 sslmode=disable"),
		Port:            getEnv("PORT", "5000"),
		SessionSecret:   getEnv("SESSION_SECRET", "secret_key_change_me"),
		SearchIndexPath: getEnv("SEARCH_INDEX_PATH", "./data/search.bleve"),
		Debug:           os.Getenv("DEBUG") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
