package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultPort = 4000

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           int      // HTTP listen port
	DataFile       string   // Path of the JSON file holding the users collection
	DatabaseURL    string   // PostgreSQL DSN; when set it replaces the data file
	LogLevel       string   // logrus level name
	AllowedOrigins []string // CORS allowed origins
}

// Load reads configuration from the environment, after loading a .env file
// if one exists, falling back to defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           envOrDefaultPort("PORT", defaultPort),
		DataFile:       envOrDefault("DATA_FILE", "users.json"),
		DatabaseURL:    envOrDefault("DATABASE_URL", ""),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		AllowedOrigins: envOrDefaultList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

// ListenAddr returns the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// UseDatabase reports whether the PostgreSQL store is configured.
func (c *Config) UseDatabase() bool {
	return c.DatabaseURL != ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultPort(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 65535 {
		return fallback
	}
	return n
}

func envOrDefaultList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
