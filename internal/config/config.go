package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter for a sync run. It is built once at
// startup and passed explicitly to the components that need it.
type Config struct {
	// Source
	OverpassURL string
	CityName    string
	HTTPTimeout time.Duration

	// Extractor retry knobs
	MaxAttempts int
	RetryDelay  time.Duration

	// Destination database
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string

	// Local run-tracking database (sqlite file)
	TrackingDB string

	// Optional cron expression; empty means run once and exit
	SyncSchedule string

	// API server listen address
	ListenAddr string
}

// Load reads configuration from the process environment. A .env file in the
// working directory is honored if present, real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OverpassURL:  getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		CityName:     getEnv("CITY_NAME", "Helsinki"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBName:       os.Getenv("DB_NAME"),
		DBUser:       os.Getenv("DB_USER"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		TrackingDB:   getEnv("TRACKING_DB", "sync.db"),
		SyncSchedule: os.Getenv("SYNC_SCHEDULE"),
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
	}

	for name, val := range map[string]string{
		"DB_NAME":     cfg.DBName,
		"DB_USER":     cfg.DBUser,
		"DB_PASSWORD": cfg.DBPassword,
	} {
		if val == "" {
			return nil, fmt.Errorf("missing required environment variable: %s", name)
		}
	}

	var err error
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = getDuration("RETRY_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = getInt("MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("MAX_ATTEMPTS must be at least 1, got %d", cfg.MaxAttempts)
	}

	return cfg, nil
}

// ConnString builds the lib/pq connection string for the destination database.
func (c *Config) ConnString() string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
