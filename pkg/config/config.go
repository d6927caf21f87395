package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the process reads from the environment. The
// .env file is loaded by main before this runs.
type Config struct {
	DBPath    string
	RedisAddr string
	Port      string

	JWTSecret string
	JWTTTL    time.Duration

	Tmdb   TmdbConfig
	Places PlacesConfig
	Scan   ScanConfig
	Mail   MailConfig
}

// TmdbConfig configures the movie-metadata client.
type TmdbConfig struct {
	APIKey  string
	BaseURL string
}

// PlacesConfig configures the places text-search client.
type PlacesConfig struct {
	APIKey  string
	BaseURL string
}

// ScanConfig tunes the per-user cinema scan.
type ScanConfig struct {
	Headless     bool
	ProxyURL     string
	BrowserAddr  string
	UserDataDir  string
	VenueQuery   string
	MaxVenues    int
	MinRating    float64
	VenueTimeout time.Duration
	ScanBudget   time.Duration
	Interval     time.Duration
}

// MailConfig configures outbound notification email.
type MailConfig struct {
	SMTPAddr string
	From     string
	Password string
}

// Load reads the configuration from environment variables, applying
// defaults where a variable is unset.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:    getEnv("DB_PATH", "cinescan.db"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		Port:      getEnv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
		Tmdb: TmdbConfig{
			APIKey:  os.Getenv("TMDB_API_KEY"),
			BaseURL: getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		},
		Places: PlacesConfig{
			APIKey:  os.Getenv("PLACES_API_KEY"),
			BaseURL: getEnv("PLACES_BASE_URL", "https://places.googleapis.com/v1"),
		},
		Scan: ScanConfig{
			Headless:     os.Getenv("HEADLESS") == "TRUE",
			ProxyURL:     os.Getenv("PROXY_URL"),
			BrowserAddr:  os.Getenv("BROWSER_ADDR"),
			UserDataDir:  os.Getenv("USER_DATA_DIR"),
			VenueQuery:   getEnv("VENUE_QUERY", "Vue Cinema"),
			MaxVenues:    getEnvInt("MAX_VENUES", 8),
			MinRating:    getEnvFloat("SCAN_MIN_RATING", 9),
			VenueTimeout: getEnvDuration("VENUE_TIMEOUT", 30*time.Second),
			ScanBudget:   getEnvDuration("SCAN_BUDGET", 5*time.Minute),
			Interval:     getEnvDuration("SCAN_INTERVAL", 24*time.Hour),
		},
		Mail: MailConfig{
			SMTPAddr: os.Getenv("SMTP_ADDR"),
			From:     os.Getenv("MAIL_FROM"),
			Password: os.Getenv("MAIL_PASSWORD"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
