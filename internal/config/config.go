// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for the bot service.
type Config struct {
	Port            string
	TelegramToken   string
	DatabaseURL     string
	RedisURL        string
	HHBaseURL       string
	NominatimURL    string
	PollIntervalSec int      // how often the subscription poller fires
	Positions       []string // canned position menu
	PositionsPage   int      // menu entries per page
}

// defaultPositions is the built-in canned position menu, used when
// POSITIONS_FILE is not set.
var defaultPositions = []string{
	"Developer",
	"Designer",
	"Manager",
	"QA Engineer",
	"Analyst",
	"DevOps Engineer",
	"Product Manager",
	"Accountant",
	"Sales Manager",
}

// positionsFile is the YAML shape of an external positions menu.
type positionsFile struct {
	Positions []string `yaml:"positions"`
}

// Load reads environment variables (and an optional .env file) and returns
// a validated Config.
func Load() (*Config, error) {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	interval := 60
	if s := os.Getenv("POLL_INTERVAL_SECONDS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be a positive integer, got %q", s)
		}
		interval = v
	}

	hhURL := os.Getenv("HH_BASE_URL")
	if hhURL == "" {
		hhURL = "https://api.hh.ru"
	}

	nominatimURL := os.Getenv("NOMINATIM_URL")
	if nominatimURL == "" {
		nominatimURL = "https://nominatim.openstreetmap.org"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	positions := defaultPositions
	if path := os.Getenv("POSITIONS_FILE"); path != "" {
		loaded, err := loadPositions(path)
		if err != nil {
			return nil, fmt.Errorf("POSITIONS_FILE: %w", err)
		}
		positions = loaded
	}

	return &Config{
		Port:            port,
		TelegramToken:   token,
		DatabaseURL:     dbURL,
		RedisURL:        redisURL,
		HHBaseURL:       hhURL,
		NominatimURL:    nominatimURL,
		PollIntervalSec: interval,
		Positions:       positions,
		PositionsPage:   3,
	}, nil
}

// loadPositions reads the canned position menu from a YAML file.
func loadPositions(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pf positionsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if len(pf.Positions) == 0 {
		return nil, fmt.Errorf("%s contains no positions", path)
	}
	return pf.Positions, nil
}
