package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
)

type Config struct {
	Port           int
	DatabaseURL    string
	AllowedOrigin  string
	StreamInterval int // seconds between live-stream frames
	VoteRateWindow int // per-IP fixed window for vote routes, milliseconds
}

// ParseFlags validates flags and sets defaults
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("civicpulse-api", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.AllowedOrigin, "origin", "", "Allowed CORS origin")
	fs.IntVar(&cfg.StreamInterval, "stream-interval", 0, "Live-stream tick interval in seconds")
	fs.IntVar(&cfg.VoteRateWindow, "vote-rate-window", 0, "Per-IP vote rate-limit window in milliseconds")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8082 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = os.Getenv("ALLOWED_ORIGIN")
	}

	if cfg.StreamInterval == 0 {
		if s := os.Getenv("STREAM_INTERVAL_SECONDS"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return Config{}, errors.New("invalid STREAM_INTERVAL_SECONDS env variable")
			}
			cfg.StreamInterval = n
		} else {
			cfg.StreamInterval = 15
		}
	}

	if cfg.VoteRateWindow == 0 {
		if s := os.Getenv("VOTE_RATE_LIMIT_WINDOW_MS"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return Config{}, errors.New("invalid VOTE_RATE_LIMIT_WINDOW_MS env variable")
			}
			cfg.VoteRateWindow = n
		} else {
			cfg.VoteRateWindow = 1000
		}
	}

	return cfg, nil
}
