// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 8082)
  - DatabaseURL: PostgreSQL connection string (required)
  - AllowedOrigin: CORS origin (default: echo request origin)
  - StreamInterval: Seconds between live-stream frames (default: 15)
  - VoteRateWindow: Per-IP vote window in milliseconds (default: 1000)

# CLI Flags

	-p                 Server port
	-d                 Database URL
	-origin            Allowed CORS origin
	-stream-interval   Live-stream tick interval in seconds
	-vote-rate-window  Vote rate-limit window in milliseconds

# Environment Variables

Flags fall back to environment variables:

	PORT                      → -p
	DATABASE_URL              → -d
	ALLOWED_ORIGIN            → -origin
	STREAM_INTERVAL_SECONDS   → -stream-interval
	VOTE_RATE_LIMIT_WINDOW_MS → -vote-rate-window

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided

# Example

	// In main.go
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	// ...
	handler := router.NewRouter(db, cfg)
*/
package cliparse
