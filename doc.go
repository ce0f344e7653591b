// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the CivicPulse API server.

CivicPulse is a civic polling backend: typed opinion surveys, head-to-head
competitor voting with a live vote stream, and a results engine that merges
individual responses with admin bulk overrides at read time.

# Starting the Server

The server requires environment variables, a .env file, or CLI flags:

	DATABASE_URL=postgres://... go run main.go

Or with flags:

	go run main.go -p 8082 -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string

Optional settings:

  - PORT (-p): Server port (default: 8082)
  - ALLOWED_ORIGIN (-origin): CORS origin (default: echo request origin)
  - STREAM_INTERVAL_SECONDS (-stream-interval): Live-stream tick (default: 15)
  - VOTE_RATE_LIMIT_WINDOW_MS (-vote-rate-window): Per-IP vote window (default: 1000)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (polls, opinions, bulk overrides, results, votes)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, rate limiting, JSON helpers
  - models: Request/response types
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
