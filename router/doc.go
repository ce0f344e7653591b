// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the CivicPulse API.

# Route Registration

NewRouter creates a configured handler with all endpoints wrapped in CORS:

	handler := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Poll management:

	POST   /api/polls           - Create poll
	GET    /api/polls           - List opinion polls
	GET    /api/polls/{id}      - Poll with competitors and questions
	DELETE /api/polls/{id}      - Delete poll (cascades)
	POST   /api/polls/{id}/quiz - Attach competitors and questions
	PUT    /api/polls/{id}/quiz - Update questions and options

Opinion responses (public, vote route rate-limited per IP):

	POST /api/Opinions/{pollId}/vote    - Submit full answer set
	GET  /api/Opinions/status           - Has this voter responded?
	GET  /api/Opinions/{pollId}/results - Aggregated results

Admin overrides:

	POST /api/Opinions/{pollId}/admin-bulk-response  - Upsert question override
	GET  /api/Opinions/{pollId}/admin-bulk-responses - List stored overrides
	POST /api/Opinions/{pollId}/admin-demographics   - Upsert demographics
	GET  /api/Opinions/{pollId}/admin-demographics   - Get demographics row

Competitor voting:

	POST /api/votes                           - Record a competitor vote
	GET  /api/live-votes/live-stream/{pollId} - SSE vote history stream

# Handler Initialization

The router creates handler instances with dependency injection:

	pollHandler := handlers.NewPollHandler(db, cfg)
	opinionHandler := handlers.NewOpinionHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	bulkHandler := handlers.NewBulkHandler(db, cfg)
	voteHandler := handlers.NewVoteHandler(db, cfg)

All handlers receive the database connection and configuration. Vote
submission routes share one rate limiter sized from Config.VoteRateWindow.
*/
package router
