// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/civicpulse/api/cliparse"
	"github.com/civicpulse/api/handlers"
	"github.com/civicpulse/api/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(db, cfg)
	opinionHandler := handlers.NewOpinionHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	bulkHandler := handlers.NewBulkHandler(db, cfg)
	voteHandler := handlers.NewVoteHandler(db, cfg)

	rateLimiter := middleware.NewRateLimiter(time.Duration(cfg.VoteRateWindow) * time.Millisecond)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll management
	mux.HandleFunc("POST /api/polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /api/polls", middleware.WithLogging(pollHandler.ListPolls))
	mux.HandleFunc("GET /api/polls/{id}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("DELETE /api/polls/{id}", middleware.WithLogging(pollHandler.DeletePoll))
	mux.HandleFunc("POST /api/polls/{id}/quiz", middleware.WithLogging(pollHandler.CreateQuiz))
	mux.HandleFunc("PUT /api/polls/{id}/quiz", middleware.WithLogging(pollHandler.UpdateQuiz))

	// Opinion responses (public)
	mux.HandleFunc("POST /api/Opinions/{pollId}/vote",
		middleware.WithLogging(middleware.WithRateLimit(rateLimiter, opinionHandler.SubmitVote)))
	mux.HandleFunc("GET /api/Opinions/status", middleware.WithLogging(opinionHandler.Status))
	mux.HandleFunc("GET /api/Opinions/{pollId}/results", middleware.WithLogging(resultsHandler.GetResults))

	// Admin bulk overrides
	mux.HandleFunc("POST /api/Opinions/{pollId}/admin-bulk-response", middleware.WithLogging(bulkHandler.UpsertBulkResponse))
	mux.HandleFunc("GET /api/Opinions/{pollId}/admin-bulk-responses", middleware.WithLogging(bulkHandler.ListBulkResponses))
	mux.HandleFunc("POST /api/Opinions/{pollId}/admin-demographics", middleware.WithLogging(bulkHandler.UpsertDemographics))
	mux.HandleFunc("GET /api/Opinions/{pollId}/admin-demographics", middleware.WithLogging(bulkHandler.GetDemographics))

	// Competitor voting and live stream
	mux.HandleFunc("POST /api/votes",
		middleware.WithLogging(middleware.WithRateLimit(rateLimiter, voteHandler.SubmitCompetitorVote)))
	mux.HandleFunc("GET /api/live-votes/live-stream/{pollId}", middleware.WithLogging(voteHandler.LiveStream))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("CivicPulse API v1"))
	})

	return middleware.CORS(cfg.AllowedOrigin, mux)
}
