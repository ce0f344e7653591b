// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/civicpulse/api/cliparse"
	"github.com/civicpulse/api/middleware"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// GetResults handles GET /api/Opinions/:pollId/results
// Recomputes the full aggregate view at request time. Repeated query
// parameters collapse to their first value.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.Atoi(r.PathValue("pollId"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	query := r.URL.Query()
	filter := LocationFilter{
		County:       query.Get("county"),
		Constituency: query.Get("constituency"),
		Ward:         query.Get("ward"),
	}

	results, err := Aggregate(h.db, pollID, filter)
	if err == ErrPollNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to aggregate results", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Server error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}
