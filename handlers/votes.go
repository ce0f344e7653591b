// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/civicpulse/api/cliparse"
	"github.com/civicpulse/api/middleware"
	"github.com/civicpulse/api/models"
)

type VoteHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVoteHandler(db *sql.DB, cfg cliparse.Config) *VoteHandler {
	return &VoteHandler{db: db, cfg: cfg}
}

// SubmitCompetitorVote handles POST /api/votes
// One vote per voter per poll, enforced by the votes table constraint. Each
// accepted vote also records a cumulative history snapshot for the stream.
func (h *VoteHandler) SubmitCompetitorVote(w http.ResponseWriter, r *http.Request) {
	var req models.CompetitorVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.PollID == 0 || req.CompetitorID == 0 || req.VoterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id, competitorId and voter_id are required")
		return
	}

	var belongs bool
	err := h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM poll_competitors WHERE id = $1 AND poll_id = $2)
	`, req.CompetitorID, req.PollID).Scan(&belongs)

	if err != nil {
		slog.Error("failed to query competitor", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !belongs {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Competitor does not belong to this poll")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO votes (poll_id, competitor_id, voter_id, name, gender, region, county, constituency, ward)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, req.PollID, req.CompetitorID, req.VoterID,
		nullIfEmpty(req.Name), nullIfEmpty(req.Gender), nullIfEmpty(req.Region),
		nullIfEmpty(req.County), nullIfEmpty(req.Constituency), nullIfEmpty(req.Ward))

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			middleware.ErrorResponse(w, http.StatusForbidden, "You have already voted in this poll")
			return
		}
		slog.Error("failed to insert vote", "error", err, "poll_id", req.PollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	if _, err := tx.Exec(`
		UPDATE polls SET total_votes = total_votes + 1 WHERE id = $1
	`, req.PollID); err != nil {
		slog.Error("failed to bump vote total", "error", err, "poll_id", req.PollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	// Cumulative per-competitor count at the moment of this vote
	if _, err := tx.Exec(`
		INSERT INTO vote_history (poll_id, competitor_id, vote_count)
		SELECT $1, $2, COUNT(*) FROM votes WHERE poll_id = $1 AND competitor_id = $2
	`, req.PollID, req.CompetitorID); err != nil {
		slog.Error("failed to record vote history", "error", err, "poll_id", req.PollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	slog.Info("competitor vote recorded", "poll_id", req.PollID, "competitor_id", req.CompetitorID)

	middleware.JSONResponse(w, http.StatusCreated, models.MessageResponse{
		Message: "Vote recorded successfully",
	})
}

// streamWindows maps the interval query parameter to a fixed SQL interval.
// Unknown values fall back to the full history.
var streamWindows = map[string]string{
	"15m": "15 minutes",
	"1h":  "1 hour",
	"1d":  "1 day",
}

// LiveStream handles GET /api/live-votes/live-stream/:pollId
// Server-sent events: pushes the windowed vote history on a fixed interval
// until the client disconnects.
func (h *VoteHandler) LiveStream(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.Atoi(r.PathValue("pollId"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	var exists bool
	err = h.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM polls WHERE id = $1)`, pollID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	window := streamWindows[r.URL.Query().Get("interval")]

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	interval := time.Duration(h.cfg.StreamInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("live stream opened", "poll_id", pollID, "window", window)

	// First frame immediately, then one per tick
	for {
		if err := h.writeHistoryFrame(w, pollID, window); err != nil {
			slog.Error("failed to write stream frame", "error", err, "poll_id", pollID)
			return
		}
		flusher.Flush()

		select {
		case <-r.Context().Done():
			slog.Info("live stream closed", "poll_id", pollID)
			return
		case <-ticker.C:
		}
	}
}

func (h *VoteHandler) writeHistoryFrame(w http.ResponseWriter, pollID int, window string) error {
	query := `
		SELECT competitor_id, vote_count, recorded_at
		FROM vote_history
		WHERE poll_id = $1`
	if window != "" {
		query += ` AND recorded_at >= NOW() - INTERVAL '` + window + `'`
	}
	query += ` ORDER BY recorded_at ASC`

	rows, err := h.db.Query(query, pollID)
	if err != nil {
		return err
	}
	defer rows.Close()

	points := []models.VoteHistoryPoint{}
	for rows.Next() {
		var p models.VoteHistoryPoint
		if err := rows.Scan(&p.CompetitorID, &p.VoteCount, &p.RecordedTime); err != nil {
			return err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(points)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
