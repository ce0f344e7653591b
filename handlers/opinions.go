// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/civicpulse/api/cliparse"
	"github.com/civicpulse/api/middleware"
	"github.com/civicpulse/api/models"
)

// uniqueViolation is the Postgres error code surfaced when an insert hits a
// unique constraint. It is the only source of truth for "already voted".
const uniqueViolation = "23505"

type OpinionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewOpinionHandler(db *sql.DB, cfg cliparse.Config) *OpinionHandler {
	return &OpinionHandler{db: db, cfg: cfg}
}

// SubmitVote handles POST /api/Opinions/:pollId/vote
// Persists one voter's full set of answers: ranking rows first, then a
// single denormalized aggregate row, all in one transaction.
func (h *OpinionHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.Atoi(r.PathValue("pollId"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.UserIdentifier == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "userIdentifier is required")
		return
	}
	if len(req.Responses) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "responses cannot be empty")
		return
	}

	var expiresAt sql.NullTime
	var allowMultiple bool
	err = h.db.QueryRow(`
		SELECT voting_expires_at, allow_multiple_votes FROM polls WHERE id = $1
	`, pollID).Scan(&expiresAt, &allowMultiple)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if expiresAt.Valid && time.Now().After(expiresAt.Time) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Voting has closed for this poll")
		return
	}

	// Multi-vote polls store each submission under a distinct identifier so
	// the uniqueness constraint never fires for them
	storedIdentifier := req.UserIdentifier
	if allowMultiple {
		storedIdentifier = req.UserIdentifier + ":" + uuid.NewString()
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Ranking answers become one row per ranked option, 1-based position
	for _, item := range req.Responses {
		if item.Type != models.TypeRanking {
			continue
		}
		for index, optionID := range item.SelectedOptionIDs {
			_, err := tx.Exec(`
				INSERT INTO poll_rankings (poll_id, question_id, option_id, voter_id, rank_position)
				VALUES ($1, $2, $3, $4, $5)
			`, pollID, item.QuestionID, optionID, storedIdentifier, index+1)

			if err != nil {
				slog.Error("failed to insert ranking entry", "error", err, "poll_id", pollID)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit vote")
				return
			}
		}
	}

	// Everything else accumulates into per-category buffers for the single
	// aggregate row
	var optionIDs, competitorIDs []int64
	var openEnded []models.OpenEndedEntry
	var ratings []models.RatingEntry
	var images, audio []models.MediaEntry
	var locations []models.LocationEntry

	for _, item := range req.Responses {
		if item.Type == models.TypeRanking {
			continue
		}

		for _, id := range item.SelectedOptionIDs {
			optionIDs = append(optionIDs, int64(id))
		}
		for _, id := range item.SelectedCompetitorIDs {
			competitorIDs = append(competitorIDs, int64(id))
		}

		if text := strings.TrimSpace(item.OpenEndedResponse); text != "" {
			openEnded = append(openEnded, models.OpenEndedEntry{
				QuestionID: item.QuestionID,
				Response:   text,
			})
		}

		if item.Rating != nil && *item.Rating >= 1 && *item.Rating <= 10 {
			ratings = append(ratings, models.RatingEntry{
				QuestionID: item.QuestionID,
				Rating:     *item.Rating,
			})
		}

		if url := strings.TrimSpace(item.ImageURL); url != "" {
			images = append(images, models.MediaEntry{QuestionID: item.QuestionID, URL: url})
		}
		if url := strings.TrimSpace(item.AudioURL); url != "" {
			audio = append(audio, models.MediaEntry{QuestionID: item.QuestionID, URL: url})
		}

		if item.Latitude != nil && item.Longitude != nil {
			locations = append(locations, models.LocationEntry{
				QuestionID: item.QuestionID,
				Latitude:   *item.Latitude,
				Longitude:  *item.Longitude,
			})
		}
	}

	_, err = tx.Exec(`
		INSERT INTO poll_responses (
			poll_id, user_identifier,
			selected_option_ids, selected_competitor_ids,
			open_ended_responses, rating,
			image_uploads, audio_recordings, location_responses,
			respondent_name, respondent_age, respondent_gender,
			region, county, constituency, ward
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, pollID, storedIdentifier,
		intArrayOrNull(optionIDs), intArrayOrNull(competitorIDs),
		jsonOrNull(openEnded, len(openEnded)), jsonOrNull(ratings, len(ratings)),
		jsonOrNull(images, len(images)), jsonOrNull(audio, len(audio)),
		jsonOrNull(locations, len(locations)),
		nullIfEmpty(req.RespondentName), req.RespondentAge, nullIfEmpty(req.RespondentGender),
		nullIfEmpty(req.Region), nullIfEmpty(req.County),
		nullIfEmpty(req.Constituency), nullIfEmpty(req.Ward))

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			middleware.ErrorResponse(w, http.StatusForbidden, "You have already voted in this poll")
			return
		}
		slog.Error("failed to insert response", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit vote")
		return
	}

	slog.Info("vote submitted", "poll_id", pollID, "responses", len(req.Responses))

	middleware.JSONResponse(w, http.StatusCreated, models.MessageResponse{
		Message: "Vote submitted successfully!",
	})
}

// Status handles GET /api/Opinions/status?pollId=&voter_id=
func (h *OpinionHandler) Status(w http.ResponseWriter, r *http.Request) {
	pollIDParam := r.URL.Query().Get("pollId")
	voterID := r.URL.Query().Get("voter_id")
	if pollIDParam == "" || voterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId and voter_id are required")
		return
	}

	pollID, err := strconv.Atoi(pollIDParam)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
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

	var alreadyVoted bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM poll_responses
			WHERE poll_id = $1 AND user_identifier = $2
		)
	`, pollID, voterID).Scan(&alreadyVoted)

	if err != nil {
		slog.Error("failed to check vote status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StatusResponse{
		Success:      true,
		AlreadyVoted: alreadyVoted,
	})
}

// intArrayOrNull maps an empty buffer to SQL NULL, never an empty array
func intArrayOrNull(ids []int64) interface{} {
	if len(ids) == 0 {
		return nil
	}
	return pq.Array(ids)
}

// jsonOrNull marshals a buffer to JSONB, or SQL NULL when empty
func jsonOrNull(v interface{}, length int) interface{} {
	if length == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
