// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/civicpulse/api/cliparse"
	"github.com/civicpulse/api/middleware"
	"github.com/civicpulse/api/models"
)

type PollHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config) *PollHandler {
	return &PollHandler{db: db, cfg: cfg}
}

// optionBearingTypes are the question types that persist their own option
// rows. Ranking needs them for the ranking-entry foreign key; rating stores
// its scale as option text.
var optionBearingTypes = map[string]bool{
	models.TypeSingleChoice: true,
	models.TypeMultiChoice:  true,
	models.TypeYesNoNotSure: true,
	models.TypeRanking:      true,
	models.TypeRating:       true,
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" || req.Category == "" || req.Region == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing required fields for poll creation")
		return
	}

	var expiry interface{}
	if req.VotingExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.VotingExpiresAt)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid voting_expires_at format")
			return
		}
		expiry = parsed
	}

	county := req.County
	if county == "" {
		county = "All"
	}
	constituency := req.Constituency
	if constituency == "" {
		constituency = "All"
	}
	ward := req.Ward
	if ward == "" {
		ward = "All"
	}

	var pollID int
	err := h.db.QueryRow(`
		INSERT INTO polls (title, category, presidential, region, county, constituency, ward,
		                   voting_expires_at, allow_multiple_votes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, req.Title, req.Category, nullIfEmpty(req.Presidential), req.Region,
		county, constituency, ward, expiry, req.AllowMultipleVotes).Scan(&pollID)

	if err != nil {
		slog.Error("failed to insert poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Server error during poll creation")
		return
	}

	slog.Info("poll created", "poll_id", pollID, "title", req.Title)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{ID: pollID})
}

// CreateQuiz handles POST /api/polls/:id/quiz
// Attaches competitors and typed questions (with options) to an existing
// poll in one transaction.
func (h *PollHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	var req models.CreateQuizRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
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

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	for _, c := range req.Competitors {
		if c.Name == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "competitor name is required")
			return
		}
		_, err := tx.Exec(`
			INSERT INTO poll_competitors (poll_id, name, party, profile_image)
			VALUES ($1, $2, $3, $4)
		`, pollID, c.Name, nullIfEmpty(c.Party), nullIfEmpty(c.ProfileImage))

		if err != nil {
			slog.Error("failed to insert competitor", "error", err, "poll_id", pollID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save quiz details")
			return
		}
	}

	for _, q := range req.Questions {
		if q.QuestionText == "" || q.Type == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "question type and text are required")
			return
		}

		var questionID int
		err := tx.QueryRow(`
			INSERT INTO poll_questions (poll_id, type, question_text, is_competitor_question)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, pollID, q.Type, q.QuestionText, q.IsCompetitorQuestion).Scan(&questionID)

		if err != nil {
			slog.Error("failed to insert question", "error", err, "poll_id", pollID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save quiz details")
			return
		}

		if !optionBearingTypes[q.Type] {
			continue
		}
		for _, text := range q.Options {
			_, err := tx.Exec(`
				INSERT INTO poll_options (question_id, option_text)
				VALUES ($1, $2)
			`, questionID, text)

			if err != nil {
				slog.Error("failed to insert option", "error", err, "question_id", questionID)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save quiz details")
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save quiz details")
		return
	}

	slog.Info("quiz saved", "poll_id", pollID,
		"competitors", len(req.Competitors), "questions", len(req.Questions))

	middleware.JSONResponse(w, http.StatusCreated, models.MessageResponse{
		Message: "Quiz details saved successfully for poll",
	})
}

// UpdateQuiz handles PUT /api/polls/:id/quiz
// Updates existing questions in place (replacing their options) and inserts
// new ones.
func (h *PollHandler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	var req models.UpdateQuizRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM polls WHERE id = $1)`, pollID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	existing := make(map[int]bool)
	rows, err := tx.Query(`SELECT id FROM poll_questions WHERE poll_id = $1`, pollID)
	if err != nil {
		slog.Error("failed to query questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			slog.Error("failed to scan question id", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		slog.Error("failed to read questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	rows.Close()

	for _, q := range req.Questions {
		questionID := q.ID

		if questionID != 0 && existing[questionID] {
			_, err := tx.Exec(`
				UPDATE poll_questions
				SET type = $1, question_text = $2, is_competitor_question = $3
				WHERE id = $4
			`, q.Type, q.QuestionText, q.IsCompetitorQuestion, questionID)

			if err != nil {
				slog.Error("failed to update question", "error", err, "question_id", questionID)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update quiz")
				return
			}

			// Replace options wholesale
			if _, err := tx.Exec(`DELETE FROM poll_options WHERE question_id = $1`, questionID); err != nil {
				slog.Error("failed to delete options", "error", err, "question_id", questionID)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update quiz")
				return
			}
		} else {
			err := tx.QueryRow(`
				INSERT INTO poll_questions (poll_id, type, question_text, is_competitor_question)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, pollID, q.Type, q.QuestionText, q.IsCompetitorQuestion).Scan(&questionID)

			if err != nil {
				slog.Error("failed to insert question", "error", err, "poll_id", pollID)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update quiz")
				return
			}
		}

		if !optionBearingTypes[q.Type] {
			continue
		}
		for _, text := range q.Options {
			_, err := tx.Exec(`
				INSERT INTO poll_options (question_id, option_text)
				VALUES ($1, $2)
			`, questionID, text)

			if err != nil {
				slog.Error("failed to insert option", "error", err, "question_id", questionID)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update quiz")
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update quiz")
		return
	}

	slog.Info("quiz updated", "poll_id", pollID, "questions", len(req.Questions))

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Message: "Quiz updated successfully",
	})
}

// ListPolls handles GET /api/polls
// Lists opinion polls: those carrying at least one non-competitor question.
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT p.id, p.title, p.category, p.presidential, p.region, p.county,
		       p.constituency, p.ward, p.published, p.voting_expires_at,
		       p.allow_multiple_votes, p.total_votes, p.created_at
		FROM polls p
		WHERE EXISTS (
			SELECT 1 FROM poll_questions q
			WHERE q.poll_id = p.id AND q.is_competitor_question = false
		)
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		slog.Error("failed to query polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Server error")
		return
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		var p models.Poll
		err := rows.Scan(&p.ID, &p.Title, &p.Category, &p.Presidential, &p.Region,
			&p.County, &p.Constituency, &p.Ward, &p.Published, &p.VotingExpiresAt,
			&p.AllowMultipleVotes, &p.TotalVotes, &p.CreatedAt)
		if err != nil {
			slog.Error("failed to scan poll", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Server error")
			return
		}
		polls = append(polls, p)
	}

	middleware.JSONResponse(w, http.StatusOK, polls)
}

// GetPoll handles GET /api/polls/:id
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	detail, err := LoadPollDetail(h.db, pollID)
	if err == ErrPollNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to load poll", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Server error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// DeletePoll handles DELETE /api/polls/:id
// Cascades to questions, options, responses, rankings and overrides.
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	result, err := h.db.Exec(`DELETE FROM polls WHERE id = $1`, pollID)
	if err != nil {
		slog.Error("failed to delete poll", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Server error")
		return
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Error("failed to read rows affected", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Server error")
		return
	}
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	slog.Info("poll deleted", "poll_id", pollID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Message: "Poll deleted successfully",
	})
}
