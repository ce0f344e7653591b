// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lib/pq"

	"github.com/civicpulse/api/cliparse"
	"github.com/civicpulse/api/middleware"
	"github.com/civicpulse/api/models"
)

type BulkHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewBulkHandler(db *sql.DB, cfg cliparse.Config) *BulkHandler {
	return &BulkHandler{db: db, cfg: cfg}
}

// UpsertBulkResponse handles POST /api/Opinions/:pollId/admin-bulk-response
// Last-write-wins per (poll, question, constituency, ward) tuple; NULL
// location fields are the poll-wide default row. Additive merging across
// tuples happens at read time, never here.
func (h *BulkHandler) UpsertBulkResponse(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.Atoi(r.PathValue("pollId"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	var req models.BulkResponseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.QuestionID == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "questionId is required")
		return
	}

	var belongs bool
	err = h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM poll_questions WHERE id = $1 AND poll_id = $2)
	`, req.QuestionID, pollID).Scan(&belongs)

	if err != nil {
		slog.Error("failed to query question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !belongs {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found in this poll")
		return
	}

	optionCounts := marshalCounts(req.OptionCounts)
	competitorCounts := marshalCounts(req.CompetitorCounts)
	rankingCounts, err := json.Marshal(emptyIfNilRanking(req.RankingCounts))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid ranking counts")
		return
	}

	ratingValues := make([]int64, len(req.RatingValues))
	for i, v := range req.RatingValues {
		ratingValues[i] = int64(v)
	}
	openEnded := req.OpenEndedResponses
	if openEnded == nil {
		openEnded = []string{}
	}

	_, err = h.db.Exec(`
		INSERT INTO poll_responses_admin (
			poll_id, question_id,
			option_counts, competitor_counts,
			open_ended_responses, rating_values, ranking_counts,
			constituency, ward
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (poll_id, question_id, COALESCE(constituency, ''), COALESCE(ward, ''))
		DO UPDATE SET
			option_counts = EXCLUDED.option_counts,
			competitor_counts = EXCLUDED.competitor_counts,
			open_ended_responses = EXCLUDED.open_ended_responses,
			rating_values = EXCLUDED.rating_values,
			ranking_counts = EXCLUDED.ranking_counts,
			updated_at = NOW()
	`, pollID, req.QuestionID,
		optionCounts, competitorCounts,
		pq.Array(openEnded), pq.Array(ratingValues), rankingCounts,
		req.Constituency, req.Ward)

	if err != nil {
		slog.Error("failed to upsert bulk response", "error", err, "poll_id", pollID, "question_id", req.QuestionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("bulk response saved", "poll_id", pollID, "question_id", req.QuestionID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Message: "Admin bulk response saved successfully",
	})
}

// ListBulkResponses handles GET /api/Opinions/:pollId/admin-bulk-responses
// Matches the exact location tuple: no constituency means the poll-wide
// NULL-NULL rows only.
func (h *BulkHandler) ListBulkResponses(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.Atoi(r.PathValue("pollId"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	constituency := r.URL.Query().Get("constituency")
	ward := r.URL.Query().Get("ward")

	const baseQuery = `
		SELECT question_id, option_counts, competitor_counts,
		       open_ended_responses, rating_values, ranking_counts,
		       constituency, ward, updated_at
		FROM poll_responses_admin
		WHERE poll_id = $1`

	var rows *sql.Rows
	switch {
	case constituency != "" && ward != "":
		rows, err = h.db.Query(baseQuery+` AND constituency = $2 AND ward = $3`, pollID, constituency, ward)
	case constituency != "":
		rows, err = h.db.Query(baseQuery+` AND constituency = $2 AND ward IS NULL`, pollID, constituency)
	default:
		rows, err = h.db.Query(baseQuery+` AND constituency IS NULL AND ward IS NULL`, pollID)
	}

	if err != nil {
		slog.Error("failed to query bulk responses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	result := []models.BulkResponseRow{}
	for rows.Next() {
		var row models.BulkResponseRow
		var optionCounts, competitorCounts, rankingCounts []byte
		var openEnded pq.StringArray
		var ratingValues pq.Int64Array

		err := rows.Scan(&row.QuestionID, &optionCounts, &competitorCounts,
			&openEnded, &ratingValues, &rankingCounts,
			&row.Constituency, &row.Ward, &row.UpdatedAt)
		if err != nil {
			slog.Error("failed to scan bulk response", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		row.OpenEndedResponses = openEnded
		row.RatingValues = make([]int, len(ratingValues))
		for i, v := range ratingValues {
			row.RatingValues[i] = int(v)
		}
		if err := json.Unmarshal(optionCounts, &row.OptionCounts); err != nil {
			slog.Error("failed to decode option counts", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if err := json.Unmarshal(competitorCounts, &row.CompetitorCounts); err != nil {
			slog.Error("failed to decode competitor counts", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if err := json.Unmarshal(rankingCounts, &row.RankingCounts); err != nil {
			slog.Error("failed to decode ranking counts", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		result = append(result, row)
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}

// UpsertDemographics handles POST /api/Opinions/:pollId/admin-demographics
func (h *BulkHandler) UpsertDemographics(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.Atoi(r.PathValue("pollId"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	var req models.BulkDemographicsRequest
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

	_, err = h.db.Exec(`
		INSERT INTO poll_demographics_admin (poll_id, gender_counts, age_range_counts, constituency, ward)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (poll_id, COALESCE(constituency, ''), COALESCE(ward, ''))
		DO UPDATE SET
			gender_counts = EXCLUDED.gender_counts,
			age_range_counts = EXCLUDED.age_range_counts,
			updated_at = NOW()
	`, pollID, marshalCounts(req.GenderCounts), marshalCounts(req.AgeRangeCounts),
		req.Constituency, req.Ward)

	if err != nil {
		slog.Error("failed to upsert demographics", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("demographics override saved", "poll_id", pollID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Message: "Demographics saved successfully",
	})
}

// GetDemographics handles GET /api/Opinions/:pollId/admin-demographics
// Returns the single row for the exact location, or JSON null.
func (h *BulkHandler) GetDemographics(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.Atoi(r.PathValue("pollId"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	constituency := r.URL.Query().Get("constituency")
	ward := r.URL.Query().Get("ward")

	const baseQuery = `
		SELECT gender_counts, age_range_counts, constituency, ward, updated_at
		FROM poll_demographics_admin
		WHERE poll_id = $1`

	var row *sql.Row
	switch {
	case constituency != "" && ward != "":
		row = h.db.QueryRow(baseQuery+` AND constituency = $2 AND ward = $3`, pollID, constituency, ward)
	case constituency != "":
		row = h.db.QueryRow(baseQuery+` AND constituency = $2 AND ward IS NULL`, pollID, constituency)
	default:
		row = h.db.QueryRow(baseQuery+` AND constituency IS NULL AND ward IS NULL`, pollID)
	}

	var result models.BulkDemographicsRow
	var genderCounts, ageRangeCounts []byte
	err = row.Scan(&genderCounts, &ageRangeCounts, &result.Constituency, &result.Ward, &result.UpdatedAt)

	if err == sql.ErrNoRows {
		middleware.JSONResponse(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		slog.Error("failed to query demographics", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := json.Unmarshal(genderCounts, &result.GenderCounts); err != nil {
		slog.Error("failed to decode gender counts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if err := json.Unmarshal(ageRangeCounts, &result.AgeRangeCounts); err != nil {
		slog.Error("failed to decode age range counts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}

// marshalCounts encodes a count map, treating nil as the empty object
func marshalCounts(m map[string]int) []byte {
	if m == nil {
		m = map[string]int{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return []byte("{}")
	}
	return b
}

func emptyIfNilRanking(m map[string]map[string]int) map[string]map[string]int {
	if m == nil {
		return map[string]map[string]int{}
	}
	return m
}
