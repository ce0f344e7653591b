// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	_ "github.com/lib/pq"

	"github.com/civicpulse/api/models"
)

func upsertBulk(t *testing.T, handler *BulkHandler, pollID int, body models.BulkResponseRequest) *httptest.ResponseRecorder {
	t.Helper()

	req := jsonRequest("POST", "/api/Opinions/"+strconv.Itoa(pollID)+"/admin-bulk-response", body)
	req.SetPathValue("pollId", strconv.Itoa(pollID))
	w := httptest.NewRecorder()
	handler.UpsertBulkResponse(w, req)
	return w
}

func strPtr(s string) *string { return &s }

func TestUpsertBulkResponse(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewBulkHandler(conn, getTestConfig())
	pollID := createPoll(t, conn, false)
	questionID := addQuestion(t, conn, pollID, models.TypeSingleChoice, "Which service?", false)
	water := addOption(t, conn, questionID, "Water")

	w := upsertBulk(t, handler, pollID, models.BulkResponseRequest{
		QuestionID:   questionID,
		OptionCounts: map[string]int{strconv.Itoa(water): 5},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	// Second write to the same tuple replaces, never duplicates
	w = upsertBulk(t, handler, pollID, models.BulkResponseRequest{
		QuestionID:   questionID,
		OptionCounts: map[string]int{strconv.Itoa(water): 9},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on upsert, got %d. Body: %s", w.Code, w.Body.String())
	}

	var count int
	conn.QueryRow(`
		SELECT COUNT(*) FROM poll_responses_admin WHERE poll_id = $1 AND question_id = $2
	`, pollID, questionID).Scan(&count)
	if count != 1 {
		t.Fatalf("Expected 1 override row, got %d", count)
	}

	var raw []byte
	conn.QueryRow(`
		SELECT option_counts FROM poll_responses_admin WHERE poll_id = $1 AND question_id = $2
	`, pollID, questionID).Scan(&raw)

	var counts map[string]int
	if err := json.Unmarshal(raw, &counts); err != nil {
		t.Fatalf("Failed to decode stored counts: %v", err)
	}
	if counts[strconv.Itoa(water)] != 9 {
		t.Errorf("Expected last-write count 9, got %d", counts[strconv.Itoa(water)])
	}
}

func TestUpsertBulkResponsePerLocationTuples(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewBulkHandler(conn, getTestConfig())
	pollID := createPoll(t, conn, false)
	questionID := addQuestion(t, conn, pollID, models.TypeSingleChoice, "Which service?", false)
	water := addOption(t, conn, questionID, "Water")

	// Distinct tuples create distinct rows
	upsertBulk(t, handler, pollID, models.BulkResponseRequest{
		QuestionID:   questionID,
		OptionCounts: map[string]int{strconv.Itoa(water): 1},
	})
	upsertBulk(t, handler, pollID, models.BulkResponseRequest{
		QuestionID:   questionID,
		OptionCounts: map[string]int{strconv.Itoa(water): 2},
		Constituency: strPtr("Changamwe"),
	})
	upsertBulk(t, handler, pollID, models.BulkResponseRequest{
		QuestionID:   questionID,
		OptionCounts: map[string]int{strconv.Itoa(water): 4},
		Constituency: strPtr("Changamwe"),
		Ward:         strPtr("Port Reitz"),
	})

	var count int
	conn.QueryRow(`
		SELECT COUNT(*) FROM poll_responses_admin WHERE poll_id = $1 AND question_id = $2
	`, pollID, questionID).Scan(&count)
	if count != 3 {
		t.Errorf("Expected 3 override rows for 3 tuples, got %d", count)
	}
}

func TestUpsertBulkResponseValidation(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewBulkHandler(conn, getTestConfig())
	pollID := createPoll(t, conn, false)
	otherPoll := createPoll(t, conn, false)
	foreignQuestion := addQuestion(t, conn, otherPoll, models.TypeSingleChoice, "Other?", false)

	// Missing question id
	w := upsertBulk(t, handler, pollID, models.BulkResponseRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without questionId, got %d", w.Code)
	}

	// Question from another poll
	w = upsertBulk(t, handler, pollID, models.BulkResponseRequest{QuestionID: foreignQuestion})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for foreign question, got %d", w.Code)
	}
}

func TestListBulkResponses(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewBulkHandler(conn, getTestConfig())
	pollID := createPoll(t, conn, false)
	questionID := addQuestion(t, conn, pollID, models.TypeSingleChoice, "Which service?", false)
	water := addOption(t, conn, questionID, "Water")

	upsertBulk(t, handler, pollID, models.BulkResponseRequest{
		QuestionID:   questionID,
		OptionCounts: map[string]int{strconv.Itoa(water): 1},
	})
	upsertBulk(t, handler, pollID, models.BulkResponseRequest{
		QuestionID:   questionID,
		OptionCounts: map[string]int{strconv.Itoa(water): 2},
		Constituency: strPtr("Changamwe"),
	})

	tests := []struct {
		name          string
		query         string
		expectedRows  int
		expectedCount int
	}{
		{
			name:          "no filter returns poll-wide rows only",
			query:         "",
			expectedRows:  1,
			expectedCount: 1,
		},
		{
			name:          "constituency returns its exact rows",
			query:         "?constituency=Changamwe",
			expectedRows:  1,
			expectedCount: 2,
		},
		{
			name:         "unmatched tuple returns empty list",
			query:        "?constituency=Likoni",
			expectedRows: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/Opinions/"+strconv.Itoa(pollID)+"/admin-bulk-responses"+tt.query, nil)
			req.SetPathValue("pollId", strconv.Itoa(pollID))
			w := httptest.NewRecorder()

			handler.ListBulkResponses(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
			}

			var rows []models.BulkResponseRow
			if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if len(rows) != tt.expectedRows {
				t.Fatalf("Expected %d rows, got %d", tt.expectedRows, len(rows))
			}
			if tt.expectedRows > 0 && rows[0].OptionCounts[strconv.Itoa(water)] != tt.expectedCount {
				t.Errorf("Expected count %d, got %d", tt.expectedCount, rows[0].OptionCounts[strconv.Itoa(water)])
			}
		})
	}
}

func TestDemographicsRoundTrip(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewBulkHandler(conn, getTestConfig())
	pollID := createPoll(t, conn, false)

	body := models.BulkDemographicsRequest{
		GenderCounts:   map[string]int{"female": 12, "male": 8},
		AgeRangeCounts: map[string]int{"25-34": 20},
	}

	req := jsonRequest("POST", "/api/Opinions/"+strconv.Itoa(pollID)+"/admin-demographics", body)
	req.SetPathValue("pollId", strconv.Itoa(pollID))
	w := httptest.NewRecorder()
	handler.UpsertDemographics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/Opinions/"+strconv.Itoa(pollID)+"/admin-demographics", nil)
	req.SetPathValue("pollId", strconv.Itoa(pollID))
	w = httptest.NewRecorder()
	handler.GetDemographics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var row models.BulkDemographicsRow
	if err := json.NewDecoder(w.Body).Decode(&row); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if row.GenderCounts["female"] != 12 {
		t.Errorf("Expected female count 12, got %d", row.GenderCounts["female"])
	}
	if row.AgeRangeCounts["25-34"] != 20 {
		t.Errorf("Expected 25-34 count 20, got %d", row.AgeRangeCounts["25-34"])
	}
}

func TestGetDemographicsMissing(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewBulkHandler(conn, getTestConfig())
	pollID := createPoll(t, conn, false)

	req := httptest.NewRequest("GET", "/api/Opinions/"+strconv.Itoa(pollID)+"/admin-demographics", nil)
	req.SetPathValue("pollId", strconv.Itoa(pollID))
	w := httptest.NewRecorder()
	handler.GetDemographics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "null\n" {
		t.Errorf("Expected JSON null body for missing row, got %q", body)
	}
}
