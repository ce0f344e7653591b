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

func TestGetResults(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewResultsHandler(conn, getTestConfig())
	pollID := createPoll(t, conn, false)
	questionID := addQuestion(t, conn, pollID, models.TypeSingleChoice, "Which service?", false)
	water := addOption(t, conn, questionID, "Water")

	insertResponse(t, conn, pollID, seedResponse{
		identifier:   "v1",
		optionIDs:    []int64{int64(water)},
		county:       "Mombasa",
		constituency: "Changamwe",
	})
	insertResponse(t, conn, pollID, seedResponse{
		identifier:   "v2",
		optionIDs:    []int64{int64(water)},
		county:       "Mombasa",
		constituency: "Likoni",
	})

	tests := []struct {
		name           string
		pollID         string
		query          string
		expectedStatus int
		expectedTotal  int
	}{
		{
			name:           "all responses",
			pollID:         strconv.Itoa(pollID),
			expectedStatus: http.StatusOK,
			expectedTotal:  2,
		},
		{
			name:           "constituency filter",
			pollID:         strconv.Itoa(pollID),
			query:          "?constituency=Changamwe",
			expectedStatus: http.StatusOK,
			expectedTotal:  1,
		},
		{
			name:           "poll not found",
			pollID:         "9999",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid poll id",
			pollID:         "abc",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/Opinions/"+tt.pollID+"/results"+tt.query, nil)
			req.SetPathValue("pollId", tt.pollID)
			w := httptest.NewRecorder()

			handler.GetResults(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.ResultsResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if resp.Poll.ID != pollID {
				t.Errorf("Expected poll id %d, got %d", pollID, resp.Poll.ID)
			}
			if len(resp.AggregatedResponses) != 1 {
				t.Fatalf("Expected 1 aggregated question, got %d", len(resp.AggregatedResponses))
			}
			if resp.AggregatedResponses[0].TotalResponses != tt.expectedTotal {
				t.Errorf("Expected total %d, got %d", tt.expectedTotal, resp.AggregatedResponses[0].TotalResponses)
			}
		})
	}
}

func TestGetResultsListsLocations(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewResultsHandler(conn, getTestConfig())
	pollID := createPoll(t, conn, false)
	questionID := addQuestion(t, conn, pollID, models.TypeOpenEnded, "Thoughts?", false)

	insertResponse(t, conn, pollID, seedResponse{
		identifier:   "v1",
		openEnded:    []models.OpenEndedEntry{{QuestionID: questionID, Response: "More water"}},
		county:       "Mombasa",
		constituency: "Changamwe",
		ward:         "Port Reitz",
	})

	// Admin row contributes its location too
	if _, err := conn.Exec(`
		INSERT INTO poll_responses_admin (poll_id, question_id, constituency, ward)
		VALUES ($1, $2, 'Likoni', 'Mtongwe')
	`, pollID, questionID); err != nil {
		t.Fatalf("Failed to insert override: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/Opinions/"+strconv.Itoa(pollID)+"/results", nil)
	req.SetPathValue("pollId", strconv.Itoa(pollID))
	w := httptest.NewRecorder()
	handler.GetResults(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var resp models.ResultsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Location) != 2 {
		t.Errorf("Expected 2 distinct locations, got %d", len(resp.Location))
	}
}
