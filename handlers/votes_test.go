// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	_ "github.com/lib/pq"

	"github.com/civicpulse/api/models"
)

func TestSubmitCompetitorVote(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewVoteHandler(conn, getTestConfig())
	pollID := createPoll(t, conn, false)
	alice := addCompetitor(t, conn, pollID, "Alice Mwangi")

	otherPoll := createPoll(t, conn, false)
	foreign := addCompetitor(t, conn, otherPoll, "Carol Wanjiru")

	tests := []struct {
		name           string
		body           models.CompetitorVoteRequest
		expectedStatus int
	}{
		{
			name: "valid vote",
			body: models.CompetitorVoteRequest{
				PollID:       pollID,
				CompetitorID: alice,
				VoterID:      "voter-1",
				County:       "Mombasa",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "duplicate voter",
			body: models.CompetitorVoteRequest{
				PollID:       pollID,
				CompetitorID: alice,
				VoterID:      "voter-1",
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "competitor from another poll",
			body: models.CompetitorVoteRequest{
				PollID:       pollID,
				CompetitorID: foreign,
				VoterID:      "voter-2",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing voter id",
			body: models.CompetitorVoteRequest{
				PollID:       pollID,
				CompetitorID: alice,
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest("POST", "/api/votes", tt.body)
			w := httptest.NewRecorder()

			handler.SubmitCompetitorVote(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	// One accepted vote: total bumped once, one history snapshot
	var totalVotes int
	conn.QueryRow(`SELECT total_votes FROM polls WHERE id = $1`, pollID).Scan(&totalVotes)
	if totalVotes != 1 {
		t.Errorf("Expected total_votes 1, got %d", totalVotes)
	}

	var historyCount, historyValue int
	conn.QueryRow(`SELECT COUNT(*), COALESCE(MAX(vote_count), 0) FROM vote_history WHERE poll_id = $1`, pollID).
		Scan(&historyCount, &historyValue)
	if historyCount != 1 || historyValue != 1 {
		t.Errorf("Expected 1 history snapshot with count 1, got %d snapshots, count %d", historyCount, historyValue)
	}
}

func TestSubmitCompetitorVoteCumulativeHistory(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewVoteHandler(conn, getTestConfig())
	pollID := createPoll(t, conn, false)
	alice := addCompetitor(t, conn, pollID, "Alice Mwangi")

	for _, voter := range []string{"voter-1", "voter-2", "voter-3"} {
		req := jsonRequest("POST", "/api/votes", models.CompetitorVoteRequest{
			PollID:       pollID,
			CompetitorID: alice,
			VoterID:      voter,
		})
		w := httptest.NewRecorder()
		handler.SubmitCompetitorVote(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201 for %s, got %d. Body: %s", voter, w.Code, w.Body.String())
		}
	}

	// Snapshots record the running total: 1, 2, 3
	rows, err := conn.Query(`
		SELECT vote_count FROM vote_history
		WHERE poll_id = $1 AND competitor_id = $2
		ORDER BY id
	`, pollID, alice)
	if err != nil {
		t.Fatalf("Failed to query history: %v", err)
	}
	defer rows.Close()

	expected := []int{1, 2, 3}
	i := 0
	for rows.Next() {
		var count int
		if err := rows.Scan(&count); err != nil {
			t.Fatalf("Failed to scan history: %v", err)
		}
		if i >= len(expected) || count != expected[i] {
			t.Errorf("Snapshot %d: expected count %d, got %d", i, expected[i], count)
		}
		i++
	}
	if i != 3 {
		t.Errorf("Expected 3 snapshots, got %d", i)
	}
}

func TestLiveStream(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewVoteHandler(conn, getTestConfig())
	pollID := createPoll(t, conn, false)
	alice := addCompetitor(t, conn, pollID, "Alice Mwangi")

	if _, err := conn.Exec(`
		INSERT INTO vote_history (poll_id, competitor_id, vote_count)
		VALUES ($1, $2, 1), ($1, $2, 2)
	`, pollID, alice); err != nil {
		t.Fatalf("Failed to seed history: %v", err)
	}

	// Cancelled context: the handler writes the first frame and returns
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest("GET", "/api/live-votes/live-stream/"+strconv.Itoa(pollID), nil).WithContext(ctx)
	req.SetPathValue("pollId", strconv.Itoa(pollID))
	w := httptest.NewRecorder()

	handler.LiveStream(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream content type, got %q", ct)
	}

	body := w.Body.String()
	if !strings.HasPrefix(body, "data: ") {
		t.Fatalf("Expected SSE data frame, got %q", body)
	}

	payload := strings.TrimSuffix(strings.TrimPrefix(body, "data: "), "\n\n")
	var points []models.VoteHistoryPoint
	if err := json.Unmarshal([]byte(payload), &points); err != nil {
		t.Fatalf("Failed to decode frame payload: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 history points, got %d", len(points))
	}
	if points[1].VoteCount != 2 {
		t.Errorf("Expected latest count 2, got %d", points[1].VoteCount)
	}
}

func TestLiveStreamPollNotFound(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	handler := NewVoteHandler(conn, getTestConfig())

	req := httptest.NewRequest("GET", "/api/live-votes/live-stream/9999", nil)
	req.SetPathValue("pollId", "9999")
	w := httptest.NewRecorder()

	handler.LiveStream(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
