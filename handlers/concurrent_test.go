// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	_ "github.com/lib/pq"

	"github.com/civicpulse/api/models"
	"github.com/civicpulse/api/testutil"
)

// TestConcurrentVoteSubmissions verifies that simultaneous submissions from
// different voters all land without corruption or duplicates
func TestConcurrentVoteSubmissions(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	handler := NewOpinionHandler(conn, testutil.GetTestConfig())
	pollID := testutil.CreateTestPoll(t, conn, false)
	questionID := testutil.AddTestQuestion(t, conn, pollID, models.TypeSingleChoice, "Which service?", false)
	water := testutil.AddTestOption(t, conn, questionID, "Water")
	roads := testutil.AddTestOption(t, conn, questionID, "Roads")

	numVoters := 10
	options := []int{water, roads}

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(voterIdx int) {
			defer wg.Done()

			w := submitVote(t, handler, pollID, models.SubmitVoteRequest{
				UserIdentifier: "concurrent-voter-" + string(rune('A'+voterIdx)),
				Responses: []models.ResponseItem{
					{
						QuestionID:        questionID,
						Type:              models.TypeSingleChoice,
						SelectedOptionIDs: models.IntList{options[voterIdx%2]},
					},
				},
			})

			if w.Code == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful submissions, got %d", numVoters, successCount.Load())
	}

	var responseCount, uniqueVoters int
	conn.QueryRow(`SELECT COUNT(*) FROM poll_responses WHERE poll_id = $1`, pollID).Scan(&responseCount)
	conn.QueryRow(`SELECT COUNT(DISTINCT user_identifier) FROM poll_responses WHERE poll_id = $1`, pollID).Scan(&uniqueVoters)

	if responseCount != numVoters {
		t.Errorf("Expected %d response rows, got %d", numVoters, responseCount)
	}
	if uniqueVoters != numVoters {
		t.Errorf("Expected %d distinct voters, got %d", numVoters, uniqueVoters)
	}
}

// TestConcurrentDuplicateVoter verifies that racing submissions under one
// identifier produce exactly one stored row and one success
func TestConcurrentDuplicateVoter(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	handler := NewOpinionHandler(conn, testutil.GetTestConfig())
	pollID := testutil.CreateTestPoll(t, conn, false)
	questionID := testutil.AddTestQuestion(t, conn, pollID, models.TypeOpenEnded, "Thoughts?", false)

	attempts := 5
	var successCount, forbiddenCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w := submitVote(t, handler, pollID, models.SubmitVoteRequest{
				UserIdentifier: "racer",
				Responses: []models.ResponseItem{
					{QuestionID: questionID, Type: models.TypeOpenEnded, OpenEndedResponse: "same voter"},
				},
			})

			switch w.Code {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusForbidden:
				forbiddenCount.Add(1)
			}
		}()
	}

	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 success, got %d", successCount.Load())
	}
	if int(successCount.Load()+forbiddenCount.Load()) != attempts {
		t.Errorf("Expected every attempt to resolve to 201 or 403, got %d+%d of %d",
			successCount.Load(), forbiddenCount.Load(), attempts)
	}

	var count int
	conn.QueryRow(`SELECT COUNT(*) FROM poll_responses WHERE poll_id = $1`, pollID).Scan(&count)
	if count != 1 {
		t.Errorf("Expected exactly 1 stored row, got %d", count)
	}
}
