// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the CivicPulse API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - PollHandler: Poll lifecycle (create, attach quiz, list, get, delete)
  - OpinionHandler: Opinion response submission and vote status
  - BulkHandler: Admin bulk-response and demographics overrides
  - ResultsHandler: Aggregated results retrieval
  - VoteHandler: Competitor voting and the SSE live stream

Handlers are created via constructor functions that accept *sql.DB and Config:

	pollHandler := handlers.NewPollHandler(db, cfg)

# Opinion Flow

A poll is created bare, then competitors and typed questions attach to it:

	POST /api/polls            → CreatePoll
	POST /api/polls/{id}/quiz  → CreateQuiz
	PUT  /api/polls/{id}/quiz  → UpdateQuiz

Voters submit their full answer set in one request:

	POST /api/Opinions/{pollId}/vote → SubmitVote
	GET  /api/Opinions/status        → Status

Duplicate detection relies on the unique constraint over
(poll_id, user_identifier); a Postgres 23505 error maps to 403.
Multi-vote polls suffix each stored identifier with a UUID so the
constraint never fires for them.

# Aggregation

The results engine lives in aggregate.go:

	results, err := Aggregate(db, pollID, filter)

It recomputes everything at read time: per-question tallies by type,
additive merging of admin bulk overrides selected by progressive NULL
wildcards, ranking breakdowns from poll_rankings, demographics with
fixed age bands, and the distinct respondent locations.

# Admin Overrides

Bulk counts are upserted per (poll, question, constituency, ward) tuple:

	POST /api/Opinions/{pollId}/admin-bulk-response  → UpsertBulkResponse
	GET  /api/Opinions/{pollId}/admin-bulk-responses → ListBulkResponses
	POST /api/Opinions/{pollId}/admin-demographics   → UpsertDemographics
	GET  /api/Opinions/{pollId}/admin-demographics   → GetDemographics

Writes are last-write-wins per tuple; merging across tuples happens only
when results are read.

# Competitor Voting

	POST /api/votes                            → SubmitCompetitorVote
	GET  /api/live-votes/live-stream/{pollId}  → LiveStream

Each accepted vote bumps the poll total and records a cumulative
history snapshot. The live stream pushes the windowed history as
server-sent events until the client disconnects.
*/
package handlers
