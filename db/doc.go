// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - polls: Poll metadata, location defaults, vote totals
  - poll_competitors: Head-to-head candidates per poll
  - poll_questions: Typed questions (CHECK-constrained type column)
  - poll_options: Options per question
  - poll_responses: One denormalized row per voter submission
  - poll_rankings: One row per (voter, option, position) for ranking questions
  - poll_responses_admin: Bulk override counts per location tuple
  - poll_demographics_admin: Demographic override counts per location tuple
  - votes: One competitor vote per voter per poll
  - vote_history: Cumulative per-competitor snapshots for the live stream

# Uniqueness

Duplicate submissions are rejected by constraints, not application checks:

  - poll_responses UNIQUE (poll_id, user_identifier)
  - votes UNIQUE (poll_id, voter_id)

Override tables use unique expression indexes over
(poll_id, question_id, COALESCE(constituency, ''), COALESCE(ward, ''))
so that NULL location fields still collapse to a single upsertable row.

# Relationships

	polls 1──* poll_competitors
	polls 1──* poll_questions
	poll_questions 1──* poll_options
	polls 1──* poll_responses
	polls 1──* poll_rankings
	polls 1──* poll_responses_admin
	polls 1──* poll_demographics_admin
	polls 1──* votes
	polls 1──* vote_history

All foreign keys use ON DELETE CASCADE.
*/
package db
