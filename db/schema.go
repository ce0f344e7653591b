// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS polls (
    id SERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    category TEXT NOT NULL,
    presidential TEXT,
    region TEXT NOT NULL,
    county TEXT NOT NULL DEFAULT 'All',
    constituency TEXT NOT NULL DEFAULT 'All',
    ward TEXT NOT NULL DEFAULT 'All',
    published BOOLEAN NOT NULL DEFAULT false,
    voting_expires_at TIMESTAMP,
    allow_multiple_votes BOOLEAN NOT NULL DEFAULT false,
    total_votes INT NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

-- Competitors (candidate options in competitor-style polls)
CREATE TABLE IF NOT EXISTS poll_competitors (
    id SERIAL PRIMARY KEY,
    poll_id INT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    party TEXT,
    profile_image TEXT
);

CREATE INDEX IF NOT EXISTS idx_poll_competitors_poll_id ON poll_competitors(poll_id);

-- Questions
CREATE TABLE IF NOT EXISTS poll_questions (
    id SERIAL PRIMARY KEY,
    poll_id INT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    type TEXT NOT NULL CHECK (type IN (
        'single-choice', 'multi-choice', 'open-ended', 'yes-no-notsure',
        'rating', 'ranking', 'image-upload', 'audio-recording', 'location'
    )),
    is_competitor_question BOOLEAN NOT NULL DEFAULT false,
    question_text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_questions_poll_id ON poll_questions(poll_id);

-- Options
CREATE TABLE IF NOT EXISTS poll_options (
    id SERIAL PRIMARY KEY,
    question_id INT NOT NULL REFERENCES poll_questions(id) ON DELETE CASCADE,
    option_text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_options_question_id ON poll_options(question_id);

-- Individual responses: one denormalized row per voter per poll. Each
-- per-question payload lives in an array/JSONB buffer tagged by question id.
CREATE TABLE IF NOT EXISTS poll_responses (
    id SERIAL PRIMARY KEY,
    poll_id INT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    user_identifier TEXT NOT NULL,
    selected_option_ids INT[],
    selected_competitor_ids INT[],
    open_ended_responses JSONB,
    rating JSONB,
    image_uploads JSONB,
    audio_recordings JSONB,
    location_responses JSONB,
    respondent_name TEXT,
    respondent_age INT,
    respondent_gender TEXT,
    region TEXT,
    county TEXT,
    constituency TEXT,
    ward TEXT,
    voted_at TIMESTAMP NOT NULL DEFAULT NOW(),
    UNIQUE (poll_id, user_identifier)
);

CREATE INDEX IF NOT EXISTS idx_poll_responses_poll_id ON poll_responses(poll_id);

-- Ranking entries: one row per (voter, ranked option, position)
CREATE TABLE IF NOT EXISTS poll_rankings (
    id SERIAL PRIMARY KEY,
    poll_id INT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    question_id INT NOT NULL REFERENCES poll_questions(id) ON DELETE CASCADE,
    option_id INT NOT NULL REFERENCES poll_options(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    rank_position INT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_rankings_question ON poll_rankings(poll_id, question_id);

-- Operator-entered bulk counts, merged additively with individual responses
-- at read time. NULL constituency/ward is the poll-wide default row; the
-- COALESCE index makes the (poll, question, constituency, ward) tuple unique
-- with NULLs treated as ordinary values, so upserts can target it.
CREATE TABLE IF NOT EXISTS poll_responses_admin (
    id SERIAL PRIMARY KEY,
    poll_id INT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    question_id INT NOT NULL REFERENCES poll_questions(id) ON DELETE CASCADE,
    option_counts JSONB NOT NULL DEFAULT '{}',
    competitor_counts JSONB NOT NULL DEFAULT '{}',
    open_ended_responses TEXT[] NOT NULL DEFAULT '{}',
    rating_values INT[] NOT NULL DEFAULT '{}',
    ranking_counts JSONB NOT NULL DEFAULT '{}',
    constituency TEXT,
    ward TEXT,
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_poll_responses_admin_tuple
    ON poll_responses_admin (poll_id, question_id, COALESCE(constituency, ''), COALESCE(ward, ''));

-- Operator-entered demographic counts, same NULL-as-wildcard convention
CREATE TABLE IF NOT EXISTS poll_demographics_admin (
    id SERIAL PRIMARY KEY,
    poll_id INT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    gender_counts JSONB NOT NULL DEFAULT '{}',
    age_range_counts JSONB NOT NULL DEFAULT '{}',
    constituency TEXT,
    ward TEXT,
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_poll_demographics_admin_tuple
    ON poll_demographics_admin (poll_id, COALESCE(constituency, ''), COALESCE(ward, ''));

-- Competitor-poll votes
CREATE TABLE IF NOT EXISTS votes (
    id SERIAL PRIMARY KEY,
    poll_id INT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    competitor_id INT NOT NULL REFERENCES poll_competitors(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    name TEXT,
    gender TEXT,
    region TEXT,
    county TEXT,
    constituency TEXT,
    ward TEXT,
    voted_at TIMESTAMP NOT NULL DEFAULT NOW(),
    UNIQUE (poll_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_votes_poll_id ON votes(poll_id);

-- Append-only cumulative vote counts, feeds the live-stream endpoint
CREATE TABLE IF NOT EXISTS vote_history (
    id SERIAL PRIMARY KEY,
    poll_id INT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    competitor_id INT NOT NULL REFERENCES poll_competitors(id) ON DELETE CASCADE,
    vote_count INT NOT NULL,
    recorded_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vote_history_poll_id ON vote_history(poll_id, recorded_at);
`
