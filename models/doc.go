// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: title, category, region, location defaults, expiry
  - CreateQuizRequest: mainCompetitors, dynamicPollQuestions
  - UpdateQuizRequest: pollQuestions (existing IDs update in place)
  - SubmitVoteRequest: userIdentifier, responses, respondent demographics
  - BulkResponseRequest: per-question override counts and buffers
  - BulkDemographicsRequest: gender and age-range override counts
  - CompetitorVoteRequest: poll, competitor, voter identity

ResponseItem carries one answer; its IntList fields accept either a JSON
array or a bare scalar for the selected-ID lists.

# Response Types

Types for JSON responses:

  - CreatePollResponse: id
  - ResultsResponse: poll, aggregatedResponses, demographics, location
  - AggregatedResponse: per-question tally (choices, ratings, rankings, media)
  - Demographics: byGender, byAgeRange groups with percentages
  - StatusResponse: success, alreadyVoted
  - VoteHistoryPoint: competitor_id, vote_count, recorded_time
  - MessageResponse, ErrorResponse

# Domain Types

Internal data structures:

  - Poll, PollDetail: poll metadata with competitors and questions
  - Question, Option, Competitor
  - OpenEndedEntry, RatingEntry, MediaEntry, LocationEntry: JSONB buffer rows
  - BulkResponseRow, BulkDemographicsRow: stored override tuples

# Constants

Question types:

	TypeSingleChoice   = "single-choice"
	TypeMultiChoice    = "multi-choice"
	TypeOpenEnded      = "open-ended"
	TypeYesNoNotSure   = "yes-no-notsure"
	TypeRating         = "rating"
	TypeRanking        = "ranking"
	TypeImageUpload    = "image-upload"
	TypeAudioRecording = "audio-recording"
	TypeLocation       = "location"

AgeRangeOrder fixes the display order of demographic age bands.
*/
package models
