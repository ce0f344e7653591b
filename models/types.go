package models

import (
	"encoding/json"
	"time"
)

// Question type constants
const (
	TypeSingleChoice   = "single-choice"
	TypeMultiChoice    = "multi-choice"
	TypeOpenEnded      = "open-ended"
	TypeYesNoNotSure   = "yes-no-notsure"
	TypeRating         = "rating"
	TypeRanking        = "ranking"
	TypeImageUpload    = "image-upload"
	TypeAudioRecording = "audio-recording"
	TypeLocation       = "location"
)

// AgeRangeOrder is the fixed display order for age-band demographics.
var AgeRangeOrder = []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65-74", "75+"}

// IntList accepts either a JSON array of numbers or a single bare number.
// Older clients send a scalar selectedOptionIds for single-choice questions.
type IntList []int

func (l *IntList) UnmarshalJSON(data []byte) error {
	var many []int
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one int
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = IntList{one}
	return nil
}

// Request types

type CreatePollRequest struct {
	Title              string `json:"title"`
	Category           string `json:"category"`
	Presidential       string `json:"presidential"`
	Region             string `json:"region"`
	County             string `json:"county"`
	Constituency       string `json:"constituency"`
	Ward               string `json:"ward"`
	VotingExpiresAt    string `json:"voting_expires_at"`
	AllowMultipleVotes bool   `json:"allow_multiple_votes"`
}

type QuizCompetitor struct {
	Name         string `json:"name"`
	Party        string `json:"party"`
	ProfileImage string `json:"profileImage"`
}

type QuizQuestion struct {
	ID                   int      `json:"id,omitempty"`
	Type                 string   `json:"type"`
	QuestionText         string   `json:"questionText"`
	IsCompetitorQuestion bool     `json:"isCompetitorQuestion"`
	Options              []string `json:"options"`
}

type CreateQuizRequest struct {
	Competitors []QuizCompetitor `json:"mainCompetitors"`
	Questions   []QuizQuestion   `json:"dynamicPollQuestions"`
}

type UpdateQuizRequest struct {
	Questions []QuizQuestion `json:"pollQuestions"`
}

// ResponseItem is one voter's answer to a single question. Which payload
// fields are set depends on Type.
type ResponseItem struct {
	QuestionID            int      `json:"questionId"`
	Type                  string   `json:"type"`
	SelectedOptionIDs     IntList  `json:"selectedOptionIds,omitempty"`
	SelectedCompetitorIDs IntList  `json:"selectedCompetitorIds,omitempty"`
	OpenEndedResponse     string   `json:"openEndedResponse,omitempty"`
	Rating                *int     `json:"rating,omitempty"`
	ImageURL              string   `json:"imageUrl,omitempty"`
	AudioURL              string   `json:"audioUrl,omitempty"`
	Latitude              *float64 `json:"latitude,omitempty"`
	Longitude             *float64 `json:"longitude,omitempty"`
}

type SubmitVoteRequest struct {
	UserIdentifier   string         `json:"userIdentifier"`
	Responses        []ResponseItem `json:"responses"`
	RespondentName   string         `json:"respondentName,omitempty"`
	RespondentAge    *int           `json:"respondentAge,omitempty"`
	RespondentGender string         `json:"respondentGender,omitempty"`
	Region           string         `json:"region,omitempty"`
	County           string         `json:"county,omitempty"`
	Constituency     string         `json:"constituency,omitempty"`
	Ward             string         `json:"ward,omitempty"`
}

type BulkResponseRequest struct {
	QuestionID         int                       `json:"questionId"`
	OptionCounts       map[string]int            `json:"optionCounts"`
	CompetitorCounts   map[string]int            `json:"competitorCounts"`
	OpenEndedResponses []string                  `json:"openEndedResponses"`
	RatingValues       []int                     `json:"ratingValues"`
	RankingCounts      map[string]map[string]int `json:"rankingCounts"`
	Constituency       *string                   `json:"constituency"`
	Ward               *string                   `json:"ward"`
}

type BulkDemographicsRequest struct {
	GenderCounts   map[string]int `json:"genderCounts"`
	AgeRangeCounts map[string]int `json:"ageRangeCounts"`
	Constituency   *string        `json:"constituency"`
	Ward           *string        `json:"ward"`
}

type CompetitorVoteRequest struct {
	PollID       int    `json:"id"`
	CompetitorID int    `json:"competitorId"`
	VoterID      string `json:"voter_id"`
	Name         string `json:"name,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Region       string `json:"region,omitempty"`
	County       string `json:"county,omitempty"`
	Constituency string `json:"constituency,omitempty"`
	Ward         string `json:"ward,omitempty"`
}

// Persisted buffer entries. These are what the JSONB columns on
// poll_responses hold, tagged by question id so read-time aggregation can
// scope each payload to its question.

type OpenEndedEntry struct {
	QuestionID int    `json:"questionId"`
	Response   string `json:"response"`
}

type RatingEntry struct {
	QuestionID int `json:"questionId"`
	Rating     int `json:"rating"`
}

type MediaEntry struct {
	QuestionID int    `json:"questionId"`
	URL        string `json:"url"`
}

type LocationEntry struct {
	QuestionID int     `json:"questionId"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// Domain types

type Option struct {
	ID         int    `json:"id"`
	OptionText string `json:"optionText"`
}

type Question struct {
	ID                   int      `json:"id"`
	Type                 string   `json:"type"`
	QuestionText         string   `json:"questionText"`
	Options              []Option `json:"options"`
	IsCompetitorQuestion bool     `json:"isCompetitorQuestion"`
}

type Competitor struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Party        *string `json:"party"`
	ProfileImage *string `json:"profileImage"`
}

type Poll struct {
	ID                 int        `json:"id"`
	Title              string     `json:"title"`
	Category           string     `json:"category"`
	Presidential       *string    `json:"presidential"`
	Region             string     `json:"region"`
	County             string     `json:"county"`
	Constituency       string     `json:"constituency"`
	Ward               string     `json:"ward"`
	Published          bool       `json:"published"`
	VotingExpiresAt    *time.Time `json:"votingExpiresAt"`
	AllowMultipleVotes bool       `json:"allowMultipleVotes"`
	TotalVotes         int        `json:"totalVotes"`
	CreatedAt          time.Time  `json:"createdAt"`
}

type PollDetail struct {
	Poll
	Competitors []Competitor `json:"competitors"`
	Questions   []Question   `json:"questions"`
}

// Aggregation result types

type Choice struct {
	ID         int     `json:"id"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type RankedOption struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type RankingPosition struct {
	Position int            `json:"position"`
	Options  []RankedOption `json:"options"`
}

type LocationPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label,omitempty"`
}

type AggregatedResponse struct {
	QuestionID           int               `json:"questionId"`
	QuestionText         string            `json:"questionText"`
	Type                 string            `json:"type"`
	IsCompetitorQuestion bool              `json:"isCompetitorQuestion,omitempty"`
	TotalResponses       int               `json:"totalResponses"`
	Choices              []Choice          `json:"choices,omitempty"`
	OpenEndedResponses   []string          `json:"openEndedResponses,omitempty"`
	AverageRating        *float64          `json:"averageRating,omitempty"`
	RatingValues         int               `json:"ratingValues,omitempty"`
	RankingData          []RankingPosition `json:"rankingData,omitempty"`
	ImageURLs            []string          `json:"imageUrls,omitempty"`
	AudioURLs            []string          `json:"audioUrls,omitempty"`
	Locations            []LocationPoint   `json:"locations,omitempty"`
}

type DemographicGroup struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Demographics struct {
	Gender           []DemographicGroup `json:"gender"`
	AgeRanges        []DemographicGroup `json:"ageRanges"`
	TotalRespondents int                `json:"totalRespondents"`
}

type LocationRow struct {
	Region       *string `json:"region"`
	County       *string `json:"county"`
	Constituency *string `json:"constituency"`
	Ward         *string `json:"ward"`
}

type ResultsResponse struct {
	Poll                PollDetail           `json:"poll"`
	AggregatedResponses []AggregatedResponse `json:"aggregatedResponses"`
	Demographics        Demographics         `json:"demographics"`
	Location            []LocationRow        `json:"location"`
}

type BulkResponseRow struct {
	QuestionID         int                       `json:"question_id"`
	OptionCounts       map[string]int            `json:"option_counts"`
	CompetitorCounts   map[string]int            `json:"competitor_counts"`
	OpenEndedResponses []string                  `json:"open_ended_responses"`
	RatingValues       []int                     `json:"rating_values"`
	RankingCounts      map[string]map[string]int `json:"ranking_counts"`
	Constituency       *string                   `json:"constituency"`
	Ward               *string                   `json:"ward"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

type BulkDemographicsRow struct {
	GenderCounts   map[string]int `json:"gender_counts"`
	AgeRangeCounts map[string]int `json:"age_range_counts"`
	Constituency   *string        `json:"constituency"`
	Ward           *string        `json:"ward"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type VoteHistoryPoint struct {
	CompetitorID int       `json:"competitor_id"`
	VoteCount    int       `json:"vote_count"`
	RecordedTime time.Time `json:"recorded_time"`
}

// Response envelopes

type CreatePollResponse struct {
	ID int `json:"id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type StatusResponse struct {
	Success      bool `json:"success"`
	AlreadyVoted bool `json:"alreadyVoted"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
