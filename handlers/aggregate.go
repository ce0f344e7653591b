// Copyright (c) 2025 CivicPulse.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/civicpulse/api/models"
)

var ErrPollNotFound = errors.New("poll not found")

// LocationFilter narrows aggregation to responses from a geographic slice.
// Empty fields mean "no filter". A ward without a constituency is ignored.
type LocationFilter struct {
	County       string
	Constituency string
	Ward         string
}

// responseRow is one voter's denormalized poll_responses row with its
// JSONB buffers decoded.
type responseRow struct {
	UserIdentifier        string
	SelectedOptionIDs     []int
	SelectedCompetitorIDs []int
	OpenEnded             []models.OpenEndedEntry
	Ratings               []models.RatingEntry
	ImageUploads          []models.MediaEntry
	AudioRecordings       []models.MediaEntry
	LocationResponses     []models.LocationEntry
	RespondentName        string
	RespondentAge         int
	RespondentGender      string
}

// overrideData is the additive merge of every bulk override row matched by
// the location filter, for one question.
type overrideData struct {
	OptionCounts     map[int]int
	CompetitorCounts map[int]int
	OpenEnded        []string
	RankingCounts    map[int]map[int]int // option id -> rank position -> count
}

var ratingLabels = map[int]string{
	1: "Very Poor",
	2: "Poor",
	3: "Fair",
	4: "Good",
	5: "Excellent",
}

// Aggregate recomputes per-question tallies for a poll by combining raw
// response rows with operator-entered bulk overrides selected by the
// location filter.
func Aggregate(db *sql.DB, pollID int, filter LocationFilter) (*models.ResultsResponse, error) {
	poll, err := LoadPollDetail(db, pollID)
	if err != nil {
		return nil, err
	}

	// Ward filters only make sense inside a constituency
	if filter.Constituency == "" {
		filter.Ward = ""
	}

	rows, err := loadResponses(db, pollID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	overrides, err := loadOverrides(db, pollID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}

	genderOverride, ageOverride, err := loadDemographicOverrides(db, pollID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load demographic overrides: %w", err)
	}

	aggregated := make([]models.AggregatedResponse, 0, len(poll.Questions))
	for _, question := range poll.Questions {
		if question.Type == models.TypeRanking {
			entry, err := aggregateRanking(db, pollID, question, overrides[question.ID])
			if err != nil {
				return nil, err
			}
			aggregated = append(aggregated, *entry)
			continue
		}
		aggregated = append(aggregated, tallyQuestion(question, poll.Competitors, rows, overrides[question.ID]))
	}

	locations, err := loadLocations(db, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}

	return &models.ResultsResponse{
		Poll:                *poll,
		AggregatedResponses: aggregated,
		Demographics:        buildDemographics(rows, genderOverride, ageOverride),
		Location:            locations,
	}, nil
}

// tallyQuestion applies the type-specific counting rule to every response
// row, then merges the bulk override counts on top.
func tallyQuestion(q models.Question, competitors []models.Competitor, rows []responseRow, override *overrideData) models.AggregatedResponse {
	optionCounts := make(map[int]int)
	competitorCounts := make(map[int]int)
	var openEnded, imageURLs, audioURLs []string
	var locationPoints []models.LocationPoint
	answered := make(map[string]bool)

	questionOptions := make(map[int]bool, len(q.Options))
	for _, o := range q.Options {
		questionOptions[o.ID] = true
	}

	for _, r := range rows {
		hit := false

		switch q.Type {
		case models.TypeSingleChoice, models.TypeMultiChoice, models.TypeYesNoNotSure:
			if len(r.SelectedOptionIDs) == 0 {
				break
			}
			if len(questionOptions) == 0 {
				// Legacy polls stored no options; anyone who selected counts
				hit = true
				break
			}
			// Only option ids belonging to this question count, which
			// guards against stale rows recorded without question scoping
			for _, id := range r.SelectedOptionIDs {
				if questionOptions[id] {
					hit = true
					optionCounts[id]++
				}
			}

		case models.TypeOpenEnded:
			for _, e := range r.OpenEnded {
				if e.QuestionID == q.ID && strings.TrimSpace(e.Response) != "" {
					hit = true
					openEnded = append(openEnded, strings.TrimSpace(e.Response))
					break
				}
			}

		case models.TypeRating:
			for _, e := range r.Ratings {
				if e.QuestionID == q.ID {
					hit = true
					optionCounts[e.Rating]++
					break
				}
			}

		case models.TypeImageUpload:
			for _, e := range r.ImageUploads {
				if e.QuestionID == q.ID && strings.TrimSpace(e.URL) != "" {
					hit = true
					imageURLs = append(imageURLs, strings.TrimSpace(e.URL))
					break
				}
			}

		case models.TypeAudioRecording:
			for _, e := range r.AudioRecordings {
				if e.QuestionID == q.ID && strings.TrimSpace(e.URL) != "" {
					hit = true
					audioURLs = append(audioURLs, strings.TrimSpace(e.URL))
					break
				}
			}

		case models.TypeLocation:
			for _, e := range r.LocationResponses {
				if e.QuestionID == q.ID {
					hit = true
					locationPoints = append(locationPoints, models.LocationPoint{
						Latitude:  e.Latitude,
						Longitude: e.Longitude,
						Label:     r.RespondentName,
					})
					break
				}
			}
		}

		if q.IsCompetitorQuestion && len(r.SelectedCompetitorIDs) > 0 {
			hit = true
			for _, id := range r.SelectedCompetitorIDs {
				competitorCounts[id]++
			}
		}

		if hit {
			answered[r.UserIdentifier] = true
		}
	}

	if override != nil {
		for id, count := range override.OptionCounts {
			optionCounts[id] += count
		}
		for id, count := range override.CompetitorCounts {
			competitorCounts[id] += count
		}
		openEnded = append(openEnded, override.OpenEnded...)
	}

	result := models.AggregatedResponse{
		QuestionID:           q.ID,
		QuestionText:         q.QuestionText,
		Type:                 q.Type,
		IsCompetitorQuestion: q.IsCompetitorQuestion,
		TotalResponses:       len(answered),
		OpenEndedResponses:   openEnded,
		ImageURLs:            imageURLs,
		AudioURLs:            audioURLs,
		Locations:            locationPoints,
	}

	if len(optionCounts) > 0 || len(competitorCounts) > 0 {
		counts := optionCounts
		fromOptions := true
		if len(counts) == 0 {
			counts = competitorCounts
			fromOptions = false
		}

		total := 0
		for _, c := range counts {
			total += c
		}

		choices := make([]models.Choice, 0, len(counts))
		for id, count := range counts {
			choices = append(choices, models.Choice{
				ID:         id,
				Label:      choiceLabel(q, competitors, id, fromOptions),
				Count:      count,
				Percentage: percentage(count, total),
			})
		}

		sort.Slice(choices, func(i, j int) bool {
			if q.Type == models.TypeRating {
				return choices[i].ID < choices[j].ID
			}
			if choices[i].Count != choices[j].Count {
				return choices[i].Count > choices[j].Count
			}
			return choices[i].ID < choices[j].ID
		})
		result.Choices = choices

		if q.Type == models.TypeRating {
			weighted := 0
			for rating, count := range counts {
				weighted += rating * count
			}
			avg := 0.0
			if total > 0 {
				avg = round2(float64(weighted) / float64(total))
			}
			result.AverageRating = &avg
			result.RatingValues = total
			// Bulk counts carry no voter identity, so the rating total
			// replaces the distinct-voter count
			result.TotalResponses = total
		}
	}

	return result
}

// choiceLabel resolves a tally key to its display label
func choiceLabel(q models.Question, competitors []models.Competitor, id int, fromOptions bool) string {
	if q.Type == models.TypeRating {
		if label, ok := ratingLabels[id]; ok {
			return label
		}
		return "Rating " + strconv.Itoa(id)
	}
	if fromOptions {
		for _, o := range q.Options {
			if o.ID == id {
				return o.OptionText
			}
		}
		return "Unknown"
	}
	for _, c := range competitors {
		if c.ID == id {
			return c.Name
		}
	}
	return "Unknown"
}

// aggregateRanking reads ranking-entry rows directly (they never live on the
// per-voter aggregate row), merges override ranking counts and regroups by
// rank position.
func aggregateRanking(db *sql.DB, pollID int, q models.Question, override *overrideData) (*models.AggregatedResponse, error) {
	rows, err := db.Query(`
		SELECT po.id, po.option_text, pr.rank_position, COUNT(*)
		FROM poll_rankings pr
		JOIN poll_options po ON pr.option_id = po.id
		WHERE pr.poll_id = $1 AND pr.question_id = $2
		GROUP BY po.id, po.option_text, pr.rank_position
		ORDER BY pr.rank_position
	`, pollID, q.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	byPosition := make(map[int][]models.RankedOption)
	for rows.Next() {
		var optionID, position, count int
		var label string
		if err := rows.Scan(&optionID, &label, &position, &count); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		byPosition[position] = append(byPosition[position], models.RankedOption{
			ID:    optionID,
			Label: label,
			Count: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if override != nil {
		for optionID, ranks := range override.RankingCounts {
			label := "Unknown"
			for _, o := range q.Options {
				if o.ID == optionID {
					label = o.OptionText
					break
				}
			}
			for position, count := range ranks {
				merged := false
				for i := range byPosition[position] {
					if byPosition[position][i].ID == optionID {
						byPosition[position][i].Count += count
						merged = true
						break
					}
				}
				if !merged {
					byPosition[position] = append(byPosition[position], models.RankedOption{
						ID:    optionID,
						Label: label,
						Count: count,
					})
				}
			}
		}
	}

	positions := make([]int, 0, len(byPosition))
	for p := range byPosition {
		positions = append(positions, p)
	}
	sort.Ints(positions)

	rankingData := make([]models.RankingPosition, 0, len(positions))
	for _, p := range positions {
		options := byPosition[p]
		sort.Slice(options, func(i, j int) bool {
			if options[i].Count != options[j].Count {
				return options[i].Count > options[j].Count
			}
			return options[i].ID < options[j].ID
		})
		rankingData = append(rankingData, models.RankingPosition{Position: p, Options: options})
	}

	var voterCount int
	err = db.QueryRow(`
		SELECT COUNT(DISTINCT voter_id) FROM poll_rankings
		WHERE poll_id = $1 AND question_id = $2
	`, pollID, q.ID).Scan(&voterCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count ranking voters: %w", err)
	}

	return &models.AggregatedResponse{
		QuestionID:     q.ID,
		QuestionText:   q.QuestionText,
		Type:           models.TypeRanking,
		TotalResponses: voterCount,
		RankingData:    rankingData,
	}, nil
}

// buildDemographics deduplicates individual responses by voter identifier,
// buckets ages into fixed bands, then adds override counts on top.
func buildDemographics(rows []responseRow, genderOverride, ageOverride map[string]int) models.Demographics {
	genderCounts := make(map[string]int)
	ageCounts := make(map[string]int)

	seen := make(map[string]bool)
	for _, r := range rows {
		if seen[r.UserIdentifier] {
			continue
		}
		seen[r.UserIdentifier] = true

		if r.RespondentGender != "" {
			genderCounts[r.RespondentGender]++
		}
		if r.RespondentAge > 0 {
			ageCounts[ageRange(r.RespondentAge)]++
		}
	}

	overrideTotal := 0
	for gender, count := range genderOverride {
		genderCounts[gender] += count
		overrideTotal += count
	}
	if overrideTotal == 0 {
		for _, count := range ageOverride {
			overrideTotal += count
		}
	}
	for band, count := range ageOverride {
		ageCounts[band] += count
	}

	total := len(seen) + overrideTotal

	genderGroups := make([]models.DemographicGroup, 0, len(genderCounts))
	for label, count := range genderCounts {
		genderGroups = append(genderGroups, models.DemographicGroup{
			Label:      label,
			Count:      count,
			Percentage: percentage(count, total),
		})
	}
	sort.Slice(genderGroups, func(i, j int) bool {
		return genderGroups[i].Label < genderGroups[j].Label
	})

	ageGroups := make([]models.DemographicGroup, 0, len(ageCounts))
	for _, band := range models.AgeRangeOrder {
		if count, ok := ageCounts[band]; ok {
			ageGroups = append(ageGroups, models.DemographicGroup{
				Label:      band,
				Count:      count,
				Percentage: percentage(count, total),
			})
		}
	}

	return models.Demographics{
		Gender:           genderGroups,
		AgeRanges:        ageGroups,
		TotalRespondents: total,
	}
}

// ageRange buckets an age into the fixed demographic bands
func ageRange(age int) string {
	switch {
	case age >= 18 && age <= 24:
		return "18-24"
	case age >= 25 && age <= 34:
		return "25-34"
	case age >= 35 && age <= 44:
		return "35-44"
	case age >= 45 && age <= 54:
		return "45-54"
	case age >= 55 && age <= 64:
		return "55-64"
	case age >= 65 && age <= 74:
		return "65-74"
	default:
		return "75+"
	}
}

// percentage is count/total*100 rounded to one decimal; 0 when total is 0
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LoadPollDetail fetches a poll with its competitors and questions
// (including options). Returns ErrPollNotFound for unknown ids.
func LoadPollDetail(db *sql.DB, pollID int) (*models.PollDetail, error) {
	var poll models.Poll
	err := db.QueryRow(`
		SELECT id, title, category, presidential, region, county, constituency, ward,
		       published, voting_expires_at, allow_multiple_votes, total_votes, created_at
		FROM polls
		WHERE id = $1
	`, pollID).Scan(
		&poll.ID, &poll.Title, &poll.Category, &poll.Presidential,
		&poll.Region, &poll.County, &poll.Constituency, &poll.Ward,
		&poll.Published, &poll.VotingExpiresAt, &poll.AllowMultipleVotes,
		&poll.TotalVotes, &poll.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPollNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query poll: %w", err)
	}

	competitors := []models.Competitor{}
	rows, err := db.Query(`
		SELECT id, name, party, profile_image
		FROM poll_competitors
		WHERE poll_id = $1
		ORDER BY id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Competitor
		if err := rows.Scan(&c.ID, &c.Name, &c.Party, &c.ProfileImage); err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		competitors = append(competitors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	questions, err := loadQuestions(db, pollID)
	if err != nil {
		return nil, err
	}

	return &models.PollDetail{
		Poll:        poll,
		Competitors: competitors,
		Questions:   questions,
	}, nil
}

func loadQuestions(db *sql.DB, pollID int) ([]models.Question, error) {
	rows, err := db.Query(`
		SELECT id, type, question_text, is_competitor_question
		FROM poll_questions
		WHERE poll_id = $1
		ORDER BY id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Type, &q.QuestionText, &q.IsCompetitorQuestion); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.Options = []models.Option{}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range questions {
		optRows, err := db.Query(`
			SELECT id, option_text
			FROM poll_options
			WHERE question_id = $1
			ORDER BY id
		`, questions[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query options: %w", err)
		}
		for optRows.Next() {
			var o models.Option
			if err := optRows.Scan(&o.ID, &o.OptionText); err != nil {
				optRows.Close()
				return nil, fmt.Errorf("failed to scan option: %w", err)
			}
			questions[i].Options = append(questions[i].Options, o)
		}
		if err := optRows.Err(); err != nil {
			optRows.Close()
			return nil, err
		}
		optRows.Close()
	}

	return questions, nil
}

// loadResponses fetches filtered poll_responses rows. Empty filter fields are
// neutralized inside the statement, so there is exactly one query shape.
func loadResponses(db *sql.DB, pollID int, f LocationFilter) ([]responseRow, error) {
	rows, err := db.Query(`
		SELECT user_identifier, selected_option_ids, selected_competitor_ids,
		       open_ended_responses, rating, image_uploads, audio_recordings,
		       location_responses, respondent_name, respondent_age, respondent_gender
		FROM poll_responses
		WHERE poll_id = $1
		  AND ($2 = '' OR county = $2)
		  AND ($3 = '' OR constituency = $3)
		  AND ($4 = '' OR ward = $4)
	`, pollID, f.County, f.Constituency, f.Ward)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []responseRow
	for rows.Next() {
		var r responseRow
		var optionIDs, competitorIDs pq.Int64Array
		var openEnded, ratings, images, audio, locations []byte
		var name, gender sql.NullString
		var age sql.NullInt64

		err := rows.Scan(&r.UserIdentifier, &optionIDs, &competitorIDs,
			&openEnded, &ratings, &images, &audio, &locations,
			&name, &age, &gender)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}

		r.SelectedOptionIDs = toIntSlice(optionIDs)
		r.SelectedCompetitorIDs = toIntSlice(competitorIDs)
		if err := decodeBuffer(openEnded, &r.OpenEnded); err != nil {
			return nil, err
		}
		if err := decodeBuffer(ratings, &r.Ratings); err != nil {
			return nil, err
		}
		if err := decodeBuffer(images, &r.ImageUploads); err != nil {
			return nil, err
		}
		if err := decodeBuffer(audio, &r.AudioRecordings); err != nil {
			return nil, err
		}
		if err := decodeBuffer(locations, &r.LocationResponses); err != nil {
			return nil, err
		}
		r.RespondentName = name.String
		r.RespondentGender = gender.String
		r.RespondentAge = int(age.Int64)

		result = append(result, r)
	}

	return result, rows.Err()
}

func toIntSlice(arr pq.Int64Array) []int {
	if len(arr) == 0 {
		return nil
	}
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}

func decodeBuffer(raw []byte, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode response buffer: %w", err)
	}
	return nil
}

// Override selection follows the progressive NULL-wildcard rule: the
// poll-wide (NULL, NULL) row always applies; a constituency filter adds that
// constituency's rows; a ward filter narrows the constituency's ward rows to
// the one ward. Three fixed statements, picked by which filters are present.
const (
	overridesAll = `
		SELECT question_id, option_counts, competitor_counts,
		       open_ended_responses, ranking_counts
		FROM poll_responses_admin
		WHERE poll_id = $1`

	overridesByConstituency = overridesAll + `
		  AND ((constituency IS NULL AND ward IS NULL) OR constituency = $2)`

	overridesByConstituencyWard = overridesAll + `
		  AND ((constituency IS NULL AND ward IS NULL)
		    OR (constituency = $2 AND ward IS NULL)
		    OR (constituency = $2 AND ward = $3))`
)

func loadOverrides(db *sql.DB, pollID int, f LocationFilter) (map[int]*overrideData, error) {
	var rows *sql.Rows
	var err error

	switch {
	case f.Constituency != "" && f.Ward != "":
		rows, err = db.Query(overridesByConstituencyWard, pollID, f.Constituency, f.Ward)
	case f.Constituency != "":
		rows, err = db.Query(overridesByConstituency, pollID, f.Constituency)
	default:
		rows, err = db.Query(overridesAll, pollID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	merged := make(map[int]*overrideData)
	for rows.Next() {
		var questionID int
		var optionCounts, competitorCounts, rankingCounts []byte
		var openEnded pq.StringArray

		if err := rows.Scan(&questionID, &optionCounts, &competitorCounts, &openEnded, &rankingCounts); err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}

		data := merged[questionID]
		if data == nil {
			data = &overrideData{
				OptionCounts:     make(map[int]int),
				CompetitorCounts: make(map[int]int),
				RankingCounts:    make(map[int]map[int]int),
			}
			merged[questionID] = data
		}

		if err := mergeCountMap(optionCounts, data.OptionCounts); err != nil {
			return nil, err
		}
		if err := mergeCountMap(competitorCounts, data.CompetitorCounts); err != nil {
			return nil, err
		}
		data.OpenEnded = append(data.OpenEnded, openEnded...)

		if err := mergeRankingCounts(rankingCounts, data.RankingCounts); err != nil {
			return nil, err
		}
	}

	return merged, rows.Err()
}

// mergeCountMap adds a JSONB {"id": count} object into dst, summing on key
func mergeCountMap(raw []byte, dst map[int]int) error {
	if len(raw) == 0 {
		return nil
	}
	var counts map[string]int
	if err := json.Unmarshal(raw, &counts); err != nil {
		return fmt.Errorf("failed to decode count map: %w", err)
	}
	for key, count := range counts {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		dst[id] += count
	}
	return nil
}

// mergeRankingCounts adds {"optionId": {"rank_1": count}} into dst. Plain
// numeric rank keys are accepted alongside the rank_ prefixed form.
func mergeRankingCounts(raw []byte, dst map[int]map[int]int) error {
	if len(raw) == 0 {
		return nil
	}
	var counts map[string]map[string]int
	if err := json.Unmarshal(raw, &counts); err != nil {
		return fmt.Errorf("failed to decode ranking counts: %w", err)
	}
	for optionKey, ranks := range counts {
		optionID, err := strconv.Atoi(optionKey)
		if err != nil {
			continue
		}
		for rankKey, count := range ranks {
			position, err := strconv.Atoi(strings.TrimPrefix(rankKey, "rank_"))
			if err != nil {
				continue
			}
			if dst[optionID] == nil {
				dst[optionID] = make(map[int]int)
			}
			dst[optionID][position] += count
		}
	}
	return nil
}

const (
	demographicsAll = `
		SELECT gender_counts, age_range_counts
		FROM poll_demographics_admin
		WHERE poll_id = $1`

	demographicsByConstituency = demographicsAll + `
		  AND ((constituency IS NULL AND ward IS NULL) OR constituency = $2)`

	demographicsByConstituencyWard = demographicsAll + `
		  AND ((constituency IS NULL AND ward IS NULL)
		    OR (constituency = $2 AND ward IS NULL)
		    OR (constituency = $2 AND ward = $3))`
)

func loadDemographicOverrides(db *sql.DB, pollID int, f LocationFilter) (map[string]int, map[string]int, error) {
	var rows *sql.Rows
	var err error

	switch {
	case f.Constituency != "" && f.Ward != "":
		rows, err = db.Query(demographicsByConstituencyWard, pollID, f.Constituency, f.Ward)
	case f.Constituency != "":
		rows, err = db.Query(demographicsByConstituency, pollID, f.Constituency)
	default:
		rows, err = db.Query(demographicsAll, pollID)
	}
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	gender := make(map[string]int)
	age := make(map[string]int)
	for rows.Next() {
		var genderRaw, ageRaw []byte
		if err := rows.Scan(&genderRaw, &ageRaw); err != nil {
			return nil, nil, fmt.Errorf("failed to scan demographics override: %w", err)
		}
		if err := mergeStringCountMap(genderRaw, gender); err != nil {
			return nil, nil, err
		}
		if err := mergeStringCountMap(ageRaw, age); err != nil {
			return nil, nil, err
		}
	}

	return gender, age, rows.Err()
}

func mergeStringCountMap(raw []byte, dst map[string]int) error {
	if len(raw) == 0 {
		return nil
	}
	var counts map[string]int
	if err := json.Unmarshal(raw, &counts); err != nil {
		return fmt.Errorf("failed to decode count map: %w", err)
	}
	for key, count := range counts {
		dst[key] += count
	}
	return nil
}

// loadLocations lists the distinct locations seen across individual and
// bulk-entered data, for the frontend's filter dropdowns.
func loadLocations(db *sql.DB, pollID int) ([]models.LocationRow, error) {
	rows, err := db.Query(`
		SELECT DISTINCT region, county, constituency, ward FROM poll_responses WHERE poll_id = $1
		UNION
		SELECT DISTINCT NULL, NULL, constituency, ward FROM poll_responses_admin
		WHERE poll_id = $1 AND (constituency IS NOT NULL OR ward IS NOT NULL)
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := []models.LocationRow{}
	for rows.Next() {
		var l models.LocationRow
		if err := rows.Scan(&l.Region, &l.County, &l.Constituency, &l.Ward); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, l)
	}

	return locations, rows.Err()
}
