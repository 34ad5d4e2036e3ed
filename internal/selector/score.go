package selector

import (
	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/mastery"
)

// Priority weights for adaptive scoring.
const (
	recommendedBonus = 100.0
	coldStartBonus   = 50.0
	noveltyCeiling   = 20
	unmasteredBonus  = 30.0
	streakStep       = 2
	streakBonusCap   = 10
	maxJitter        = 10.0

	// ReviewPriority is assigned to previously-missed questions by the
	// review strategy.
	ReviewPriority = 1000.0
)

// recommendedFor returns the recommended difficulty for a concept, using
// the lowest allowed difficulty when there is no progress yet.
func recommendedFor(c curriculum.Concept, cp *mastery.ConceptProgress) curriculum.Difficulty {
	if cp != nil {
		return mastery.RecommendedDifficulty(cp)
	}
	if sorted := curriculum.SortDifficulties(c.DifficultyLevels); len(sorted) > 0 {
		return sorted[0]
	}
	return curriculum.Familiarity
}

// PriorityScore computes the deterministic part of a question's adaptive
// score (everything except jitter and recency).
func PriorityScore(q curriculum.Question, recommended curriculum.Difficulty, cp *mastery.ConceptProgress) float64 {
	score := 0.0
	if q.Difficulty == recommended {
		score += recommendedBonus
	}

	if !cp.Started() {
		return score + coldStartBonus
	}

	score += float64(max(0, noveltyCeiling-cp.TotalAttempts))
	if !cp.IsMastered(q.Difficulty) {
		score += unmasteredBonus
	}
	if dm := cp.Mastery(q.Difficulty); dm != nil && dm.Streak > 0 {
		score += float64(min(streakBonusCap, dm.Streak*streakStep))
	}
	return score
}

// RecencyPenalty maps sessions-ago to a score adjustment. Values <= 0 mean
// the question has never been seen.
func RecencyPenalty(sessionsAgo int) int {
	switch {
	case sessionsAgo <= 0:
		return 20
	case sessionsAgo == 1:
		return -80
	case sessionsAgo == 2:
		return -50
	case sessionsAgo == 3:
		return -30
	default:
		return -10
	}
}

// Seen is one question outcome from a past session.
type Seen struct {
	QuestionID string `json:"question_id"`
	Correct    bool   `json:"correct"`
}

// BuildRecencyMap builds a recency map from past sessions, most recent
// first. The most recent sighting of a question wins.
func BuildRecencyMap(sessions [][]Seen) RecencyMap {
	m := make(RecencyMap)
	for i, seen := range sessions {
		for _, s := range seen {
			if _, ok := m[s.QuestionID]; ok {
				continue
			}
			correct := s.Correct
			m[s.QuestionID] = RecencyEntry{SessionsAgo: i + 1, WasCorrect: &correct}
		}
	}
	return m
}
