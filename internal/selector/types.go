package selector

import (
	"fmt"
	"math/rand/v2"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/mastery"
)

// Strategy selects how the eligible pool is ordered.
type Strategy string

const (
	StrategyAdaptive   Strategy = "adaptive"
	StrategySequential Strategy = "sequential"
	StrategyRandom     Strategy = "random"
	StrategyReview     Strategy = "review"
)

// ParseStrategy converts a string to a Strategy. Empty means adaptive.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategyAdaptive, nil
	}
	st := Strategy(s)
	if _, ok := strategies[st]; !ok {
		return "", fmt.Errorf("unknown strategy %q", s)
	}
	return st, nil
}

// ItemStatus is the per-question status inside a session.
type ItemStatus string

const (
	StatusPending  ItemStatus = "pending"
	StatusAnswered ItemStatus = "answered"
	StatusSkipped  ItemStatus = "skipped"
)

// EnrichedQuestion is a bank question annotated for selection.
type EnrichedQuestion struct {
	curriculum.Question

	Eligible        bool                     `json:"eligible"`
	IsRecommended   bool                     `json:"is_recommended"`
	PriorityScore   float64                  `json:"priority_score"`
	ConceptProgress *mastery.ConceptProgress `json:"concept_progress,omitempty"` // Snapshot at selection time
	RecencyPenalty  int                      `json:"recency_penalty"`
	OrderInSession  int                      `json:"order_in_session"`
	Status          ItemStatus               `json:"status"`
}

// RecencyEntry describes when a question was last seen.
type RecencyEntry struct {
	SessionsAgo int   `json:"sessions_ago"` // 1 = the most recent session
	WasCorrect  *bool `json:"was_correct,omitempty"`
}

// RecencyMap maps question id to its most recent sighting.
type RecencyMap map[string]RecencyEntry

// Params configures Select.
type Params struct {
	Bank     *curriculum.Bank
	Topic    *curriculum.Topic
	Progress map[string]*mastery.ConceptProgress // Keyed by concept id
	Count    int                                 // 0 = all eligible questions
	Strategy Strategy

	// Rand drives jitter and shuffles. Nil uses a time-seeded source.
	Rand *rand.Rand

	// Recency enables the recency penalty when non-nil.
	Recency RecencyMap

	// Variety enables the cognitive-variety pass after truncation.
	Variety bool
}
