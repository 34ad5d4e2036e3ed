package mastery

import (
	"maps"
	"slices"
	"time"

	"github.com/abhisek/practiz/internal/curriculum"
)

// DifficultyMastery is the rolling-window record for one concept at one
// difficulty.
type DifficultyMastery struct {
	Attempts       int        `json:"attempts"`
	Correct        int        `json:"correct"`
	Streak         int        `json:"streak"`
	Mastered       bool       `json:"mastered"` // Never reset once set
	MasteredAt     *time.Time `json:"mastered_at,omitempty"`
	RecentAttempts []bool     `json:"recent_attempts"` // Last WindowSize results, oldest first
}

// RecentCorrect counts correct answers in the rolling window.
func (dm *DifficultyMastery) RecentCorrect() int {
	n := 0
	for _, ok := range dm.RecentAttempts {
		if ok {
			n++
		}
	}
	return n
}

func (dm *DifficultyMastery) clone() *DifficultyMastery {
	c := *dm
	c.RecentAttempts = slices.Clone(dm.RecentAttempts)
	if dm.MasteredAt != nil {
		t := *dm.MasteredAt
		c.MasteredAt = &t
	}
	return &c
}

// HistoryEntry is one answered question in a concept's append-only history.
type HistoryEntry struct {
	QuestionID  string                `json:"question_id"`
	Difficulty  curriculum.Difficulty `json:"difficulty"`
	IsCorrect   bool                  `json:"is_correct"`
	XPEarned    int                   `json:"xp_earned"`
	AttemptedAt time.Time             `json:"attempted_at"`
	TimeTakenMs int64                 `json:"time_taken_ms"`
}

// ConceptProgress holds all mastery data for a single concept.
type ConceptProgress struct {
	ConceptID           string                                       `json:"concept_id"`
	AllowedDifficulties []curriculum.Difficulty                      `json:"allowed_difficulties"`
	CurrentDifficulty   curriculum.Difficulty                        `json:"current_difficulty"`
	MasteryByDifficulty map[curriculum.Difficulty]*DifficultyMastery `json:"mastery_by_difficulty"`
	TotalAttempts       int                                          `json:"total_attempts"`
	TotalCorrect        int                                          `json:"total_correct"`
	XPEarned            int                                          `json:"xp_earned"`
	LastAttemptedAt     *time.Time                                   `json:"last_attempted_at,omitempty"`
	QuestionHistory     []HistoryEntry                               `json:"question_history"`
}

// Accuracy returns the lifetime accuracy ratio.
func (p *ConceptProgress) Accuracy() float64 {
	if p.TotalAttempts == 0 {
		return 0.0
	}
	return float64(p.TotalCorrect) / float64(p.TotalAttempts)
}

// Started reports whether the concept has any attempts.
func (p *ConceptProgress) Started() bool {
	return p != nil && p.TotalAttempts > 0
}

// Mastery returns the record for d, or nil if none exists.
func (p *ConceptProgress) Mastery(d curriculum.Difficulty) *DifficultyMastery {
	if p == nil {
		return nil
	}
	return p.MasteryByDifficulty[d]
}

// IsMastered reports whether d has been mastered.
func (p *ConceptProgress) IsMastered(d curriculum.Difficulty) bool {
	dm := p.Mastery(d)
	return dm != nil && dm.Mastered
}

// IsStarted reports whether d has at least one attempt.
func (p *ConceptProgress) IsStarted(d curriculum.Difficulty) bool {
	dm := p.Mastery(d)
	return dm != nil && dm.Attempts > 0
}

// allowed returns the difficulties the concept may progress through.
// Records loaded without an explicit allowed set fall back to the keys of
// the mastery map.
func (p *ConceptProgress) allowed() []curriculum.Difficulty {
	if len(p.AllowedDifficulties) > 0 {
		return p.AllowedDifficulties
	}
	return curriculum.SortDifficulties(slices.Collect(maps.Keys(p.MasteryByDifficulty)))
}

// Clone returns a deep copy.
func (p *ConceptProgress) Clone() *ConceptProgress {
	if p == nil {
		return nil
	}
	c := *p
	c.AllowedDifficulties = slices.Clone(p.AllowedDifficulties)
	c.MasteryByDifficulty = make(map[curriculum.Difficulty]*DifficultyMastery, len(p.MasteryByDifficulty))
	for d, dm := range p.MasteryByDifficulty {
		c.MasteryByDifficulty[d] = dm.clone()
	}
	if p.LastAttemptedAt != nil {
		t := *p.LastAttemptedAt
		c.LastAttemptedAt = &t
	}
	c.QuestionHistory = slices.Clone(p.QuestionHistory)
	return &c
}
