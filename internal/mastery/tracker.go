package mastery

import (
	"time"

	"github.com/abhisek/practiz/internal/curriculum"
)

const (
	// WindowSize is the number of recent attempts kept per difficulty.
	WindowSize = 5

	// MasteryThreshold is the number of correct answers in a full window
	// required to master a difficulty.
	MasteryThreshold = 4
)

// xpTable is the XP awarded for one correct answer at each difficulty.
var xpTable = map[curriculum.Difficulty]int{
	curriculum.Familiarity: 10,
	curriculum.Application: 20,
	curriculum.ExamStyle:   30,
}

// XPFor returns the XP a correct answer at d is worth.
func XPFor(d curriculum.Difficulty) int {
	return xpTable[d]
}

// Attempt is one answered question.
type Attempt struct {
	QuestionID  string
	Difficulty  curriculum.Difficulty
	IsCorrect   bool
	TimeTakenMs int64
}

// AttemptResult is returned by RecordAttempt.
type AttemptResult struct {
	Progress        *ConceptProgress
	XPEarned        int
	MasteryAchieved bool
	Advanced        bool
	NewDifficulty   curriculum.Difficulty // CurrentDifficulty after the attempt
}

// NewConceptProgress creates an empty progress record with one mastery
// record per allowed difficulty.
func NewConceptProgress(conceptID string, allowed []curriculum.Difficulty) *ConceptProgress {
	sorted := curriculum.SortDifficulties(allowed)
	p := &ConceptProgress{
		ConceptID:           conceptID,
		AllowedDifficulties: sorted,
		CurrentDifficulty:   curriculum.Familiarity,
		MasteryByDifficulty: make(map[curriculum.Difficulty]*DifficultyMastery, len(sorted)),
		QuestionHistory:     []HistoryEntry{},
	}
	if len(sorted) > 0 {
		p.CurrentDifficulty = sorted[0]
	}
	for _, d := range sorted {
		p.MasteryByDifficulty[d] = &DifficultyMastery{RecentAttempts: []bool{}}
	}
	return p
}

// RecordAttempt applies one attempt to a copy of progress and returns it.
// The input is not modified and must not be nil.
func RecordAttempt(progress *ConceptProgress, a Attempt, now time.Time) AttemptResult {
	p := progress.Clone()

	dm := p.MasteryByDifficulty[a.Difficulty]
	if dm == nil {
		dm = &DifficultyMastery{RecentAttempts: []bool{}}
		p.MasteryByDifficulty[a.Difficulty] = dm
	}

	// Rolling window.
	dm.Attempts++
	dm.RecentAttempts = append(dm.RecentAttempts, a.IsCorrect)
	if len(dm.RecentAttempts) > WindowSize {
		dm.RecentAttempts = dm.RecentAttempts[len(dm.RecentAttempts)-WindowSize:]
	}

	xp := 0
	if a.IsCorrect {
		dm.Correct++
		dm.Streak++
		xp = XPFor(a.Difficulty)
	} else {
		dm.Streak = 0
	}

	p.TotalAttempts++
	if a.IsCorrect {
		p.TotalCorrect++
	}
	p.XPEarned += xp
	at := now
	p.LastAttemptedAt = &at
	p.QuestionHistory = append(p.QuestionHistory, HistoryEntry{
		QuestionID:  a.QuestionID,
		Difficulty:  a.Difficulty,
		IsCorrect:   a.IsCorrect,
		XPEarned:    xp,
		AttemptedAt: now,
		TimeTakenMs: a.TimeTakenMs,
	})

	res := AttemptResult{Progress: p, XPEarned: xp}

	// Mastery check fires once per record.
	if !dm.Mastered && len(dm.RecentAttempts) == WindowSize && dm.RecentCorrect() >= MasteryThreshold {
		dm.Mastered = true
		dm.MasteredAt = &at
		res.MasteryAchieved = true
		res.Advanced = advance(p, a.Difficulty)
	}

	res.NewDifficulty = p.CurrentDifficulty
	return res
}

// advance moves CurrentDifficulty past mastered, if a later allowed
// difficulty exists. It never moves backwards.
func advance(p *ConceptProgress, mastered curriculum.Difficulty) bool {
	if mastered.Rank() < p.CurrentDifficulty.Rank() {
		return false
	}
	next, ok := curriculum.NextAllowed(mastered, p.allowed())
	if !ok {
		return false
	}
	p.CurrentDifficulty = next
	return true
}

// RecommendedDifficulty returns the difficulty the selector should favour.
// It looks one step ahead when the current difficulty is already mastered.
func RecommendedDifficulty(p *ConceptProgress) curriculum.Difficulty {
	if !p.IsMastered(p.CurrentDifficulty) {
		return p.CurrentDifficulty
	}
	if next, ok := curriculum.NextAllowed(p.CurrentDifficulty, p.allowed()); ok {
		return next
	}
	return p.CurrentDifficulty
}
