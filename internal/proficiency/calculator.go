package proficiency

import (
	"time"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/mastery"
)

// Stats holds the percentages a band decision is made from. Each
// percentage is computed over the concepts that allow that difficulty.
type Stats struct {
	ConceptsTotal   int `json:"concepts_total"`
	ConceptsStarted int `json:"concepts_started"`

	FamiliarityMasteredPct float64 `json:"familiarity_mastered_pct"`
	ApplicationMasteredPct float64 `json:"application_mastered_pct"`
	ExamStyleMasteredPct   float64 `json:"exam_style_mastered_pct"`

	FamiliarityStartedPct float64 `json:"familiarity_started_pct"`
	ApplicationStartedPct float64 `json:"application_started_pct"`
	ExamStyleStartedPct   float64 `json:"exam_style_started_pct"`
}

// Result is the outcome of Calculate.
type Result struct {
	Band  Band   `json:"band"`
	Label string `json:"label"`
	Level int    `json:"level"`
	Stats Stats  `json:"stats"`
}

// Calculate reduces concept progress to a topic proficiency band. concepts
// is the topic's full concept set; progress is keyed by concept id and may
// omit concepts never attempted.
func Calculate(progress map[string]*mastery.ConceptProgress, concepts []curriculum.Concept) Result {
	stats := computeStats(progress, concepts)
	band := bandFor(stats)
	return Result{
		Band:  band,
		Label: band.Label(),
		Level: band.Level(),
		Stats: stats,
	}
}

type counter struct {
	allowed, mastered, started int
}

func (c counter) masteredPct() float64 { return pct(c.mastered, c.allowed) }
func (c counter) startedPct() float64  { return pct(c.started, c.allowed) }

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func computeStats(progress map[string]*mastery.ConceptProgress, concepts []curriculum.Concept) Stats {
	counts := make(map[curriculum.Difficulty]*counter, len(curriculum.DifficultyOrder))
	for _, d := range curriculum.DifficultyOrder {
		counts[d] = &counter{}
	}

	stats := Stats{ConceptsTotal: len(concepts)}
	for _, c := range concepts {
		cp := progress[c.ID]
		if cp.Started() {
			stats.ConceptsStarted++
		}
		for _, d := range curriculum.SortDifficulties(c.DifficultyLevels) {
			ct := counts[d]
			ct.allowed++
			if cp.IsMastered(d) {
				ct.mastered++
			}
			if cp.IsStarted(d) {
				ct.started++
			}
		}
	}

	stats.FamiliarityMasteredPct = counts[curriculum.Familiarity].masteredPct()
	stats.ApplicationMasteredPct = counts[curriculum.Application].masteredPct()
	stats.ExamStyleMasteredPct = counts[curriculum.ExamStyle].masteredPct()
	stats.FamiliarityStartedPct = counts[curriculum.Familiarity].startedPct()
	stats.ApplicationStartedPct = counts[curriculum.Application].startedPct()
	stats.ExamStyleStartedPct = counts[curriculum.ExamStyle].startedPct()
	return stats
}

// bandFor evaluates bands top-down; the first satisfied band wins.
func bandFor(s Stats) Band {
	if s.ConceptsTotal == 0 || s.ConceptsStarted == 0 {
		return NotStarted
	}
	switch {
	case s.FamiliarityMasteredPct >= 100 && s.ApplicationMasteredPct >= 100 && s.ExamStyleMasteredPct >= 100:
		return ExamReady
	case s.FamiliarityMasteredPct >= 100 && s.ApplicationMasteredPct >= 75 && s.ExamStyleStartedPct >= 25:
		return ConsistentUnderstanding
	case s.FamiliarityMasteredPct >= 50 && s.ApplicationStartedPct >= 25:
		return GrowingConfidence
	default:
		return BuildingFamiliarity
	}
}

// TopicProgress aggregates concept progress for one topic.
type TopicProgress struct {
	TopicID         string     `json:"topic_id"`
	Band            Band       `json:"proficiency_band"`
	Level           int        `json:"proficiency_level"`
	ConceptsStarted int        `json:"concepts_started"`
	TotalAttempts   int        `json:"total_attempts"`
	TotalCorrect    int        `json:"total_correct"`
	XPEarned        int        `json:"xp_earned"`
	LastAttemptedAt *time.Time `json:"last_attempted_at,omitempty"`
}

// NewTopicProgress builds the topic aggregate: band plus raw sums and the
// most recent attempt time across the topic's concepts.
func NewTopicProgress(topic *curriculum.Topic, progress map[string]*mastery.ConceptProgress) TopicProgress {
	res := Calculate(progress, topic.Concepts)
	tp := TopicProgress{
		TopicID:         topic.ID,
		Band:            res.Band,
		Level:           res.Level,
		ConceptsStarted: res.Stats.ConceptsStarted,
	}
	for _, c := range topic.Concepts {
		cp := progress[c.ID]
		if cp == nil {
			continue
		}
		tp.TotalAttempts += cp.TotalAttempts
		tp.TotalCorrect += cp.TotalCorrect
		tp.XPEarned += cp.XPEarned
		if cp.LastAttemptedAt != nil && (tp.LastAttemptedAt == nil || cp.LastAttemptedAt.After(*tp.LastAttemptedAt)) {
			t := *cp.LastAttemptedAt
			tp.LastAttemptedAt = &t
		}
	}
	return tp
}
