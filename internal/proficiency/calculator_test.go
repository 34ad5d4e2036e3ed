package proficiency

import (
	"testing"
	"time"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/mastery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fam  = curriculum.Familiarity
	app  = curriculum.Application
	exam = curriculum.ExamStyle
	all  = []curriculum.Difficulty{fam, app, exam}
)

func concept(id string, levels ...curriculum.Difficulty) curriculum.Concept {
	return curriculum.Concept{ID: id, DifficultyLevels: levels}
}

// progressWith builds a progress record where each listed difficulty is
// either mastered (true) or merely started (false).
func progressWith(id string, allowed []curriculum.Difficulty, state map[curriculum.Difficulty]bool) *mastery.ConceptProgress {
	p := mastery.NewConceptProgress(id, allowed)
	for d, mastered := range state {
		dm := p.MasteryByDifficulty[d]
		dm.Attempts = 5
		dm.Mastered = mastered
		p.TotalAttempts += 5
	}
	return p
}

func TestCalculate_EmptyTopic(t *testing.T) {
	res := Calculate(nil, nil)
	assert.Equal(t, NotStarted, res.Band)
	assert.Equal(t, 0, res.Level)
	assert.Equal(t, "Not started", res.Label)
	assert.Zero(t, res.Stats.FamiliarityMasteredPct)
}

func TestCalculate_NothingAttempted(t *testing.T) {
	concepts := []curriculum.Concept{concept("a", all...), concept("b", all...)}
	res := Calculate(map[string]*mastery.ConceptProgress{}, concepts)
	assert.Equal(t, NotStarted, res.Band)
}

func TestCalculate_FamiliarityHalfMastered(t *testing.T) {
	levels := []curriculum.Difficulty{fam, app}
	concepts := []curriculum.Concept{concept("a", levels...), concept("b", levels...)}
	progress := map[string]*mastery.ConceptProgress{
		"a": progressWith("a", levels, map[curriculum.Difficulty]bool{fam: true}),
	}

	res := Calculate(progress, concepts)
	assert.InDelta(t, 50.0, res.Stats.FamiliarityMasteredPct, 1e-9)
	assert.Equal(t, 1, res.Stats.ConceptsStarted)
	assert.Equal(t, BuildingFamiliarity, res.Band, "application not started yet")
}

func TestCalculate_Bands(t *testing.T) {
	concepts := []curriculum.Concept{
		concept("a", all...), concept("b", all...), concept("c", all...), concept("d", all...),
	}
	tests := []struct {
		name     string
		progress map[string]map[curriculum.Difficulty]bool
		want     Band
	}{
		{
			name:     "one concept started",
			progress: map[string]map[curriculum.Difficulty]bool{"a": {fam: false}},
			want:     BuildingFamiliarity,
		},
		{
			name: "growing confidence",
			progress: map[string]map[curriculum.Difficulty]bool{
				"a": {fam: true, app: false},
				"b": {fam: true},
			},
			want: GrowingConfidence,
		},
		{
			name: "consistent understanding",
			progress: map[string]map[curriculum.Difficulty]bool{
				"a": {fam: true, app: true, exam: false},
				"b": {fam: true, app: true},
				"c": {fam: true, app: true},
				"d": {fam: true, app: false},
			},
			want: ConsistentUnderstanding,
		},
		{
			name: "application at 75 but exam untouched",
			progress: map[string]map[curriculum.Difficulty]bool{
				"a": {fam: true, app: true},
				"b": {fam: true, app: true},
				"c": {fam: true, app: true},
				"d": {fam: true},
			},
			want: GrowingConfidence,
		},
		{
			name: "exam ready",
			progress: map[string]map[curriculum.Difficulty]bool{
				"a": {fam: true, app: true, exam: true},
				"b": {fam: true, app: true, exam: true},
				"c": {fam: true, app: true, exam: true},
				"d": {fam: true, app: true, exam: true},
			},
			want: ExamReady,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := make(map[string]*mastery.ConceptProgress)
			for id, state := range tt.progress {
				progress[id] = progressWith(id, all, state)
			}
			res := Calculate(progress, concepts)
			assert.Equal(t, tt.want, res.Band)
			assert.Equal(t, tt.want.Level(), res.Level)
		})
	}
}

func TestCalculate_PercentagesUseAllowedDenominator(t *testing.T) {
	concepts := []curriculum.Concept{concept("a", fam), concept("b", fam, app)}
	progress := map[string]*mastery.ConceptProgress{
		"b": progressWith("b", []curriculum.Difficulty{fam, app}, map[curriculum.Difficulty]bool{app: true}),
	}
	res := Calculate(progress, concepts)
	assert.InDelta(t, 100.0, res.Stats.ApplicationMasteredPct, 1e-9)
	assert.Zero(t, res.Stats.FamiliarityMasteredPct)
	assert.Zero(t, res.Stats.ExamStyleStartedPct, "no concept allows exam_style")
}

func TestBandOrdering(t *testing.T) {
	for i, b := range Bands {
		assert.Equal(t, i, b.Level())
	}
}

func TestNewTopicProgress(t *testing.T) {
	topic := &curriculum.Topic{ID: "t", Concepts: []curriculum.Concept{concept("a", all...), concept("b", all...)}}
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)

	a := mastery.NewConceptProgress("a", all)
	a.TotalAttempts, a.TotalCorrect, a.XPEarned, a.LastAttemptedAt = 4, 3, 30, &early
	a.MasteryByDifficulty[fam].Attempts = 4
	b := mastery.NewConceptProgress("b", all)
	b.TotalAttempts, b.TotalCorrect, b.XPEarned, b.LastAttemptedAt = 2, 2, 40, &late
	b.MasteryByDifficulty[app].Attempts = 2
	other := mastery.NewConceptProgress("x", all)
	other.TotalAttempts = 99

	tp := NewTopicProgress(topic, map[string]*mastery.ConceptProgress{"a": a, "b": b, "x": other})
	assert.Equal(t, "t", tp.TopicID)
	assert.Equal(t, 6, tp.TotalAttempts)
	assert.Equal(t, 5, tp.TotalCorrect)
	assert.Equal(t, 70, tp.XPEarned)
	assert.Equal(t, 2, tp.ConceptsStarted)
	assert.Equal(t, BuildingFamiliarity, tp.Band)
	require.NotNil(t, tp.LastAttemptedAt)
	assert.Equal(t, late, *tp.LastAttemptedAt)
}
