package mastery

import (
	"fmt"
	"testing"
	"time"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	allLevels = []curriculum.Difficulty{curriculum.Familiarity, curriculum.Application, curriculum.ExamStyle}
	testNow   = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

// record applies a sequence of results at d and returns the final result
// plus how many attempts reported MasteryAchieved.
func record(t *testing.T, p *ConceptProgress, d curriculum.Difficulty, results ...bool) (AttemptResult, int) {
	t.Helper()
	var res AttemptResult
	achieved := 0
	for i, ok := range results {
		res = RecordAttempt(p, Attempt{
			QuestionID:  fmt.Sprintf("q%d", i),
			Difficulty:  d,
			IsCorrect:   ok,
			TimeTakenMs: 1500,
		}, testNow.Add(time.Duration(i)*time.Minute))
		if res.MasteryAchieved {
			achieved++
		}
		p = res.Progress
	}
	return res, achieved
}

func TestNewConceptProgress(t *testing.T) {
	p := NewConceptProgress("c1", []curriculum.Difficulty{curriculum.ExamStyle, curriculum.Application})
	assert.Equal(t, curriculum.Application, p.CurrentDifficulty)
	assert.Equal(t, []curriculum.Difficulty{curriculum.Application, curriculum.ExamStyle}, p.AllowedDifficulties)
	assert.Len(t, p.MasteryByDifficulty, 2)
	assert.False(t, p.Started())

	empty := NewConceptProgress("c2", nil)
	assert.Equal(t, curriculum.Familiarity, empty.CurrentDifficulty)
}

func TestRecordAttempt_XPTable(t *testing.T) {
	tests := []struct {
		d    curriculum.Difficulty
		want int
	}{
		{curriculum.Familiarity, 10},
		{curriculum.Application, 20},
		{curriculum.ExamStyle, 30},
	}
	for _, tt := range tests {
		t.Run(string(tt.d), func(t *testing.T) {
			p := NewConceptProgress("c", allLevels)
			res := RecordAttempt(p, Attempt{QuestionID: "q", Difficulty: tt.d, IsCorrect: true}, testNow)
			assert.Equal(t, tt.want, res.XPEarned)
			assert.Equal(t, tt.want, res.Progress.XPEarned)

			wrong := RecordAttempt(p, Attempt{QuestionID: "q", Difficulty: tt.d, IsCorrect: false}, testNow)
			assert.Zero(t, wrong.XPEarned)
			assert.Zero(t, wrong.Progress.XPEarned)
		})
	}
}

func TestRecordAttempt_DoesNotMutateInput(t *testing.T) {
	p := NewConceptProgress("c", allLevels)
	res := RecordAttempt(p, Attempt{QuestionID: "q", Difficulty: curriculum.Familiarity, IsCorrect: true}, testNow)

	assert.Zero(t, p.TotalAttempts)
	assert.Empty(t, p.MasteryByDifficulty[curriculum.Familiarity].RecentAttempts)
	assert.Empty(t, p.QuestionHistory)
	assert.Equal(t, 1, res.Progress.TotalAttempts)
}

func TestRecordAttempt_WindowIsCapped(t *testing.T) {
	p := NewConceptProgress("c", allLevels)
	res, _ := record(t, p, curriculum.Familiarity, false, false, false, false, false, false, true)

	dm := res.Progress.MasteryByDifficulty[curriculum.Familiarity]
	assert.Equal(t, []bool{false, false, false, false, true}, dm.RecentAttempts)
	assert.Equal(t, 7, dm.Attempts)
	assert.Len(t, res.Progress.QuestionHistory, 7)
}

func TestRecordAttempt_FourOfFiveMastersInAnyOrder(t *testing.T) {
	orders := [][]bool{
		{false, true, true, true, true},
		{true, false, true, true, true},
		{true, true, false, true, true},
		{true, true, true, false, true},
		{true, true, true, true, false},
	}
	for i, seq := range orders {
		t.Run(fmt.Sprintf("miss at %d", i), func(t *testing.T) {
			p := NewConceptProgress("c", allLevels)
			res, achieved := record(t, p, curriculum.Familiarity, seq...)
			assert.Equal(t, 1, achieved)
			assert.True(t, res.Progress.IsMastered(curriculum.Familiarity))
		})
	}
}

func TestRecordAttempt_ThreeOfFiveDoesNotMaster(t *testing.T) {
	p := NewConceptProgress("c", allLevels)
	res, achieved := record(t, p, curriculum.Familiarity, true, false, true, false, true)
	assert.Zero(t, achieved)
	assert.False(t, res.Progress.IsMastered(curriculum.Familiarity))
	assert.Equal(t, curriculum.Familiarity, res.NewDifficulty)
}

func TestRecordAttempt_FourCorrectNeedsFullWindow(t *testing.T) {
	p := NewConceptProgress("c", allLevels)
	res, achieved := record(t, p, curriculum.Familiarity, true, true, true, true)
	assert.Zero(t, achieved)
	assert.False(t, res.Progress.IsMastered(curriculum.Familiarity))
}

func TestRecordAttempt_MasteryIsMonotonic(t *testing.T) {
	p := NewConceptProgress("c", allLevels)
	seq := []bool{true, true, true, true, true, false, false, false, false, false, true, true, true, true, true}
	res, achieved := record(t, p, curriculum.Familiarity, seq...)

	assert.Equal(t, 1, achieved, "mastery must fire exactly once")
	dm := res.Progress.MasteryByDifficulty[curriculum.Familiarity]
	assert.True(t, dm.Mastered)
	require.NotNil(t, dm.MasteredAt)
	assert.Equal(t, testNow.Add(4*time.Minute), *dm.MasteredAt)
}

func TestRecordAttempt_AdvancesDifficulty(t *testing.T) {
	p := NewConceptProgress("c", allLevels)
	res, _ := record(t, p, curriculum.Familiarity, true, true, true, true, true)

	assert.True(t, res.MasteryAchieved)
	assert.True(t, res.Advanced)
	assert.Equal(t, curriculum.Application, res.NewDifficulty)
	assert.Equal(t, curriculum.Application, res.Progress.CurrentDifficulty)

	res, _ = record(t, res.Progress, curriculum.Application, true, true, true, true, true)
	assert.Equal(t, curriculum.ExamStyle, res.NewDifficulty)

	res, _ = record(t, res.Progress, curriculum.ExamStyle, true, true, true, true, true)
	assert.True(t, res.MasteryAchieved)
	assert.False(t, res.Advanced)
	assert.Equal(t, curriculum.ExamStyle, res.NewDifficulty, "holds at the highest difficulty")
}

func TestRecordAttempt_SingleDifficultyCaps(t *testing.T) {
	p := NewConceptProgress("c", []curriculum.Difficulty{curriculum.Application})
	res, _ := record(t, p, curriculum.Application, true, true, true, true, true)
	assert.True(t, res.MasteryAchieved)
	assert.Equal(t, curriculum.Application, res.Progress.CurrentDifficulty)
	assert.Equal(t, curriculum.Application, RecommendedDifficulty(res.Progress))
}

func TestRecordAttempt_NeverRegresses(t *testing.T) {
	p := NewConceptProgress("c", allLevels)
	res, _ := record(t, p, curriculum.Application, true, true, true, true, true)
	assert.Equal(t, curriculum.ExamStyle, res.Progress.CurrentDifficulty)

	// Mastering a lower difficulty afterwards must not move it back.
	res, _ = record(t, res.Progress, curriculum.Familiarity, true, true, true, true, true)
	assert.True(t, res.MasteryAchieved)
	assert.Equal(t, curriculum.ExamStyle, res.Progress.CurrentDifficulty)
}

func TestRecordAttempt_Streak(t *testing.T) {
	p := NewConceptProgress("c", allLevels)
	res, _ := record(t, p, curriculum.Familiarity, true, true, true)
	assert.Equal(t, 3, res.Progress.MasteryByDifficulty[curriculum.Familiarity].Streak)

	res, _ = record(t, res.Progress, curriculum.Familiarity, false)
	assert.Zero(t, res.Progress.MasteryByDifficulty[curriculum.Familiarity].Streak)
}

func TestRecordAttempt_UnknownDifficultyCreatedLazily(t *testing.T) {
	p := NewConceptProgress("c", []curriculum.Difficulty{curriculum.Familiarity})
	res := RecordAttempt(p, Attempt{QuestionID: "q", Difficulty: curriculum.ExamStyle, IsCorrect: true}, testNow)
	require.NotNil(t, res.Progress.MasteryByDifficulty[curriculum.ExamStyle])
	assert.Equal(t, 1, res.Progress.MasteryByDifficulty[curriculum.ExamStyle].Attempts)
	assert.Equal(t, curriculum.Familiarity, res.Progress.CurrentDifficulty)
}

func TestRecommendedDifficulty(t *testing.T) {
	p := NewConceptProgress("c", allLevels)
	assert.Equal(t, curriculum.Familiarity, RecommendedDifficulty(p))

	// Mastered but not yet advanced: look ahead.
	p.MasteryByDifficulty[curriculum.Familiarity].Mastered = true
	assert.Equal(t, curriculum.Application, RecommendedDifficulty(p))
}

func TestRecommendedDifficulty_FallsBackToMapKeys(t *testing.T) {
	p := NewConceptProgress("c", []curriculum.Difficulty{curriculum.Familiarity, curriculum.ExamStyle})
	p.AllowedDifficulties = nil
	p.MasteryByDifficulty[curriculum.Familiarity].Mastered = true
	assert.Equal(t, curriculum.ExamStyle, RecommendedDifficulty(p))
}

func TestAccuracy(t *testing.T) {
	p := NewConceptProgress("c", allLevels)
	assert.Zero(t, p.Accuracy())
	res, _ := record(t, p, curriculum.Familiarity, true, false, true, true)
	assert.InDelta(t, 0.75, res.Progress.Accuracy(), 1e-9)
}
