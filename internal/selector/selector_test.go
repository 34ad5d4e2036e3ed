package selector

import (
	"fmt"
	"math/rand/v2"
	"testing"

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

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func testTopic() *curriculum.Topic {
	return &curriculum.Topic{
		ID:   "cells",
		Name: "Cells",
		Concepts: []curriculum.Concept{
			{ID: "a", DifficultyLevels: all},
			{ID: "b", DifficultyLevels: all},
			{ID: "c", DifficultyLevels: []curriculum.Difficulty{fam}},
		},
	}
}

func q(id, concept string, d curriculum.Difficulty, level string) curriculum.Question {
	return curriculum.Question{
		ID:             id,
		ConceptID:      concept,
		Difficulty:     d,
		Type:           curriculum.TypeMCQ,
		CorrectAnswer:  curriculum.TextAnswer("x"),
		CognitiveLevel: level,
	}
}

func testBank() *curriculum.Bank {
	return &curriculum.Bank{
		TopicID: "cells",
		Questions: []curriculum.Question{
			q("a1", "a", fam, "recall"),
			q("a2", "a", fam, "recall"),
			q("a3", "a", app, "reason"),
			q("b1", "b", fam, "recall"),
			q("b2", "b", exam, "scenario"),
			q("c1", "c", fam, "compare"),
			q("c2", "c", exam, "recall"), // not allowed for c
			q("z1", "zzz", fam, "recall"), // concept not in topic
		},
	}
}

func ids(qs []EnrichedQuestion) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestSelect_DropsIneligibleForEveryStrategy(t *testing.T) {
	for st := range strategies {
		t.Run(string(st), func(t *testing.T) {
			got := Select(Params{Bank: testBank(), Topic: testTopic(), Strategy: st, Rand: seeded(1)})
			assert.NotContains(t, ids(got), "c2")
			assert.NotContains(t, ids(got), "z1")
			assert.Len(t, got, 6)
			for i, eq := range got {
				assert.True(t, eq.Eligible)
				assert.Equal(t, i, eq.OrderInSession)
				assert.Equal(t, StatusPending, eq.Status)
			}
		})
	}
}

func TestSelect_EmptyPool(t *testing.T) {
	got := Select(Params{Bank: &curriculum.Bank{}, Topic: testTopic()})
	assert.Empty(t, got)
	assert.NotNil(t, got)

	assert.Empty(t, Select(Params{}))
}

func TestSelect_Truncates(t *testing.T) {
	got := Select(Params{Bank: testBank(), Topic: testTopic(), Count: 3, Rand: seeded(7)})
	assert.Len(t, got, 3)
}

func TestSelect_Sequential(t *testing.T) {
	got := Select(Params{Bank: testBank(), Topic: testTopic(), Strategy: StrategySequential})
	assert.Equal(t, []string{"a1", "a2", "a3", "b1", "b2", "c1"}, ids(got))
}

func TestSelect_DeterministicWithSeed(t *testing.T) {
	for _, st := range []Strategy{StrategyAdaptive, StrategyRandom} {
		first := Select(Params{Bank: testBank(), Topic: testTopic(), Strategy: st, Rand: seeded(42)})
		second := Select(Params{Bank: testBank(), Topic: testTopic(), Strategy: st, Rand: seeded(42)})
		assert.Equal(t, ids(first), ids(second), string(st))
	}
}

func TestSelect_AdaptiveInterleavesConcepts(t *testing.T) {
	got := Select(Params{Bank: testBank(), Topic: testTopic(), Rand: seeded(3)})
	require.Len(t, got, 6)
	// Three concepts: the first three picks must cover all of them.
	seen := map[string]bool{}
	for _, eq := range got[:3] {
		seen[eq.ConceptID] = true
	}
	assert.Len(t, seen, 3)
}

func TestSelect_AdaptivePrefersRecommended(t *testing.T) {
	got := Select(Params{Bank: testBank(), Topic: testTopic(), Rand: seeded(9)})
	// Cold start: familiarity is recommended everywhere, so the first pick
	// of each concept is a familiarity question.
	for _, eq := range got[:3] {
		assert.Equal(t, fam, eq.Difficulty, eq.ID)
		assert.True(t, eq.IsRecommended)
	}
}

func TestSelect_ReviewPutsMissedFirst(t *testing.T) {
	wrong, right := false, true
	recency := RecencyMap{
		"b2": {SessionsAgo: 1, WasCorrect: &wrong},
		"a1": {SessionsAgo: 1, WasCorrect: &right},
	}
	progress := map[string]*mastery.ConceptProgress{
		"c": {
			ConceptID:         "c",
			CurrentDifficulty: fam,
			TotalAttempts:     1,
			QuestionHistory:   []mastery.HistoryEntry{{QuestionID: "c1", Difficulty: fam, IsCorrect: false}},
		},
	}
	got := Select(Params{
		Bank: testBank(), Topic: testTopic(), Progress: progress,
		Strategy: StrategyReview, Recency: recency, Rand: seeded(5),
	})
	require.GreaterOrEqual(t, len(got), 2)
	assert.ElementsMatch(t, []string{"b2", "c1"}, ids(got[:2]))
	assert.Equal(t, ReviewPriority, got[0].PriorityScore)
}

func TestSelect_SnapshotsProgress(t *testing.T) {
	cp := mastery.NewConceptProgress("a", all)
	progress := map[string]*mastery.ConceptProgress{"a": cp}
	got := Select(Params{Bank: testBank(), Topic: testTopic(), Progress: progress, Strategy: StrategySequential})
	require.NotNil(t, got[0].ConceptProgress)
	got[0].ConceptProgress.TotalAttempts = 99
	assert.Zero(t, cp.TotalAttempts)
}

func TestPriorityScore(t *testing.T) {
	question := q("x", "a", fam, "")

	t.Run("cold start", func(t *testing.T) {
		assert.Equal(t, 150.0, PriorityScore(question, fam, nil))
		assert.Equal(t, 50.0, PriorityScore(question, app, nil))
	})

	t.Run("in progress with streak", func(t *testing.T) {
		cp := mastery.NewConceptProgress("a", all)
		cp.TotalAttempts = 6
		cp.MasteryByDifficulty[fam].Attempts = 6
		cp.MasteryByDifficulty[fam].Streak = 3
		// 100 recommended + 14 novelty + 30 unmastered + 6 streak
		assert.Equal(t, 150.0, PriorityScore(question, fam, cp))
	})

	t.Run("mastered and well practiced", func(t *testing.T) {
		cp := mastery.NewConceptProgress("a", all)
		cp.TotalAttempts = 40
		cp.MasteryByDifficulty[fam].Mastered = true
		cp.MasteryByDifficulty[fam].Streak = 9
		// novelty floors at 0, streak bonus caps at 10
		assert.Equal(t, 10.0, PriorityScore(question, app, cp))
	})
}

func TestRecencyPenalty_StrictlyDescending(t *testing.T) {
	assert.Equal(t, 20, RecencyPenalty(0))
	assert.Equal(t, -10, RecencyPenalty(4))
	assert.Equal(t, -30, RecencyPenalty(3))
	assert.Equal(t, -50, RecencyPenalty(2))
	assert.Equal(t, -80, RecencyPenalty(1))
	assert.Equal(t, -10, RecencyPenalty(12))

	for ago := 1; ago < 4; ago++ {
		assert.Greater(t, RecencyPenalty(ago+1), RecencyPenalty(ago))
	}
	assert.Greater(t, RecencyPenalty(0), RecencyPenalty(4))
}

func TestSelect_RecencyDemotesRecentlySeen(t *testing.T) {
	bank := &curriculum.Bank{Questions: []curriculum.Question{
		q("a1", "a", fam, ""), q("a2", "a", fam, ""),
	}}
	topic := testTopic()
	recency := RecencyMap{"a1": {SessionsAgo: 1}}

	for seed := uint64(0); seed < 20; seed++ {
		got := Select(Params{Bank: bank, Topic: topic, Recency: recency, Rand: seeded(seed)})
		require.Len(t, got, 2)
		assert.Equal(t, "a2", got[0].ID, "seed %d", seed)
		assert.Equal(t, -80, got[1].RecencyPenalty)
		assert.Equal(t, 20, got[0].RecencyPenalty)
	}
}

func TestBuildRecencyMap(t *testing.T) {
	m := BuildRecencyMap([][]Seen{
		{{QuestionID: "a", Correct: true}},
		{{QuestionID: "a", Correct: false}, {QuestionID: "b", Correct: false}},
		{{QuestionID: "c", Correct: true}},
	})
	require.Len(t, m, 3)
	assert.Equal(t, 1, m["a"].SessionsAgo)
	assert.True(t, *m["a"].WasCorrect)
	assert.Equal(t, 2, m["b"].SessionsAgo)
	assert.Equal(t, 3, m["c"].SessionsAgo)
}

func TestInterleave(t *testing.T) {
	in := []EnrichedQuestion{}
	for i, c := range []string{"a", "a", "a", "b", "c", "b"} {
		in = append(in, EnrichedQuestion{Question: curriculum.Question{ID: fmt.Sprintf("%s%d", c, i), ConceptID: c}})
	}
	got := Interleave(in)
	assert.Equal(t, []string{"a0", "b3", "c4", "a1", "b5", "a2"}, ids(got))
}

func TestParseStrategy(t *testing.T) {
	st, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyAdaptive, st)

	st, err = ParseStrategy("review")
	require.NoError(t, err)
	assert.Equal(t, StrategyReview, st)

	_, err = ParseStrategy("spiral")
	assert.Error(t, err)
}
