package session

import (
	"time"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/selector"
)

// DifficultyTally counts answers at one difficulty.
type DifficultyTally struct {
	Answered int `json:"answered"`
	Correct  int `json:"correct"`
}

// Summary is the record of a finished (or running) session kept in history.
type Summary struct {
	SessionID         string                                     `json:"session_id"`
	TopicID           string                                     `json:"topic_id"`
	TopicName         string                                     `json:"topic_name"`
	Status            Status                                     `json:"status"`
	TimedOut          bool                                       `json:"timed_out"`
	TimeMode          TimeMode                                   `json:"time_mode"`
	Strategy          string                                     `json:"strategy"`
	QuestionsTotal    int                                        `json:"questions_total"`
	QuestionsAnswered int                                        `json:"questions_answered"`
	QuestionsCorrect  int                                        `json:"questions_correct"`
	QuestionsSkipped  int                                        `json:"questions_skipped"`
	Accuracy          float64                                    `json:"accuracy"`
	XPEarned          int                                        `json:"xp_earned"`
	TimeElapsedMs     int64                                      `json:"time_elapsed_ms"`
	ByDifficulty      map[curriculum.Difficulty]DifficultyTally `json:"by_difficulty"`
	MasteredConcepts  []string                                   `json:"mastered_concepts,omitempty"`
	Outcomes          []selector.Seen                            `json:"outcomes"`
	StartedAt         *time.Time                                 `json:"started_at,omitempty"`
	CompletedAt       *time.Time                                 `json:"completed_at,omitempty"`
}

// Summarize projects a session into its Summary. Accuracy is a percentage
// of answered questions.
func Summarize(s Session) Summary {
	sum := Summary{
		SessionID:         s.ID,
		TopicID:           s.Config.TopicID,
		TopicName:         s.Config.TopicName,
		Status:            s.Status,
		TimedOut:          s.TimedOut,
		TimeMode:          s.Config.TimeMode,
		Strategy:          s.Config.Strategy,
		QuestionsTotal:    len(s.Questions),
		QuestionsAnswered: s.Progress.QuestionsAnswered,
		QuestionsCorrect:  s.Progress.QuestionsCorrect,
		QuestionsSkipped:  s.Progress.QuestionsSkipped,
		XPEarned:          s.Progress.XPEarned,
		TimeElapsedMs:     s.Progress.TimeElapsedMs,
		ByDifficulty:      make(map[curriculum.Difficulty]DifficultyTally),
		Outcomes:          make([]selector.Seen, 0, len(s.Answers)),
		StartedAt:         s.StartedAt,
		CompletedAt:       s.CompletedAt,
	}
	if sum.QuestionsAnswered > 0 {
		sum.Accuracy = float64(sum.QuestionsCorrect) / float64(sum.QuestionsAnswered) * 100
	}

	mastered := map[string]bool{}
	for _, a := range s.Answers {
		t := sum.ByDifficulty[a.Difficulty]
		t.Answered++
		if a.IsCorrect {
			t.Correct++
		}
		sum.ByDifficulty[a.Difficulty] = t
		sum.Outcomes = append(sum.Outcomes, selector.Seen{QuestionID: a.QuestionID, Correct: a.IsCorrect})
		if a.MasteryAchieved && !mastered[a.ConceptID] {
			mastered[a.ConceptID] = true
			sum.MasteredConcepts = append(sum.MasteredConcepts, a.ConceptID)
		}
	}
	return sum
}
