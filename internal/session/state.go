package session

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/selector"
)

var (
	ErrInvalidTransition = errors.New("session: invalid state transition")
	ErrNoCurrentQuestion = errors.New("session: no current question")
	ErrUnknownTopic      = errors.New("session: unknown topic")
	ErrEmptyBank         = errors.New("session: question bank is empty")
	ErrProgressMismatch  = errors.New("session: concept progress does not match current question")
)

// Status is a session's position in its lifecycle.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// TimeMode is the session time limit setting.
type TimeMode string

const (
	TimeUnlimited TimeMode = "unlimited"
	Time10Min     TimeMode = "10min"
	Time5Min      TimeMode = "5min"
	Time3Min      TimeMode = "3min"
)

// ParseTimeMode converts a string to a TimeMode. Empty means unlimited.
func ParseTimeMode(s string) (TimeMode, error) {
	switch TimeMode(s) {
	case "", TimeUnlimited:
		return TimeUnlimited, nil
	case Time10Min, Time5Min, Time3Min:
		return TimeMode(s), nil
	}
	return "", fmt.Errorf("unknown time mode %q", s)
}

// LimitMs returns the limit in milliseconds, or nil for unlimited.
func (m TimeMode) LimitMs() *int64 {
	var d time.Duration
	switch m {
	case Time10Min:
		d = 10 * time.Minute
	case Time5Min:
		d = 5 * time.Minute
	case Time3Min:
		d = 3 * time.Minute
	default:
		return nil
	}
	ms := d.Milliseconds()
	return &ms
}

// Config is fixed at creation.
type Config struct {
	TimeMode      TimeMode `json:"time_mode"`
	TimeLimitMs   *int64   `json:"time_limit_ms"`
	TopicID       string   `json:"topic_id"`
	TopicName     string   `json:"topic_name"`
	QuestionCount int      `json:"question_count"`
	Strategy      string   `json:"strategy"`
}

// Progress holds the running counters.
type Progress struct {
	QuestionsAnswered    int    `json:"questions_answered"`
	QuestionsCorrect     int    `json:"questions_correct"`
	QuestionsSkipped     int    `json:"questions_skipped"`
	XPEarned             int    `json:"xp_earned"`
	CurrentQuestionIndex int    `json:"current_question_index"` // len(Questions) once exhausted
	TimeElapsedMs        int64  `json:"time_elapsed_ms"`
	TimeRemainingMs      *int64 `json:"time_remaining_ms"` // nil iff unlimited
}

// AnswerRecord is one submitted answer.
type AnswerRecord struct {
	QuestionID      string                `json:"question_id"`
	ConceptID       string                `json:"concept_id"`
	Difficulty      curriculum.Difficulty `json:"difficulty"`
	UserAnswer      any                   `json:"user_answer"`
	IsCorrect       bool                  `json:"is_correct"`
	XPEarned        int                   `json:"xp_earned"`
	TimeTakenMs     int64                 `json:"time_taken_ms"`
	MasteryAchieved bool                  `json:"mastery_achieved"`
	AnsweredAt      time.Time             `json:"answered_at"`
}

// Session is an immutable value; every transition returns a new Session.
type Session struct {
	ID        string                      `json:"session_id"`
	Status    Status                      `json:"status"`
	Config    Config                      `json:"config"`
	Progress  Progress                    `json:"progress"`
	Questions []selector.EnrichedQuestion `json:"questions"` // Order and membership fixed at creation
	Answers   []AnswerRecord              `json:"answers"`
	TimedOut  bool                        `json:"timed_out"`

	// ConceptLevels captures each concept's allowed difficulties so
	// progress can be created lazily on first attempt.
	ConceptLevels map[string][]curriculum.Difficulty `json:"concept_levels"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	PausedAt    *time.Time `json:"paused_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CurrentQuestion returns the question being presented, or nil once the
// session is terminal or the queue is exhausted.
func (s Session) CurrentQuestion() *selector.EnrichedQuestion {
	if s.Status.Terminal() {
		return nil
	}
	i := s.Progress.CurrentQuestionIndex
	if i < 0 || i >= len(s.Questions) || s.Questions[i].Status != selector.StatusPending {
		return nil
	}
	q := s.Questions[i]
	return &q
}

// clone returns a copy that shares no mutable state with s. Concept
// progress snapshots inside questions are never mutated, so they are shared.
func (s Session) clone() Session {
	c := s
	c.Questions = slices.Clone(s.Questions)
	c.Answers = slices.Clone(s.Answers)
	c.ConceptLevels = maps.Clone(s.ConceptLevels)
	if s.Progress.TimeRemainingMs != nil {
		v := *s.Progress.TimeRemainingMs
		c.Progress.TimeRemainingMs = &v
	}
	return c
}

func transitionErr(from Status, op string) error {
	return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, op, from)
}
