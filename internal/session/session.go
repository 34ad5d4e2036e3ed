package session

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/mastery"
	"github.com/abhisek/practiz/internal/selector"
	"github.com/google/uuid"
)

// Manager applies session state transitions. It holds no session state;
// callers keep the latest Session value and must serialize calls against
// the same session.
type Manager struct {
	// Now is the clock used for timestamps.
	Now func() time.Time

	// NewID generates session ids.
	NewID func() string
}

// NewManager creates a Manager using the wall clock and random UUIDs.
func NewManager() *Manager {
	return &Manager{
		Now:   time.Now,
		NewID: func() string { return uuid.New().String() },
	}
}

// CreateParams configures a new session.
type CreateParams struct {
	Topic    *curriculum.Topic
	Bank     *curriculum.Bank
	Progress map[string]*mastery.ConceptProgress
	Count    int
	Strategy selector.Strategy
	TimeMode TimeMode
	Rand     *rand.Rand
	Recency  selector.RecencyMap
	Variety  bool
}

// Create builds a new session in not_started. The question queue is
// materialized once here and never changes afterwards.
func (m *Manager) Create(p CreateParams) (Session, error) {
	if p.Topic == nil {
		return Session{}, ErrUnknownTopic
	}
	if p.Bank == nil || len(p.Bank.Questions) == 0 {
		return Session{}, fmt.Errorf("%w: topic %s", ErrEmptyBank, p.Topic.ID)
	}
	mode := p.TimeMode
	if mode == "" {
		mode = TimeUnlimited
	}
	strategy := p.Strategy
	if strategy == "" {
		strategy = selector.StrategyAdaptive
	}

	questions := selector.Select(selector.Params{
		Bank:     p.Bank,
		Topic:    p.Topic,
		Progress: p.Progress,
		Count:    p.Count,
		Strategy: strategy,
		Rand:     p.Rand,
		Recency:  p.Recency,
		Variety:  p.Variety,
	})

	levels := make(map[string][]curriculum.Difficulty, len(p.Topic.Concepts))
	for _, c := range p.Topic.Concepts {
		levels[c.ID] = curriculum.SortDifficulties(c.DifficultyLevels)
	}

	limit := mode.LimitMs()
	var remaining *int64
	if limit != nil {
		v := *limit
		remaining = &v
	}

	return Session{
		ID:     m.NewID(),
		Status: StatusNotStarted,
		Config: Config{
			TimeMode:      mode,
			TimeLimitMs:   limit,
			TopicID:       p.Topic.ID,
			TopicName:     p.Topic.Name,
			QuestionCount: len(questions),
			Strategy:      string(strategy),
		},
		Progress:      Progress{TimeRemainingMs: remaining},
		Questions:     questions,
		Answers:       []AnswerRecord{},
		ConceptLevels: levels,
		CreatedAt:     m.Now(),
	}, nil
}

// Start moves a session from not_started to in_progress.
func (m *Manager) Start(s Session) (Session, error) {
	if s.Status != StatusNotStarted {
		return s, transitionErr(s.Status, "start")
	}
	out := s.clone()
	now := m.Now()
	out.StartedAt = &now
	out.Status = StatusInProgress
	return out, nil
}

// Submission is the learner's answer to the current question.
type Submission struct {
	UserAnswer  any
	TimeTakenMs int64
}

// AnswerOutcome is returned by SubmitAnswer.
type AnswerOutcome struct {
	Session         Session
	Progress        *mastery.ConceptProgress // Updated progress for the question's concept
	Correct         bool
	XPEarned        int
	MasteryAchieved bool
	NewDifficulty   curriculum.Difficulty
	CorrectAnswer   curriculum.Answer
	Explanation     string
}

// SubmitAnswer grades the current question, records the attempt against
// the concept's progress and advances the queue. cp may be nil on the
// first attempt at a concept.
func (m *Manager) SubmitAnswer(s Session, sub Submission, cp *mastery.ConceptProgress) (AnswerOutcome, error) {
	if s.Status != StatusInProgress {
		return AnswerOutcome{Session: s}, transitionErr(s.Status, "submit an answer")
	}
	cur := s.CurrentQuestion()
	if cur == nil {
		return AnswerOutcome{Session: s}, ErrNoCurrentQuestion
	}
	if cp == nil {
		cp = mastery.NewConceptProgress(cur.ConceptID, s.ConceptLevels[cur.ConceptID])
	} else if cp.ConceptID != cur.ConceptID {
		return AnswerOutcome{Session: s}, fmt.Errorf("%w: got %s, want %s", ErrProgressMismatch, cp.ConceptID, cur.ConceptID)
	}

	correct := CheckAnswer(cur.Question, sub.UserAnswer)
	now := m.Now()
	res := mastery.RecordAttempt(cp, mastery.Attempt{
		QuestionID:  cur.ID,
		Difficulty:  cur.Difficulty,
		IsCorrect:   correct,
		TimeTakenMs: sub.TimeTakenMs,
	}, now)

	out := s.clone()
	idx := out.Progress.CurrentQuestionIndex
	out.Questions[idx].Status = selector.StatusAnswered
	out.Answers = append(out.Answers, AnswerRecord{
		QuestionID:      cur.ID,
		ConceptID:       cur.ConceptID,
		Difficulty:      cur.Difficulty,
		UserAnswer:      sub.UserAnswer,
		IsCorrect:       correct,
		XPEarned:        res.XPEarned,
		TimeTakenMs:     sub.TimeTakenMs,
		MasteryAchieved: res.MasteryAchieved,
		AnsweredAt:      now,
	})
	out.Progress.QuestionsAnswered++
	if correct {
		out.Progress.QuestionsCorrect++
	}
	out.Progress.XPEarned += res.XPEarned
	m.advance(&out, now)

	explanation := cur.Explanation
	if explanation == "" {
		explanation = cur.Hint
	}
	return AnswerOutcome{
		Session:         out,
		Progress:        res.Progress,
		Correct:         correct,
		XPEarned:        res.XPEarned,
		MasteryAchieved: res.MasteryAchieved,
		NewDifficulty:   res.NewDifficulty,
		CorrectAnswer:   correctAnswerFor(cur.Question),
		Explanation:     explanation,
	}, nil
}

// Skip marks the current question skipped. No mastery update, no XP.
func (m *Manager) Skip(s Session) (Session, error) {
	if s.Status != StatusInProgress {
		return s, transitionErr(s.Status, "skip")
	}
	if s.CurrentQuestion() == nil {
		return s, ErrNoCurrentQuestion
	}
	out := s.clone()
	out.Questions[out.Progress.CurrentQuestionIndex].Status = selector.StatusSkipped
	out.Progress.QuestionsSkipped++
	m.advance(&out, m.Now())
	return out, nil
}

// advance moves to the next pending question, completing the session when
// none remain.
func (m *Manager) advance(s *Session, now time.Time) {
	for i := s.Progress.CurrentQuestionIndex + 1; i < len(s.Questions); i++ {
		if s.Questions[i].Status == selector.StatusPending {
			s.Progress.CurrentQuestionIndex = i
			return
		}
	}
	s.Progress.CurrentQuestionIndex = len(s.Questions)
	s.Status = StatusCompleted
	s.CompletedAt = &now
}

// Pause moves in_progress to paused, recording the host-supplied elapsed time.
func (m *Manager) Pause(s Session, elapsedMs int64) (Session, error) {
	if s.Status != StatusInProgress {
		return s, transitionErr(s.Status, "pause")
	}
	out := s.clone()
	setElapsed(&out, elapsedMs)
	now := m.Now()
	out.PausedAt = &now
	out.Status = StatusPaused
	return out, nil
}

// Resume moves paused back to in_progress.
func (m *Manager) Resume(s Session) (Session, error) {
	if s.Status != StatusPaused {
		return s, transitionErr(s.Status, "resume")
	}
	out := s.clone()
	out.PausedAt = nil
	out.Status = StatusInProgress
	return out, nil
}

// End forces a non-terminal session to completed or abandoned.
func (m *Manager) End(s Session, completed bool) (Session, error) {
	if s.Status.Terminal() {
		return s, transitionErr(s.Status, "end")
	}
	out := s.clone()
	now := m.Now()
	out.CompletedAt = &now
	out.PausedAt = nil
	if completed {
		out.Status = StatusCompleted
	} else {
		out.Status = StatusAbandoned
	}
	return out, nil
}

// Timeout ends a timed session as completed because its limit was reached.
func (m *Manager) Timeout(s Session, elapsedMs int64) (Session, error) {
	out, err := m.End(s, true)
	if err != nil {
		return s, err
	}
	setElapsed(&out, elapsedMs)
	out.TimedOut = true
	return out, nil
}

// Tick records the host's elapsed time. It is idempotent and leaves
// terminal sessions untouched.
func Tick(s Session, elapsedMs int64) Session {
	if s.Status.Terminal() {
		return s
	}
	out := s.clone()
	setElapsed(&out, elapsedMs)
	return out
}

// IsTimedOut reports whether a timed session has reached its limit.
func IsTimedOut(s Session, elapsedMs int64) bool {
	if s.Config.TimeLimitMs == nil {
		return false
	}
	return elapsedMs >= *s.Config.TimeLimitMs
}

func setElapsed(s *Session, elapsedMs int64) {
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	s.Progress.TimeElapsedMs = elapsedMs
	if s.Config.TimeLimitMs == nil {
		s.Progress.TimeRemainingMs = nil
		return
	}
	rem := max(0, *s.Config.TimeLimitMs-elapsedMs)
	s.Progress.TimeRemainingMs = &rem
}
