package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/mastery"
	"github.com/abhisek/practiz/internal/selector"
	"github.com/abhisek/practiz/internal/session"
	"github.com/abhisek/practiz/internal/store"
)

// DefaultTickInterval is how often the runner checks timed sessions.
const DefaultTickInterval = time.Second

var (
	ErrUnknownSession = errors.New("app: unknown session")
	ErrTimedOut       = errors.New("app: session timed out")
)

// Content is the read-only curriculum source.
type Content interface {
	curriculum.TopicProvider
	curriculum.BankProvider
}

// Options configures a Runner.
type Options struct {
	Content Content
	Store   store.Backend
	Logger  *slog.Logger
	Rand    *rand.Rand       // nil seeds from the clock
	Clock   func() time.Time // nil uses time.Now

	// OnEnd is called, outside any lock, when a session reaches a
	// terminal state for any reason, timeout included.
	OnEnd func(userID string, sum session.Summary)

	TickInterval time.Duration
}

// BeginOptions selects how a session is built.
type BeginOptions struct {
	Count    int
	Strategy selector.Strategy
	TimeMode session.TimeMode
	Variety  bool
}

// learner is the progress shared by every active session of one user.
// Each answer replaces progress with a new snapshot, so a snapshot handed
// to a background save is never mutated.
type learner struct {
	mu       sync.Mutex
	userID   string
	progress *store.UserProgress

	// Guarded by Runner.mu.
	sessions int
	pending  int

	saveMu       sync.Mutex
	version      int64
	savedVersion int64
}

// play is one active session and the host-side state around it.
type play struct {
	mu      sync.Mutex
	userID  string
	sess    session.Session
	learner *learner

	startedAt  time.Time
	pausedAt   time.Time
	pausedTime time.Duration
}

// elapsedMs is wall time since start, excluding paused spans.
func (p *play) elapsedMs(now time.Time) int64 {
	end := now
	if !p.pausedAt.IsZero() {
		end = p.pausedAt
	}
	return (end.Sub(p.startedAt) - p.pausedTime).Milliseconds()
}

// Runner hosts practice sessions: it owns the clock, serializes access to
// each session and persists progress in the background.
type Runner struct {
	content Content
	store   store.Backend
	log     *slog.Logger
	clock   func() time.Time
	onEnd   func(string, session.Summary)
	mgr     *session.Manager

	randMu sync.Mutex
	rand   *rand.Rand

	mu       sync.Mutex
	active   map[string]*play
	learners map[string]*learner

	saves    sync.WaitGroup
	sched    *gocron.Scheduler
	interval time.Duration
}

// NewRunner creates a Runner. Call Start to enable timeouts.
func NewRunner(opts Options) *Runner {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := opts.Rand
	if r == nil {
		seed := uint64(clock().UnixNano())
		r = rand.New(rand.NewPCG(seed, seed>>1))
	}
	interval := opts.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	mgr := session.NewManager()
	mgr.Now = clock

	return &Runner{
		content:  opts.Content,
		store:    opts.Store,
		log:      logger,
		clock:    clock,
		onEnd:    opts.OnEnd,
		mgr:      mgr,
		rand:     r,
		active:   make(map[string]*play),
		learners: make(map[string]*learner),
		sched:    gocron.NewScheduler(time.UTC),
		interval: interval,
	}
}

// Start begins the periodic timeout check.
func (r *Runner) Start() error {
	_, err := r.sched.Every(r.interval).SingletonMode().Do(func() {
		r.Tick(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}
	r.sched.StartAsync()
	return nil
}

// Stop halts the periodic check. Outstanding saves keep running; use Wait.
func (r *Runner) Stop() {
	r.sched.Stop()
}

// Wait blocks until every background save has finished.
func (r *Runner) Wait() {
	r.saves.Wait()
}

// Begin loads the learner's progress, builds a session for topicID and
// starts it.
func (r *Runner) Begin(ctx context.Context, userID, topicID string, opts BeginOptions) (session.Session, error) {
	topic, err := r.content.Topic(ctx, topicID)
	if err != nil {
		if errors.Is(err, curriculum.ErrTopicNotFound) {
			return session.Session{}, fmt.Errorf("%w: %s", session.ErrUnknownTopic, topicID)
		}
		return session.Session{}, err
	}
	bank, err := r.content.Bank(ctx, topicID)
	if err != nil && !errors.Is(err, curriculum.ErrBankNotFound) {
		return session.Session{}, err
	}

	l := r.acquire(ctx, userID)
	l.mu.Lock()
	concepts := l.progress.Concepts
	l.mu.Unlock()

	recency, err := r.store.Recency(ctx, userID, topicID)
	if err != nil {
		r.log.Warn("load recency failed", "user", userID, "topic", topicID, "err", err)
		recency = nil
	}

	r.randMu.Lock()
	seed1, seed2 := r.rand.Uint64(), r.rand.Uint64()
	r.randMu.Unlock()

	s, err := r.mgr.Create(session.CreateParams{
		Topic:    topic,
		Bank:     bank,
		Progress: concepts,
		Count:    opts.Count,
		Strategy: opts.Strategy,
		TimeMode: opts.TimeMode,
		Rand:     rand.New(rand.NewPCG(seed1, seed2)),
		Recency:  recency,
		Variety:  opts.Variety,
	})
	if err == nil {
		s, err = r.mgr.Start(s)
	}
	if err != nil {
		r.release(l)
		return session.Session{}, err
	}

	p := &play{userID: userID, sess: s, learner: l, startedAt: r.clock()}
	r.log.Debug("session started", "session", s.ID, "topic", topicID, "questions", len(s.Questions))

	// A topic with no eligible questions is over before it begins.
	if s.CurrentQuestion() == nil {
		p.mu.Lock()
		ended, err := r.mgr.End(s, true)
		if err == nil {
			p.sess = ended
		}
		sum := r.finish(p)
		p.mu.Unlock()
		r.notifyEnd(userID, sum)
		return ended, nil
	}

	r.mu.Lock()
	r.active[s.ID] = p
	r.mu.Unlock()
	return s, nil
}

func (r *Runner) lookup(id string) (*play, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.active[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return p, nil
}

// Current returns the latest state of an active session.
func (r *Runner) Current(id string) (session.Session, error) {
	p, err := r.lookup(id)
	if err != nil {
		return session.Session{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess, nil
}

// Answer submits an answer to the current question.
func (r *Runner) Answer(ctx context.Context, id string, answer any, timeTaken time.Duration) (session.AnswerOutcome, error) {
	p, err := r.lookup(id)
	if err != nil {
		return session.AnswerOutcome{}, err
	}

	p.mu.Lock()
	if s, expired := r.expire(p); expired {
		sum := r.finish(p)
		p.mu.Unlock()
		r.notifyEnd(p.userID, sum)
		return session.AnswerOutcome{Session: s}, fmt.Errorf("%w: %s", ErrTimedOut, id)
	}

	// The learner lock spans read, grade and write so concurrent sessions
	// of one user build on each other's progress.
	l := p.learner
	l.mu.Lock()
	cur := p.sess.CurrentQuestion()
	var cp *mastery.ConceptProgress
	if cur != nil {
		cp = l.progress.Concepts[cur.ConceptID]
	}
	out, err := r.mgr.SubmitAnswer(session.Tick(p.sess, p.elapsedMs(r.clock())), session.Submission{
		UserAnswer:  answer,
		TimeTakenMs: timeTaken.Milliseconds(),
	}, cp)
	if err != nil {
		l.mu.Unlock()
		p.mu.Unlock()
		return out, err
	}

	p.sess = out.Session
	concepts := maps.Clone(l.progress.Concepts)
	if concepts == nil {
		concepts = make(map[string]*mastery.ConceptProgress)
	}
	concepts[out.Progress.ConceptID] = out.Progress
	l.progress = &store.UserProgress{UserID: l.userID, Concepts: concepts, UpdatedAt: r.clock()}
	r.saveProgress(l)
	l.mu.Unlock()

	if out.MasteryAchieved {
		r.log.Info("difficulty mastered", "user", p.userID, "concept", out.Progress.ConceptID, "next", out.NewDifficulty)
	}

	var sum *session.Summary
	if p.sess.Status.Terminal() {
		s := r.finish(p)
		sum = &s
	}
	p.mu.Unlock()

	if sum != nil {
		r.notifyEnd(p.userID, *sum)
	}
	return out, nil
}

// Skip skips the current question. A skip that arrives after the time
// limit ends the session as timed out instead.
func (r *Runner) Skip(ctx context.Context, id string) (session.Session, error) {
	return r.transition(id, func(p *play) (session.Session, error) {
		if s, expired := r.expire(p); expired {
			return s, nil
		}
		return r.mgr.Skip(session.Tick(p.sess, p.elapsedMs(r.clock())))
	})
}

// Pause stops the session clock.
func (r *Runner) Pause(ctx context.Context, id string) (session.Session, error) {
	return r.transition(id, func(p *play) (session.Session, error) {
		now := r.clock()
		s, err := r.mgr.Pause(p.sess, p.elapsedMs(now))
		if err == nil {
			p.pausedAt = now
		}
		return s, err
	})
}

// Resume restarts the session clock.
func (r *Runner) Resume(ctx context.Context, id string) (session.Session, error) {
	return r.transition(id, func(p *play) (session.Session, error) {
		s, err := r.mgr.Resume(p.sess)
		if err == nil {
			p.pausedTime += r.clock().Sub(p.pausedAt)
			p.pausedAt = time.Time{}
		}
		return s, err
	})
}

// Quit abandons the session and returns its summary.
func (r *Runner) Quit(ctx context.Context, id string) (session.Summary, error) {
	s, err := r.transition(id, func(p *play) (session.Session, error) {
		return r.mgr.End(session.Tick(p.sess, p.elapsedMs(r.clock())), false)
	})
	if err != nil {
		return session.Summary{}, err
	}
	return session.Summarize(s), nil
}

// transition applies fn under the session lock and finishes the session
// if fn made it terminal.
func (r *Runner) transition(id string, fn func(*play) (session.Session, error)) (session.Session, error) {
	p, err := r.lookup(id)
	if err != nil {
		return session.Session{}, err
	}

	p.mu.Lock()
	s, err := fn(p)
	if err != nil {
		p.mu.Unlock()
		return s, err
	}
	p.sess = s

	var sum *session.Summary
	if s.Status.Terminal() {
		fin := r.finish(p)
		sum = &fin
	}
	p.mu.Unlock()

	if sum != nil {
		r.notifyEnd(p.userID, *sum)
	}
	return s, nil
}

// Tick refreshes elapsed time on every running session and ends those
// whose limit has been reached.
func (r *Runner) Tick(ctx context.Context) {
	r.mu.Lock()
	plays := make([]*play, 0, len(r.active))
	for _, p := range r.active {
		plays = append(plays, p)
	}
	r.mu.Unlock()

	now := r.clock()
	for _, p := range plays {
		p.mu.Lock()
		if p.sess.Status != session.StatusInProgress {
			p.mu.Unlock()
			continue
		}
		if _, expired := r.expire(p); !expired {
			p.sess = session.Tick(p.sess, p.elapsedMs(now))
			p.mu.Unlock()
			continue
		}
		sum := r.finish(p)
		p.mu.Unlock()
		r.notifyEnd(p.userID, sum)
	}
}

// expire ends p as timed out when a running session has reached its
// limit. Caller holds p.mu.
func (r *Runner) expire(p *play) (session.Session, bool) {
	if p.sess.Status != session.StatusInProgress {
		return p.sess, false
	}
	elapsed := p.elapsedMs(r.clock())
	if !session.IsTimedOut(p.sess, elapsed) {
		return p.sess, false
	}
	s, err := r.mgr.Timeout(p.sess, elapsed)
	if err != nil {
		r.log.Error("timeout transition failed", "session", p.sess.ID, "err", err)
		return p.sess, false
	}
	p.sess = s
	r.log.Info("session timed out", "session", s.ID, "elapsed_ms", elapsed)
	return s, true
}

// finish removes a terminal session and records it in history. Caller
// holds p.mu.
func (r *Runner) finish(p *play) session.Summary {
	r.mu.Lock()
	delete(r.active, p.sess.ID)
	r.mu.Unlock()
	r.release(p.learner)

	sum := session.Summarize(p.sess)
	userID := p.userID
	r.background("save session history", func(ctx context.Context) error {
		return r.store.SaveSessionToHistory(ctx, userID, sum)
	})
	return sum
}

func (r *Runner) notifyEnd(userID string, sum session.Summary) {
	r.log.Debug("session ended", "session", sum.SessionID, "status", sum.Status, "timed_out", sum.TimedOut)
	if r.onEnd != nil {
		r.onEnd(userID, sum)
	}
}

// acquire returns the shared progress for userID, loading it on first
// use. Every acquire is paired with a release.
func (r *Runner) acquire(ctx context.Context, userID string) *learner {
	r.mu.Lock()
	if l, ok := r.learners[userID]; ok {
		l.sessions++
		r.mu.Unlock()
		return l
	}
	r.mu.Unlock()

	progress, err := r.store.LoadProgress(ctx, userID)
	if err != nil {
		r.log.Warn("load progress failed, starting fresh", "user", userID, "err", err)
		progress = store.NewUserProgress(userID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another Begin for the same user may have won the race.
	if l, ok := r.learners[userID]; ok {
		l.sessions++
		return l
	}
	l := &learner{userID: userID, progress: progress, sessions: 1}
	r.learners[userID] = l
	return l
}

// release drops one session's hold on l. The shared record is evicted
// once no session uses it and no save is outstanding, so the next Begin
// reads what was stored.
func (r *Runner) release(l *learner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.sessions--
	r.evictLocked(l)
}

func (r *Runner) evictLocked(l *learner) {
	if l.sessions <= 0 && l.pending <= 0 && r.learners[l.userID] == l {
		delete(r.learners, l.userID)
	}
}

// saveProgress persists the learner's current snapshot. Snapshots only
// grow, so later ones win even if their goroutines run first. Caller
// holds l.mu.
func (r *Runner) saveProgress(l *learner) {
	l.version++
	version, snapshot := l.version, l.progress

	r.mu.Lock()
	l.pending++
	r.mu.Unlock()

	r.background("save progress", func(ctx context.Context) error {
		defer func() {
			r.mu.Lock()
			l.pending--
			r.evictLocked(l)
			r.mu.Unlock()
		}()

		l.saveMu.Lock()
		defer l.saveMu.Unlock()
		if version <= l.savedVersion {
			return nil
		}
		if err := r.store.SaveProgress(ctx, snapshot); err != nil {
			return err
		}
		l.savedVersion = version
		return nil
	})
}

// background runs fn in a goroutine. Failures are logged and never
// surface to the learner.
func (r *Runner) background(what string, fn func(context.Context) error) {
	r.saves.Add(1)
	go func() {
		defer r.saves.Done()
		if err := fn(context.Background()); err != nil {
			r.log.Error(what+" failed", "err", err)
		}
	}()
}
