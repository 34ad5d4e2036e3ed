package selector

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/mastery"
)

// orderFunc orders an eligible, enriched pool in place or returns a new
// ordering.
type orderFunc func(pool []EnrichedQuestion, p *Params) []EnrichedQuestion

var strategies = map[Strategy]orderFunc{
	StrategyAdaptive:   orderAdaptive,
	StrategySequential: orderSequential,
	StrategyRandom:     orderRandom,
	StrategyReview:     orderReview,
}

// Select builds the ordered question queue for a session.
func Select(p Params) []EnrichedQuestion {
	if p.Bank == nil || p.Topic == nil {
		return []EnrichedQuestion{}
	}
	if p.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		p.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	order, ok := strategies[p.Strategy]
	if !ok {
		order = orderAdaptive
	}

	pool := Eligible(p.Bank.Questions, p.Topic, p.Progress)
	ordered := order(pool, &p)

	selected := ordered
	var rest []EnrichedQuestion
	if p.Count > 0 && p.Count < len(ordered) {
		selected = slices.Clone(ordered[:p.Count])
		rest = ordered[p.Count:]
	}
	if p.Variety {
		selected = ApplyCognitiveVariety(selected, rest)
	}

	for i := range selected {
		selected[i].OrderInSession = i
		selected[i].Status = StatusPending
	}
	return selected
}

// Eligible drops every question whose concept is not in the topic or whose
// difficulty is not declared for its concept, and enriches the rest.
func Eligible(questions []curriculum.Question, topic *curriculum.Topic, progress map[string]*mastery.ConceptProgress) []EnrichedQuestion {
	out := make([]EnrichedQuestion, 0, len(questions))
	for _, q := range questions {
		c, ok := topic.Concept(q.ConceptID)
		if !ok || !c.Allows(q.Difficulty) {
			continue
		}
		cp := progress[q.ConceptID]
		rec := recommendedFor(c, cp)
		out = append(out, EnrichedQuestion{
			Question:        q,
			Eligible:        true,
			IsRecommended:   q.Difficulty == rec,
			PriorityScore:   PriorityScore(q, rec, cp),
			ConceptProgress: cp.Clone(),
		})
	}
	return out
}

// applyRecency adds the recency penalty to each score when a recency map
// is configured.
func applyRecency(pool []EnrichedQuestion, recency RecencyMap) {
	if recency == nil {
		return
	}
	for i := range pool {
		pen := RecencyPenalty(recency[pool[i].ID].SessionsAgo)
		pool[i].RecencyPenalty = pen
		pool[i].PriorityScore += float64(pen)
	}
}

func addJitter(pool []EnrichedQuestion, r *rand.Rand) {
	for i := range pool {
		pool[i].PriorityScore += r.Float64() * maxJitter
	}
}

func sortByScore(pool []EnrichedQuestion) {
	slices.SortStableFunc(pool, func(a, b EnrichedQuestion) int {
		if c := cmp.Compare(b.PriorityScore, a.PriorityScore); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func orderAdaptive(pool []EnrichedQuestion, p *Params) []EnrichedQuestion {
	applyRecency(pool, p.Recency)
	addJitter(pool, p.Rand)
	sortByScore(pool)
	return Interleave(pool)
}

func orderSequential(pool []EnrichedQuestion, _ *Params) []EnrichedQuestion {
	slices.SortStableFunc(pool, func(a, b EnrichedQuestion) int {
		if c := cmp.Compare(a.ConceptID, b.ConceptID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Difficulty.Rank(), b.Difficulty.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return pool
}

func orderRandom(pool []EnrichedQuestion, p *Params) []EnrichedQuestion {
	p.Rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool
}

// orderReview puts previously-missed questions first, then falls back to
// the adaptive score. The result is not interleaved so missed questions
// stay at the front of the queue.
func orderReview(pool []EnrichedQuestion, p *Params) []EnrichedQuestion {
	applyRecency(pool, p.Recency)
	addJitter(pool, p.Rand)
	for i := range pool {
		if missedBefore(pool[i], p) {
			pool[i].PriorityScore = ReviewPriority
		}
	}
	sortByScore(pool)
	return pool
}

// missedBefore reports whether the most recent recorded attempt at q was
// incorrect, consulting the recency map first and concept history second.
func missedBefore(q EnrichedQuestion, p *Params) bool {
	if e, ok := p.Recency[q.ID]; ok && e.WasCorrect != nil {
		return !*e.WasCorrect
	}
	cp := p.Progress[q.ConceptID]
	if cp == nil {
		return false
	}
	for i := len(cp.QuestionHistory) - 1; i >= 0; i-- {
		if h := cp.QuestionHistory[i]; h.QuestionID == q.ID {
			return !h.IsCorrect
		}
	}
	return false
}

// Interleave reorders a score-sorted list round-robin by concept so that
// no single concept is front-loaded. Concept groups are visited in the
// order their best question appears.
func Interleave(sorted []EnrichedQuestion) []EnrichedQuestion {
	var order []string
	groups := make(map[string][]EnrichedQuestion)
	for _, q := range sorted {
		if _, ok := groups[q.ConceptID]; !ok {
			order = append(order, q.ConceptID)
		}
		groups[q.ConceptID] = append(groups[q.ConceptID], q)
	}

	out := make([]EnrichedQuestion, 0, len(sorted))
	for len(out) < len(sorted) {
		for _, id := range order {
			if g := groups[id]; len(g) > 0 {
				out = append(out, g[0])
				groups[id] = g[1:]
			}
		}
	}
	return out
}
