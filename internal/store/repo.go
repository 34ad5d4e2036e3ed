package store

import (
	"context"
	"time"

	"github.com/abhisek/practiz/internal/mastery"
	"github.com/abhisek/practiz/internal/selector"
	"github.com/abhisek/practiz/internal/session"
)

// UserProgress is everything the engine remembers about one learner.
type UserProgress struct {
	UserID    string                              `json:"user_id"`
	Concepts  map[string]*mastery.ConceptProgress `json:"concepts"`
	UpdatedAt time.Time                           `json:"updated_at"`
}

// NewUserProgress returns an empty progress record for userID.
func NewUserProgress(userID string) *UserProgress {
	return &UserProgress{UserID: userID, Concepts: map[string]*mastery.ConceptProgress{}}
}

// TotalXP sums XP across all concepts.
func (p *UserProgress) TotalXP() int {
	total := 0
	for _, cp := range p.Concepts {
		total += cp.XPEarned
	}
	return total
}

// Stats summarizes what a store holds for one learner.
type Stats struct {
	ConceptsTracked int `json:"concepts_tracked"`
	TopicsTracked   int `json:"topics_tracked"`
	TotalXP         int `json:"total_xp"`
	SessionsCount   int `json:"sessions_count"`
}

// Adapter persists learner progress and session history.
type Adapter interface {
	// LoadProgress returns the learner's progress. A learner with no saved
	// data gets an empty record, not an error.
	LoadProgress(ctx context.Context, userID string) (*UserProgress, error)

	// SaveProgress upserts every concept in p. Concepts missing from p
	// are left as stored; only ClearAllData removes progress.
	SaveProgress(ctx context.Context, p *UserProgress) error

	// LoadSessionHistory returns session summaries, most recent first.
	LoadSessionHistory(ctx context.Context, userID string) ([]session.Summary, error)

	// SaveSessionToHistory appends a summary. Saving the same session id
	// again replaces the earlier record.
	SaveSessionToHistory(ctx context.Context, userID string, sum session.Summary) error

	// ClearAllData removes all progress and history for userID.
	ClearAllData(ctx context.Context, userID string) error

	Stats(ctx context.Context, userID string) (Stats, error)
}

// RecencyQuerier reports which questions a learner saw in recent sessions
// of a topic.
type RecencyQuerier interface {
	Recency(ctx context.Context, userID, topicID string) (selector.RecencyMap, error)
}

// Backend is a complete storage realization.
type Backend interface {
	Adapter
	RecencyQuerier
	Close() error
}

// RecencyWindow is the number of recent sessions considered for recency.
const RecencyWindow = 10

// recencyFrom builds a recency map from summaries ordered most recent first.
func recencyFrom(history []session.Summary, topicID string) selector.RecencyMap {
	var sessions [][]selector.Seen
	for _, sum := range history {
		if sum.TopicID != topicID {
			continue
		}
		sessions = append(sessions, sum.Outcomes)
		if len(sessions) == RecencyWindow {
			break
		}
	}
	return selector.BuildRecencyMap(sessions)
}

func statsFrom(p *UserProgress, history []session.Summary) Stats {
	topics := map[string]bool{}
	for _, sum := range history {
		topics[sum.TopicID] = true
	}
	return Stats{
		ConceptsTracked: len(p.Concepts),
		TopicsTracked:   len(topics),
		TotalXP:         p.TotalXP(),
		SessionsCount:   len(history),
	}
}
