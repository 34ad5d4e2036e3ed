package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/abhisek/practiz/internal/mastery"
	"github.com/abhisek/practiz/internal/selector"
	"github.com/abhisek/practiz/internal/session"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS concept_progress (
		user_id TEXT NOT NULL,
		concept_id TEXT NOT NULL,
		data JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, concept_id)
	)`,
	`CREATE TABLE IF NOT EXISTS session_history (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		topic_id TEXT NOT NULL,
		seq BIGSERIAL,
		xp_earned INTEGER NOT NULL,
		data JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS session_history_user_seq ON session_history (user_id, seq)`,
}

// Postgres is the networked storage realization, shared by many learners.
type Postgres struct {
	db  *sqlx.DB
	now func() time.Time
}

type progressRow struct {
	ConceptID string    `db:"concept_id"`
	Data      []byte    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

type historyRow struct {
	SessionID string `db:"session_id"`
	UserID    string `db:"user_id"`
	TopicID   string `db:"topic_id"`
	XPEarned  int    `db:"xp_earned"`
	Data      []byte `db:"data"`
}

// OpenPostgres connects to dsn and creates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	for _, stmt := range postgresSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Postgres{db: db, now: time.Now}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) LoadProgress(ctx context.Context, userID string) (*UserProgress, error) {
	var rows []progressRow
	err := p.db.SelectContext(ctx, &rows,
		`SELECT concept_id, data, updated_at FROM concept_progress WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}

	out := NewUserProgress(userID)
	for _, r := range rows {
		var cp mastery.ConceptProgress
		if err := json.Unmarshal(r.Data, &cp); err != nil {
			return nil, fmt.Errorf("decode progress %s: %w", r.ConceptID, err)
		}
		out.Concepts[r.ConceptID] = &cp
		if r.UpdatedAt.After(out.UpdatedAt) {
			out.UpdatedAt = r.UpdatedAt
		}
	}
	return out, nil
}

func (p *Postgres) SaveProgress(ctx context.Context, up *UserProgress) (rerr error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if rerr != nil {
			tx.Rollback()
		}
	}()

	now := p.now()
	for id, cp := range up.Concepts {
		raw, err := json.Marshal(cp)
		if err != nil {
			return fmt.Errorf("encode progress %s: %w", id, err)
		}
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO concept_progress (user_id, concept_id, data, updated_at)
			 VALUES (:user_id, :concept_id, :data, :updated_at)
			 ON CONFLICT (user_id, concept_id) DO UPDATE
			 SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
			map[string]any{"user_id": up.UserID, "concept_id": id, "data": string(raw), "updated_at": now})
		if err != nil {
			return fmt.Errorf("save progress %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (p *Postgres) LoadSessionHistory(ctx context.Context, userID string) ([]session.Summary, error) {
	var rows []historyRow
	err := p.db.SelectContext(ctx, &rows,
		`SELECT session_id, user_id, topic_id, xp_earned, data FROM session_history
		 WHERE user_id = $1 ORDER BY seq DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return decodeHistory(rows)
}

func decodeHistory(rows []historyRow) ([]session.Summary, error) {
	out := make([]session.Summary, 0, len(rows))
	for _, r := range rows {
		var sum session.Summary
		if err := json.Unmarshal(r.Data, &sum); err != nil {
			return nil, fmt.Errorf("decode history %s: %w", r.SessionID, err)
		}
		out = append(out, sum)
	}
	return out, nil
}

func (p *Postgres) SaveSessionToHistory(ctx context.Context, userID string, sum session.Summary) error {
	raw, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = p.db.NamedExecContext(ctx,
		`INSERT INTO session_history (session_id, user_id, topic_id, xp_earned, data)
		 VALUES (:session_id, :user_id, :topic_id, :xp_earned, :data)
		 ON CONFLICT (session_id) DO UPDATE
		 SET xp_earned = EXCLUDED.xp_earned, data = EXCLUDED.data`,
		map[string]any{
			"session_id": sum.SessionID,
			"user_id":    userID,
			"topic_id":   sum.TopicID,
			"xp_earned":  sum.XPEarned,
			"data":       string(raw), // pq would send []byte as bytea
		})
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

func (p *Postgres) ClearAllData(ctx context.Context, userID string) (rerr error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if rerr != nil {
			tx.Rollback()
		}
	}()
	for _, q := range []string{
		`DELETE FROM concept_progress WHERE user_id = $1`,
		`DELETE FROM session_history WHERE user_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
	}
	return tx.Commit()
}

func (p *Postgres) Stats(ctx context.Context, userID string) (Stats, error) {
	var st Stats
	err := p.db.GetContext(ctx, &st.ConceptsTracked,
		`SELECT COUNT(*) FROM concept_progress WHERE user_id = $1`, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("count concepts: %w", err)
	}
	err = p.db.QueryRowxContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT topic_id) FROM session_history WHERE user_id = $1`, userID).
		Scan(&st.SessionsCount, &st.TopicsTracked)
	if err != nil {
		return Stats{}, fmt.Errorf("count sessions: %w", err)
	}
	err = p.db.GetContext(ctx, &st.TotalXP,
		`SELECT COALESCE(SUM((data->>'xp_earned')::int), 0) FROM concept_progress WHERE user_id = $1`, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("sum xp: %w", err)
	}
	return st, nil
}

func (p *Postgres) Recency(ctx context.Context, userID, topicID string) (selector.RecencyMap, error) {
	var rows []historyRow
	err := p.db.SelectContext(ctx, &rows,
		`SELECT session_id, user_id, topic_id, xp_earned, data FROM session_history
		 WHERE user_id = $1 AND topic_id = $2 ORDER BY seq DESC LIMIT $3`, userID, topicID, RecencyWindow)
	if err != nil {
		return nil, fmt.Errorf("query recency: %w", err)
	}
	history, err := decodeHistory(rows)
	if err != nil {
		return nil, err
	}
	return recencyFrom(history, topicID), nil
}

var _ Backend = (*Postgres)(nil)
