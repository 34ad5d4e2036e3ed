package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/practiz/internal/mastery"
	"github.com/abhisek/practiz/internal/selector"
	"github.com/abhisek/practiz/internal/session"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const (
	tableProgress = "concept_progress"
	tableHistory  = "session_history"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS concept_progress (
		user_id TEXT NOT NULL,
		concept_id TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, concept_id)
	)`,
	`CREATE TABLE IF NOT EXISTS session_history (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		topic_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		xp_earned INTEGER NOT NULL,
		data TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS session_history_user_seq ON session_history (user_id, seq)`,
}

// SQLite is the local, single-user storage realization.
type SQLite struct {
	drv *entsql.Driver
	seq *sequenceCounter
	now func() time.Time
}

// OpenSQLite opens the database at dsn, applies pragmas and creates the
// schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	seq, err := newSequenceCounter(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{drv: entsql.OpenDB(dialect.SQLite, db), seq: seq, now: time.Now}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *SQLite) DB() *sql.DB {
	return s.drv.DB()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.drv.Close()
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *SQLite) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (s *SQLite) LoadProgress(ctx context.Context, userID string) (*UserProgress, error) {
	b := s.builder()
	query, args := b.Select("data", "updated_at").
		From(b.Table(tableProgress)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	p := NewUserProgress(userID)
	for rows.Next() {
		var (
			raw     string
			updated int64
		)
		if err := rows.Scan(&raw, &updated); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		var cp mastery.ConceptProgress
		if err := json.Unmarshal([]byte(raw), &cp); err != nil {
			return nil, fmt.Errorf("decode progress: %w", err)
		}
		p.Concepts[cp.ConceptID] = &cp
		if t := time.UnixMilli(updated); t.After(p.UpdatedAt) {
			p.UpdatedAt = t
		}
	}
	return p, rows.Err()
}

func (s *SQLite) SaveProgress(ctx context.Context, p *UserProgress) (rerr error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if rerr != nil {
			tx.Rollback()
		}
	}()

	b := s.builder()
	updated := s.now().UnixMilli()
	for id, cp := range p.Concepts {
		raw, err := json.Marshal(cp)
		if err != nil {
			return fmt.Errorf("encode progress %s: %w", id, err)
		}
		query, args := b.Insert(tableProgress).
			Columns("user_id", "concept_id", "data", "updated_at").
			Values(p.UserID, id, string(raw), updated).
			OnConflict(entsql.ConflictColumns("user_id", "concept_id"), entsql.ResolveWithNewValues()).
			Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("save progress %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) LoadSessionHistory(ctx context.Context, userID string) ([]session.Summary, error) {
	return s.history(ctx, entsql.EQ("user_id", userID), 0)
}

func (s *SQLite) history(ctx context.Context, where *entsql.Predicate, limit int) ([]session.Summary, error) {
	b := s.builder()
	sel := b.Select("data").
		From(b.Table(tableHistory)).
		Where(where).
		OrderBy(entsql.Desc("seq"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []session.Summary{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		var sum session.Summary
		if err := json.Unmarshal([]byte(raw), &sum); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLite) SaveSessionToHistory(ctx context.Context, userID string, sum session.Summary) error {
	raw, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	seq, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	query, args := s.builder().Insert(tableHistory).
		Columns("session_id", "user_id", "topic_id", "seq", "xp_earned", "data").
		Values(sum.SessionID, userID, sum.TopicID, seq, sum.XPEarned, string(raw)).
		OnConflict(
			entsql.ConflictColumns("session_id"),
			// A resaved session keeps its place in history.
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("xp_earned").SetExcluded("data")
			}),
		).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

func (s *SQLite) ClearAllData(ctx context.Context, userID string) (rerr error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if rerr != nil {
			tx.Rollback()
		}
	}()
	for _, table := range []string{tableProgress, tableHistory} {
		query, args := s.builder().Delete(table).Where(entsql.EQ("user_id", userID)).Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Stats(ctx context.Context, userID string) (Stats, error) {
	p, err := s.LoadProgress(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	history, err := s.LoadSessionHistory(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return statsFrom(p, history), nil
}

func (s *SQLite) Recency(ctx context.Context, userID, topicID string) (selector.RecencyMap, error) {
	history, err := s.history(ctx, entsql.And(entsql.EQ("user_id", userID), entsql.EQ("topic_id", topicID)), RecencyWindow)
	if err != nil {
		return nil, err
	}
	return recencyFrom(history, topicID), nil
}

var _ Backend = (*SQLite)(nil)
