// internal/scores/store.go
//
// Best-times persistence.
// Responsibilities:
//   - Record a winning time, optionally attributed to a player.
//   - List the best times: fastest first, ties broken by most recent first.
//
// Backends:
//   - SQLStore (this file): sqlite3 or mysql through database/sql.
//   - RedisStore (redis.go): a sorted set.
//
// Timestamps are assigned at insert time by the store, never by the caller.

package scores

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/robalobadob/memory/internal/game"
)

// DefaultLimit is the size of the best-times board.
const DefaultLimit = 10

// DateLayout formats record dates as day-month-year hour:minute:second.
const DateLayout = "02-01-2006 15:04:05"

// ErrInvalidTime rejects negative times.
var ErrInvalidTime = errors.New("time must be a non-negative integer")

// Record is one row of the best-times board.
type Record struct {
	Time   int    `json:"time"`             // seconds
	Date   string `json:"date"`             // DateLayout, server local time
	Player string `json:"player,omitempty"` // username when the time was attributed
}

// Player identifies who set a time. The zero value is anonymous.
type Player struct {
	ID   string
	Name string
}

// Store is the scores service persistence boundary.
type Store interface {
	// Add records a time in seconds.
	Add(ctx context.Context, seconds int, p Player) error
	// Best returns up to limit records, fastest first, newest first on ties.
	Best(ctx context.Context, limit int) ([]Record, error)
}

// Recorder adapts a Store to the game controller's Scores collaborator.
func Recorder(st Store, p Player) game.Scores {
	return game.ScoresFunc(func(ctx context.Context, seconds int) error {
		return st.Add(ctx, seconds, p)
	})
}

// SQLStore keeps scores in the `scores` table.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLStore wraps a migrated database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// Add inserts a score row stamped with the current time.
func (s *SQLStore) Add(ctx context.Context, seconds int, p Player) error {
	if seconds < 0 {
		return ErrInvalidTime
	}
	var uid sql.NullString
	if p.ID != "" {
		uid = sql.NullString{String: p.ID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (seconds, created_ms, user_id) VALUES (?, ?, ?)`,
		seconds, s.now().UnixMilli(), uid,
	)
	return err
}

// Best lists the fastest times.
func (s *SQLStore) Best(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT s.seconds, s.created_ms, COALESCE(u.username, '')
        FROM scores s
        LEFT JOIN users u ON u.id = s.user_id
        ORDER BY s.seconds ASC, s.created_ms DESC, s.id DESC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var (
			r  Record
			ms int64
		)
		if err := rows.Scan(&r.Time, &ms, &r.Player); err != nil {
			return nil, err
		}
		r.Date = time.UnixMilli(ms).Local().Format(DateLayout)
		out = append(out, r)
	}
	return out, rows.Err()
}
