// internal/store/memory.go
//
// In-memory registry of live round sessions.
// Rounds are never persisted; a session lives as long as its runner.
//
// Characteristics:
//   - Sessions keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Sweep closes sessions idle longer than a TTL.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/memory/internal/game"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Session is one player's live game: a runner, its feed and its owner.
type Session struct {
	ID     string
	UserID string // empty for guests
	Runner *game.Runner
	Feed   *game.Feed

	cancel context.CancelFunc

	mu       sync.Mutex
	lastSeen time.Time
}

// NewSession starts r's event loop under parent. Close stops it.
func NewSession(parent context.Context, id, userID string, r *game.Runner, feed *game.Feed) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{ID: id, UserID: userID, Runner: r, Feed: feed, cancel: cancel, lastSeen: time.Now()}
	go func() { _ = r.Run(ctx) }()
	return s
}

// Touch marks the session as active.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close stops the runner and disconnects feed subscribers.
func (s *Session) Close() {
	s.cancel()
	<-s.Runner.Done()
	if s.Feed != nil {
		s.Feed.Close()
	}
}

// Store defines the registry interface for live sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session does not exist.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete closes and forgets a session.
	Delete(ctx context.Context, id string) error
}

// Memory is a map-based Store.
type Memory struct {
	mu       sync.RWMutex        // guards sessions map
	sessions map[string]*Session // keyed by Session.ID
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{sessions: make(map[string]*Session)}
}

// Save adds or updates the session in the map.
func (m *Memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

// Get looks up a session by ID and marks it active.
func (m *Memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.Touch()
	return s, nil
}

// Delete closes the session if present.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	return nil
}

// Len is the number of live sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than ttl and returns how many it closed.
func (m *Memory) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	var stale []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// Janitor sweeps every interval until ctx is done.
func (m *Memory) Janitor(ctx context.Context, interval, ttl time.Duration, onSweep func(n int)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(ttl); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

// CloseAll stops every session; used on shutdown.
func (m *Memory) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
