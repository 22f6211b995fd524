// internal/store/memory.go
//
// In-memory implementation of Store.
// This is the local-only persistence used when no database is configured,
// and the fallback target when the remote store is unreachable.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Snapshots are copied in and out, callers never share memory with the store.

package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/robalobadob/wordmaster/internal/game"
	"github.com/robalobadob/wordmaster/internal/words"
)

type memoryResult struct {
	game.Result
	seq int
}

// MemoryStore is a map-based Store.
type MemoryStore struct {
	list *words.List
	salt string

	mu      sync.RWMutex
	daily   map[string]string                  // date → word
	valid   map[string]struct{}                // lower-case words
	games   map[string]game.State              // player|date → snapshot
	stats   map[string]game.Stats              // player → stats
	results map[string]map[string]memoryResult // date → player → result
	seq     int
}

// NewMemoryStore constructs an empty MemoryStore choosing daily words from list.
func NewMemoryStore(list *words.List, salt string) *MemoryStore {
	return &MemoryStore{
		list:    list,
		salt:    salt,
		daily:   make(map[string]string),
		valid:   make(map[string]struct{}),
		games:   make(map[string]game.State),
		stats:   make(map[string]game.Stats),
		results: make(map[string]map[string]memoryResult),
	}
}

func gameKey(playerID, date string) string { return playerID + "|" + date }

// ResolveDailyWord returns the recorded word or records the deterministic pick.
func (m *MemoryStore) ResolveDailyWord(ctx context.Context, date string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.daily[date]; ok {
		return w, nil
	}
	w := pickDailyWord(m.list, m.salt, date)
	m.daily[date] = w
	return w, nil
}

// LoadGameState returns a copy of the saved snapshot or ErrNotFound.
func (m *MemoryStore) LoadGameState(ctx context.Context, playerID, date string) (*game.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.games[gameKey(playerID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	c := st.Clone()
	return &c, nil
}

// SaveGameState upserts a copy of st.
func (m *MemoryStore) SaveGameState(ctx context.Context, playerID, date string, st game.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[gameKey(playerID, date)] = st.Clone()
	return nil
}

// ApplyGameResult updates statistics under the write lock.
func (m *MemoryStore) ApplyGameResult(ctx context.Context, r game.Result) (game.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.stats[r.PlayerID]
	if !ok {
		cur = emptyStats()
	}
	byPlayer := m.results[r.Date]
	if byPlayer == nil {
		byPlayer = make(map[string]memoryResult)
		m.results[r.Date] = byPlayer
	}
	if _, dup := byPlayer[r.PlayerID]; dup {
		return cur.Clone(), nil
	}
	m.seq++
	byPlayer[r.PlayerID] = memoryResult{Result: r, seq: m.seq}
	next := cur.Apply(r.Won, r.Guesses)
	m.stats[r.PlayerID] = next
	return next.Clone(), nil
}

// HasStatistics reports whether the store holds a stats record for playerID.
func (m *MemoryStore) HasStatistics(playerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.stats[playerID]
	return ok
}

// SeedStatistics installs st as the player's baseline unless a record exists.
func (m *MemoryStore) SeedStatistics(playerID string, st game.Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stats[playerID]; !ok {
		m.stats[playerID] = st.Clone()
	}
}

// Statistics returns the player's stats (zero value when unknown).
func (m *MemoryStore) Statistics(ctx context.Context, playerID string) (game.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.stats[playerID]; ok {
		return st.Clone(), nil
	}
	return emptyStats(), nil
}

// HasValidWord reports whether word was confirmed before.
func (m *MemoryStore) HasValidWord(ctx context.Context, word string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.valid[strings.ToLower(word)]
	return ok, nil
}

// PutValidWord records a confirmed word.
func (m *MemoryStore) PutValidWord(ctx context.Context, word string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid[strings.ToLower(word)] = struct{}{}
	return nil
}

// Leaderboard returns winners for date ordered by time, then guesses, then
// arrival.
func (m *MemoryStore) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	m.mu.RLock()
	var rs []memoryResult
	for _, r := range m.results[date] {
		if r.Won {
			rs = append(rs, r)
		}
	}
	m.mu.RUnlock()

	sort.Slice(rs, func(i, j int) bool {
		if rs[i].ElapsedMs != rs[j].ElapsedMs {
			return rs[i].ElapsedMs < rs[j].ElapsedMs
		}
		if rs[i].Guesses != rs[j].Guesses {
			return rs[i].Guesses < rs[j].Guesses
		}
		return rs[i].seq < rs[j].seq
	})
	out := make([]LBRow, 0, min(limit, len(rs)))
	for i := 0; i < len(rs) && i < limit; i++ {
		out = append(out, LBRow{PlayerID: rs[i].PlayerID, Guesses: rs[i].Guesses, ElapsedMs: rs[i].ElapsedMs})
	}
	return out, nil
}
