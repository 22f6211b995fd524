// Package store persists daily words, confirmed words, game snapshots and
// player statistics.
//
// Implementations:
//   - MemoryStore: local-only, process lifetime.
//   - SQLStore:    remote-backed via database/sql (SQLite drivers).
//   - Fallback:    wraps a remote Store and degrades to a local one.
package store

import (
	"context"
	"errors"

	"github.com/robalobadob/wordmaster/internal/daily"
	"github.com/robalobadob/wordmaster/internal/game"
	"github.com/robalobadob/wordmaster/internal/words"
)

// ErrNotFound is returned by LoadGameState when nothing was saved.
var ErrNotFound = errors.New("not found")

// Store is the persistence adapter used by the engine and the HTTP shell.
type Store interface {
	// ResolveDailyWord returns the solution for date, choosing and recording
	// one when none exists yet.
	ResolveDailyWord(ctx context.Context, date string) (string, error)

	LoadGameState(ctx context.Context, playerID, date string) (*game.State, error)
	SaveGameState(ctx context.Context, playerID, date string, st game.State) error

	// ApplyGameResult folds a completed game into the player's statistics
	// atomically. A second result for the same player and date is ignored.
	ApplyGameResult(ctx context.Context, r game.Result) (game.Stats, error)
	Statistics(ctx context.Context, playerID string) (game.Stats, error)

	HasValidWord(ctx context.Context, word string) (bool, error)
	PutValidWord(ctx context.Context, word string) error

	Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error)
}

// Every Store is usable as the engine's recorder.
var _ game.Recorder = Store(nil)

// LBRow is one leaderboard entry.
type LBRow struct {
	PlayerID  string `json:"playerId"`
	Guesses   int    `json:"guesses"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// pickDailyWord is the deterministic choice shared by every implementation,
// so a degraded session lands on the same word as the remote one would.
func pickDailyWord(list *words.List, salt, date string) string {
	n, _ := list.Stats()
	return list.At(daily.WordIndex(date, salt, n))
}

func emptyStats() game.Stats {
	return game.Stats{Distribution: map[int]int{}}
}
