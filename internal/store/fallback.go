package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordmaster/internal/game"
)

// Fallback serves from a remote primary and degrades to a local Store when a
// call fails. Failures are logged and never returned to gameplay, except when
// both stores fail.
type Fallback struct {
	primary Store
	local   Store
}

// NewFallback wraps primary. local is usually a MemoryStore built with the
// same word list and salt, so the degraded daily word matches.
func NewFallback(primary, local Store) *Fallback {
	return &Fallback{primary: primary, local: local}
}

func persistenceFailure(op string, err error) {
	log.Warn().Err(err).Str("op", op).Str("kind", "PersistenceFailure").Msg("remote store failed, using local")
}

func (f *Fallback) ResolveDailyWord(ctx context.Context, date string) (string, error) {
	w, err := f.primary.ResolveDailyWord(ctx, date)
	if err == nil {
		return w, nil
	}
	persistenceFailure("resolve_daily_word", err)
	return f.local.ResolveDailyWord(ctx, date)
}

// LoadGameState treats a remote failure as "nothing saved remotely" and
// answers from the local copy, which also holds saves made during an outage.
func (f *Fallback) LoadGameState(ctx context.Context, playerID, date string) (*game.State, error) {
	st, err := f.primary.LoadGameState(ctx, playerID, date)
	switch {
	case err == nil:
		return st, nil
	case !errors.Is(err, ErrNotFound):
		persistenceFailure("load_game_state", err)
	}
	return f.local.LoadGameState(ctx, playerID, date)
}

func (f *Fallback) SaveGameState(ctx context.Context, playerID, date string, st game.State) error {
	err := f.primary.SaveGameState(ctx, playerID, date, st)
	if err == nil {
		return nil
	}
	persistenceFailure("save_game_state", err)
	return f.local.SaveGameState(ctx, playerID, date, st)
}

// statsSeeder is implemented by local stores that can take a baseline.
type statsSeeder interface {
	HasStatistics(playerID string) bool
	SeedStatistics(playerID string, st game.Stats)
}

// ApplyGameResult folds a result into the local copy when the primary fails.
// The local record is first seeded from the primary's stats; if those cannot
// be read either, the call fails rather than report stats built from zero.
func (f *Fallback) ApplyGameResult(ctx context.Context, r game.Result) (game.Stats, error) {
	st, err := f.primary.ApplyGameResult(ctx, r)
	if err == nil {
		return st, nil
	}
	persistenceFailure("apply_game_result", err)
	if s, ok := f.local.(statsSeeder); ok && !s.HasStatistics(r.PlayerID) {
		base, serr := f.primary.Statistics(ctx, r.PlayerID)
		if serr != nil {
			return game.Stats{}, fmt.Errorf("apply game result: no baseline stats: %w", errors.Join(err, serr))
		}
		s.SeedStatistics(r.PlayerID, base)
	}
	return f.local.ApplyGameResult(ctx, r)
}

func (f *Fallback) Statistics(ctx context.Context, playerID string) (game.Stats, error) {
	st, err := f.primary.Statistics(ctx, playerID)
	if err == nil {
		return st, nil
	}
	persistenceFailure("statistics", err)
	return f.local.Statistics(ctx, playerID)
}

func (f *Fallback) HasValidWord(ctx context.Context, word string) (bool, error) {
	ok, err := f.primary.HasValidWord(ctx, word)
	if err == nil {
		return ok, nil
	}
	persistenceFailure("has_valid_word", err)
	return f.local.HasValidWord(ctx, word)
}

func (f *Fallback) PutValidWord(ctx context.Context, word string) error {
	err := f.primary.PutValidWord(ctx, word)
	if err == nil {
		return nil
	}
	persistenceFailure("put_valid_word", err)
	return f.local.PutValidWord(ctx, word)
}

func (f *Fallback) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	rows, err := f.primary.Leaderboard(ctx, date, limit)
	if err == nil {
		return rows, nil
	}
	persistenceFailure("leaderboard", err)
	return f.local.Leaderboard(ctx, date, limit)
}
