// internal/store/sql.go
//
// database/sql implementation of Store for SQLite.
// Works with both registered drivers (mattn "sqlite3" and modernc "sqlite");
// the caller opens the *sql.DB and runs Migrate first.
//
// Notes:
//   - The daily word is first-writer-wins via INSERT OR IGNORE, then re-read.
//   - Statistics are updated in one transaction whose first statement is the
//     daily_results insert, so the write lock is taken before stats are read
//     and a duplicate result is detected without touching player_stats.
//   - Busy/locked errors are retried with exponential backoff.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/robalobadob/wordmaster/internal/game"
	"github.com/robalobadob/wordmaster/internal/words"
)

var tracer = otel.Tracer("github.com/robalobadob/wordmaster/internal/store")

// SQLStore is safe for concurrent use.
type SQLStore struct {
	db   *sql.DB
	list *words.List
	salt string

	busy     func(error) bool
	maxTries uint
	now      func() time.Time
}

// SQLOption customises an SQLStore.
type SQLOption func(*SQLStore)

// WithBusyCheck adds a driver-specific classifier for retryable lock errors.
func WithBusyCheck(fn func(error) bool) SQLOption {
	return func(s *SQLStore) {
		prev := s.busy
		s.busy = func(err error) bool { return prev(err) || fn(err) }
	}
}

// WithMaxTries bounds the statistics transaction attempts. Default 5.
func WithMaxTries(n uint) SQLOption {
	return func(s *SQLStore) {
		if n > 0 {
			s.maxTries = n
		}
	}
}

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(db *sql.DB, list *words.List, salt string, opts ...SQLOption) *SQLStore {
	s := &SQLStore{
		db:       db,
		list:     list,
		salt:     salt,
		busy:     isBusy,
		maxTries: 5,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// isBusy recognises modernc lock errors and, by message, any other driver's.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked")
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *SQLStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// ResolveDailyWord returns the stored word for date, recording the
// deterministic pick when none exists. Concurrent first calls agree on the
// row that won the insert.
func (s *SQLStore) ResolveDailyWord(ctx context.Context, date string) (word string, err error) {
	ctx, span := tracer.Start(ctx, "store.resolve_daily_word")
	span.SetAttributes(attribute.String("date", date))
	defer func() { endSpan(span, err) }()

	word, err = s.readDailyWord(ctx, date)
	if err == nil {
		return word, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	pick := pickDailyWord(s.list, s.salt, date)
	if _, werr := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_words(date, word) VALUES (?, ?)`, date, pick); werr != nil {
		// Another writer may have succeeded; the re-read decides.
		log.Warn().Err(werr).Str("date", date).Msg("daily word insert failed")
	}

	word, err = s.readDailyWord(ctx, date)
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("daily word for %s not recorded", date)
	}
	return word, err
}

func (s *SQLStore) readDailyWord(ctx context.Context, date string) (string, error) {
	var w string
	err := s.db.QueryRowContext(ctx, `SELECT word FROM daily_words WHERE date=?`, date).Scan(&w)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read daily word: %w", err)
	}
	return words.Normalize(w), nil
}

// LoadGameState returns the saved snapshot or ErrNotFound.
func (s *SQLStore) LoadGameState(ctx context.Context, playerID, date string) (st *game.State, err error) {
	ctx, span := tracer.Start(ctx, "store.load_game_state")
	span.SetAttributes(attribute.String("date", date))
	defer func() { endSpan(span, err) }()

	var raw string
	err = s.db.QueryRowContext(ctx,
		`SELECT state FROM game_states WHERE player_id=? AND date=?`, playerID, date).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game state: %w", err)
	}
	var out game.State
	if err = json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode game state: %w", err)
	}
	return &out, nil
}

// SaveGameState upserts the snapshot for (playerID, date).
func (s *SQLStore) SaveGameState(ctx context.Context, playerID, date string, st game.State) (err error) {
	ctx, span := tracer.Start(ctx, "store.save_game_state")
	span.SetAttributes(attribute.String("date", date), attribute.Int("guesses", len(st.Guesses)))
	defer func() { endSpan(span, err) }()

	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode game state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_states(player_id, date, status, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(player_id, date) DO UPDATE SET
			status = excluded.status,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		playerID, date, string(st.Status), string(b), s.stamp())
	if err != nil {
		return fmt.Errorf("save game state: %w", err)
	}
	return nil
}

// ApplyGameResult records r and folds it into the player's statistics in one
// transaction. A repeated result for the same player and date returns the
// current statistics unchanged.
func (s *SQLStore) ApplyGameResult(ctx context.Context, r game.Result) (out game.Stats, err error) {
	ctx, span := tracer.Start(ctx, "store.apply_game_result")
	span.SetAttributes(
		attribute.String("date", r.Date),
		attribute.Bool("won", r.Won),
		attribute.Int("guesses", r.Guesses),
	)
	defer func() { endSpan(span, err) }()

	attempt := 0
	op := func() (game.Stats, error) {
		attempt++
		st, err := s.applyOnce(ctx, r)
		if err == nil {
			return st, nil
		}
		if s.busy(err) {
			log.Debug().Err(err).Int("attempt", attempt).Msg("stats transaction busy, retrying")
			return game.Stats{}, err
		}
		return game.Stats{}, backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	out, err = backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxTries(s.maxTries))
	if err != nil {
		return game.Stats{}, fmt.Errorf("apply game result: %w", err)
	}
	span.SetAttributes(attribute.Int("attempts", attempt))
	return out, nil
}

func (s *SQLStore) applyOnce(ctx context.Context, r game.Result) (game.Stats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return game.Stats{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO daily_results(player_id, date, won, guesses, elapsed_ms)
		VALUES (?, ?, ?, ?, ?)`,
		r.PlayerID, r.Date, boolInt(r.Won), r.Guesses, r.ElapsedMs)
	if err != nil {
		return game.Stats{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return game.Stats{}, err
	}

	cur, err := readStats(ctx, tx, r.PlayerID)
	if err != nil {
		return game.Stats{}, err
	}
	if n == 0 {
		return cur, tx.Commit()
	}

	next := cur.Apply(r.Won, r.Guesses)
	dist, err := json.Marshal(next.Distribution)
	if err != nil {
		return game.Stats{}, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO player_stats(player_id, games_played, games_won, current_streak, max_streak, distribution, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			games_played = excluded.games_played,
			games_won = excluded.games_won,
			current_streak = excluded.current_streak,
			max_streak = excluded.max_streak,
			distribution = excluded.distribution,
			updated_at = excluded.updated_at`,
		r.PlayerID, next.GamesPlayed, next.GamesWon, next.CurrentStreak, next.MaxStreak, string(dist), s.stamp())
	if err != nil {
		return game.Stats{}, err
	}
	if err := tx.Commit(); err != nil {
		return game.Stats{}, err
	}
	return next, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readStats(ctx context.Context, q queryRower, playerID string) (game.Stats, error) {
	st := emptyStats()
	var dist string
	err := q.QueryRowContext(ctx, `
		SELECT games_played, games_won, current_streak, max_streak, distribution
		FROM player_stats WHERE player_id=?`, playerID).
		Scan(&st.GamesPlayed, &st.GamesWon, &st.CurrentStreak, &st.MaxStreak, &dist)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return game.Stats{}, err
	}
	if dist != "" {
		if err := json.Unmarshal([]byte(dist), &st.Distribution); err != nil {
			return game.Stats{}, fmt.Errorf("decode distribution: %w", err)
		}
	}
	return st, nil
}

// Statistics returns the player's stats (zero value when unknown).
func (s *SQLStore) Statistics(ctx context.Context, playerID string) (st game.Stats, err error) {
	ctx, span := tracer.Start(ctx, "store.statistics")
	defer func() { endSpan(span, err) }()

	st, err = readStats(ctx, s.db, playerID)
	if err != nil {
		return game.Stats{}, fmt.Errorf("read statistics: %w", err)
	}
	return st, nil
}

// HasValidWord reports whether word was confirmed before.
func (s *SQLStore) HasValidWord(ctx context.Context, word string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM valid_words WHERE word=?`, strings.ToLower(word)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read valid word: %w", err)
	}
	return true, nil
}

// PutValidWord records a confirmed word; duplicates are ignored.
func (s *SQLStore) PutValidWord(ctx context.Context, word string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO valid_words(word) VALUES (?)`, strings.ToLower(word))
	if err != nil {
		return fmt.Errorf("put valid word: %w", err)
	}
	return nil
}

// Leaderboard returns winners for date: fastest first, then fewest guesses,
// then earliest finish.
func (s *SQLStore) Leaderboard(ctx context.Context, date string, limit int) (out []LBRow, err error) {
	ctx, span := tracer.Start(ctx, "store.leaderboard")
	span.SetAttributes(attribute.String("date", date))
	defer func() { endSpan(span, err) }()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, guesses, elapsed_ms
		FROM daily_results
		WHERE date=? AND won=1
		ORDER BY elapsed_ms ASC, guesses ASC, created_at ASC
		LIMIT ?`, date, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	out = make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err = rows.Scan(&r.PlayerID, &r.Guesses, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
